package ensemble

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupKFoldKeepsGroupsIntact(t *testing.T) {
	groups := []string{"r1", "r1", "r2", "r2", "r3", "r3", "r4", "r4", "r5", "r5"}
	folds := GroupKFold(groups, 3)

	require.Len(t, folds, 3)

	seen := make(map[int]int)
	foldOfGroup := make(map[string]int)
	for f, fold := range folds {
		for _, i := range fold {
			seen[i]++
			g := groups[i]
			if prev, ok := foldOfGroup[g]; ok {
				assert.Equal(t, prev, f, "group %s split across folds", g)
			}
			foldOfGroup[g] = f
		}
	}
	for i := range groups {
		assert.Equal(t, 1, seen[i], "row %d not covered exactly once", i)
	}
}

func TestGroupKFoldDeterministic(t *testing.T) {
	groups := make([]string, 0, 30)
	for r := 0; r < 10; r++ {
		for h := 0; h < 3; h++ {
			groups = append(groups, fmt.Sprintf("race-%d", r))
		}
	}
	first := GroupKFold(groups, 4)
	second := GroupKFold(groups, 4)
	assert.Equal(t, first, second)
}

func TestGroupKFoldClampsToGroupCount(t *testing.T) {
	groups := []string{"a", "a", "b", "b"}
	folds := GroupKFold(groups, 5)
	assert.Len(t, folds, 2)
}

func TestTrainIndices(t *testing.T) {
	folds := [][]int{{0, 1}, {2, 3}, {4}}
	train := TrainIndices(folds, 1, 5)
	assert.Equal(t, []int{0, 1, 4}, train)
}
