package ensemble

import "sort"

// GroupKFold partitions row indices into k validation folds while keeping
// every group (race) intact: no group ever appears in more than one fold.
// Groups are assigned largest-first to the currently smallest fold, with
// ties broken by first occurrence, so the split is fully deterministic.
func GroupKFold(groups []string, k int) [][]int {
	if k < 2 {
		k = 2
	}

	type groupInfo struct {
		key   string
		first int
		rows  []int
	}

	order := make([]*groupInfo, 0)
	byKey := make(map[string]*groupInfo)
	for i, g := range groups {
		gi, ok := byKey[g]
		if !ok {
			gi = &groupInfo{key: g, first: i}
			byKey[g] = gi
			order = append(order, gi)
		}
		gi.rows = append(gi.rows, i)
	}
	if k > len(order) {
		k = len(order)
	}
	if k < 2 {
		k = 2
	}

	sort.SliceStable(order, func(a, b int) bool {
		if len(order[a].rows) != len(order[b].rows) {
			return len(order[a].rows) > len(order[b].rows)
		}
		return order[a].first < order[b].first
	})

	folds := make([][]int, k)
	sizes := make([]int, k)
	for _, gi := range order {
		smallest := 0
		for f := 1; f < k; f++ {
			if sizes[f] < sizes[smallest] {
				smallest = f
			}
		}
		folds[smallest] = append(folds[smallest], gi.rows...)
		sizes[smallest] += len(gi.rows)
	}
	for _, fold := range folds {
		sort.Ints(fold)
	}
	return folds
}

// TrainIndices returns every row index not present in the given validation
// fold.
func TrainIndices(folds [][]int, fold, n int) []int {
	held := make(map[int]struct{}, len(folds[fold]))
	for _, i := range folds[fold] {
		held[i] = struct{}{}
	}
	train := make([]int, 0, n-len(held))
	for i := 0; i < n; i++ {
		if _, ok := held[i]; !ok {
			train = append(train, i)
		}
	}
	return train
}
