package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourusername/wincast/internal/models"
)

func TestClassifyRaceCategory(t *testing.T) {
	cases := []struct {
		text string
		want RaceCategory
	}{
		{"G 1 ÇİM", CategoryG1},
		{"g2 kum", CategoryG2},
		{"G3", CategoryG3},
		{"KV-7", CategoryKV},
		{"KISA VADE", CategoryKV},
		{"MAIDEN 3 YAŞLI", CategoryMaiden},
		{"HANDİKAP 16", CategoryHandicap},
		{"ŞARTLI 4", CategoryCond},
		{"SARTLI 2", CategoryCond},
		{"bilinmeyen", CategoryOther},
		{"", CategoryOther},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyRaceCategory(tc.text), "text=%q", tc.text)
	}
}

func TestClassWeight(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"G 1", 1.4},
		{"G2", 1.2},
		{"G 3", 1.0},
		{"KV-6", 0.8},
		{"ŞARTLI 1", 0.5},
		{"HANDİKAP 17", 0.45},
		{"MAIDEN", 0.35},
		{"SATIŞ 2", 0.3},
		{"başka bir şey", 0.4},
	}

	for _, tc := range cases {
		assert.InDelta(t, tc.want, ClassWeight(tc.text), 1e-9, "text=%q", tc.text)
	}
}

func TestCategoryWeightOrdering(t *testing.T) {
	order := []RaceCategory{
		CategoryG1, CategoryG2, CategoryG3, CategoryKV,
		CategoryCond, CategoryHandicap, CategoryMaiden, CategoryOther,
	}
	for i := 1; i < len(order); i++ {
		assert.Greater(t, CategoryWeight(order[i-1]), CategoryWeight(order[i]))
	}
}

func TestAgeGroupLevel(t *testing.T) {
	assert.Equal(t, 5.0, AgeGroupLevel("4 ve Yukarı Yaşlı İngilizler"))
	assert.Equal(t, 3.0, AgeGroupLevel("3 Yaşlı Araplar"))
	assert.Equal(t, 1.0, AgeGroupLevel("2 Yaşlı"))
	assert.Equal(t, 4.0, AgeGroupLevel("Safkan"))
}

func TestDistanceSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, DistanceSimilarity(1600, 1500))
	assert.Equal(t, 0.85, DistanceSimilarity(1600, 1300))
	assert.Equal(t, 0.7, DistanceSimilarity(1600, 1100))
	assert.Equal(t, 0.5, DistanceSimilarity(1600, 800))
	assert.Equal(t, 0.3, DistanceSimilarity(2400, 1200))
}

func TestSurfaceSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, SurfaceSimilarity(models.SurfaceTurf, models.SurfaceTurf))
	assert.Equal(t, 0.7, SurfaceSimilarity(models.SurfaceDirt, models.SurfaceSynthetic))
	assert.Equal(t, 0.5, SurfaceSimilarity(models.SurfaceTurf, models.SurfaceDirt))
}

func TestDistanceBucket(t *testing.T) {
	assert.Equal(t, "short", DistanceBucket(1200))
	assert.Equal(t, "mid", DistanceBucket(1600))
	assert.Equal(t, "long", DistanceBucket(2400))
	assert.Equal(t, "unknown", DistanceBucket(0))
}

func TestParseFormCode(t *testing.T) {
	points, wins := ParseFormCode("C1C6K7C6C4C5")
	// Ranks 1,6,7,6,4,5 -> points (10+5+4+5+7+6)/6
	assert.InDelta(t, 37.0/6.0, points, 1e-9)
	assert.Equal(t, 1.0, wins)

	points, wins = ParseFormCode("K0")
	assert.InDelta(t, 1.0, points, 1e-9) // rank 0 means tenth or worse
	assert.Equal(t, 0.0, wins)

	points, wins = ParseFormCode("")
	assert.Equal(t, 0.0, points)
	assert.Equal(t, 0.0, wins)
}
