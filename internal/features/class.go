// Package features derives the point-in-time feature matrix the ensemble
// trains and predicts on. Every historical lookup is scoped to rows strictly
// before the featurized row's date and outside the caller's exclusion set.
package features

import (
	"strings"

	"github.com/yourusername/wincast/internal/models"
)

// RaceCategory is the normalized class of a race, detected from the free-text
// class string on the card.
type RaceCategory string

const (
	CategoryG1       RaceCategory = "G1"
	CategoryG2       RaceCategory = "G2"
	CategoryG3       RaceCategory = "G3"
	CategoryKV       RaceCategory = "KV"
	CategoryMaiden   RaceCategory = "MAIDEN"
	CategoryHandicap RaceCategory = "HANDICAP"
	CategoryCond     RaceCategory = "CONDITIONS"
	CategoryOther    RaceCategory = "OTHER"
)

var turkishFolder = strings.NewReplacer(
	"İ", "I", "Ş", "S", "Ğ", "G", "Ü", "U", "Ö", "O", "Ç", "C",
	"Â", "A", "Ê", "E", "Ô", "O",
	"ı", "I", "ş", "S", "ğ", "G", "ü", "U", "ö", "O", "ç", "C",
)

// NormalizeClassText uppercases and folds Turkish characters so category
// detection works on raw card text regardless of encoding quirks.
func NormalizeClassText(s string) string {
	return turkishFolder.Replace(strings.ToUpper(s))
}

// ClassifyRaceCategory maps a free-text race class string to its category.
// The mapping is deterministic substring detection over normalized text.
func ClassifyRaceCategory(text string) RaceCategory {
	ux := NormalizeClassText(text)
	switch {
	case strings.Contains(ux, "G1") || strings.Contains(ux, "G 1"):
		return CategoryG1
	case strings.Contains(ux, "G2") || strings.Contains(ux, "G 2"):
		return CategoryG2
	case strings.Contains(ux, "G3") || strings.Contains(ux, "G 3"):
		return CategoryG3
	case strings.Contains(ux, "KV") || strings.Contains(ux, "KISA VADE"):
		return CategoryKV
	case strings.Contains(ux, "MAID"):
		return CategoryMaiden
	case strings.Contains(ux, "HAND"):
		return CategoryHandicap
	case strings.Contains(ux, "SART"):
		return CategoryCond
	default:
		return CategoryOther
	}
}

// ClassWeight maps a race class string to its ordinal weight. The weight is
// used both as a raw feature and as a multiplier inside several aggregates.
func ClassWeight(text string) float64 {
	ux := NormalizeClassText(text)
	switch {
	case strings.Contains(ux, "G1") || strings.Contains(ux, "G 1"):
		return 1.4
	case strings.Contains(ux, "G2") || strings.Contains(ux, "G 2"):
		return 1.2
	case strings.Contains(ux, "G3") || strings.Contains(ux, "G 3"):
		return 1.0
	case strings.Contains(ux, "KV"):
		return 0.8
	case strings.Contains(ux, "SART"):
		return 0.5
	case strings.Contains(ux, "HAND"):
		return 0.45
	case strings.Contains(ux, "MAID"):
		return 0.35
	case strings.Contains(ux, "SATIS"):
		return 0.3
	default:
		return 0.4
	}
}

// headToHeadClassWeight is the coarser weight table used when scoring past
// pairwise meetings. Anything below KV collapses to 0.6.
func headToHeadClassWeight(text string) float64 {
	ux := NormalizeClassText(text)
	switch {
	case strings.Contains(ux, "G1") || strings.Contains(ux, "G 1"):
		return 1.4
	case strings.Contains(ux, "G2") || strings.Contains(ux, "G 2"):
		return 1.2
	case strings.Contains(ux, "G3") || strings.Contains(ux, "G 3"):
		return 1.0
	case strings.Contains(ux, "KV"):
		return 0.8
	default:
		return 0.6
	}
}

// CategoryWeight is the ordinal importance of a race category, used for
// weighted per-category performance scores.
func CategoryWeight(cat RaceCategory) float64 {
	switch cat {
	case CategoryG1:
		return 10
	case CategoryG2:
		return 9
	case CategoryG3:
		return 8
	case CategoryKV:
		return 7
	case CategoryCond:
		return 5
	case CategoryHandicap:
		return 4
	case CategoryMaiden:
		return 3
	default:
		return 2
	}
}

// IsTopTier reports whether a category counts as top-tier experience.
func (c RaceCategory) IsTopTier() bool {
	switch c {
	case CategoryG1, CategoryG2, CategoryG3, CategoryKV:
		return true
	}
	return false
}

// AgeGroupLevel scores the age-group restriction of a race. Open races for
// four-year-olds and up are the top level.
func AgeGroupLevel(group string) float64 {
	ux := NormalizeClassText(group)
	switch {
	case strings.Contains(ux, "4 VE YUKAR"):
		return 5
	case strings.Contains(ux, "3 YASL"):
		return 3
	case strings.Contains(ux, "2 YASL"):
		return 1
	default:
		return 4
	}
}

// SurfaceSimilarity scores how comparable two track surfaces are. Sand and
// synthetic ride similarly enough to transfer experience.
func SurfaceSimilarity(a, b models.TrackSurface) float64 {
	if a == b {
		return 1.0
	}
	if a.IsSandLike() && b.IsSandLike() {
		return 0.7
	}
	return 0.5
}

// DistanceSimilarity scores how comparable two race distances are.
func DistanceSimilarity(a, b int) float64 {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= 200:
		return 1.0
	case diff <= 400:
		return 0.85
	case diff <= 600:
		return 0.7
	case diff <= 1000:
		return 0.5
	default:
		return 0.3
	}
}

// DistanceBucket groups a race distance into coarse trip bands.
func DistanceBucket(meters int) string {
	switch {
	case meters <= 0:
		return "unknown"
	case meters < 1400:
		return "short"
	case meters < 1800:
		return "mid"
	default:
		return "long"
	}
}
