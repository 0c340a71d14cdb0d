package features

import (
	"math"
	"time"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/models"
)

// FormSignals holds the per-horse recent-form block. Weighted variants are
// rescaled copies that give the signal more numerical separation inside the
// tree models.
type FormSignals struct {
	Last3Form         float64
	Last5Form         float64
	Last3FormWeighted float64
	Last5FormWeighted float64

	LastWin           float64
	LastWinWeighted   float64
	Last2Wins         float64
	Last2WinsWeighted float64

	FormTrend float64

	SimilarCondScore         float64
	SimilarCondScoreWeighted float64

	LastRank              float64
	LastRankScore         float64
	LastRankScoreWeighted float64

	Last6GroupScore           float64
	ClassWeightedAvgRankLast6 float64
	ClassWeightedWinRateLast6 float64
	HighClassRatioLast6       float64

	FormScore         float64
	FormScoreWeighted float64
}

// rankToScore maps a finish rank to [0,1]: a win is 1.0, decaying by step per
// place, zero from rank 10 onward.
func rankToScore(rank, step float64) float64 {
	if rank <= 1 {
		return 1.0
	}
	if rank >= 10 {
		return 0.0
	}
	return math.Max(0.0, 1.0-(rank-1)*step)
}

// ComputeForm derives the form block for one horse as of the given cutoff,
// using only runs strictly before the cutoff day.
func ComputeForm(h *History, horse string, surface models.TrackSurface, distance int, cutoff time.Time, cfg *config.FeaturesConfig) FormSignals {
	out := FormSignals{
		LastRank:                  10,
		ClassWeightedAvgRankLast6: 10,
	}

	past := h.HorseLastN(horse, cutoff, 6) // newest first
	if len(past) == 0 {
		return out
	}

	// Exponentially decayed win rate over the last 3 runs, newest weighted
	// most.
	n3 := len(past)
	if n3 > 3 {
		n3 = 3
	}
	wSum, dot := 0.0, 0.0
	for i := 0; i < n3; i++ {
		w := math.Exp(-cfg.FormDecayLast3 * float64(i))
		wSum += w
		if past[i].Won() {
			dot += w
		}
	}
	if wSum > 0 {
		out.Last3Form = dot / wSum
	}

	// Plain win rate over the last 5.
	n5 := len(past)
	if n5 > 5 {
		n5 = 5
	}
	wins5 := 0
	for i := 0; i < n5; i++ {
		if past[i].Won() {
			wins5++
		}
	}
	out.Last5Form = float64(wins5) / float64(n5)

	// Class- and recency-weighted rank score over the last 6.
	effSum, effDot := 0.0, 0.0
	for i, r := range past {
		rec := math.Exp(-cfg.FormDecayLast6 * float64(i))
		cw := ClassWeight(r.RaceClass)
		eff := rec * cw
		effSum += eff
		effDot += eff * rankToScore(r.Rank(10), 0.15)
	}
	if effSum > 0 {
		out.Last6GroupScore = effDot / effSum
	}

	// Class-balanced recent rank: dividing by the class weight forgives a
	// poor finish in a better race.
	adjSum, adjN := 0.0, 0
	cwSum, cwWins := 0.0, 0.0
	highCount := 0
	for _, r := range past {
		cw := ClassWeight(r.RaceClass)
		if cw > 0 {
			adjSum += r.Rank(10) / cw
			adjN++
		}
		cwSum += cw
		if r.Won() {
			cwWins += cw
		}
		if cw >= 0.7 {
			highCount++
		}
	}
	if adjN > 0 {
		out.ClassWeightedAvgRankLast6 = adjSum / float64(adjN)
	}
	if cwSum > 0 {
		out.ClassWeightedWinRateLast6 = cwWins / cwSum
	}
	out.HighClassRatioLast6 = float64(highCount) / float64(len(past))

	// Last-result signals.
	if past[0].Won() {
		out.LastWin = 1
	}
	if len(past) >= 2 {
		for i := 0; i < 2; i++ {
			if past[i].Won() {
				out.Last2Wins++
			}
		}
	}
	out.LastRank = past[0].Rank(10)
	out.LastRankScore = rankToScore(out.LastRank, 0.1)

	// Form trend: last 3 wins vs the 3 before.
	if len(past) >= 6 {
		recent, earlier := 0.0, 0.0
		for i := 0; i < 3; i++ {
			if past[i].Won() {
				recent++
			}
			if past[i+3].Won() {
				earlier++
			}
		}
		out.FormTrend = recent/3 - earlier/3
	}

	// Most recent run under the same surface and distance.
	for _, r := range past {
		if r.Surface == surface && r.DistanceMeters == distance {
			rank := r.Rank(0)
			if rank == 1 {
				out.SimilarCondScore = 1.0
			} else if rank > 0 {
				out.SimilarCondScore = 1.0 / rank
			}
			break
		}
	}

	clsRankScore := math.Max(0.0, math.Min(1.0, 1.0-(out.ClassWeightedAvgRankLast6-1.0)*0.12))
	out.FormScore = clsRankScore*cfg.FormWeightClassRank +
		out.Last3Form*cfg.FormWeightLast3 +
		out.Last5Form*cfg.FormWeightLast5 +
		out.LastRankScore*cfg.FormWeightLastResult +
		out.SimilarCondScore*cfg.FormWeightSameCond

	out.Last3FormWeighted = out.Last3Form * cfg.ScaleLast3Form
	out.Last5FormWeighted = out.Last5Form * cfg.ScaleLast5Form
	out.Last2WinsWeighted = out.Last2Wins * cfg.ScaleLast2Wins
	out.LastRankScoreWeighted = out.LastRankScore * cfg.ScaleLastResult
	out.SimilarCondScoreWeighted = out.SimilarCondScore * cfg.ScaleSameCond
	out.FormScoreWeighted = out.FormScore * cfg.ScaleFormScore
	// Last-win boost is deliberately neutralized; the weighted variant stays
	// zero so the raw indicator is still visible to the trees.
	out.LastWinWeighted = 0

	return out
}

// ParseFormCode parses a compact recent-form string such as "C1C6K7C4"
// (surface letter followed by finish digit, 0 meaning tenth or worse) into an
// average form score and a win count.
func ParseFormCode(code string) (formPoints float64, winCount float64) {
	ranks := make([]int, 0, 6)
	for i := 0; i+1 < len(code); i++ {
		c := code[i]
		if c != 'C' && c != 'K' && c != 'c' && c != 'k' {
			continue
		}
		d := code[i+1]
		if d < '0' || d > '9' {
			continue
		}
		rank := int(d - '0')
		if rank == 0 {
			rank = 10
		}
		ranks = append(ranks, rank)
	}
	if len(ranks) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, r := range ranks {
		if p := 11 - r; p > 0 {
			sum += float64(p)
		}
		if r == 1 {
			winCount++
		}
	}
	return sum / float64(len(ranks)), winCount
}
