package features

import (
	"time"
)

// UpsetIndicators are display-only annotations derived from the public-money
// rank. They are never part of the model's input features.
type UpsetIndicators struct {
	// SurpriseCount is how often the horse won in the last year while not
	// publicly favored (public-money rank above 3 or missing).
	SurpriseCount float64
	// BubbleCount is how often the horse missed the top 4 in the last year
	// while publicly favored.
	BubbleCount float64
}

// ComputeUpset counts surprise wins and favorite flops over the 365 days
// before the cutoff.
func ComputeUpset(h *History, horse string, cutoff time.Time) UpsetIndicators {
	var out UpsetIndicators
	start := cutoff.AddDate(0, 0, -365)

	for _, r := range h.HorseBefore(horse, cutoff) {
		if r.EventDate.Before(start) {
			continue
		}
		favored := r.PublicMoneyRank != nil && *r.PublicMoneyRank <= 3
		if r.Won() && !favored {
			out.SurpriseCount++
		}
		if favored && r.Rank(0) > 3 {
			out.BubbleCount++
		}
	}
	return out
}

// OpponentQuality measures the strength of the fields a horse has recently
// faced: 70% the opponents' average class-weighted recent win rate, 30% the
// fraction of high-class opponents, over the horse's last six races.
func OpponentQuality(h *History, horse string, cutoff time.Time) float64 {
	last6 := h.HorseLastN(horse, cutoff, 6)
	if len(last6) == 0 {
		return 0
	}

	var ratios, forms []float64
	for _, race := range last6 {
		peers := h.RacePeers(race.RaceGroupKey)
		highCount, total := 0, 0
		formSum, formN := 0.0, 0
		for _, opp := range peers {
			if opp.HorseID == horse {
				continue
			}
			total++
			if ClassWeight(opp.RaceClass) >= 0.8 {
				highCount++
			}
			formSum += classWeightedWinRate(h, opp.HorseID, race.EventDate)
			formN++
		}
		if total == 0 {
			continue
		}
		ratios = append(ratios, float64(highCount)/float64(total))
		if formN > 0 {
			forms = append(forms, formSum/float64(formN))
		}
	}

	mean := func(vals []float64) float64 {
		if len(vals) == 0 {
			return 0
		}
		sum := 0.0
		for _, v := range vals {
			sum += v
		}
		return sum / float64(len(vals))
	}
	return 0.7*mean(forms) + 0.3*mean(ratios)
}

// classWeightedWinRate is an opponent's class-weighted win rate over its own
// last six races as of the given cutoff.
func classWeightedWinRate(h *History, horse string, cutoff time.Time) float64 {
	last6 := h.HorseLastN(horse, cutoff, 6)
	wins, denom := 0.0, 0.0
	for _, r := range last6 {
		cw := ClassWeight(r.RaceClass)
		denom += cw
		if r.Won() {
			wins += cw
		}
	}
	if denom == 0 {
		return 0
	}
	return wins / denom
}
