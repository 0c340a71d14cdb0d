package features

import (
	"math"
	"time"

	"github.com/yourusername/wincast/internal/models"
)

// GeneralHeadToHead scores how dominant a horse has been over the opponents
// it actually met, averaged across its past races. Each race contributes the
// fraction of same-race opponents it outranked, weighted by class and
// recency. Only opponents from the same historical race count; there is no
// global comparison.
func GeneralHeadToHead(h *History, horse string, cutoff, now time.Time, halfLifeDays float64) float64 {
	past := h.HorseBefore(horse, cutoff)
	if len(past) == 0 {
		return 0
	}

	totalScore, totalWeight := 0.0, 0.0
	for _, race := range past {
		myRank := race.Rank(0)
		if myRank < 1 {
			continue
		}
		peers := h.RacePeers(race.RaceGroupKey)
		if len(peers) < 2 {
			continue
		}

		beaten, opponents := 0, 0
		for _, opp := range peers {
			if opp.HorseID == horse {
				continue
			}
			oppRank := opp.Rank(0)
			if oppRank < 1 {
				continue
			}
			opponents++
			if myRank < oppRank {
				beaten++
			}
		}
		if opponents == 0 {
			continue
		}

		days := now.Sub(race.EventDate).Hours() / 24
		if days < 0 {
			days = 0
		}
		weight := headToHeadClassWeight(race.RaceClass) * math.Exp(-days/halfLifeDays)
		totalScore += float64(beaten) / float64(opponents) * weight
		totalWeight += weight
	}

	if totalWeight == 0 {
		return 0
	}
	return totalScore / totalWeight
}

// similarityBoost rewards past meetings decided under conditions close to
// today's race; a verdict at the same trip and surface says much more than
// one at a different track profile.
func similarityBoost(distSim, surfSim float64) float64 {
	switch {
	case distSim >= 0.85 && surfSim >= 0.85:
		return 2.5
	case distSim >= 0.7 && surfSim >= 0.7:
		return 1.8
	case distSim >= 0.5 || surfSim >= 0.7:
		return 1.3
	default:
		return 1.0
	}
}

// PairwiseDominance accumulates, for every entrant of today's race, a signed
// score over all its past meetings with the other entrants. Each shared race
// contributes ±1 for the better finisher, weighted by race class, recency,
// and how similar the old race's trip and surface were to today's.
func PairwiseDominance(h *History, entrants []models.ParticipationRecord, now time.Time, halfLifeDays float64) []float64 {
	scores := make([]float64, len(entrants))
	if len(entrants) < 2 {
		return scores
	}

	curDistance := entrants[0].DistanceMeters
	curSurface := entrants[0].Surface

	for i := range entrants {
		hi := entrants[i].HorseID
		myRaces := h.HorseBefore(hi, now)
		myByRace := make(map[string]*models.ParticipationRecord, len(myRaces))
		for _, r := range myRaces {
			myByRace[r.RaceGroupKey] = r
		}

		for j := range entrants {
			if i == j {
				continue
			}
			hj := entrants[j].HorseID
			for _, opp := range h.HorseBefore(hj, now) {
				mine, ok := myByRace[opp.RaceGroupKey]
				if !ok {
					continue
				}
				myRank, oppRank := mine.Rank(0), opp.Rank(0)
				if myRank < 1 || oppRank < 1 {
					continue
				}
				better := 0.0
				if myRank < oppRank {
					better = 1.0
				} else if myRank > oppRank {
					better = -1.0
				}
				if better == 0 {
					continue
				}

				days := now.Sub(mine.EventDate).Hours() / 24
				if days < 0 {
					days = 0
				}
				rec := math.Exp(-days / halfLifeDays)
				distSim := DistanceSimilarity(curDistance, mine.DistanceMeters)
				surfSim := SurfaceSimilarity(curSurface, mine.Surface)

				w := ClassWeight(mine.RaceClass) * rec * distSim * surfSim * similarityBoost(distSim, surfSim)
				scores[i] += better * w
			}
		}
	}
	return scores
}
