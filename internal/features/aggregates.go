package features

import (
	"fmt"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/wincast/internal/dataset"
	"github.com/yourusername/wincast/internal/models"
)

// History is a read-only index over resolved past participations. Every
// lookup is scoped to rows strictly before a cutoff date and outside the
// exclusion set, so aggregate values can never leak the row being featurized
// or the prediction day itself.
type History struct {
	byHorse   map[string][]*models.ParticipationRecord
	byJockey  map[string][]*models.ParticipationRecord
	byTrainer map[string][]*models.ParticipationRecord
	byRace    map[string][]*models.ParticipationRecord

	excluded dataset.ExclusionSet
	cache    *gocache.Cache
}

// NewHistory indexes resolved records for point-in-time lookups. Rows without
// a known finish rank or on an excluded date never enter the index. Aggregate
// results are memoized per (statistic, key, cutoff day) for the given TTL.
func NewHistory(records []models.ParticipationRecord, excluded dataset.ExclusionSet, cacheTTL time.Duration) *History {
	h := &History{
		byHorse:   make(map[string][]*models.ParticipationRecord),
		byJockey:  make(map[string][]*models.ParticipationRecord),
		byTrainer: make(map[string][]*models.ParticipationRecord),
		byRace:    make(map[string][]*models.ParticipationRecord),
		excluded:  excluded,
		cache:     gocache.New(cacheTTL, 2*cacheTTL),
	}

	for i := range records {
		r := &records[i]
		if !r.HasResult() || excluded.Contains(r.EventDate) {
			continue
		}
		h.byHorse[r.HorseID] = append(h.byHorse[r.HorseID], r)
		if j := r.Jockey(); j != "" {
			h.byJockey[j] = append(h.byJockey[j], r)
		}
		if t := r.Trainer(); t != "" {
			h.byTrainer[t] = append(h.byTrainer[t], r)
		}
		h.byRace[r.RaceGroupKey] = append(h.byRace[r.RaceGroupKey], r)
	}

	byDate := func(rows []*models.ParticipationRecord) {
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].EventDate.Before(rows[b].EventDate)
		})
	}
	for _, rows := range h.byHorse {
		byDate(rows)
	}
	for _, rows := range h.byJockey {
		byDate(rows)
	}
	for _, rows := range h.byTrainer {
		byDate(rows)
	}
	return h
}

// before filters an indexed slice to rows strictly before the cutoff day.
// The slice is date-ascending, so a binary search bound would also work; the
// linear scan keeps same-day handling obvious.
func (h *History) before(rows []*models.ParticipationRecord, cutoff time.Time) []*models.ParticipationRecord {
	cutoffKey := dataset.DateKey(cutoff)
	out := make([]*models.ParticipationRecord, 0, len(rows))
	for _, r := range rows {
		if dataset.DateKey(r.EventDate) < cutoffKey {
			out = append(out, r)
		}
	}
	return out
}

// HorseBefore returns a horse's resolved runs strictly before the cutoff day,
// oldest first.
func (h *History) HorseBefore(horse string, cutoff time.Time) []*models.ParticipationRecord {
	return h.before(h.byHorse[horse], cutoff)
}

// HorseLastN returns a horse's most recent n runs before the cutoff, newest
// first.
func (h *History) HorseLastN(horse string, cutoff time.Time, n int) []*models.ParticipationRecord {
	past := h.HorseBefore(horse, cutoff)
	out := make([]*models.ParticipationRecord, 0, n)
	for i := len(past) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, past[i])
	}
	return out
}

// RacePeers returns the resolved field of a historical race group.
func (h *History) RacePeers(raceKey string) []*models.ParticipationRecord {
	return h.byRace[raceKey]
}

func (h *History) memoized(kind, key string, cutoff time.Time, compute func() float64) float64 {
	ck := fmt.Sprintf("%s|%s|%s", kind, key, dataset.DateKey(cutoff))
	if v, ok := h.cache.Get(ck); ok {
		return v.(float64)
	}
	v := compute()
	h.cache.SetDefault(ck, v)
	return v
}

func winRate(rows []*models.ParticipationRecord, match func(*models.ParticipationRecord) bool) float64 {
	wins, total := 0, 0
	for _, r := range rows {
		if !match(r) {
			continue
		}
		total++
		if r.Won() {
			wins++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(wins) / float64(total)
}

// HorseSurfaceDistanceWinRate is the horse's win fraction on this exact
// surface and distance.
func (h *History) HorseSurfaceDistanceWinRate(horse string, surface models.TrackSurface, distance int, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%s|%d", horse, surface, distance)
	return h.memoized("hsd", key, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(r *models.ParticipationRecord) bool {
			return r.Surface == surface && r.DistanceMeters == distance
		})
	})
}

// HorseDistanceWinRate is the horse's win fraction at this exact distance.
func (h *History) HorseDistanceWinRate(horse string, distance int, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%d", horse, distance)
	return h.memoized("hd", key, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(r *models.ParticipationRecord) bool {
			return r.DistanceMeters == distance
		})
	})
}

// HorseDistanceBandWinRate is the horse's win fraction within ±band meters of
// the distance.
func (h *History) HorseDistanceBandWinRate(horse string, distance, band int, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%d|%d", horse, distance, band)
	return h.memoized("hdb", key, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(r *models.ParticipationRecord) bool {
			return r.DistanceMeters >= distance-band && r.DistanceMeters <= distance+band
		})
	})
}

// HorseSurfaceWinRate is the horse's win fraction on this surface type.
func (h *History) HorseSurfaceWinRate(horse string, surface models.TrackSurface, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%s", horse, surface)
	return h.memoized("hs", key, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(r *models.ParticipationRecord) bool {
			return r.Surface == surface
		})
	})
}

// HorseSurfaceExperience scores the horse's average finish on this surface on
// a 1.0 (always wins) to 0.2 (fifth or worse, or no experience) scale. A
// horse with no runs on a sand-like surface borrows the other sand-like
// surface's record.
func (h *History) HorseSurfaceExperience(horse string, surface models.TrackSurface, cutoff time.Time, noExperience float64) float64 {
	key := fmt.Sprintf("%s|%s", horse, surface)
	return h.memoized("hse", key, cutoff, func() float64 {
		past := h.HorseBefore(horse, cutoff)
		runs := surfaceRuns(past, surface)
		if len(runs) == 0 && surface.IsSandLike() {
			alt := models.SurfaceDirt
			if surface == models.SurfaceDirt {
				alt = models.SurfaceSynthetic
			}
			runs = surfaceRuns(past, alt)
		}
		if len(runs) == 0 {
			return noExperience
		}
		sum := 0.0
		for _, r := range runs {
			sum += r.Rank(10)
		}
		avg := sum / float64(len(runs))
		score := 1.0 - (avg-1.0)*0.2
		if score < noExperience {
			score = noExperience
		}
		return score
	})
}

func surfaceRuns(rows []*models.ParticipationRecord, surface models.TrackSurface) []*models.ParticipationRecord {
	out := make([]*models.ParticipationRecord, 0, len(rows))
	for _, r := range rows {
		if r.Surface == surface {
			out = append(out, r)
		}
	}
	return out
}

// HorseOverallWinRate is the horse's career win fraction.
func (h *History) HorseOverallWinRate(horse string, cutoff time.Time) float64 {
	return h.memoized("ho", horse, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(*models.ParticipationRecord) bool { return true })
	})
}

// HorseCategoryWinRate is the horse's win fraction in races of this category.
func (h *History) HorseCategoryWinRate(horse string, cat RaceCategory, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%s", horse, cat)
	return h.memoized("hc", key, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(r *models.ParticipationRecord) bool {
			return ClassifyRaceCategory(r.RaceClass) == cat
		})
	})
}

// HorseCategoryWeightedPerf averages win indicators weighted by the ordinal
// category weight, rewarding wins in better races.
func (h *History) HorseCategoryWeightedPerf(horse string, cutoff time.Time) float64 {
	return h.memoized("hcw", horse, cutoff, func() float64 {
		past := h.HorseBefore(horse, cutoff)
		if len(past) == 0 {
			return 0
		}
		sum := 0.0
		for _, r := range past {
			if r.Won() {
				sum += CategoryWeight(ClassifyRaceCategory(r.RaceClass))
			}
		}
		return sum / float64(len(past))
	})
}

// HorseAgeGroupWinRate is the horse's win fraction in races with this
// age-group restriction.
func (h *History) HorseAgeGroupWinRate(horse, ageGroup string, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%s", horse, ageGroup)
	return h.memoized("hag", key, cutoff, func() float64 {
		return winRate(h.HorseBefore(horse, cutoff), func(r *models.ParticipationRecord) bool {
			return r.AgeGroup == ageGroup
		})
	})
}

// HorseAgeLevelPerf averages win indicators weighted by the age-group level.
func (h *History) HorseAgeLevelPerf(horse string, cutoff time.Time) float64 {
	return h.memoized("hal", horse, cutoff, func() float64 {
		past := h.HorseBefore(horse, cutoff)
		if len(past) == 0 {
			return 0
		}
		sum := 0.0
		for _, r := range past {
			if r.Won() {
				sum += AgeGroupLevel(r.AgeGroup)
			}
		}
		return sum / float64(len(past))
	})
}

// JockeyHorseWinRate is the win fraction of this jockey-horse partnership.
func (h *History) JockeyHorseWinRate(jockey, horse string, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%s", jockey, horse)
	return h.memoized("jh", key, cutoff, func() float64 {
		return winRate(h.before(h.byJockey[jockey], cutoff), func(r *models.ParticipationRecord) bool {
			return r.HorseID == horse
		})
	})
}

// JockeyWinRate is the jockey's overall win fraction.
func (h *History) JockeyWinRate(jockey string, cutoff time.Time) float64 {
	return h.memoized("j", jockey, cutoff, func() float64 {
		return winRate(h.before(h.byJockey[jockey], cutoff), func(*models.ParticipationRecord) bool { return true })
	})
}

// JockeyDistanceWinRate is the jockey's win fraction at this exact distance.
func (h *History) JockeyDistanceWinRate(jockey string, distance int, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%d", jockey, distance)
	return h.memoized("jd", key, cutoff, func() float64 {
		return winRate(h.before(h.byJockey[jockey], cutoff), func(r *models.ParticipationRecord) bool {
			return r.DistanceMeters == distance
		})
	})
}

// TrainerWinRate is the trainer's overall win fraction.
func (h *History) TrainerWinRate(trainer string, cutoff time.Time) float64 {
	return h.memoized("t", trainer, cutoff, func() float64 {
		return winRate(h.before(h.byTrainer[trainer], cutoff), func(*models.ParticipationRecord) bool { return true })
	})
}

// TrainerDistanceWinRate is the trainer's win fraction at this distance.
func (h *History) TrainerDistanceWinRate(trainer string, distance int, cutoff time.Time) float64 {
	key := fmt.Sprintf("%s|%d", trainer, distance)
	return h.memoized("td", key, cutoff, func() float64 {
		return winRate(h.before(h.byTrainer[trainer], cutoff), func(r *models.ParticipationRecord) bool {
			return r.DistanceMeters == distance
		})
	})
}

// recentClassWinRate is a 60-day class-weighted rolling win rate for a jockey
// or trainer: wins weighted by class weight over total class weight.
func (h *History) recentClassWinRate(kind string, rows []*models.ParticipationRecord, name string, cutoff time.Time) float64 {
	return h.memoized(kind, name, cutoff, func() float64 {
		start := cutoff.AddDate(0, 0, -60)
		wins, denom := 0.0, 0.0
		for _, r := range h.before(rows, cutoff) {
			if r.EventDate.Before(start) {
				continue
			}
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
	})
}

// JockeyRecentClassWinRate is the jockey's class-weighted win rate over the
// 60 days before the cutoff.
func (h *History) JockeyRecentClassWinRate(jockey string, cutoff time.Time) float64 {
	return h.recentClassWinRate("jr60", h.byJockey[jockey], jockey, cutoff)
}

// TrainerRecentClassWinRate is the trainer's class-weighted win rate over the
// 60 days before the cutoff.
func (h *History) TrainerRecentClassWinRate(trainer string, cutoff time.Time) float64 {
	return h.recentClassWinRate("tr60", h.byTrainer[trainer], trainer, cutoff)
}

// HorseTopTierCount counts the horse's starts in top-tier races (KV and
// group races) during the 365 days before the cutoff.
func (h *History) HorseTopTierCount(horse string, cutoff time.Time) float64 {
	return h.memoized("htt", horse, cutoff, func() float64 {
		start := cutoff.AddDate(0, 0, -365)
		count := 0
		for _, r := range h.HorseBefore(horse, cutoff) {
			if r.EventDate.Before(start) {
				continue
			}
			if ClassifyRaceCategory(r.RaceClass).IsTopTier() {
				count++
			}
		}
		return float64(count)
	})
}
