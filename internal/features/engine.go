package features

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/dataset"
	"github.com/yourusername/wincast/internal/models"
)

// Engine builds the feature matrix for a set of participation records. Each
// feature block declares the schema columns it needs and is skipped as a
// whole when the dataset never carries them; per-row defaults cover rows
// where a value happens to be missing.
type Engine struct {
	cfg *config.FeaturesConfig
	log *logrus.Entry
}

// NewEngine creates a feature engine.
func NewEngine(cfg *config.FeaturesConfig, log *logrus.Entry) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// Output is the result of one feature build.
type Output struct {
	Table *Table
	// Upsets are display-only annotations aligned with the input rows; they
	// never enter the table.
	Upsets []UpsetIndicators
	// PrunedColumns lists numeric columns removed by correlation pruning.
	PrunedColumns []string
}

// Build featurizes rows against the given history index. Every historical
// lookup a block performs is scoped to dates strictly before the row's own
// date, so the same call serves both training (rows from history) and
// inference (today's rows).
func (e *Engine) Build(rows []models.ParticipationRecord, hist *History, schema *dataset.RecordSchema, now time.Time) (*Output, error) {
	n := len(rows)
	t := NewTable(n)

	e.staticBlock(t, rows, schema)
	e.aggregateBlock(t, rows, hist, schema)
	e.badgeBlock(t, rows, hist)
	e.formBlock(t, rows, hist, schema)
	e.headToHeadBlock(t, rows, hist, schema, now)
	e.categoricalBlock(t, rows, schema)

	upsets := make([]UpsetIndicators, n)
	if schema.Has(dataset.ColPublicMoneyRank) {
		for i := range rows {
			upsets[i] = ComputeUpset(hist, rows[i].HorseID, rows[i].EventDate)
		}
	}

	pruned := PostProcess(t, e.cfg.WinsorizeLow, e.cfg.WinsorizeHigh, e.cfg.CorrelationPrune)
	if len(pruned) > 0 {
		e.log.WithFields(logrus.Fields{
			"pruned":  len(pruned),
			"numeric": len(t.NumericNames()),
		}).Debug("Correlation pruning removed redundant columns")
	}

	return &Output{Table: t, Upsets: upsets, PrunedColumns: pruned}, nil
}

func addNumeric(t *Table, name string, vals []float64) {
	// Column names are unique by construction; a duplicate is a programming
	// error we surface loudly in tests via the table's own check.
	_ = t.AddNumeric(name, vals)
}

func addCategorical(t *Table, name string, vals []string) {
	_ = t.AddCategorical(name, vals)
}

// numericCol materializes one per-row value into a column slice.
func numericCol(rows []models.ParticipationRecord, get func(*models.ParticipationRecord) float64) []float64 {
	out := make([]float64, len(rows))
	for i := range rows {
		out[i] = get(&rows[i])
	}
	return out
}

func fromPtrF(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func fromPtrI(p *int) float64 {
	if p == nil {
		return math.NaN()
	}
	return float64(*p)
}

func (e *Engine) staticBlock(t *Table, rows []models.ParticipationRecord, schema *dataset.RecordSchema) {
	if schema.Has(dataset.ColHandicapWeight) {
		addNumeric(t, "handicap", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrF(r.HandicapWeight) }))
	}
	if schema.Has(dataset.ColCarriedWeight) {
		addNumeric(t, "carried_weight", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrF(r.CarriedWeight) }))
	}
	if schema.Has(dataset.ColPostPosition) {
		addNumeric(t, "post_position", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrI(r.PostPosition) }))
	}
	if schema.Has(dataset.ColDistance) {
		addNumeric(t, "distance", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			if r.DistanceMeters <= 0 {
				return math.NaN()
			}
			return float64(r.DistanceMeters)
		}))
		addNumeric(t, "long_distance", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			if r.DistanceMeters >= 1800 {
				return 1
			}
			return 0
		}))
	}
	if schema.Has(dataset.ColAge) {
		addNumeric(t, "age", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrI(r.Age) }))
	}
	if schema.Has(dataset.ColDaysSinceRun) {
		addNumeric(t, "rest_days", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrI(r.DaysSinceRun) }))
		ideal := e.cfg.IdealRestDays
		addNumeric(t, "rest_ideal_gap", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			if r.DaysSinceRun == nil {
				return math.NaN()
			}
			return math.Abs(float64(*r.DaysSinceRun) - ideal)
		}))
	}
	if schema.Has(dataset.ColBestTime) {
		addNumeric(t, "best_time", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrF(r.BestTime) }))
	}
	if schema.Has(dataset.ColCareerFormAvg) {
		addNumeric(t, "career_form_avg", numericCol(rows, func(r *models.ParticipationRecord) float64 { return fromPtrF(r.CareerFormAvg) }))
	}
	if schema.Has(dataset.ColSurface) {
		addNumeric(t, "sand_or_synth", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			if r.Surface.IsSandLike() {
				return 1
			}
			return 0
		}))
	}
	if schema.Has(dataset.ColRaceClass) {
		addNumeric(t, "race_class_weight", numericCol(rows, func(r *models.ParticipationRecord) float64 { return ClassWeight(r.RaceClass) }))
		addNumeric(t, "race_is_high_class", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			if ClassWeight(r.RaceClass) >= 0.8 {
				return 1
			}
			return 0
		}))
		addNumeric(t, "category_weight", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return CategoryWeight(ClassifyRaceCategory(r.RaceClass))
		}))
	}
	if schema.Has(dataset.ColRecentFormCode) {
		points := make([]float64, len(rows))
		wins := make([]float64, len(rows))
		for i := range rows {
			points[i], wins[i] = ParseFormCode(rows[i].RecentFormCode)
		}
		addNumeric(t, "recent_form_points", points)
		addNumeric(t, "recent_form_wins", wins)
	}
}

func (e *Engine) aggregateBlock(t *Table, rows []models.ParticipationRecord, hist *History, schema *dataset.RecordSchema) {
	addNumeric(t, "horse_overall_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
		return hist.HorseOverallWinRate(r.HorseID, r.EventDate)
	}))

	if schema.HasAll(dataset.ColSurface, dataset.ColDistance) {
		addNumeric(t, "horse_surface_distance_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseSurfaceDistanceWinRate(r.HorseID, r.Surface, r.DistanceMeters, r.EventDate)
		}))
	}
	if schema.Has(dataset.ColDistance) {
		band := e.cfg.DistanceBandMeters
		addNumeric(t, "horse_distance_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseDistanceWinRate(r.HorseID, r.DistanceMeters, r.EventDate)
		}))
		addNumeric(t, "horse_distance_band_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseDistanceBandWinRate(r.HorseID, r.DistanceMeters, band, r.EventDate)
		}))
	}
	if schema.Has(dataset.ColSurface) {
		noExp := e.cfg.NoExperienceDefault
		addNumeric(t, "horse_surface_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseSurfaceWinRate(r.HorseID, r.Surface, r.EventDate)
		}))
		addNumeric(t, "horse_surface_experience", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseSurfaceExperience(r.HorseID, r.Surface, r.EventDate, noExp)
		}))
	}
	if schema.Has(dataset.ColRaceClass) {
		addNumeric(t, "horse_category_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseCategoryWinRate(r.HorseID, ClassifyRaceCategory(r.RaceClass), r.EventDate)
		}))
		addNumeric(t, "horse_category_weighted_perf", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseCategoryWeightedPerf(r.HorseID, r.EventDate)
		}))
		addNumeric(t, "horse_top_tier_count", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseTopTierCount(r.HorseID, r.EventDate)
		}))
		addNumeric(t, "opponent_quality", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return OpponentQuality(hist, r.HorseID, r.EventDate)
		}))
	}
	if schema.Has(dataset.ColAgeGroup) {
		addNumeric(t, "horse_age_group_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseAgeGroupWinRate(r.HorseID, r.AgeGroup, r.EventDate)
		}))
		addNumeric(t, "horse_age_level_perf", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.HorseAgeLevelPerf(r.HorseID, r.EventDate)
		}))
	}

	if schema.Has(dataset.ColJockey) {
		addNumeric(t, "jockey_horse_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.JockeyHorseWinRate(r.Jockey(), r.HorseID, r.EventDate)
		}))
		addNumeric(t, "jockey_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.JockeyWinRate(r.Jockey(), r.EventDate)
		}))
		if schema.Has(dataset.ColDistance) {
			addNumeric(t, "jockey_distance_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
				return hist.JockeyDistanceWinRate(r.Jockey(), r.DistanceMeters, r.EventDate)
			}))
		}
		if schema.Has(dataset.ColRaceClass) {
			addNumeric(t, "jockey_recent_class_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
				return hist.JockeyRecentClassWinRate(r.Jockey(), r.EventDate)
			}))
		}
	}
	if schema.Has(dataset.ColTrainer) {
		addNumeric(t, "trainer_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
			return hist.TrainerWinRate(r.Trainer(), r.EventDate)
		}))
		if schema.Has(dataset.ColDistance) {
			addNumeric(t, "trainer_distance_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
				return hist.TrainerDistanceWinRate(r.Trainer(), r.DistanceMeters, r.EventDate)
			}))
		}
		if schema.Has(dataset.ColRaceClass) {
			addNumeric(t, "trainer_recent_class_win_rate", numericCol(rows, func(r *models.ParticipationRecord) float64 {
				return hist.TrainerRecentClassWinRate(r.Trainer(), r.EventDate)
			}))
		}
	}
}

func (e *Engine) badgeBlock(t *Table, rows []models.ParticipationRecord, hist *History) {
	n := len(rows)
	badges := make([]BadgeCounts, n)
	for i := range rows {
		badges[i] = ComputeBadges(hist, &rows[i], rows[i].EventDate)
	}

	col := func(get func(BadgeCounts) float64) []float64 {
		out := make([]float64, n)
		for i := range badges {
			out[i] = get(badges[i])
		}
		return out
	}

	addNumeric(t, "jockey_horse_wins", col(func(b BadgeCounts) float64 { return b.JockeyHorseWins }))
	addNumeric(t, "jockey_horse_top4", col(func(b BadgeCounts) float64 { return b.JockeyHorseTop4 }))
	addNumeric(t, "distance_wins", col(func(b BadgeCounts) float64 { return b.DistanceWins }))
	addNumeric(t, "venue_wins", col(func(b BadgeCounts) float64 { return b.VenueWins }))
	addNumeric(t, "g1_count", col(func(b BadgeCounts) float64 { return b.G1Count }))
	addNumeric(t, "g2_count", col(func(b BadgeCounts) float64 { return b.G2Count }))
	addNumeric(t, "g3_count", col(func(b BadgeCounts) float64 { return b.G3Count }))
	addNumeric(t, "kv_count", col(func(b BadgeCounts) float64 { return b.KVCount }))
	addNumeric(t, "beaten_rivals", col(func(b BadgeCounts) float64 { return b.BeatenRivals }))
	addNumeric(t, "badge_weighted_score", col(BadgeCounts.WeightedScore))

	addNumeric(t, "g1_weighted", col(func(b BadgeCounts) float64 { return badgeWeightG1 * b.G1Count }))
	addNumeric(t, "g2_weighted", col(func(b BadgeCounts) float64 { return badgeWeightG2 * b.G2Count }))
	addNumeric(t, "g3_weighted", col(func(b BadgeCounts) float64 { return badgeWeightG3 * b.G3Count }))

	groupLog := col(func(b BadgeCounts) float64 { return math.Log1p(b.GroupSum()) })
	kvLog := col(func(b BadgeCounts) float64 { return math.Log1p(b.KVCount) })
	beatenLog := col(func(b BadgeCounts) float64 { return math.Log1p(b.BeatenRivals) })
	distLog := col(func(b BadgeCounts) float64 { return math.Log1p(b.DistanceWins) })
	venueLog := col(func(b BadgeCounts) float64 { return math.Log1p(b.VenueWins) })

	addNumeric(t, "group_experience_log1p", groupLog)
	addNumeric(t, "kv_experience_log1p", kvLog)
	addNumeric(t, "beaten_rivals_log1p", beatenLog)
	addNumeric(t, "distance_wins_log1p", distLog)
	addNumeric(t, "venue_wins_log1p", venueLog)

	product := func(a, b []float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = a[i] * b[i]
		}
		return out
	}
	ixGroupKV := product(groupLog, kvLog)
	ixGroupDist := product(groupLog, distLog)
	ixGroupVenue := product(groupLog, venueLog)
	ixKVDist := product(kvLog, distLog)
	ixKVVenue := product(kvLog, venueLog)
	ixBeatenDist := product(beatenLog, distLog)
	ixBeatenVenue := product(beatenLog, venueLog)

	addNumeric(t, "ix_group_kv", ixGroupKV)
	addNumeric(t, "ix_group_distance", ixGroupDist)
	addNumeric(t, "ix_group_venue", ixGroupVenue)
	addNumeric(t, "ix_kv_distance", ixKVDist)
	addNumeric(t, "ix_kv_venue", ixKVVenue)
	addNumeric(t, "ix_beaten_distance", ixBeatenDist)
	addNumeric(t, "ix_beaten_venue", ixBeatenVenue)

	interaction := make([]float64, n)
	for i := 0; i < n; i++ {
		interaction[i] = ixGroupKV[i] + ixGroupDist[i] + ixGroupVenue[i] +
			ixKVDist[i] + ixKVVenue[i] + ixBeatenDist[i] + ixBeatenVenue[i]
	}
	addNumeric(t, "badge_interaction_score", interaction)
}

func (e *Engine) formBlock(t *Table, rows []models.ParticipationRecord, hist *History, schema *dataset.RecordSchema) {
	n := len(rows)
	signals := make([]FormSignals, n)
	for i := range rows {
		signals[i] = ComputeForm(hist, rows[i].HorseID, rows[i].Surface, rows[i].DistanceMeters, rows[i].EventDate, e.cfg)
	}

	col := func(get func(FormSignals) float64) []float64 {
		out := make([]float64, n)
		for i := range signals {
			out[i] = get(signals[i])
		}
		return out
	}

	addNumeric(t, "last3_form", col(func(s FormSignals) float64 { return s.Last3Form }))
	addNumeric(t, "last5_form", col(func(s FormSignals) float64 { return s.Last5Form }))
	addNumeric(t, "last3_form_weighted", col(func(s FormSignals) float64 { return s.Last3FormWeighted }))
	addNumeric(t, "last5_form_weighted", col(func(s FormSignals) float64 { return s.Last5FormWeighted }))
	addNumeric(t, "last_win", col(func(s FormSignals) float64 { return s.LastWin }))
	addNumeric(t, "last_win_weighted", col(func(s FormSignals) float64 { return s.LastWinWeighted }))
	addNumeric(t, "last2_wins", col(func(s FormSignals) float64 { return s.Last2Wins }))
	addNumeric(t, "last2_wins_weighted", col(func(s FormSignals) float64 { return s.Last2WinsWeighted }))
	addNumeric(t, "form_trend", col(func(s FormSignals) float64 { return s.FormTrend }))
	addNumeric(t, "similar_cond_score", col(func(s FormSignals) float64 { return s.SimilarCondScore }))
	addNumeric(t, "similar_cond_score_weighted", col(func(s FormSignals) float64 { return s.SimilarCondScoreWeighted }))
	addNumeric(t, "last_rank", col(func(s FormSignals) float64 { return s.LastRank }))
	addNumeric(t, "last_rank_score", col(func(s FormSignals) float64 { return s.LastRankScore }))
	addNumeric(t, "last_rank_score_weighted", col(func(s FormSignals) float64 { return s.LastRankScoreWeighted }))
	addNumeric(t, "last6_group_score", col(func(s FormSignals) float64 { return s.Last6GroupScore }))
	addNumeric(t, "class_weighted_avg_rank_last6", col(func(s FormSignals) float64 { return s.ClassWeightedAvgRankLast6 }))
	addNumeric(t, "class_weighted_win_rate_last6", col(func(s FormSignals) float64 { return s.ClassWeightedWinRateLast6 }))
	addNumeric(t, "high_class_ratio_last6", col(func(s FormSignals) float64 { return s.HighClassRatioLast6 }))
	addNumeric(t, "form_score", col(func(s FormSignals) float64 { return s.FormScore }))
	addNumeric(t, "form_score_weighted", col(func(s FormSignals) float64 { return s.FormScoreWeighted }))
}

func (e *Engine) headToHeadBlock(t *Table, rows []models.ParticipationRecord, hist *History, schema *dataset.RecordSchema, now time.Time) {
	halfLife := e.cfg.RecencyHalfLifeDays
	addNumeric(t, "h2h_general_score", numericCol(rows, func(r *models.ParticipationRecord) float64 {
		return GeneralHeadToHead(hist, r.HorseID, r.EventDate, now, halfLife)
	}))
}

func (e *Engine) categoricalBlock(t *Table, rows []models.ParticipationRecord, schema *dataset.RecordSchema) {
	strCol := func(get func(*models.ParticipationRecord) string) []string {
		out := make([]string, len(rows))
		for i := range rows {
			out[i] = get(&rows[i])
		}
		return out
	}

	addCategorical(t, "horse_id", strCol(func(r *models.ParticipationRecord) string { return r.HorseID }))
	if schema.Has(dataset.ColJockey) {
		addCategorical(t, "jockey", strCol((*models.ParticipationRecord).Jockey))
	}
	if schema.Has(dataset.ColTrainer) {
		addCategorical(t, "trainer", strCol((*models.ParticipationRecord).Trainer))
	}
	if schema.Has(dataset.ColSurface) {
		addCategorical(t, "surface", strCol(func(r *models.ParticipationRecord) string { return string(r.Surface) }))
	}
	if schema.Has(dataset.ColAgeGroup) {
		addCategorical(t, "age_group", strCol(func(r *models.ParticipationRecord) string { return r.AgeGroup }))
	}
	if schema.Has(dataset.ColRaceClass) {
		addCategorical(t, "race_category", strCol(func(r *models.ParticipationRecord) string {
			return string(ClassifyRaceCategory(r.RaceClass))
		}))
	}
	if schema.Has(dataset.ColDistance) {
		addCategorical(t, "distance_bucket", strCol(func(r *models.ParticipationRecord) string {
			return DistanceBucket(r.DistanceMeters)
		}))
	}
	if len(rows) > 0 && rows[0].Venue != "" {
		addCategorical(t, "venue", strCol(func(r *models.ParticipationRecord) string { return r.Venue }))
	}
}
