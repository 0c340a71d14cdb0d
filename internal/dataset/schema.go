package dataset

import (
	"github.com/yourusername/wincast/internal/models"
)

// Column identifies an optional field of a participation record. Feature
// blocks declare the columns they need up front; blocks whose requirements
// are absent from the dataset are skipped deterministically instead of being
// probed per row.
type Column string

const (
	ColJockey          Column = "jockey"
	ColTrainer         Column = "trainer"
	ColDistance        Column = "distance"
	ColSurface         Column = "surface"
	ColRaceClass       Column = "race_class"
	ColAgeGroup        Column = "age_group"
	ColHandicapWeight  Column = "handicap_weight"
	ColCarriedWeight   Column = "carried_weight"
	ColPostPosition    Column = "post_position"
	ColAge             Column = "age"
	ColDaysSinceRun    Column = "days_since_run"
	ColBestTime        Column = "best_time"
	ColRecentFormCode  Column = "recent_form_code"
	ColCareerFormAvg   Column = "career_form_avg"
	ColPublicMoneyRank Column = "public_money_rank"
	ColOdds            Column = "odds"
)

// RecordSchema describes which optional columns carry data anywhere in a
// dataset. Required fields (race group, date, horse, finish rank semantics)
// are guaranteed by the record type itself and are not tracked here.
type RecordSchema struct {
	available map[Column]bool
	rows      int
}

// InferSchema scans a dataset and marks a column available when at least one
// record carries a value for it.
func InferSchema(records []models.ParticipationRecord) *RecordSchema {
	s := &RecordSchema{
		available: make(map[Column]bool, 16),
		rows:      len(records),
	}
	for i := range records {
		r := &records[i]
		s.mark(ColJockey, r.JockeyID != nil)
		s.mark(ColTrainer, r.TrainerID != nil)
		s.mark(ColDistance, r.DistanceMeters > 0)
		s.mark(ColSurface, r.Surface != models.SurfaceUnknown)
		s.mark(ColRaceClass, r.RaceClass != "")
		s.mark(ColAgeGroup, r.AgeGroup != "")
		s.mark(ColHandicapWeight, r.HandicapWeight != nil)
		s.mark(ColCarriedWeight, r.CarriedWeight != nil)
		s.mark(ColPostPosition, r.PostPosition != nil)
		s.mark(ColAge, r.Age != nil)
		s.mark(ColDaysSinceRun, r.DaysSinceRun != nil)
		s.mark(ColBestTime, r.BestTime != nil)
		s.mark(ColRecentFormCode, r.RecentFormCode != "")
		s.mark(ColCareerFormAvg, r.CareerFormAvg != nil)
		s.mark(ColPublicMoneyRank, r.PublicMoneyRank != nil)
		s.mark(ColOdds, r.Odds != nil)
	}
	return s
}

func (s *RecordSchema) mark(c Column, present bool) {
	if present {
		s.available[c] = true
	}
}

// Has reports whether a column carries data anywhere in the dataset.
func (s *RecordSchema) Has(c Column) bool {
	return s != nil && s.available[c]
}

// HasAll reports whether every listed column is available. Feature blocks use
// this to decide whether to run at all.
func (s *RecordSchema) HasAll(cols ...Column) bool {
	for _, c := range cols {
		if !s.Has(c) {
			return false
		}
	}
	return true
}

// Rows returns the number of records the schema was inferred from.
func (s *RecordSchema) Rows() int {
	if s == nil {
		return 0
	}
	return s.rows
}
