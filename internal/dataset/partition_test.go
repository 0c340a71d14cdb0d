package dataset

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/wincast/internal/models"
)

func record(day string, rank *int) models.ParticipationRecord {
	date, _ := time.Parse("2006-01-02", day)
	return models.ParticipationRecord{
		RaceGroupKey: "R-" + day,
		EventDate:    date,
		HorseID:      "horse",
		FinishRank:   rank,
	}
}

func intPtr(v int) *int { return &v }

func TestPartitionSplitsHistoryAndToday(t *testing.T) {
	today := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	records := []models.ParticipationRecord{
		record("2026-03-01", intPtr(1)),
		record("2026-03-05", intPtr(4)),
		record("2026-03-10", nil),
		record("2026-03-10", intPtr(2)), // same-day rows are never history
	}

	history, day := Partition(records, today)

	assert.Len(t, history, 2)
	assert.Len(t, day, 2)
	for _, r := range history {
		assert.True(t, r.HasResult())
		assert.False(t, SameDay(r.EventDate, today))
	}
}

func TestPartitionDropsUnresolvedHistory(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	records := []models.ParticipationRecord{
		record("2026-03-01", nil), // past row without an outcome is unusable
		record("2026-03-02", intPtr(3)),
	}

	history, _ := Partition(records, today)
	assert.Len(t, history, 1)
	assert.Equal(t, "R-2026-03-02", history[0].RaceGroupKey)
}

func TestPartitionEmptyTodayIsNotAnError(t *testing.T) {
	today := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	records := []models.ParticipationRecord{
		record("2026-03-01", intPtr(1)),
	}

	history, day := Partition(records, today)
	assert.Len(t, history, 1)
	assert.Empty(t, day)
}

func TestEnforceLeakageGuardDropsExcludedDates(t *testing.T) {
	excludedDay, _ := time.Parse("2006-01-02", "2026-03-05")
	excluded := NewExclusionSet(excludedDay)

	history := []models.ParticipationRecord{
		record("2026-03-01", intPtr(1)),
		record("2026-03-05", intPtr(2)),
		record("2026-03-07", intPtr(3)),
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	kept := EnforceLeakageGuard(history, excluded, logrus.NewEntry(log))

	assert.Len(t, kept, 2)
	for _, r := range kept {
		assert.False(t, excluded.Contains(r.EventDate))
	}
}

func TestExclusionSetDates(t *testing.T) {
	later, _ := time.Parse("2006-01-02", "2026-03-09")
	earlier, _ := time.Parse("2006-01-02", "2026-03-05")

	assert.Equal(t, []string{"2026-03-05", "2026-03-09"}, NewExclusionSet(later, earlier).Dates())
	assert.Empty(t, NewExclusionSet().Dates())
}

func TestExclusionSetContains(t *testing.T) {
	d := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	s := NewExclusionSet(d)

	sameDayLater := time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)
	assert.True(t, s.Contains(sameDayLater))
	assert.False(t, s.Contains(d.AddDate(0, 0, 1)))

	var empty ExclusionSet
	assert.False(t, empty.Contains(d))
}

func TestInferSchema(t *testing.T) {
	jockey := "j1"
	records := []models.ParticipationRecord{
		{HorseID: "a", DistanceMeters: 1400},
		{HorseID: "b", JockeyID: &jockey, RaceClass: "G1"},
	}

	s := InferSchema(records)

	assert.True(t, s.Has(ColJockey))
	assert.True(t, s.Has(ColDistance))
	assert.True(t, s.Has(ColRaceClass))
	assert.False(t, s.Has(ColTrainer))
	assert.False(t, s.Has(ColOdds))
	assert.True(t, s.HasAll(ColJockey, ColDistance))
	assert.False(t, s.HasAll(ColJockey, ColTrainer))
	assert.Equal(t, 2, s.Rows())
}
