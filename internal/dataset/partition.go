// Package dataset provides the temporal partitioning and schema inspection
// that every downstream stage builds on. Partitioning is a pure function over
// an immutable snapshot of the event log; nothing here mutates records.
package dataset

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/models"
)

// DateKey normalizes a timestamp to its calendar day so rows can be compared
// regardless of intraday start times.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// SameDay reports whether two timestamps fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return DateKey(a) == DateKey(b)
}

// ExclusionSet is a set of calendar days whose rows must never contribute to
// any historical aggregate. Keys are DateKey strings.
type ExclusionSet map[string]struct{}

// NewExclusionSet builds an exclusion set from a list of dates.
func NewExclusionSet(dates ...time.Time) ExclusionSet {
	s := make(ExclusionSet, len(dates))
	for _, d := range dates {
		s[DateKey(d)] = struct{}{}
	}
	return s
}

// Contains reports whether the given date is excluded.
func (s ExclusionSet) Contains(t time.Time) bool {
	if s == nil {
		return false
	}
	_, ok := s[DateKey(t)]
	return ok
}

// Dates returns the excluded date keys in sorted order.
func (s ExclusionSet) Dates() []string {
	dates := make([]string, 0, len(s))
	for d := range s {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Partition splits the event log relative to a reference date. History holds
// rows from other days with a known finish rank; today holds every row on the
// reference day, whose outcome downstream stages must treat as unknown. An
// empty today slice means there is nothing to predict, which is not an error.
func Partition(records []models.ParticipationRecord, referenceDate time.Time) (history, today []models.ParticipationRecord) {
	history = make([]models.ParticipationRecord, 0, len(records))
	today = make([]models.ParticipationRecord, 0)

	for _, r := range records {
		if SameDay(r.EventDate, referenceDate) {
			today = append(today, r)
			continue
		}
		if r.HasResult() {
			history = append(history, r)
		}
	}
	return history, today
}

// EnforceLeakageGuard drops any history row that falls on an excluded date.
// Such rows indicate an upstream bookkeeping error, so each drop is logged
// rather than silently trained on.
func EnforceLeakageGuard(history []models.ParticipationRecord, excluded ExclusionSet, log *logrus.Entry) []models.ParticipationRecord {
	if len(excluded) == 0 {
		return history
	}

	kept := make([]models.ParticipationRecord, 0, len(history))
	dropped := 0
	for _, r := range history {
		if excluded.Contains(r.EventDate) {
			dropped++
			continue
		}
		kept = append(kept, r)
	}

	if dropped > 0 && log != nil {
		log.WithFields(logrus.Fields{
			"dropped_rows":   dropped,
			"excluded_dates": len(excluded),
		}).Warn("Leakage guard dropped history rows on excluded dates")
	}
	return kept
}
