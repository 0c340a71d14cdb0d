package models

// Race is the set of participation records sharing a race group key.
type Race struct {
	GroupKey string
	Records  []*ParticipationRecord
}

// GroupByRace buckets records into races, preserving first-seen key order so
// repeated runs over the same log produce the same race ordering.
func GroupByRace(records []*ParticipationRecord) []*Race {
	index := make(map[string]*Race)
	var order []string
	for _, rec := range records {
		race, ok := index[rec.RaceGroupKey]
		if !ok {
			race = &Race{GroupKey: rec.RaceGroupKey}
			index[rec.RaceGroupKey] = race
			order = append(order, rec.RaceGroupKey)
		}
		race.Records = append(race.Records, rec)
	}
	races := make([]*Race, 0, len(order))
	for _, key := range order {
		races = append(races, index[key])
	}
	return races
}

// Winner returns the record with finish rank 1, or nil when the race has no
// known winner yet.
func (r *Race) Winner() *ParticipationRecord {
	for _, rec := range r.Records {
		if rec.Won() {
			return rec
		}
	}
	return nil
}

// HasKnownOutcome reports whether at least one entrant carries a result.
func (r *Race) HasKnownOutcome() bool {
	for _, rec := range r.Records {
		if rec.HasResult() {
			return true
		}
	}
	return false
}

// Refs returns pointers into records, the shape GroupByRace consumes.
func Refs(records []ParticipationRecord) []*ParticipationRecord {
	refs := make([]*ParticipationRecord, len(records))
	for i := range records {
		refs[i] = &records[i]
	}
	return refs
}
