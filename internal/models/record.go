package models

import (
	"time"

	"github.com/google/uuid"
)

// TrackSurface classifies the racing surface of a track.
type TrackSurface string

const (
	SurfaceTurf      TrackSurface = "turf"
	SurfaceDirt      TrackSurface = "dirt"
	SurfaceSynthetic TrackSurface = "synthetic"
	SurfaceUnknown   TrackSurface = "unknown"
)

// IsSandLike reports whether the surface behaves like dirt. Synthetic and
// dirt tracks are treated as interchangeable when a horse lacks experience
// on one of them.
func (s TrackSurface) IsSandLike() bool {
	return s == SurfaceDirt || s == SurfaceSynthetic
}

// ParticipationRecord is one horse's entry in one race. Records are created
// once per race-card ingestion and are immutable except for FinishRank,
// which transitions from nil to a concrete value once the race completes.
type ParticipationRecord struct {
	ID             uuid.UUID    `db:"id" json:"id"`
	RaceGroupKey   string       `db:"race_group_key" json:"race_group_key" validate:"required"`
	EventDate      time.Time    `db:"event_date" json:"event_date" validate:"required"`
	Venue          string       `db:"venue" json:"venue"`
	HorseID        string       `db:"horse_id" json:"horse_id" validate:"required"`
	JockeyID       *string      `db:"jockey_id" json:"jockey_id"`
	TrainerID      *string      `db:"trainer_id" json:"trainer_id"`
	Surface        TrackSurface `db:"surface" json:"surface"`
	DistanceMeters int          `db:"distance_meters" json:"distance_meters" validate:"gte=0"`
	RaceClass      string       `db:"race_class" json:"race_class"`
	AgeGroup       string       `db:"age_group" json:"age_group"`
	HandicapWeight *float64     `db:"handicap_weight" json:"handicap_weight"`
	CarriedWeight  *float64     `db:"carried_weight" json:"carried_weight"`
	PostPosition   *int         `db:"post_position" json:"post_position"`
	Age            *int         `db:"age" json:"age"`
	DaysSinceRun   *int         `db:"days_since_run" json:"days_since_run"`
	BestTime       *float64     `db:"best_time" json:"best_time"`
	RecentFormCode string       `db:"recent_form_code" json:"recent_form_code"`
	CareerFormAvg  *float64     `db:"career_form_avg" json:"career_form_avg"`

	// FinishRank is nil for races that have not yet run. Its nullability is
	// the central invariant of the pipeline: features for a record may never
	// depend on that record's own outcome or on any same-day outcome.
	FinishRank *int `db:"finish_rank" json:"finish_rank"`

	// Market-derived fields. Display-only: they are never model inputs.
	PublicMoneyRank  *int     `db:"public_money_rank" json:"public_money_rank"`
	PublicMoneyShare *float64 `db:"public_money_share" json:"public_money_share"`
	Odds             *float64 `db:"odds" json:"odds"`

	StartTime string `db:"start_time" json:"start_time"`
}

// HasResult reports whether the record's outcome is known.
func (r *ParticipationRecord) HasResult() bool {
	return r.FinishRank != nil
}

// Won reports whether the record finished first.
func (r *ParticipationRecord) Won() bool {
	return r.FinishRank != nil && *r.FinishRank == 1
}

// Rank returns the finish rank or the provided default when unknown.
func (r *ParticipationRecord) Rank(def float64) float64 {
	if r.FinishRank == nil {
		return def
	}
	return float64(*r.FinishRank)
}

// Jockey returns the jockey identifier or "" when not assigned.
func (r *ParticipationRecord) Jockey() string {
	if r.JockeyID == nil {
		return ""
	}
	return *r.JockeyID
}

// Trainer returns the trainer identifier or "" when not assigned.
func (r *ParticipationRecord) Trainer() string {
	if r.TrainerID == nil {
		return ""
	}
	return *r.TrainerID
}
