package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction is one scored entrant in one race of a prediction run.
type Prediction struct {
	ID           uuid.UUID `db:"id" json:"id"`
	RunID        uuid.UUID `db:"run_id" json:"run_id"`
	RaceGroupKey string    `db:"race_group_key" json:"race_group_key"`
	Venue        string    `db:"venue" json:"venue"`
	EventDate    time.Time `db:"event_date" json:"event_date"`
	HorseID      string    `db:"horse_id" json:"horse_id"`
	WinProba     float64   `db:"win_proba" json:"win_proba"`
	RaceRank     int       `db:"race_rank" json:"race_rank"`
	Labels       string    `db:"labels" json:"labels"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// PredictionRun records one end-to-end pipeline invocation and its
// cross-validated training quality, kept for observability.
type PredictionRun struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Venue       string    `db:"venue" json:"venue"`
	EventDate   time.Time `db:"event_date" json:"event_date"`
	TrainRows   int       `db:"train_rows" json:"train_rows"`
	PredictRows int       `db:"predict_rows" json:"predict_rows"`
	CVAuc       float64   `db:"cv_auc" json:"cv_auc"`
	CVLogLoss   float64   `db:"cv_log_loss" json:"cv_log_loss"`
	CVHitAt1    float64   `db:"cv_hit_at_1" json:"cv_hit_at_1"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}
