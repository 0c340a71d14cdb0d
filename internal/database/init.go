package database

import (
	"context"
	"fmt"
)

// InitSchema creates the prediction-store tables when they do not exist.
func InitSchema(ctx context.Context, db *DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS prediction_runs (
			id UUID PRIMARY KEY,
			venue TEXT NOT NULL,
			event_date DATE NOT NULL,
			train_rows INTEGER NOT NULL,
			predict_rows INTEGER NOT NULL,
			cv_auc DOUBLE PRECISION NOT NULL,
			cv_log_loss DOUBLE PRECISION NOT NULL,
			cv_hit_at_1 DOUBLE PRECISION NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS predictions (
			id UUID PRIMARY KEY,
			run_id UUID NOT NULL REFERENCES prediction_runs(id) ON DELETE CASCADE,
			race_group_key TEXT NOT NULL,
			venue TEXT NOT NULL,
			event_date DATE NOT NULL,
			horse_id TEXT NOT NULL,
			win_proba DOUBLE PRECISION NOT NULL,
			race_rank INTEGER NOT NULL,
			labels TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_run_id ON predictions(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_venue_date ON predictions(venue, event_date)`,
		`CREATE INDEX IF NOT EXISTS idx_prediction_runs_venue_date ON prediction_runs(venue, event_date)`,
	}

	for _, stmt := range statements {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}
