package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/wincast/internal/database"
	"github.com/yourusername/wincast/internal/models"
)

// PostgresRunRepository implements RunRepository for PostgreSQL.
type PostgresRunRepository struct {
	db *database.DB
}

// NewPostgresRunRepository creates a new run repository.
func NewPostgresRunRepository(db *database.DB) RunRepository {
	return &PostgresRunRepository{db: db}
}

// Create inserts a new prediction run.
func (r *PostgresRunRepository) Create(ctx context.Context, run *models.PredictionRun) error {
	query := `
		INSERT INTO prediction_runs (id, venue, event_date, train_rows, predict_rows,
		                             cv_auc, cv_log_loss, cv_hit_at_1, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.Venue, run.EventDate, run.TrainRows, run.PredictRows,
		run.CVAuc, run.CVLogLoss, run.CVHitAt1, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prediction run: %w", err)
	}
	return nil
}

// GetByID retrieves a prediction run by ID.
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error) {
	query := `
		SELECT id, venue, event_date, train_rows, predict_rows,
		       cv_auc, cv_log_loss, cv_hit_at_1, created_at
		FROM prediction_runs WHERE id = $1
	`

	run := &models.PredictionRun{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Venue, &run.EventDate, &run.TrainRows, &run.PredictRows,
		&run.CVAuc, &run.CVLogLoss, &run.CVHitAt1, &run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prediction run: %w", err)
	}
	return run, nil
}

// ListRecent retrieves the most recent runs, newest first.
func (r *PostgresRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.PredictionRun, error) {
	query := `
		SELECT id, venue, event_date, train_rows, predict_rows,
		       cv_auc, cv_log_loss, cv_hit_at_1, created_at
		FROM prediction_runs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list prediction runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PredictionRun
	for rows.Next() {
		run := &models.PredictionRun{}
		if err := rows.Scan(
			&run.ID, &run.Venue, &run.EventDate, &run.TrainRows, &run.PredictRows,
			&run.CVAuc, &run.CVLogLoss, &run.CVHitAt1, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
