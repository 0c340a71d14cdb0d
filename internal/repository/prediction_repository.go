package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yourusername/wincast/internal/database"
	"github.com/yourusername/wincast/internal/models"
)

// PostgresPredictionRepository implements PredictionRepository for
// PostgreSQL.
type PostgresPredictionRepository struct {
	db *database.DB
}

// NewPostgresPredictionRepository creates a new prediction repository.
func NewPostgresPredictionRepository(db *database.DB) PredictionRepository {
	return &PostgresPredictionRepository{db: db}
}

// CreateBatch inserts predictions in a single batch.
func (r *PostgresPredictionRepository) CreateBatch(ctx context.Context, predictions []models.Prediction) error {
	if len(predictions) == 0 {
		return nil
	}

	query := `
		INSERT INTO predictions (id, run_id, race_group_key, venue, event_date,
		                         horse_id, win_proba, race_rank, labels, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	batch := &pgx.Batch{}
	for _, p := range predictions {
		batch.Queue(query,
			p.ID, p.RunID, p.RaceGroupKey, p.Venue, p.EventDate,
			p.HorseID, p.WinProba, p.RaceRank, p.Labels, p.CreatedAt,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range predictions {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert prediction: %w", err)
		}
	}
	return nil
}

// GetByRun retrieves all predictions for a run, ordered by race and rank.
func (r *PostgresPredictionRepository) GetByRun(ctx context.Context, runID uuid.UUID) ([]models.Prediction, error) {
	query := `
		SELECT id, run_id, race_group_key, venue, event_date,
		       horse_id, win_proba, race_rank, labels, created_at
		FROM predictions
		WHERE run_id = $1
		ORDER BY race_group_key, race_rank
	`
	return r.query(ctx, query, runID)
}

// GetByVenueDate retrieves all predictions for a venue on a given day.
func (r *PostgresPredictionRepository) GetByVenueDate(ctx context.Context, venue string, date time.Time) ([]models.Prediction, error) {
	query := `
		SELECT id, run_id, race_group_key, venue, event_date,
		       horse_id, win_proba, race_rank, labels, created_at
		FROM predictions
		WHERE venue = $1 AND event_date = $2
		ORDER BY race_group_key, race_rank
	`
	return r.query(ctx, query, venue, date)
}

func (r *PostgresPredictionRepository) query(ctx context.Context, query string, args ...any) ([]models.Prediction, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	var predictions []models.Prediction
	for rows.Next() {
		var p models.Prediction
		if err := rows.Scan(
			&p.ID, &p.RunID, &p.RaceGroupKey, &p.Venue, &p.EventDate,
			&p.HorseID, &p.WinProba, &p.RaceRank, &p.Labels, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}
