// Package repository persists prediction runs and their per-horse
// predictions to PostgreSQL.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/wincast/internal/models"
)

// RunRepository stores pipeline run records.
type RunRepository interface {
	Create(ctx context.Context, run *models.PredictionRun) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.PredictionRun, error)
	ListRecent(ctx context.Context, limit int) ([]*models.PredictionRun, error)
}

// PredictionRepository stores scored predictions.
type PredictionRepository interface {
	CreateBatch(ctx context.Context, predictions []models.Prediction) error
	GetByRun(ctx context.Context, runID uuid.UUID) ([]models.Prediction, error)
	GetByVenueDate(ctx context.Context, venue string, date time.Time) ([]models.Prediction, error)
}
