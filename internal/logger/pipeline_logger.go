// Package logger provides pipeline-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for prediction pipeline runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger scoped to a venue.
func NewPipelineLogger(baseLogger *logrus.Logger, venue string) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithFields(logrus.Fields{
			"component": "pipeline",
			"venue":     venue,
		}),
	}
}

// LogPartition logs the outcome of the temporal partition step.
func (pl *PipelineLogger) LogPartition(historyRows, todayRows int, refDate string) {
	pl.WithFields(logrus.Fields{
		"history_rows": historyRows,
		"today_rows":   todayRows,
		"ref_date":     refDate,
	}).Info("Event log partitioned")
}

// LogFeatureMatrix logs the shape of an engineered feature matrix.
func (pl *PipelineLogger) LogFeatureMatrix(mode string, rows, numericCols, categoricalCols int) {
	pl.WithFields(logrus.Fields{
		"mode":             mode,
		"rows":             rows,
		"numeric_cols":     numericCols,
		"categorical_cols": categoricalCols,
	}).Info("Feature matrix built")
}

// LogLeakageGuard logs rows dropped by the leakage guard. This is always a
// warning: excluded dates are never silently trained on.
func (pl *PipelineLogger) LogLeakageGuard(stage string, dropped int, dates []string) {
	pl.WithFields(logrus.Fields{
		"stage":          stage,
		"rows_dropped":   dropped,
		"excluded_dates": dates,
	}).Warn("Leakage guard dropped excluded-date rows")
}

// LogTraining logs ensemble training completion and its CV quality.
func (pl *PipelineLogger) LogTraining(durationSec float64, auc, logLoss, hitAt1 float64, folds int) {
	pl.WithFields(logrus.Fields{
		"duration_sec": durationSec,
		"cv_auc":       auc,
		"cv_log_loss":  logLoss,
		"cv_hit_at_1":  hitAt1,
		"cv_folds":     folds,
	}).Info("Ensemble training completed")
}

// LogInference logs a completed inference pass.
func (pl *PipelineLogger) LogInference(races, horses int, blendMode string) {
	pl.WithFields(logrus.Fields{
		"races":      races,
		"horses":     horses,
		"blend_mode": blendMode,
	}).Info("Inference completed")
}
