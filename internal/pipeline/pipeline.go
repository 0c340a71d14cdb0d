// Package pipeline orchestrates one end-to-end prediction run for a venue:
// load the race card, partition it in time, train the ensemble on resolved
// history, score today's races and write the report. Persistence to the
// prediction store is optional and attached separately.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/dataset"
	"github.com/yourusername/wincast/internal/datasource"
	"github.com/yourusername/wincast/internal/ensemble"
	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/inference"
	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/metrics"
	"github.com/yourusername/wincast/internal/models"
	"github.com/yourusername/wincast/internal/report"
	"github.com/yourusername/wincast/internal/repository"
)

// Pipeline wires the stages of a venue prediction run.
type Pipeline struct {
	cfg     *config.Config
	log     *logrus.Logger
	fetcher *datasource.Fetcher

	runs  repository.RunRepository
	preds repository.PredictionRepository
}

// New creates a pipeline without a prediction store.
func New(cfg *config.Config, log *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		log:     log,
		fetcher: datasource.NewFetcher(&cfg.Data, log),
	}
}

// WithStore attaches repositories so completed runs are persisted.
func (p *Pipeline) WithStore(runs repository.RunRepository, preds repository.PredictionRepository) *Pipeline {
	p.runs = runs
	p.preds = preds
	return p
}

// Result summarizes one completed run.
type Result struct {
	RunID       uuid.UUID
	Venue       string
	TrainRows   int
	PredictRows int
	Races       int
	Metrics     ensemble.Metrics
	ReportPath  string
	Predictions []models.Prediction
}

// Run executes the full pipeline for one venue with now as the reference
// date. Rows on now's calendar day form the prediction set; every other
// resolved row is training history. A day with no unresolved races returns
// models.ErrNothingToPredict, which callers treat as a quiet day rather
// than a failure.
func (p *Pipeline) Run(ctx context.Context, venue string, now time.Time) (*Result, error) {
	plog := logger.NewPipelineLogger(p.log, venue)
	started := time.Now()

	res, err := p.run(ctx, venue, now, plog)
	metrics.PipelineDuration.WithLabelValues(venue).Observe(time.Since(started).Seconds())

	switch {
	case err == nil:
		metrics.RecordRun(venue, "success")
	case errors.Is(err, models.ErrNothingToPredict):
		metrics.RecordRun(venue, "no_races")
	default:
		metrics.RecordRun(venue, "error")
	}
	return res, err
}

func (p *Pipeline) run(ctx context.Context, venue string, now time.Time, plog *logger.PipelineLogger) (*Result, error) {
	if err := p.ensureRaceCard(ctx, venue, plog); err != nil {
		return nil, err
	}

	records, err := datasource.LoadVenue(p.cfg.Data.DataDir, venue, plog.Entry)
	if err != nil {
		return nil, err
	}

	history, today := dataset.Partition(records, now)
	plog.LogPartition(len(history), len(today), dataset.DateKey(now))

	excluded := dataset.NewExclusionSet(now)
	guarded := guardHistory(history, excluded, plog)
	if len(guarded) == 0 {
		return nil, fmt.Errorf("venue %s: %w", venue, models.ErrNoTrainingData)
	}

	trainRaces := models.GroupByRace(models.Refs(guarded))
	withWinner := 0
	for _, race := range trainRaces {
		if race.Winner() != nil {
			withWinner++
		}
	}
	if withWinner < len(trainRaces) {
		plog.WithFields(logrus.Fields{
			"races":       len(trainRaces),
			"with_winner": withWinner,
		}).Warn("Some resolved races carry no rank-1 finisher")
	}

	schema := dataset.InferSchema(records)
	hist := features.NewHistory(guarded, excluded, p.cfg.Features.AggregateCacheTTL)
	engine := features.NewEngine(&p.cfg.Features, plog.Entry)

	trainOut, err := engine.Build(guarded, hist, schema, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build training features: %w", err)
	}
	plog.LogFeatureMatrix("train", trainOut.Table.Rows(),
		len(trainOut.Table.NumericNames()), len(trainOut.Table.CategoricalNames()))

	y := make([]float64, len(guarded))
	groups := make([]string, len(guarded))
	for i := range guarded {
		if guarded[i].Won() {
			y[i] = 1
		}
		groups[i] = guarded[i].RaceGroupKey
	}

	trainStart := time.Now()
	model, err := ensemble.NewTrainer(&p.cfg.Training, p.log).Train(trainOut.Table, y, groups)
	if err != nil {
		return nil, fmt.Errorf("venue %s: %w", venue, err)
	}
	trainSecs := time.Since(trainStart).Seconds()
	metrics.TrainingDuration.Observe(trainSecs)
	metrics.TrainingRows.WithLabelValues(venue).Set(float64(len(guarded)))
	metrics.ModelAUC.WithLabelValues(venue).Set(model.Metrics.AUC)
	metrics.ModelHitAt1.WithLabelValues(venue).Set(model.Metrics.HitAt1)
	plog.LogTraining(trainSecs, model.Metrics.AUC, model.Metrics.LogLoss,
		model.Metrics.HitAt1, model.Metrics.Folds)

	res := &Result{
		RunID:     uuid.New(),
		Venue:     venue,
		TrainRows: len(guarded),
		Metrics:   model.Metrics,
	}

	if len(today) == 0 {
		return res, fmt.Errorf("venue %s: %w", venue, models.ErrNothingToPredict)
	}

	inferOut, err := engine.Build(today, hist, schema, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build inference features: %w", err)
	}
	plog.LogFeatureMatrix("inference", inferOut.Table.Rows(),
		len(inferOut.Table.NumericNames()), len(inferOut.Table.CategoricalNames()))

	predictor := inference.NewPredictor(&p.cfg.Inference, &p.cfg.Features, p.log)
	predictor.SetModel(model)
	preds, err := predictor.Predict(res.RunID, today, inferOut.Table, hist, now)
	if err != nil {
		return res, fmt.Errorf("venue %s: %w", venue, err)
	}

	entries := report.BuildEntries(preds, today, guarded, inferOut.Upsets)
	attachLabels(preds, entries)
	res.Predictions = preds
	res.PredictRows = len(preds)
	res.Races = len(models.GroupByRace(models.Refs(today)))
	metrics.PredictionsWrittenTotal.Add(float64(len(preds)))
	plog.LogInference(res.Races, len(preds), p.cfg.Inference.BlendMode)

	path, err := report.NewReporter(&p.cfg.Data, p.log).Write(venue, entries, now)
	if err != nil {
		return res, fmt.Errorf("failed to write report: %w", err)
	}
	res.ReportPath = path

	if err := p.persist(ctx, res, now); err != nil {
		return res, err
	}
	return res, nil
}

// ensureRaceCard downloads the venue's card when an API endpoint is
// configured. A download failure falls back to an existing local file.
func (p *Pipeline) ensureRaceCard(ctx context.Context, venue string, plog *logger.PipelineLogger) error {
	path := p.fetcher.VenueFile(venue)
	if p.cfg.Data.APIURL == "" {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("venue %s: %w", venue, datasource.ErrNoDataFile)
		}
		return nil
	}

	if _, err := p.fetcher.Fetch(ctx, venue); err != nil {
		metrics.RecordFetch(venue, "error")
		if _, statErr := os.Stat(path); statErr != nil {
			return fmt.Errorf("failed to fetch race card: %w", err)
		}
		plog.WithError(err).Warn("Race-card download failed, using cached file")
		return nil
	}
	metrics.RecordFetch(venue, "success")
	return nil
}

func (p *Pipeline) persist(ctx context.Context, res *Result, now time.Time) error {
	if p.runs == nil || p.preds == nil {
		return nil
	}

	run := &models.PredictionRun{
		ID:          res.RunID,
		Venue:       res.Venue,
		EventDate:   now,
		TrainRows:   res.TrainRows,
		PredictRows: res.PredictRows,
		CVAuc:       res.Metrics.AUC,
		CVLogLoss:   res.Metrics.LogLoss,
		CVHitAt1:    res.Metrics.HitAt1,
		CreatedAt:   time.Now(),
	}
	if err := p.runs.Create(ctx, run); err != nil {
		return fmt.Errorf("failed to persist run: %w", err)
	}
	if err := p.preds.CreateBatch(ctx, res.Predictions); err != nil {
		return fmt.Errorf("failed to persist predictions: %w", err)
	}
	return nil
}

// attachLabels copies the report annotations back onto the stored
// predictions so the store carries the same context as the text report.
func attachLabels(preds []models.Prediction, entries []report.Entry) {
	labels := make(map[string]string, len(entries))
	for i := range entries {
		if len(entries[i].Labels) == 0 {
			continue
		}
		key := entries[i].Record.RaceGroupKey + "|" + entries[i].Record.HorseID
		labels[key] = strings.Join(entries[i].Labels, " | ")
	}
	for i := range preds {
		preds[i].Labels = labels[preds[i].RaceGroupKey+"|"+preds[i].HorseID]
	}
}

// guardHistory applies the leakage guard and surfaces any drop through the
// pipeline log and the drop counter.
func guardHistory(history []models.ParticipationRecord, excluded dataset.ExclusionSet, plog *logger.PipelineLogger) []models.ParticipationRecord {
	guarded := dataset.EnforceLeakageGuard(history, excluded, nil)
	if dropped := len(history) - len(guarded); dropped > 0 {
		plog.LogLeakageGuard("training", dropped, excluded.Dates())
		metrics.LeakageRowsDroppedTotal.Add(float64(dropped))
	}
	return guarded
}
