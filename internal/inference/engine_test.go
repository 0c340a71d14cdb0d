package inference

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/ensemble"
	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/models"
)

func testPredictor(t *testing.T) *Predictor {
	t.Helper()
	cfg, err := config.Load("testdata/nonexistent.yaml")
	require.NoError(t, err)
	return NewPredictor(&cfg.Inference, &cfg.Features, logger.NewLogger("error"))
}

// fittedModel trains a small but real ensemble on an ability feature that
// fully decides race outcomes.
func fittedModel(t *testing.T) *ensemble.TrainedEnsemble {
	t.Helper()
	rng := rand.New(rand.NewSource(9))

	const races, runners = 30, 4
	n := races * runners
	ability := make([]float64, 0, n)
	y := make([]float64, 0, n)
	groups := make([]string, 0, n)
	for race := 0; race < races; race++ {
		for h := 0; h < runners; h++ {
			if h == 0 {
				ability = append(ability, 0.8+0.2*rng.Float64())
				y = append(y, 1)
			} else {
				ability = append(ability, 0.3*rng.Float64())
				y = append(y, 0)
			}
			groups = append(groups, fmt.Sprintf("race-%d", race))
		}
	}

	tbl := features.NewTable(n)
	require.NoError(t, tbl.AddNumeric("ability", ability))

	encoder := ensemble.FitEncoder(tbl)
	X := encoder.Transform(tbl)

	trained := &ensemble.TrainedEnsemble{Encoder: encoder}
	for i := 0; i < 5; i++ {
		tree := ensemble.NewDecisionTree(ensemble.TreeGrid[i])
		tree.Fit(X, y, rand.New(rand.NewSource(int64(i))))
		trained.Trees = append(trained.Trees, tree)
	}

	boost := ensemble.NewGradientBoost(ensemble.BoostConfig{MaxDepth: 3, LearningRate: 0.1, Subsample: 1.0, ColsampleByTree: 1.0, Rounds: 25})
	boost.Fit(X, y, rand.New(rand.NewSource(100)))
	trained.Boost = boost

	ranker := ensemble.NewPairwiseRanker(ensemble.RankConfig{MaxDepth: 3, LearningRate: 0.1, Subsample: 1.0, ColsampleByTree: 1.0, Rounds: 15})
	ranker.Fit(X, y, groups, rand.New(rand.NewSource(200)))
	trained.Ranker = ranker

	scores := make([][]float64, n)
	for i := range X {
		scores[i] = trained.BaseScores(X[i])
	}
	meta := ensemble.NewLogisticRegression(200)
	meta.Fit(scores, y)
	trained.Meta = meta

	return trained
}

func raceCard(t *testing.T) ([]models.ParticipationRecord, *features.Table) {
	t.Helper()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.ParticipationRecord{
		{RaceGroupKey: "IST-1", Venue: "ISTANBUL", EventDate: day, HorseID: "FAST", RaceClass: "HANDIKAP 15"},
		{RaceGroupKey: "IST-1", Venue: "ISTANBUL", EventDate: day, HorseID: "MID", RaceClass: "HANDIKAP 15"},
		{RaceGroupKey: "IST-1", Venue: "ISTANBUL", EventDate: day, HorseID: "SLOW", RaceClass: "HANDIKAP 15"},
	}
	tbl := features.NewTable(3)
	require.NoError(t, tbl.AddNumeric("ability", []float64{0.95, 0.5, 0.05}))
	return rows, tbl
}

func TestPredictRequiresModel(t *testing.T) {
	p := testPredictor(t)
	rows, tbl := raceCard(t)

	_, err := p.Predict(uuid.New(), rows, tbl, nil, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNotTrained))
}

func TestPredictEmptyCardIsExplicit(t *testing.T) {
	p := testPredictor(t)
	p.SetModel(fittedModel(t))

	_, err := p.Predict(uuid.New(), nil, features.NewTable(0), nil, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNothingToPredict))
}

func TestPredictRanksByAbility(t *testing.T) {
	p := testPredictor(t)
	p.SetModel(fittedModel(t))
	rows, tbl := raceCard(t)

	runID := uuid.New()
	preds, err := p.Predict(runID, rows, tbl, nil, time.Now())
	require.NoError(t, err)
	require.Len(t, preds, 3)

	byHorse := make(map[string]models.Prediction)
	sum := 0.0
	seenRanks := make(map[int]bool)
	for _, pr := range preds {
		assert.Equal(t, runID, pr.RunID)
		assert.Equal(t, "IST-1", pr.RaceGroupKey)
		byHorse[pr.HorseID] = pr
		sum += pr.WinProba
		seenRanks[pr.RaceRank] = true
	}
	// Re-rank bonus renormalizes the race to a distribution.
	assert.InDelta(t, 1.0, sum, 1e-6)
	assert.True(t, seenRanks[1] && seenRanks[2] && seenRanks[3])

	assert.Equal(t, 1, byHorse["FAST"].RaceRank)
	assert.Greater(t, byHorse["FAST"].WinProba, byHorse["SLOW"].WinProba)
}

func TestPredictDeterministic(t *testing.T) {
	p := testPredictor(t)
	p.SetModel(fittedModel(t))
	rows, tbl := raceCard(t)

	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	first, err := p.Predict(uuid.New(), rows, tbl, nil, now)
	require.NoError(t, err)
	second, err := p.Predict(uuid.New(), rows, tbl, nil, now)
	require.NoError(t, err)

	for i := range first {
		assert.Equal(t, first[i].WinProba, second[i].WinProba)
		assert.Equal(t, first[i].RaceRank, second[i].RaceRank)
	}
}

func TestContextVectorSelection(t *testing.T) {
	maiden := &models.ParticipationRecord{RaceClass: "MAIDEN"}
	assert.Equal(t, blendMaiden, contextVector(maiden))

	sartli := &models.ParticipationRecord{RaceClass: "ŞARTLI 1"}
	assert.Equal(t, blendMaiden, contextVector(sartli))

	g1 := &models.ParticipationRecord{RaceClass: "G 1"}
	assert.Equal(t, blendHighClass, contextVector(g1))

	handicap := &models.ParticipationRecord{RaceClass: "HANDİKAP 15"}
	assert.Equal(t, blendDefault, contextVector(handicap))
}
