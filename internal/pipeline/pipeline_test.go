package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/dataset"
	"github.com/yourusername/wincast/internal/datasource"
	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/models"
)

const testVenue = "ISTANBUL"

var refDate = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg, err := config.Load("testdata/nonexistent.yaml")
	require.NoError(t, err)

	cfg.Data.APIURL = ""
	cfg.Data.DataDir = dir
	cfg.Data.OutputDir = filepath.Join(dir, "out")
	cfg.Data.Venues = []string{testVenue}
	// Keep the test fast; the full round counts belong to production runs.
	cfg.Training.BoostingRounds = 30
	cfg.Training.RankerRounds = 30
	cfg.Training.MetaIterations = 200
	return cfg
}

// venueCard synthesizes a race card where the lowest-odds horse always wins,
// so the resolved history carries a learnable signal. Each race day holds two
// races of five horses drawn from a rotating pool.
func venueCard(historyDays int, withToday bool) string {
	header := "at_adi,yaris_kosu_key,tarih,saat,sonuc,cins_detay,pist,mesafe,jokey_adi,antrenor_adi,kilo,start,yas,ganyan"
	lines := []string{header}

	addDay := func(date time.Time, offset int, resolved bool) {
		for race := 0; race < 2; race++ {
			key := fmt.Sprintf("%s-%s-%d", testVenue, date.Format("20060102"), race+1)
			surface, class := "Çim", "HANDİKAP 15"
			if race == 1 {
				surface, class = "Kum", "MAIDEN"
			}
			for pos := 0; pos < 5; pos++ {
				horse := fmt.Sprintf("HORSE%d", (offset+race*5+pos)%10+1)
				result := ""
				if resolved {
					result = fmt.Sprintf("%d", pos+1)
				}
				lines = append(lines, strings.Join([]string{
					horse,
					key,
					date.Format("02/01/2006"),
					fmt.Sprintf("%d:30", 14+race),
					result,
					class,
					surface,
					"1600",
					fmt.Sprintf("J%d", pos%4+1),
					fmt.Sprintf("T%d", pos%2+1),
					"56",
					fmt.Sprintf("%d", pos+1),
					"4",
					fmt.Sprintf("\"%d,50\"", pos+1),
				}, ","))
			}
		}
	}

	for day := 0; day < historyDays; day++ {
		addDay(refDate.AddDate(0, 0, -7*(day+1)), day, true)
	}
	if withToday {
		addDay(refDate, 3, false)
	}
	return strings.Join(lines, "\n")
}

func writeCard(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, testVenue+".csv"), []byte(content), 0o644))
}

func TestRunFullDay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end pipeline run in short mode")
	}

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeCard(t, dir, venueCard(8, true))

	pipe := New(cfg, logger.NewLogger("error"))
	res, err := pipe.Run(context.Background(), testVenue, refDate)
	require.NoError(t, err)
	require.NotNil(t, res)

	assert.Equal(t, testVenue, res.Venue)
	assert.Equal(t, 80, res.TrainRows)
	assert.Equal(t, 10, res.PredictRows)
	assert.Equal(t, 2, res.Races)
	require.Len(t, res.Predictions, 10)

	sums := make(map[string]float64)
	ranks := make(map[string][]int)
	for _, p := range res.Predictions {
		assert.Greater(t, p.WinProba, 0.0)
		assert.Equal(t, res.RunID, p.RunID)
		sums[p.RaceGroupKey] += p.WinProba
		ranks[p.RaceGroupKey] = append(ranks[p.RaceGroupKey], p.RaceRank)
	}
	require.Len(t, sums, 2)
	for key, sum := range sums {
		assert.InDelta(t, 1.0, sum, 1e-6, "race %s probabilities must sum to one", key)
		assert.ElementsMatch(t, []int{1, 2, 3, 4, 5}, ranks[key])
	}

	require.NotEmpty(t, res.ReportPath)
	txt, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(txt), "ISTANBUL AT YARIŞI TAHMİNLERİ")

	for _, name := range []string{"ISTANBUL_tahminler_tum.csv", "ISTANBUL_tahminler_ilk3.csv"} {
		_, err := os.Stat(filepath.Join(cfg.Data.OutputDir, name))
		assert.NoError(t, err, "expected output file %s", name)
	}

	assert.Equal(t, res.Metrics.Folds, cfg.Training.EvaluationFolds)
}

func TestRunNothingToPredict(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping end-to-end pipeline run in short mode")
	}

	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeCard(t, dir, venueCard(8, false))

	pipe := New(cfg, logger.NewLogger("error"))
	res, err := pipe.Run(context.Background(), testVenue, refDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNothingToPredict))

	// Training still completed: a quiet day keeps its quality report.
	require.NotNil(t, res)
	assert.Equal(t, 80, res.TrainRows)
	assert.Zero(t, res.PredictRows)
}

func TestRunNoTrainingData(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)
	writeCard(t, dir, venueCard(0, true))

	pipe := New(cfg, logger.NewLogger("error"))
	_, err := pipe.Run(context.Background(), testVenue, refDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrNoTrainingData))
}

func TestGuardHistoryDropsAndWarns(t *testing.T) {
	base := logrus.New()
	base.SetOutput(io.Discard)
	hook := logrustest.NewLocal(base)
	plog := logger.NewPipelineLogger(base, testVenue)

	excludedDay := refDate.AddDate(0, 0, -7)
	excluded := dataset.NewExclusionSet(excludedDay)
	rank := 1
	history := []models.ParticipationRecord{
		{RaceGroupKey: "R1", EventDate: excludedDay, HorseID: "ALPHA", FinishRank: &rank},
		{RaceGroupKey: "R2", EventDate: refDate.AddDate(0, 0, -14), HorseID: "BRAVO", FinishRank: &rank},
	}

	guarded := guardHistory(history, excluded, plog)
	require.Len(t, guarded, 1)
	assert.Equal(t, "R2", guarded[0].RaceGroupKey)

	entry := hook.LastEntry()
	require.NotNil(t, entry, "a drop must be logged")
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, 1, entry.Data["rows_dropped"])
	assert.Equal(t, []string{dataset.DateKey(excludedDay)}, entry.Data["excluded_dates"])
}

func TestGuardHistoryQuietWhenClean(t *testing.T) {
	base := logrus.New()
	base.SetOutput(io.Discard)
	hook := logrustest.NewLocal(base)
	plog := logger.NewPipelineLogger(base, testVenue)

	rank := 1
	history := []models.ParticipationRecord{
		{RaceGroupKey: "R1", EventDate: refDate.AddDate(0, 0, -7), HorseID: "ALPHA", FinishRank: &rank},
	}

	guarded := guardHistory(history, dataset.NewExclusionSet(refDate), plog)
	assert.Len(t, guarded, 1)
	assert.Nil(t, hook.LastEntry())
}

func TestRunMissingDataFile(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(t, dir)

	pipe := New(cfg, logger.NewLogger("error"))
	_, err := pipe.Run(context.Background(), testVenue, refDate)
	require.Error(t, err)
	assert.True(t, errors.Is(err, datasource.ErrNoDataFile))
}
