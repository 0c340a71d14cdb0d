package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/models"
)

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }

func pastRun(horse, raceKey string, rank int, opts func(*models.ParticipationRecord)) models.ParticipationRecord {
	rec := models.ParticipationRecord{
		RaceGroupKey: raceKey,
		EventDate:    time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		Venue:        "ISTANBUL",
		HorseID:      horse,
		FinishRank:   intp(rank),
	}
	if opts != nil {
		opts(&rec)
	}
	return rec
}

func TestSmartLabels(t *testing.T) {
	today := models.ParticipationRecord{
		RaceGroupKey:   "IST-TODAY-1",
		HorseID:        "CHAMP",
		JockeyID:       strp("A KURT"),
		Venue:          "ISTANBUL",
		DistanceMeters: 1600,
		RaceClass:      "HANDİKAP 15",
	}
	history := []models.ParticipationRecord{
		pastRun("CHAMP", "R1", 1, func(r *models.ParticipationRecord) {
			r.JockeyID = strp("A KURT")
			r.DistanceMeters = 1600
			r.RaceClass = "G 1"
		}),
		pastRun("CHAMP", "R2", 3, func(r *models.ParticipationRecord) {
			r.JockeyID = strp("A KURT")
			r.DistanceMeters = 2000
		}),
		pastRun("RIVAL", "R1", 5, nil),
	}

	labels := SmartLabels(&today, []string{"CHAMP", "RIVAL"}, history)
	joined := strings.Join(labels, " ")

	assert.Contains(t, joined, "🏆 Jokey-At: 1x kazandı")
	assert.Contains(t, joined, "📊 Jokey-At: 2x tabela")
	assert.Contains(t, joined, "📏 Mesafe: 1x kazandı")
	assert.Contains(t, joined, "🏟️ ISTANBUL: 1x kazandı")
	assert.Contains(t, joined, "🏅 1x G1")
	assert.Contains(t, joined, "⚔️ Geçti: RIVAL")
}

func TestSmartLabelsNoHistory(t *testing.T) {
	today := models.ParticipationRecord{HorseID: "DEBUTANT", RaceGroupKey: "IST-TODAY-1"}
	assert.Nil(t, SmartLabels(&today, nil, nil))
}

func TestGroupExperienceTiersAboveCurrent(t *testing.T) {
	past := []*models.ParticipationRecord{
		{RaceClass: "G 1", FinishRank: intp(2)},
		{RaceClass: "G 3", FinishRank: intp(1)},
		{RaceClass: "KV-7", FinishRank: intp(4)},
	}

	// A G3 race only reports G1 and G2 experience.
	assert.Equal(t, "1x G1", groupExperience("G 3", past))
	// Lower-class races report the full top-tier record.
	assert.Equal(t, "1x G1 1x G3 1x KV", groupExperience("HANDİKAP 15", past))
}

func TestUpsetLabelsThreshold(t *testing.T) {
	assert.Empty(t, upsetLabels(features.UpsetIndicators{SurpriseCount: 1, BubbleCount: 1}))

	labels := upsetLabels(features.UpsetIndicators{SurpriseCount: 2, BubbleCount: 3})
	require.Len(t, labels, 2)
	assert.Equal(t, "🎯 Sürpriz:2", labels[0])
	assert.Equal(t, "⚠️ Balon:3", labels[1])
}

func TestProbEmoji(t *testing.T) {
	assert.Equal(t, "🔥", probEmoji(0.8))
	assert.Equal(t, "⭐", probEmoji(0.6))
	assert.Equal(t, "📈", probEmoji(0.4))
	assert.Equal(t, "📉", probEmoji(0.1))
}

func TestWriteReports(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.DataConfig{OutputDir: dir}
	reporter := NewReporter(cfg, logger.NewLogger("error"))

	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	today := []models.ParticipationRecord{
		{RaceGroupKey: "IST-1", HorseID: "ALPHA", Venue: "ISTANBUL", EventDate: day, StartTime: "14:30", RaceClass: "MAIDEN"},
		{RaceGroupKey: "IST-1", HorseID: "BETA", Venue: "ISTANBUL", EventDate: day, StartTime: "14:30", RaceClass: "MAIDEN"},
		{RaceGroupKey: "IST-1", HorseID: "GAMMA", Venue: "ISTANBUL", EventDate: day, StartTime: "14:30", RaceClass: "MAIDEN"},
		{RaceGroupKey: "IST-1", HorseID: "DELTA", Venue: "ISTANBUL", EventDate: day, StartTime: "14:30", RaceClass: "MAIDEN"},
	}
	preds := []models.Prediction{
		{ID: uuid.New(), RaceGroupKey: "IST-1", HorseID: "ALPHA", WinProba: 0.55, RaceRank: 1},
		{ID: uuid.New(), RaceGroupKey: "IST-1", HorseID: "BETA", WinProba: 0.25, RaceRank: 2},
		{ID: uuid.New(), RaceGroupKey: "IST-1", HorseID: "GAMMA", WinProba: 0.15, RaceRank: 3},
		{ID: uuid.New(), RaceGroupKey: "IST-1", HorseID: "DELTA", WinProba: 0.05, RaceRank: 4},
	}

	entries := BuildEntries(preds, today, nil, nil)
	require.Len(t, entries, 4)

	txtPath, err := reporter.Write("ISTANBUL", entries, day)
	require.NoError(t, err)

	text, err := os.ReadFile(txtPath)
	require.NoError(t, err)
	content := string(text)
	assert.Contains(t, content, "ISTANBUL AT YARIŞI TAHMİNLERİ")
	assert.Contains(t, content, "🏁 KOŞU 1 - Saat 14:30 - MAIDEN")
	assert.Contains(t, content, "ALPHA")
	assert.Contains(t, content, "En Yüksek 3 Tahmin")

	allCSV, err := os.ReadFile(filepath.Join(dir, "ISTANBUL_tahminler_tum.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(allCSV), "ALPHA")
	assert.Contains(t, string(allCSV), "DELTA")

	top3, err := os.ReadFile(filepath.Join(dir, "ISTANBUL_tahminler_ilk3.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(top3), "GAMMA")
	assert.NotContains(t, string(top3), "DELTA")
}
