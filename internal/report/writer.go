package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/models"
)

// Entry pairs one prediction with its card record and display annotations.
type Entry struct {
	Record   models.ParticipationRecord
	WinProba float64
	RaceRank int
	Labels   []string
}

// Reporter writes the per-venue output files.
type Reporter struct {
	outputDir string
	log       *logrus.Entry
}

// NewReporter creates a reporter writing under the configured output
// directory.
func NewReporter(cfg *config.DataConfig, log *logrus.Logger) *Reporter {
	return &Reporter{
		outputDir: cfg.OutputDir,
		log:       log.WithField("component", "reporter"),
	}
}

// BuildEntries joins predictions with their card rows and computes the
// display labels: upset indicators plus the past-performance summary.
// upsets must be index-aligned with today; pass nil when unavailable.
func BuildEntries(preds []models.Prediction, today, history []models.ParticipationRecord, upsets []features.UpsetIndicators) []Entry {
	probaByKey := make(map[string]models.Prediction, len(preds))
	for _, p := range preds {
		probaByKey[p.RaceGroupKey+"|"+p.HorseID] = p
	}

	rivalsByRace := make(map[string][]string)
	for _, race := range models.GroupByRace(models.Refs(today)) {
		names := make([]string, 0, len(race.Records))
		for _, rec := range race.Records {
			names = append(names, rec.HorseID)
		}
		rivalsByRace[race.GroupKey] = names
	}

	entries := make([]Entry, 0, len(today))
	for i := range today {
		rec := today[i]
		pred, ok := probaByKey[rec.RaceGroupKey+"|"+rec.HorseID]
		if !ok {
			continue
		}

		var labels []string
		if upsets != nil {
			labels = append(labels, upsetLabels(upsets[i])...)
		}
		labels = append(labels, SmartLabels(&rec, rivalsByRace[rec.RaceGroupKey], history)...)

		entries = append(entries, Entry{
			Record:   rec,
			WinProba: pred.WinProba,
			RaceRank: pred.RaceRank,
			Labels:   labels,
		})
	}
	return entries
}

// Write produces the three venue output files: all predictions as CSV, the
// top-3 per race as CSV, and the annotated text report. It returns the text
// report path.
func (r *Reporter) Write(venue string, entries []Entry, now time.Time) (string, error) {
	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	races := groupEntries(entries)

	if err := r.writeCSV(filepath.Join(r.outputDir, venue+"_tahminler_tum.csv"), entries); err != nil {
		return "", err
	}

	var top3 []Entry
	for _, race := range races {
		limit := 3
		if len(race) < limit {
			limit = len(race)
		}
		top3 = append(top3, race[:limit]...)
	}
	if err := r.writeCSV(filepath.Join(r.outputDir, venue+"_tahminler_ilk3.csv"), top3); err != nil {
		return "", err
	}

	txtPath := filepath.Join(r.outputDir, venue+"_tahminler.txt")
	if err := r.writeText(txtPath, venue, races, len(entries), now); err != nil {
		return "", err
	}

	r.log.WithFields(logrus.Fields{
		"venue": venue,
		"races": len(races),
		"path":  txtPath,
	}).Info("Reports written")
	return txtPath, nil
}

// groupEntries buckets entries by race in first-seen order, each race sorted
// by probability descending.
func groupEntries(entries []Entry) [][]Entry {
	index := make(map[string]int)
	var races [][]Entry
	for _, e := range entries {
		key := e.Record.RaceGroupKey
		g, ok := index[key]
		if !ok {
			g = len(races)
			index[key] = g
			races = append(races, nil)
		}
		races[g] = append(races[g], e)
	}
	for _, race := range races {
		sort.SliceStable(race, func(a, b int) bool {
			return race[a].WinProba > race[b].WinProba
		})
	}
	return races
}

func (r *Reporter) writeCSV(path string, entries []Entry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, []string{"yaris_kosu_key", "at_adi", "win_proba", "sonuc"})
	for _, e := range entries {
		result := ""
		if e.Record.FinishRank != nil {
			result = strconv.Itoa(*e.Record.FinishRank)
		}
		rows = append(rows, []string{
			e.Record.RaceGroupKey,
			e.Record.HorseID,
			strconv.FormatFloat(e.WinProba, 'f', 6, 64),
			result,
		})
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer file.Close()

	df := dataframe.LoadRecords(rows)
	if df.Err != nil {
		return fmt.Errorf("building report frame: %w", df.Err)
	}
	if err := df.WriteCSV(file); err != nil {
		return fmt.Errorf("writing report csv: %w", err)
	}
	return nil
}

func (r *Reporter) writeText(path, venue string, races [][]Entry, total int, now time.Time) error {
	var b strings.Builder
	divider := strings.Repeat("=", 60)

	fmt.Fprintf(&b, "🏇 %s AT YARIŞI TAHMİNLERİ\n", venue)
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "📅 Tarih: %s\n", now.Format("02/01/2006 15:04"))
	fmt.Fprintf(&b, "📊 Toplam Koşu: %d\n", len(races))
	fmt.Fprintf(&b, "📊 Toplam At: %d\n", total)
	b.WriteString(divider + "\n\n")

	for i, race := range races {
		header := fmt.Sprintf("🏁 KOŞU %d", i+1)
		if start := race[0].Record.StartTime; start != "" {
			header += " - Saat " + start
		}
		if class := race[0].Record.RaceClass; class != "" {
			header += " - " + class
		}
		b.WriteString(header + "\n")
		b.WriteString(strings.Repeat("-", 40) + "\n")

		for pos, e := range race {
			line := fmt.Sprintf("%2d. %s %-25s - %5.1f%%", pos+1, probEmoji(e.WinProba), e.Record.HorseID, e.WinProba*100)
			if len(e.Labels) > 0 {
				line += " " + strings.Join(e.Labels, " ")
			}
			b.WriteString(line + "\n")
		}

		b.WriteString("\n🎯 En Yüksek 3 Tahmin:\n")
		limit := 3
		if len(race) < limit {
			limit = len(race)
		}
		for pos := 0; pos < limit; pos++ {
			e := race[pos]
			fmt.Fprintf(&b, "   %d. %s - %.1f%%\n", pos+1, e.Record.HorseID, e.WinProba*100)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("writing text report: %w", err)
	}
	return nil
}
