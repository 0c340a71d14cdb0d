package datasource

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/models"
)

// Provider CSV column names. The upstream feed is Turkish.
const (
	colHorse        = "at_adi"
	colRaceKey      = "yaris_kosu_key"
	colDate         = "tarih"
	colStartTime    = "saat"
	colResult       = "sonuc"
	colRaceClass    = "cins_detay"
	colSurface      = "pist"
	colDistance     = "mesafe"
	colJockey       = "jokey_adi"
	colTrainer      = "antrenor_adi"
	colAgeGroup     = "grup"
	colHandicap     = "handikap"
	colCarried      = "kilo"
	colPost         = "start"
	colAge          = "yas"
	colDaysSince    = "kgs"
	colBestTime     = "en_iyi_derece"
	colFormCode     = "son6"
	colCareerAvg    = "son20"
	colOdds         = "ganyan"
	colPublicRank   = "agf1_sira"
	colPublicShare  = "agf1"
)

const dateLayout = "02/01/2006"

// LoadVenue reads the venue's downloaded race-card file into records.
func LoadVenue(dataDir, venue string, log *logrus.Entry) ([]models.ParticipationRecord, error) {
	path := filepath.Join(dataDir, venue+".csv")
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoDataFile, path)
		}
		return nil, fmt.Errorf("opening race-card file: %w", err)
	}
	defer file.Close()
	return ParseRecords(file, venue, log)
}

// ParseRecords parses a provider CSV into participation records. Rows
// missing a horse name or a parseable date are dropped with a warning;
// everything else degrades to nil optionals.
func ParseRecords(r io.Reader, venue string, log *logrus.Entry) ([]models.ParticipationRecord, error) {
	df := dataframe.ReadCSV(r,
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCard, df.Err)
	}

	rows := df.Records()
	if len(rows) == 0 {
		return nil, ErrMalformedCard
	}

	index := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		index[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := index[colHorse]; !ok {
		return nil, fmt.Errorf("%w: missing %q column", ErrMalformedCard, colHorse)
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]models.ParticipationRecord, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		horse := cell(row, colHorse)
		date, err := time.Parse(dateLayout, cell(row, colDate))
		if horse == "" || err != nil {
			dropped++
			continue
		}

		rec := models.ParticipationRecord{
			ID:             uuid.New(),
			RaceGroupKey:   raceKey(cell(row, colRaceKey), venue, cell(row, colDate), cell(row, colStartTime)),
			EventDate:      date,
			Venue:          venue,
			HorseID:        horse,
			JockeyID:       strPtr(cell(row, colJockey)),
			TrainerID:      strPtr(cell(row, colTrainer)),
			Surface:        parseSurface(cell(row, colSurface)),
			DistanceMeters: intOr(cell(row, colDistance), 0),
			RaceClass:      cell(row, colRaceClass),
			AgeGroup:       cell(row, colAgeGroup),
			HandicapWeight: floatPtr(cell(row, colHandicap)),
			CarriedWeight:  floatPtr(cell(row, colCarried)),
			PostPosition:   intPtr(cell(row, colPost)),
			Age:            intPtr(cell(row, colAge)),
			DaysSinceRun:   intPtr(cell(row, colDaysSince)),
			BestTime:       floatPtr(cell(row, colBestTime)),
			RecentFormCode: cell(row, colFormCode),
			CareerFormAvg:  floatPtr(cell(row, colCareerAvg)),
			FinishRank:     intPtr(cell(row, colResult)),

			PublicMoneyRank:  intPtr(cell(row, colPublicRank)),
			PublicMoneyShare: floatPtr(cell(row, colPublicShare)),
			Odds:             floatPtr(cell(row, colOdds)),
			StartTime:        cell(row, colStartTime),
		}
		records = append(records, rec)
	}

	if dropped > 0 {
		log.WithFields(logrus.Fields{
			"venue":   venue,
			"dropped": dropped,
		}).Warn("Dropped unparseable race-card rows")
	}

	// Provider row order is not guaranteed; fix it so downstream fold
	// assignment and tie-breaking are reproducible.
	sort.SliceStable(records, func(a, b int) bool {
		if !records[a].EventDate.Equal(records[b].EventDate) {
			return records[a].EventDate.Before(records[b].EventDate)
		}
		if records[a].RaceGroupKey != records[b].RaceGroupKey {
			return records[a].RaceGroupKey < records[b].RaceGroupKey
		}
		return records[a].HorseID < records[b].HorseID
	})
	return records, nil
}

// raceKey falls back to venue|date|time when the provider key is absent.
func raceKey(key, venue, date, start string) string {
	if key != "" {
		return key
	}
	return fmt.Sprintf("%s|%s|%s", venue, date, start)
}

func parseSurface(s string) models.TrackSurface {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "çim") || strings.Contains(lower, "cim"):
		return models.SurfaceTurf
	case strings.Contains(lower, "sentetik"):
		return models.SurfaceSynthetic
	case strings.Contains(lower, "kum"):
		return models.SurfaceDirt
	default:
		return models.SurfaceUnknown
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func intPtr(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

func intOr(s string, def int) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// floatPtr parses the provider's comma-decimal numbers ("4,50").
func floatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}
