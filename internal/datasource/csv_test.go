package datasource

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/wincast/internal/logger"
	"github.com/yourusername/wincast/internal/models"
)

func TestParseRecords(t *testing.T) {
	csv := strings.Join([]string{
		"at_adi,yaris_kosu_key,tarih,saat,sonuc,cins_detay,pist,mesafe,jokey_adi,antrenor_adi,grup,handikap,kilo,start,yas,kgs,son6,son20,ganyan,agf1_sira,agf1",
		"BOLD PILOT,IST-20250601-1,01/06/2025,14:30,1,HANDİKAP 15,Çim,1600,A KURT,M DEMIR,4 VE YUKARI,52,\"56,5\",3,5,21,C1C2K1,\"72,5\",\"2,35\",1,\"24,8\"",
		"SECOND,IST-20250601-1,01/06/2025,14:30,,MAIDEN,Kum,1600,B CAN,,3 YAŞLI,48,,7,3,,K0C5,,,4,",
		",IST-20250601-1,01/06/2025,14:30,2,HANDİKAP 15,Çim,1600,,,,,,,,,,,,,",
		"BADDATE,IST-20250601-2,31/13/2025,15:00,3,MAIDEN,Çim,1400,,,,,,,,,,,,,",
	}, "\n")

	log := logger.NewLogger("error").WithField("component", "test")
	records, err := ParseRecords(strings.NewReader(csv), "ISTANBUL", log)
	require.NoError(t, err)
	// Missing horse name and unparseable date rows are dropped.
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, "BOLD PILOT", first.HorseID)
	assert.Equal(t, "IST-20250601-1", first.RaceGroupKey)
	assert.Equal(t, "ISTANBUL", first.Venue)
	assert.Equal(t, 2025, first.EventDate.Year())
	assert.Equal(t, 6, int(first.EventDate.Month()))
	assert.Equal(t, models.SurfaceTurf, first.Surface)
	assert.Equal(t, 1600, first.DistanceMeters)
	require.NotNil(t, first.FinishRank)
	assert.Equal(t, 1, *first.FinishRank)
	require.NotNil(t, first.CarriedWeight)
	assert.InDelta(t, 56.5, *first.CarriedWeight, 1e-9)
	require.NotNil(t, first.Odds)
	assert.InDelta(t, 2.35, *first.Odds, 1e-9)
	require.NotNil(t, first.CareerFormAvg)
	assert.InDelta(t, 72.5, *first.CareerFormAvg, 1e-9)
	require.NotNil(t, first.JockeyID)
	assert.Equal(t, "A KURT", *first.JockeyID)

	second := records[1]
	assert.Nil(t, second.FinishRank, "unraced entry must keep a nil result")
	assert.Nil(t, second.TrainerID)
	assert.Nil(t, second.CarriedWeight)
	assert.Nil(t, second.CareerFormAvg)
	assert.Equal(t, models.SurfaceDirt, second.Surface)
	assert.Equal(t, "K0C5", second.RecentFormCode)
}

func TestParseRecordsBuildsFallbackRaceKey(t *testing.T) {
	csv := "at_adi,tarih,saat\nRUNNER,01/06/2025,15:00\n"
	log := logger.NewLogger("error").WithField("component", "test")

	records, err := ParseRecords(strings.NewReader(csv), "KOCAELI", log)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "KOCAELI|01/06/2025|15:00", records[0].RaceGroupKey)
}

func TestParseRecordsRejectsMissingHorseColumn(t *testing.T) {
	csv := "tarih,sonuc\n01/06/2025,1\n"
	log := logger.NewLogger("error").WithField("component", "test")

	_, err := ParseRecords(strings.NewReader(csv), "ISTANBUL", log)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformedCard)
}

func TestParseSurface(t *testing.T) {
	assert.Equal(t, models.SurfaceTurf, parseSurface("Çim"))
	assert.Equal(t, models.SurfaceDirt, parseSurface("kum"))
	assert.Equal(t, models.SurfaceSynthetic, parseSurface("Sentetik"))
	assert.Equal(t, models.SurfaceUnknown, parseSurface(""))
}
