package features

import (
	"time"

	"github.com/yourusername/wincast/internal/models"
)

// Badge composite weights. Ordered so one win at a higher tier always
// outweighs several at the tier below (1 G1 > 2 G2 > 3 G3).
const (
	badgeWeightG1       = 25.0
	badgeWeightG2       = 10.0
	badgeWeightG3       = 6.0
	badgeWeightKV       = 3.0
	badgeWeightBeaten   = 2.5
	badgeWeightDistWin  = 1.8
	badgeWeightVenueWin = 1.2
)

// BadgeCounts are the raw experience counters behind the badge features.
type BadgeCounts struct {
	JockeyHorseWins float64
	JockeyHorseTop4 float64
	DistanceWins    float64
	VenueWins       float64
	G1Count         float64
	G2Count         float64
	G3Count         float64
	KVCount         float64
	BeatenRivals    float64
}

// WeightedScore collapses the counters into one composite.
func (b BadgeCounts) WeightedScore() float64 {
	return badgeWeightG1*b.G1Count +
		badgeWeightG2*b.G2Count +
		badgeWeightG3*b.G3Count +
		badgeWeightKV*b.KVCount +
		badgeWeightBeaten*b.BeatenRivals +
		badgeWeightDistWin*b.DistanceWins +
		badgeWeightVenueWin*b.VenueWins
}

// GroupSum is the combined count of group-race starts.
func (b BadgeCounts) GroupSum() float64 {
	return b.G1Count + b.G2Count + b.G3Count
}

// ComputeBadges counts a horse's experience badges as of the cutoff: wins
// with the current jockey, at the current distance, at the current venue,
// group-race starts, and the number of distinct rivals it has ever finished
// ahead of.
func ComputeBadges(h *History, rec *models.ParticipationRecord, cutoff time.Time) BadgeCounts {
	var b BadgeCounts
	past := h.HorseBefore(rec.HorseID, cutoff)
	if len(past) == 0 {
		return b
	}

	jockey := rec.Jockey()
	beaten := make(map[string]struct{})

	for _, r := range past {
		if jockey != "" && r.Jockey() == jockey {
			if r.Won() {
				b.JockeyHorseWins++
			}
			if rank := r.Rank(0); rank >= 1 && rank <= 4 {
				b.JockeyHorseTop4++
			}
		}
		if rec.DistanceMeters > 0 && r.DistanceMeters == rec.DistanceMeters && r.Won() {
			b.DistanceWins++
		}
		if rec.Venue != "" && r.Venue == rec.Venue && r.Won() {
			b.VenueWins++
		}

		switch ClassifyRaceCategory(r.RaceClass) {
		case CategoryG1:
			b.G1Count++
		case CategoryG2:
			b.G2Count++
		case CategoryG3:
			b.G3Count++
		case CategoryKV:
			b.KVCount++
		}

		myRank := r.Rank(0)
		if myRank < 1 {
			continue
		}
		for _, peer := range h.RacePeers(r.RaceGroupKey) {
			if peer.HorseID == rec.HorseID {
				continue
			}
			if peer.Rank(0) > myRank {
				beaten[peer.HorseID] = struct{}{}
			}
		}
	}

	b.BeatenRivals = float64(len(beaten))
	return b
}
