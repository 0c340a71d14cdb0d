// Package report writes prediction output: the per-venue CSV files, the
// top-3 summary, and the annotated text report the players actually read.
package report

import (
	"fmt"
	"strings"

	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/models"
)

// probEmoji marks confidence bands in the text report.
func probEmoji(p float64) string {
	switch {
	case p > 0.7:
		return "🔥"
	case p > 0.5:
		return "⭐"
	case p > 0.3:
		return "📈"
	default:
		return "📉"
	}
}

// upsetLabels renders surprise and bubble warnings when an entrant has at
// least two qualifying results in the last year.
func upsetLabels(u features.UpsetIndicators) []string {
	var labels []string
	if u.SurpriseCount >= 2 {
		labels = append(labels, fmt.Sprintf("🎯 Sürpriz:%d", int(u.SurpriseCount)))
	}
	if u.BubbleCount >= 2 {
		labels = append(labels, fmt.Sprintf("⚠️ Balon:%d", int(u.BubbleCount)))
	}
	return labels
}

// SmartLabels summarizes an entrant's relevant past for the text report:
// jockey partnership, distance and venue wins, upper-group experience, and
// which of today's rivals it has already beaten. Display-only; never a
// model input.
func SmartLabels(rec *models.ParticipationRecord, rivals []string, history []models.ParticipationRecord) []string {
	past := make([]*models.ParticipationRecord, 0)
	for i := range history {
		if history[i].HorseID == rec.HorseID && history[i].HasResult() {
			past = append(past, &history[i])
		}
	}
	if len(past) == 0 {
		return nil
	}

	var labels []string

	if jockey := rec.Jockey(); jockey != "" {
		wins, top4 := 0, 0
		for _, p := range past {
			if p.Jockey() != jockey {
				continue
			}
			if p.Won() {
				wins++
			}
			if rank := *p.FinishRank; rank >= 1 && rank <= 4 {
				top4++
			}
		}
		if wins > 0 {
			labels = append(labels, fmt.Sprintf("🏆 Jokey-At: %dx kazandı", wins))
		}
		if top4 > 0 {
			labels = append(labels, fmt.Sprintf("📊 Jokey-At: %dx tabela", top4))
		}
	}

	if rec.DistanceMeters > 0 {
		wins := 0
		for _, p := range past {
			if p.DistanceMeters == rec.DistanceMeters && p.Won() {
				wins++
			}
		}
		if wins > 0 {
			labels = append(labels, fmt.Sprintf("📏 Mesafe: %dx kazandı", wins))
		}
	}

	if rec.Venue != "" {
		wins := 0
		for _, p := range past {
			if p.Venue == rec.Venue && p.Won() {
				wins++
			}
		}
		if wins > 0 {
			labels = append(labels, fmt.Sprintf("🏟️ %s: %dx kazandı", rec.Venue, wins))
		}
	}

	if exp := groupExperience(rec.RaceClass, past); exp != "" {
		labels = append(labels, "🏅 "+exp)
	}

	if beaten := beatenRivals(rec.HorseID, rivals, history); len(beaten) > 0 {
		labels = append(labels, "⚔️ Geçti: "+strings.Join(beaten, ", "))
	}

	return labels
}

// groupExperience counts past starts in the tiers above today's race. A KV
// runner shows its G1-G3 record, a G3 runner its G1-G2 record, and so on;
// lower-class races show the full top-tier record.
func groupExperience(raceClass string, past []*models.ParticipationRecord) string {
	var tiers []features.RaceCategory
	switch features.ClassifyRaceCategory(raceClass) {
	case features.CategoryKV:
		tiers = []features.RaceCategory{features.CategoryG1, features.CategoryG2, features.CategoryG3}
	case features.CategoryG3:
		tiers = []features.RaceCategory{features.CategoryG1, features.CategoryG2}
	case features.CategoryG2, features.CategoryG1:
		tiers = []features.RaceCategory{features.CategoryG1}
	default:
		tiers = []features.RaceCategory{features.CategoryG1, features.CategoryG2, features.CategoryG3, features.CategoryKV}
	}

	var parts []string
	for _, tier := range tiers {
		count := 0
		for _, p := range past {
			if features.ClassifyRaceCategory(p.RaceClass) == tier {
				count++
			}
		}
		if count > 0 {
			parts = append(parts, fmt.Sprintf("%dx %s", count, tier))
		}
	}
	return strings.Join(parts, " ")
}

// beatenRivals returns today's rivals this horse has outfinished in a
// shared past race, in rival order.
func beatenRivals(horse string, rivals []string, history []models.ParticipationRecord) []string {
	outFinished := make(map[string]struct{})
	for _, race := range models.GroupByRace(models.Refs(history)) {
		if !race.HasKnownOutcome() {
			continue
		}

		var mine *models.ParticipationRecord
		for _, rec := range race.Records {
			if rec.HorseID == horse && rec.HasResult() {
				mine = rec
				break
			}
		}
		if mine == nil {
			continue
		}

		for _, rec := range race.Records {
			if rec.HorseID == horse || !rec.HasResult() {
				continue
			}
			if *mine.FinishRank < *rec.FinishRank {
				outFinished[rec.HorseID] = struct{}{}
			}
		}
	}

	var beaten []string
	for _, rival := range rivals {
		if rival == horse {
			continue
		}
		if _, ok := outFinished[rival]; ok {
			beaten = append(beaten, rival)
		}
	}
	return beaten
}
