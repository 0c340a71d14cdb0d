package inference

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/ensemble"
	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/models"
)

// Fixed blend vectors for context mode, ordered like the base score matrix:
// the five trees, the boosted classifier, the ranker.
var (
	blendMaiden    = []float64{0.06, 0.06, 0.06, 0.06, 0.06, 0.60, 0.10}
	blendHighClass = []float64{0.03, 0.03, 0.03, 0.03, 0.03, 0.27, 0.60}
	blendDefault   = []float64{0.06, 0.06, 0.06, 0.06, 0.06, 0.48, 0.22}
)

// Predictor converts trained ensemble output into per-race win
// probabilities.
type Predictor struct {
	cfg      *config.InferenceConfig
	halfLife float64
	log      *logrus.Entry
	model    *ensemble.TrainedEnsemble
}

// NewPredictor creates a predictor without a model; SetModel must be called
// before Predict.
func NewPredictor(cfg *config.InferenceConfig, feat *config.FeaturesConfig, log *logrus.Logger) *Predictor {
	return &Predictor{
		cfg:      cfg,
		halfLife: feat.RecencyHalfLifeDays,
		log:      log.WithField("component", "predictor"),
	}
}

// SetModel installs the trained ensemble state.
func (p *Predictor) SetModel(m *ensemble.TrainedEnsemble) { p.model = m }

// Trained reports whether a model has been installed.
func (p *Predictor) Trained() bool { return p.model != nil }

// Predict scores today's entrants. rows and table must be index-aligned;
// hist provides the leakage-safe history the dominance boost draws on.
func (p *Predictor) Predict(runID uuid.UUID, rows []models.ParticipationRecord, table *features.Table, hist *features.History, now time.Time) ([]models.Prediction, error) {
	if p.model == nil {
		return nil, models.ErrNotTrained
	}
	if len(rows) == 0 {
		return nil, models.ErrNothingToPredict
	}

	X := p.model.Encoder.Transform(table)
	base := make([][]float64, len(rows))
	blended := make([]float64, len(rows))
	for i := range rows {
		base[i] = p.model.BaseScores(X[i])
		blended[i] = p.blend(base[i], &rows[i])
	}

	groups := groupRows(rows)
	predictions := make([]models.Prediction, 0, len(rows))
	for _, group := range groups {
		probs := p.scoreRace(group, rows, table, base, blended, hist, now)

		ranked := rankDescending(probs)
		for pos, idx := range group {
			predictions = append(predictions, models.Prediction{
				ID:           uuid.New(),
				RunID:        runID,
				RaceGroupKey: rows[idx].RaceGroupKey,
				Venue:        rows[idx].Venue,
				EventDate:    rows[idx].EventDate,
				HorseID:      rows[idx].HorseID,
				WinProba:     probs[pos],
				RaceRank:     ranked[pos],
				CreatedAt:    now,
			})
		}
	}

	p.log.WithFields(logrus.Fields{
		"races":    len(groups),
		"entrants": len(rows),
		"mode":     p.cfg.BlendMode,
	}).Info("Prediction complete")
	return predictions, nil
}

// scoreRace runs the full per-race chain: dominance boost, scaling with its
// uniform fallback, and the optional re-rank bonus.
func (p *Predictor) scoreRace(group []int, rows []models.ParticipationRecord, table *features.Table, base [][]float64, blended []float64, hist *features.History, now time.Time) []float64 {
	raw := make([]float64, len(group))
	entrants := make([]models.ParticipationRecord, len(group))
	for pos, idx := range group {
		raw[pos] = blended[idx]
		entrants[pos] = rows[idx]
	}

	if p.cfg.H2HBoostAlpha > 0 && hist != nil {
		dominance := features.PairwiseDominance(hist, entrants, now, p.halfLife)
		zeroed := true
		for _, d := range dominance {
			if d != 0 {
				zeroed = false
				break
			}
		}
		if !zeroed {
			raw = ApplyDominanceBoost(raw, dominance, p.cfg.H2HBoostAlpha)
		}
	}

	var probs []float64
	if p.cfg.SoftmaxCalibration {
		probs = SoftmaxScale(raw, p.cfg.SoftmaxTemperature)
	} else {
		probs = MinMaxRescale(raw, p.cfg.RescaleFloor, p.cfg.RescaleCeil)
	}
	if NearlyUniform(probs) {
		probs = RankWeights(raw)
	}

	if p.cfg.RerankBonus {
		probs = ApplyRerankBonus(probs, p.rerankSignals(group, table, base))
	}
	return probs
}

func (p *Predictor) rerankSignals(group []int, table *features.Table, base [][]float64) []RerankSignals {
	signals := make([]RerankSignals, len(group))
	for pos, idx := range group {
		signals[pos] = RerankSignals{
			ClassWeightedAvgRank: table.NumericValue("class_weighted_avg_rank_last6", idx),
			FormScoreWeighted:    table.NumericValue("form_score_weighted", idx),
			OpponentQuality:      table.NumericValue("opponent_quality", idx),
			RaceClassWeight:      table.NumericValue("race_class_weight", idx),
			SurfaceExperience:    table.NumericValue("horse_surface_experience", idx),
			DistanceWinRate:      table.NumericValue("horse_distance_win_rate", idx),
			DistanceBandWinRate:  table.NumericValue("horse_distance_band_win_rate", idx),
			SurfaceWinRate:       table.NumericValue("horse_surface_win_rate", idx),
			HeadToHead:           table.NumericValue("h2h_general_score", idx),
			ModelScoreStd:        scoreStd(base[idx]),
		}
	}
	return signals
}

// blend folds the seven base scores into one raw score per the configured
// mode.
func (p *Predictor) blend(scores []float64, rec *models.ParticipationRecord) float64 {
	switch p.cfg.BlendMode {
	case "meta":
		return p.model.Meta.PredictProba(scores)
	case "context":
		return dot(scores, contextVector(rec))
	default:
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		return sum / float64(len(scores))
	}
}

// contextVector picks the fixed blend weights for a runner's race type.
// Maiden and first-condition races lean on the boosted classifier; top-tier
// races lean on the ranker.
func contextVector(rec *models.ParticipationRecord) []float64 {
	text := features.NormalizeClassText(rec.RaceClass)
	if strings.Contains(text, "MAID") || strings.Contains(text, "SARTLI 1") {
		return blendMaiden
	}
	if features.ClassWeight(rec.RaceClass) >= 0.8 {
		return blendHighClass
	}
	return blendDefault
}

// groupRows buckets row indices by race in first-seen order.
func groupRows(rows []models.ParticipationRecord) [][]int {
	byKey := make(map[string]int)
	groups := make([][]int, 0)
	for i := range rows {
		key := rows[i].RaceGroupKey
		g, ok := byKey[key]
		if !ok {
			g = len(groups)
			byKey[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

// rankDescending assigns 1-based ranks by probability, highest first, with
// earlier rows winning ties.
func rankDescending(probs []float64) []int {
	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return probs[order[a]] > probs[order[b]]
	})
	ranks := make([]int, len(probs))
	for rank, idx := range order {
		ranks[idx] = rank + 1
	}
	return ranks
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func scoreStd(scores []float64) float64 {
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))
	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	return math.Sqrt(variance / float64(len(scores)))
}
