package ensemble

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/wincast/internal/config"
	"github.com/yourusername/wincast/internal/features"
	"github.com/yourusername/wincast/internal/models"
)

// BaseModelCount is the width of the base prediction matrix: five decision
// trees, the boosted classifier, and the pairwise ranker.
const BaseModelCount = 7

// Trainer runs grid selection, out-of-fold stacking, and held-out
// evaluation to produce a TrainedEnsemble.
type Trainer struct {
	cfg *config.TrainingConfig
	log *logrus.Entry
}

// NewTrainer creates a trainer bound to its configuration.
func NewTrainer(cfg *config.TrainingConfig, log *logrus.Logger) *Trainer {
	return &Trainer{
		cfg: cfg,
		log: log.WithField("component", "trainer"),
	}
}

// TrainedEnsemble is the full trained state: the fitted base models, the
// stacking combiner, the encoder that aligns inference frames to the
// training frame, and held-out quality metrics.
type TrainedEnsemble struct {
	Encoder *Encoder
	Trees   []*DecisionTree
	Boost   *GradientBoost
	Ranker  *PairwiseRanker
	Meta    *LogisticRegression
	Metrics Metrics
}

// BaseScores returns the seven base model outputs for one encoded row. All
// outputs live in [0,1]; the ranker's raw score is squashed through a
// sigmoid so it is blendable with the probabilities.
func (e *TrainedEnsemble) BaseScores(x []float64) []float64 {
	scores := make([]float64, 0, BaseModelCount)
	for _, tree := range e.Trees {
		scores = append(scores, tree.PredictProba(x))
	}
	scores = append(scores, e.Boost.PredictProba(x))
	scores = append(scores, sigmoid(e.Ranker.Score(x)))
	return scores
}

// Train fits the complete ensemble on a training feature table. y holds the
// binary win targets and groups assigns each row to its race.
func (t *Trainer) Train(table *features.Table, y []float64, groups []string) (*TrainedEnsemble, error) {
	n := table.Rows()
	if n == 0 {
		return nil, models.ErrNoTrainingData
	}

	positives := 0.0
	for _, v := range y {
		positives += v
	}
	if positives == 0 {
		t.log.Warn("training set has no winners; model quality will be degraded")
	}

	rctx := NewRandomContext(t.cfg.Seed)
	encoder := FitEncoder(table)
	X := encoder.Transform(table)

	t.log.WithFields(logrus.Fields{
		"rows":    n,
		"columns": len(encoder.Columns()),
		"winners": int(positives),
		"seed":    t.cfg.Seed,
	}).Info("Starting ensemble training")

	treeConfigs := t.selectTrees(X, y, groups, rctx)
	boostConfig := t.selectBoost(X, y, groups, rctx)
	rankConfig := t.selectRanker(X, y, groups, rctx)

	base := t.fitBase(X, y, groups, treeConfigs, boostConfig, rankConfig, rctx, 0)
	meta := t.stack(X, y, groups, treeConfigs, boostConfig, rankConfig, rctx)
	metrics := t.evaluate(X, y, groups, treeConfigs, boostConfig, rankConfig, rctx)

	t.log.WithFields(logrus.Fields{
		"auc":      metrics.AUC,
		"log_loss": metrics.LogLoss,
		"hit_at_1": metrics.HitAt1,
		"folds":    metrics.Folds,
	}).Info("Ensemble training complete")

	return &TrainedEnsemble{
		Encoder: encoder,
		Trees:   base.trees,
		Boost:   base.boost,
		Ranker:  base.ranker,
		Meta:    meta,
		Metrics: metrics,
	}, nil
}

type baseModels struct {
	trees  []*DecisionTree
	boost  *GradientBoost
	ranker *PairwiseRanker
}

func (b *baseModels) scores(x []float64) []float64 {
	out := make([]float64, 0, BaseModelCount)
	for _, tree := range b.trees {
		out = append(out, tree.PredictProba(x))
	}
	out = append(out, b.boost.PredictProba(x))
	out = append(out, sigmoid(b.ranker.Score(x)))
	return out
}

// fitBase trains the final base models on the full rows given. Each tree
// gets its own derived seed so equally good splits break differently.
func (t *Trainer) fitBase(X [][]float64, y []float64, groups []string, treeConfigs []TreeConfig, boostConfig BoostConfig, rankConfig RankConfig, rctx *RandomContext, offset int64) *baseModels {
	base := &baseModels{}
	for i, cfg := range treeConfigs {
		tree := NewDecisionTree(cfg)
		tree.Fit(X, y, rctx.Derive(offset+int64(i)))
		base.trees = append(base.trees, tree)
	}

	boostConfig.Rounds = t.cfg.BoostingRounds
	base.boost = NewGradientBoost(boostConfig)
	base.boost.Fit(X, y, rctx.Derive(offset+200))

	rankConfig.Rounds = t.cfg.RankerRounds
	base.ranker = NewPairwiseRanker(rankConfig)
	base.ranker.Fit(X, y, groups, rctx.Derive(offset+300))
	return base
}

// selectTrees grid-searches the tree candidate space with group k-fold AUC
// and returns the best TreeCount configurations, best first. A candidate
// whose AUC is undefined on every fold scores -1 and sinks to the bottom.
func (t *Trainer) selectTrees(X [][]float64, y []float64, groups []string, rctx *RandomContext) []TreeConfig {
	folds := GroupKFold(groups, boundFolds(t.cfg.GridFolds, len(X)))

	type scored struct {
		cfg   TreeConfig
		score float64
	}
	candidates := make([]scored, 0, len(TreeGrid))
	for c, cfg := range TreeGrid {
		aucs := make([]float64, 0, len(folds))
		for f := range folds {
			trainIdx := TrainIndices(folds, f, len(X))
			validIdx := folds[f]

			tree := NewDecisionTree(cfg)
			tree.Fit(subsetRows(X, trainIdx), subsetFloats(y, trainIdx), rctx.Derive(100+int64(c)))

			preds := make([]float64, len(validIdx))
			for i, idx := range validIdx {
				preds[i] = tree.PredictProba(X[idx])
			}
			if auc, ok := AUC(subsetFloats(y, validIdx), preds); ok {
				aucs = append(aucs, auc)
			}
		}
		score := -1.0
		if len(aucs) > 0 {
			score, _ = meanStd(aucs)
		}
		candidates = append(candidates, scored{cfg: cfg, score: score})
		t.log.WithFields(logrus.Fields{
			"max_depth": cfg.MaxDepth,
			"auc":       score,
		}).Debug("Tree candidate scored")
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})

	keep := t.cfg.TreeCount
	if keep > len(candidates) {
		keep = len(candidates)
	}
	configs := make([]TreeConfig, keep)
	for i := 0; i < keep; i++ {
		configs[i] = candidates[i].cfg
	}
	return configs
}

func (t *Trainer) selectBoost(X [][]float64, y []float64, groups []string, rctx *RandomContext) BoostConfig {
	folds := GroupKFold(groups, boundFolds(t.cfg.GridFolds, len(X)))

	best := BoostGrid[0]
	bestScore := -1.0
	for c, cfg := range BoostGrid {
		// Grid rounds stay short; the winning configuration is refit at the
		// full round count.
		cfg.Rounds = gridRounds(t.cfg.BoostingRounds)
		aucs := make([]float64, 0, len(folds))
		for f := range folds {
			trainIdx := TrainIndices(folds, f, len(X))
			validIdx := folds[f]

			boost := NewGradientBoost(cfg)
			boost.Fit(subsetRows(X, trainIdx), subsetFloats(y, trainIdx), rctx.Derive(400+int64(c)))

			preds := make([]float64, len(validIdx))
			for i, idx := range validIdx {
				preds[i] = boost.PredictProba(X[idx])
			}
			if auc, ok := AUC(subsetFloats(y, validIdx), preds); ok {
				aucs = append(aucs, auc)
			}
		}
		score := -1.0
		if len(aucs) > 0 {
			score, _ = meanStd(aucs)
		}
		if score > bestScore {
			bestScore = score
			best = BoostGrid[c]
		}
	}
	t.log.WithFields(logrus.Fields{
		"max_depth":     best.MaxDepth,
		"learning_rate": best.LearningRate,
		"auc":           bestScore,
	}).Debug("Boosting candidate selected")
	return best
}

func (t *Trainer) selectRanker(X [][]float64, y []float64, groups []string, rctx *RandomContext) RankConfig {
	folds := GroupKFold(groups, boundFolds(t.cfg.GridFolds, len(X)))

	best := RankGrid[0]
	bestScore := -1.0
	for c, cfg := range RankGrid {
		cfg.Rounds = gridRounds(t.cfg.RankerRounds)
		aucs := make([]float64, 0, len(folds))
		for f := range folds {
			trainIdx := TrainIndices(folds, f, len(X))
			validIdx := folds[f]

			ranker := NewPairwiseRanker(cfg)
			ranker.Fit(subsetRows(X, trainIdx), subsetFloats(y, trainIdx), subsetStrings(groups, trainIdx), rctx.Derive(500+int64(c)))

			preds := make([]float64, len(validIdx))
			for i, idx := range validIdx {
				preds[i] = ranker.Score(X[idx])
			}
			if auc, ok := AUC(subsetFloats(y, validIdx), preds); ok {
				aucs = append(aucs, auc)
			}
		}
		score := -1.0
		if len(aucs) > 0 {
			score, _ = meanStd(aucs)
		}
		if score > bestScore {
			bestScore = score
			best = RankGrid[c]
		}
	}
	t.log.WithFields(logrus.Fields{
		"max_depth":     best.MaxDepth,
		"learning_rate": best.LearningRate,
		"auc":           bestScore,
	}).Debug("Ranker candidate selected")
	return best
}

// stack produces out-of-fold base predictions and fits the logistic
// combiner on them, so the combiner never sees a prediction made by a model
// that trained on that row's race.
func (t *Trainer) stack(X [][]float64, y []float64, groups []string, treeConfigs []TreeConfig, boostConfig BoostConfig, rankConfig RankConfig, rctx *RandomContext) *LogisticRegression {
	folds := GroupKFold(groups, boundFolds(t.cfg.StackingFolds, len(X)))

	oof := make([][]float64, len(X))
	for i := range oof {
		oof[i] = make([]float64, BaseModelCount)
		// Neutral default for rows never held out (possible when a fold
		// count was clamped).
		for j := range oof[i] {
			oof[i][j] = 0.5
		}
	}

	for f := range folds {
		trainIdx := TrainIndices(folds, f, len(X))
		base := t.fitBase(
			subsetRows(X, trainIdx),
			subsetFloats(y, trainIdx),
			subsetStrings(groups, trainIdx),
			treeConfigs, boostConfig, rankConfig,
			rctx, int64(1000*(f+1)),
		)
		for _, idx := range folds[f] {
			copy(oof[idx], base.scores(X[idx]))
		}
	}

	meta := NewLogisticRegression(t.cfg.MetaIterations)
	meta.Fit(oof, y)
	return meta
}

// evaluate reports held-out quality of the mean-of-base ensemble.
func (t *Trainer) evaluate(X [][]float64, y []float64, groups []string, treeConfigs []TreeConfig, boostConfig BoostConfig, rankConfig RankConfig, rctx *RandomContext) Metrics {
	k := boundFolds(t.cfg.EvaluationFolds, len(X))
	folds := GroupKFold(groups, k)
	if len(folds) < 2 {
		return Metrics{}
	}

	aucs := make([]float64, 0, len(folds))
	losses := make([]float64, 0, len(folds))
	hits := make([]float64, 0, len(folds))

	for f := range folds {
		trainIdx := TrainIndices(folds, f, len(X))
		validIdx := folds[f]

		base := t.fitBase(
			subsetRows(X, trainIdx),
			subsetFloats(y, trainIdx),
			subsetStrings(groups, trainIdx),
			treeConfigs, boostConfig, rankConfig,
			rctx, int64(10000*(f+1)),
		)

		preds := make([]float64, len(validIdx))
		for i, idx := range validIdx {
			scores := base.scores(X[idx])
			sum := 0.0
			for _, s := range scores {
				sum += s
			}
			preds[i] = sum / float64(len(scores))
		}

		yValid := subsetFloats(y, validIdx)
		if auc, ok := AUC(yValid, preds); ok {
			aucs = append(aucs, auc)
		}
		losses = append(losses, LogLoss(yValid, preds))
		hits = append(hits, HitAtOne(yValid, preds, subsetStrings(groups, validIdx)))
	}

	auc, aucStd := meanStd(aucs)
	loss, _ := meanStd(losses)
	hit, _ := meanStd(hits)
	return Metrics{AUC: auc, AUCStd: aucStd, LogLoss: loss, HitAt1: hit, Folds: len(folds)}
}

// boundFolds clamps a configured fold count to what the row count supports.
func boundFolds(requested, rows int) int {
	bound := rows / 2
	if bound < 2 {
		bound = 2
	}
	if requested < bound {
		return requested
	}
	return bound
}

// gridRounds shortens boosting during grid search; selection only needs
// relative ordering of the candidates.
func gridRounds(full int) int {
	if full > 60 {
		return 60
	}
	return full
}

func subsetRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func subsetFloats(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

func subsetStrings(v []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}
