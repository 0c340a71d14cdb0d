package ensemble

import (
	"math"
	"sort"
)

// Metrics summarizes held-out ensemble quality across evaluation folds.
type Metrics struct {
	AUC     float64 `json:"auc"`
	AUCStd  float64 `json:"auc_std"`
	LogLoss float64 `json:"log_loss"`
	HitAt1  float64 `json:"hit_at_1"`
	Folds   int     `json:"folds"`
}

// AUC computes the area under the ROC curve from scores against binary
// targets, handling ties by average rank. The second return is false when
// only one class is present and the metric is undefined.
func AUC(y, scores []float64) (float64, bool) {
	n := len(y)
	positives, negatives := 0.0, 0.0
	for _, v := range y {
		if v > 0.5 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return 0, false
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] < scores[idx[b]]
	})

	ranks := make([]float64, n)
	for start := 0; start < n; {
		end := start
		for end+1 < n && scores[idx[end+1]] == scores[idx[start]] {
			end++
		}
		avg := float64(start+end)/2 + 1
		for k := start; k <= end; k++ {
			ranks[idx[k]] = avg
		}
		start = end + 1
	}

	posRankSum := 0.0
	for i, v := range y {
		if v > 0.5 {
			posRankSum += ranks[i]
		}
	}
	u := posRankSum - positives*(positives+1)/2
	return u / (positives * negatives), true
}

// LogLoss computes mean negative log likelihood with probabilities clamped
// away from 0 and 1.
func LogLoss(y, p []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	total := 0.0
	for i, target := range y {
		prob := clampProb(p[i])
		if target > 0.5 {
			total -= math.Log(prob)
		} else {
			total -= math.Log(1 - prob)
		}
	}
	return total / float64(len(y))
}

// HitAtOne is the fraction of races whose highest-scored runner actually
// won. Races without a recorded winner are skipped.
func HitAtOne(y, p []float64, groups []string) float64 {
	byGroup := make(map[string][]int)
	order := make([]string, 0)
	for i, g := range groups {
		if _, ok := byGroup[g]; !ok {
			order = append(order, g)
		}
		byGroup[g] = append(byGroup[g], i)
	}

	scored, hits := 0, 0
	for _, g := range order {
		rows := byGroup[g]
		hasWinner := false
		best := rows[0]
		for _, i := range rows {
			if y[i] > 0.5 {
				hasWinner = true
			}
			if p[i] > p[best] {
				best = i
			}
		}
		if !hasWinner {
			continue
		}
		scored++
		if y[best] > 0.5 {
			hits++
		}
	}
	if scored == 0 {
		return 0
	}
	return float64(hits) / float64(scored)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(variance / float64(len(values)))
}
