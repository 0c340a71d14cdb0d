package features

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// PostProcess stabilizes the numeric columns of a feature table: winsorize
// tails, log1p non-negative columns, and drop one of every pair of nearly
// identical columns. Categorical columns are untouched. Returns the names of
// the pruned columns.
func PostProcess(t *Table, winsorizeLow, winsorizeHigh, corrLimit float64) []string {
	for _, name := range t.NumericNames() {
		col := t.Numeric(name)
		winsorize(col, winsorizeLow, winsorizeHigh)
		if nonNegative(col) {
			for i, v := range col {
				if !math.IsNaN(v) {
					col[i] = math.Log1p(v)
				}
			}
		}
	}
	return pruneCorrelated(t, corrLimit)
}

// winsorize clips a column to its [low, high] quantiles in place. NaN cells
// are preserved for downstream imputation.
func winsorize(col []float64, low, high float64) {
	clean := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			clean = append(clean, v)
		}
	}
	if len(clean) < 2 {
		return
	}
	sort.Float64s(clean)
	qLow := stat.Quantile(low, stat.Empirical, clean, nil)
	qHigh := stat.Quantile(high, stat.Empirical, clean, nil)
	if qHigh <= qLow {
		return
	}
	for i, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if v < qLow {
			col[i] = qLow
		} else if v > qHigh {
			col[i] = qHigh
		}
	}
}

func nonNegative(col []float64) bool {
	seen := false
	for _, v := range col {
		if math.IsNaN(v) {
			continue
		}
		if v < 0 {
			return false
		}
		seen = true
	}
	return seen
}

// pruneCorrelated drops numeric columns whose absolute correlation with an
// earlier column exceeds the limit. The first occurrence always survives so
// column selection is order-stable across runs.
func pruneCorrelated(t *Table, limit float64) []string {
	names := t.NumericNames()
	dropped := make([]string, 0)
	kept := make([]string, 0, len(names))

	for _, name := range names {
		col := t.Numeric(name)
		redundant := false
		for _, prev := range kept {
			if corr := pairCorrelation(t.Numeric(prev), col); !math.IsNaN(corr) && math.Abs(corr) > limit {
				redundant = true
				break
			}
		}
		if redundant {
			t.DropNumeric(name)
			dropped = append(dropped, name)
			continue
		}
		kept = append(kept, name)
	}
	return dropped
}

// pairCorrelation is the Pearson correlation over rows where both columns
// are present.
func pairCorrelation(a, b []float64) float64 {
	xs := make([]float64, 0, len(a))
	ys := make([]float64, 0, len(b))
	for i := range a {
		if math.IsNaN(a[i]) || math.IsNaN(b[i]) {
			continue
		}
		xs = append(xs, a[i])
		ys = append(ys, b[i])
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}
