package ensemble

import (
	"math"
	"sort"

	"github.com/yourusername/wincast/internal/features"
)

// Encoder captures the frame the models were trained against: the numeric
// column order, per-column medians for imputation, label maps for
// categorical columns, and per-column modes. It is part of the trained model
// state so inference frames can be aligned exactly to what training saw.
type Encoder struct {
	NumericColumns     []string
	CategoricalColumns []string
	Medians            map[string]float64
	Modes              map[string]string
	Labels             map[string]map[string]int
}

// FitEncoder learns the encoding from a training feature table.
func FitEncoder(t *features.Table) *Encoder {
	e := &Encoder{
		NumericColumns:     t.NumericNames(),
		CategoricalColumns: t.CategoricalNames(),
		Medians:            make(map[string]float64),
		Modes:              make(map[string]string),
		Labels:             make(map[string]map[string]int),
	}

	for _, name := range e.NumericColumns {
		e.Medians[name] = median(t.Numeric(name))
	}
	for _, name := range e.CategoricalColumns {
		values := t.Categorical(name)
		labels := make(map[string]int)
		counts := make(map[string]int)
		for _, v := range values {
			if _, ok := labels[v]; !ok {
				labels[v] = len(labels)
			}
			counts[v]++
		}
		e.Labels[name] = labels
		e.Modes[name] = modeOf(values, counts)
	}
	return e
}

// UnseenLabel returns the encoded value reserved for categories never seen
// during training: one past the largest known index.
func (e *Encoder) UnseenLabel(column string) int {
	return len(e.Labels[column])
}

// Columns returns the full model input column order, numeric columns first.
func (e *Encoder) Columns() []string {
	cols := make([]string, 0, len(e.NumericColumns)+len(e.CategoricalColumns))
	cols = append(cols, e.NumericColumns...)
	cols = append(cols, e.CategoricalColumns...)
	return cols
}

// Transform converts a feature table into a dense matrix aligned to the
// training frame. Columns missing from the table fall back to the training
// median (or mode); NaN numerics are imputed with the median; categorical
// values unseen during training map to the reserved unseen label.
func (e *Encoder) Transform(t *features.Table) [][]float64 {
	n := t.Rows()
	width := len(e.NumericColumns) + len(e.CategoricalColumns)
	X := make([][]float64, n)
	for i := range X {
		X[i] = make([]float64, width)
	}

	for j, name := range e.NumericColumns {
		med := e.Medians[name]
		if t.HasNumeric(name) {
			col := t.Numeric(name)
			for i := 0; i < n; i++ {
				v := col[i]
				if math.IsNaN(v) {
					v = med
				}
				X[i][j] = v
			}
		} else {
			for i := 0; i < n; i++ {
				X[i][j] = med
			}
		}
	}

	base := len(e.NumericColumns)
	for j, name := range e.CategoricalColumns {
		labels := e.Labels[name]
		col := t.Categorical(name)
		for i := 0; i < n; i++ {
			value := e.Modes[name]
			if col != nil {
				value = col[i]
			}
			code, ok := labels[value]
			if !ok {
				code = e.UnseenLabel(name)
			}
			X[i][base+j] = float64(code)
		}
	}
	return X
}

func median(values []float64) float64 {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return 0
	}
	sort.Float64s(clean)
	mid := len(clean) / 2
	if len(clean)%2 == 1 {
		return clean[mid]
	}
	return (clean[mid-1] + clean[mid]) / 2
}

func modeOf(values []string, counts map[string]int) string {
	best := ""
	bestCount := -1
	for _, v := range values {
		if c := counts[v]; c > bestCount {
			best = v
			bestCount = c
		}
	}
	return best
}
