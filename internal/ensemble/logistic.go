package ensemble

// LogisticRegression is the stacking combiner fit on out-of-fold base model
// predictions. Plain batch gradient descent is enough at meta-feature scale
// (seven columns).
type LogisticRegression struct {
	Weights   []float64
	Intercept float64
	MaxIter   int
}

// NewLogisticRegression creates an unfitted combiner.
func NewLogisticRegression(maxIter int) *LogisticRegression {
	if maxIter <= 0 {
		maxIter = 1000
	}
	return &LogisticRegression{MaxIter: maxIter}
}

// Fit minimizes logistic loss over X and binary targets y.
func (lr *LogisticRegression) Fit(X [][]float64, y []float64) {
	n := len(X)
	if n == 0 {
		return
	}
	width := len(X[0])
	lr.Weights = make([]float64, width)
	lr.Intercept = 0

	const step = 0.1
	grad := make([]float64, width)

	for iter := 0; iter < lr.MaxIter; iter++ {
		for j := range grad {
			grad[j] = 0
		}
		gradIntercept := 0.0
		for i := 0; i < n; i++ {
			err := sigmoid(lr.decision(X[i])) - y[i]
			for j := 0; j < width; j++ {
				grad[j] += err * X[i][j]
			}
			gradIntercept += err
		}
		scale := step / float64(n)
		for j := 0; j < width; j++ {
			lr.Weights[j] -= scale * grad[j]
		}
		lr.Intercept -= scale * gradIntercept
	}
}

// PredictProba returns the blended win probability for one meta-feature row.
func (lr *LogisticRegression) PredictProba(x []float64) float64 {
	return sigmoid(lr.decision(x))
}

func (lr *LogisticRegression) decision(x []float64) float64 {
	score := lr.Intercept
	for j, w := range lr.Weights {
		if j < len(x) {
			score += w * x[j]
		}
	}
	return score
}
