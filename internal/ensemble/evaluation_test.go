package ensemble

import (
	"math"
	"testing"
)

func TestAUCPerfectSeparation(t *testing.T) {
	y := []float64{0, 0, 1, 1}
	scores := []float64{0.1, 0.2, 0.8, 0.9}
	auc, ok := AUC(y, scores)
	if !ok {
		t.Fatal("expected AUC to be defined")
	}
	if auc != 1.0 {
		t.Errorf("expected AUC 1.0, got %f", auc)
	}

	reversed, _ := AUC(y, []float64{0.9, 0.8, 0.2, 0.1})
	if reversed != 0.0 {
		t.Errorf("expected AUC 0.0 for reversed scores, got %f", reversed)
	}
}

func TestAUCTiesAverageToHalf(t *testing.T) {
	y := []float64{0, 1, 0, 1}
	scores := []float64{0.5, 0.5, 0.5, 0.5}
	auc, ok := AUC(y, scores)
	if !ok {
		t.Fatal("expected AUC to be defined")
	}
	if math.Abs(auc-0.5) > 1e-9 {
		t.Errorf("expected AUC 0.5 on all-tied scores, got %f", auc)
	}
}

func TestAUCUndefinedWithOneClass(t *testing.T) {
	if _, ok := AUC([]float64{1, 1, 1}, []float64{0.1, 0.2, 0.3}); ok {
		t.Error("AUC should be undefined without negatives")
	}
	if _, ok := AUC([]float64{0, 0}, []float64{0.1, 0.2}); ok {
		t.Error("AUC should be undefined without positives")
	}
}

func TestLogLossClampsExtremes(t *testing.T) {
	loss := LogLoss([]float64{1, 0}, []float64{1.0, 0.0})
	if math.IsInf(loss, 0) || math.IsNaN(loss) {
		t.Fatalf("log loss must stay finite at clamped extremes, got %f", loss)
	}
	confident := LogLoss([]float64{1, 0}, []float64{0.9, 0.1})
	hedged := LogLoss([]float64{1, 0}, []float64{0.6, 0.4})
	if confident >= hedged {
		t.Errorf("confident correct predictions should score lower loss: %f vs %f", confident, hedged)
	}
}

func TestHitAtOne(t *testing.T) {
	y := []float64{1, 0, 0, 0, 1, 0}
	p := []float64{0.9, 0.2, 0.1, 0.8, 0.3, 0.1}
	groups := []string{"r1", "r1", "r1", "r2", "r2", "r2"}

	// r1 picks the winner, r2 picks a loser.
	if got := HitAtOne(y, p, groups); got != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", got)
	}
}

func TestHitAtOneSkipsRacesWithoutWinner(t *testing.T) {
	y := []float64{0, 0, 1, 0}
	p := []float64{0.9, 0.1, 0.8, 0.2}
	groups := []string{"r1", "r1", "r2", "r2"}

	if got := HitAtOne(y, p, groups); got != 1.0 {
		t.Errorf("races with no recorded winner must not count, got %f", got)
	}
}
