package model

import (
	"fmt"
	"math"
)

// LogisticClassifier scores one-vs-rest logistic regression weights. Each
// class probability is an independent sigmoid, so rows need not sum to one.
type LogisticClassifier struct {
	features  []string
	coef      [][]float64
	intercept []float64
}

func newLogisticClassifier(a *ClassifierArtifact) (*LogisticClassifier, error) {
	if len(a.Coef) != len(a.Intercept) {
		return nil, &SchemaMismatchError{
			Artifact: ClassifierFile,
			Reason:   fmt.Sprintf("%d coefficient rows but %d intercepts", len(a.Coef), len(a.Intercept)),
		}
	}
	for i, row := range a.Coef {
		if len(row) != len(a.Features) {
			return nil, &SchemaMismatchError{
				Artifact: ClassifierFile,
				Reason:   fmt.Sprintf("coefficient row %d has %d weights for %d features", i, len(row), len(a.Features)),
			}
		}
	}
	return &LogisticClassifier{
		features:  a.Features,
		coef:      a.Coef,
		intercept: a.Intercept,
	}, nil
}

// Features returns the ordered feature vocabulary. The slice must not be modified.
func (l *LogisticClassifier) Features() []string { return l.features }

// NumClasses returns the number of per-class outputs.
func (l *LogisticClassifier) NumClasses() int { return len(l.intercept) }

// PredictProba returns one probability per class for x.
func (l *LogisticClassifier) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(l.features) {
		return nil, fmt.Errorf("input has %d features, model expects %d", len(x), len(l.features))
	}
	out := make([]float64, len(l.coef))
	for c, row := range l.coef {
		z := l.intercept[c]
		for i, w := range row {
			z += w * x[i]
		}
		out[c] = sigmoid(z)
	}
	return out, nil
}

// Close is a no-op; the weights live in memory.
func (l *LogisticClassifier) Close() error { return nil }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
