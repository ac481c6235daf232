package inference

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/curesense/curesense/internal/model"
)

const (
	// DefaultTopK is the number of predictions returned when none is configured.
	DefaultTopK = 3

	// ConfidenceFloor is the probability a class must strictly exceed to be reported.
	ConfidenceFloor = 0.01
)

// Classifier scores a single feature vector against every known class.
type Classifier interface {
	Features() []string
	PredictProba(x []float64) ([]float64, error)
}

// LabelSet exposes class labels in the same order as the classifier's
// probability output.
type LabelSet interface {
	Classes() []string
}

// Prediction is one ranked disease with its confidence percentage.
type Prediction struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

// Predictor ranks classifier output and applies the top-k and floor rules.
// It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	clf     Classifier
	vocab   Vocabulary
	classes []string
	topK    int
}

// NewPredictor wires a classifier to its label set. A topK of zero or less
// falls back to DefaultTopK.
func NewPredictor(clf Classifier, labels LabelSet, topK int) (*Predictor, error) {
	features := clf.Features()
	if len(features) == 0 {
		return nil, &model.SchemaMismatchError{Artifact: "classifier", Reason: "feature vocabulary is empty"}
	}
	classes := labels.Classes()
	if len(classes) == 0 {
		return nil, &model.SchemaMismatchError{Artifact: "labels", Reason: "class list is empty"}
	}
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Predictor{
		clf:     clf,
		vocab:   Vocabulary(slices.Clone(features)),
		classes: slices.Clone(classes),
		topK:    topK,
	}, nil
}

// Vocabulary returns the feature vocabulary the classifier expects.
func (p *Predictor) Vocabulary() Vocabulary {
	return p.vocab
}

// TopK returns the configured result cap.
func (p *Predictor) TopK() int {
	return p.topK
}

// Predict returns up to TopK predictions ordered by descending confidence.
// Equal probabilities keep class-index order. Classes at or below
// ConfidenceFloor are dropped, so the result may be empty.
func (p *Predictor) Predict(vec FeatureVector) ([]Prediction, error) {
	if len(vec) != len(p.vocab) {
		return nil, fmt.Errorf("feature vector has %d entries, vocabulary has %d", len(vec), len(p.vocab))
	}
	probs, err := p.clf.PredictProba(vec)
	if err != nil {
		return nil, fmt.Errorf("predict probabilities: %w", err)
	}
	if len(probs) != len(p.classes) {
		return nil, &model.SchemaMismatchError{
			Artifact: "classifier",
			Reason:   fmt.Sprintf("classifier returned %d probabilities for %d classes", len(probs), len(p.classes)),
		}
	}

	order := make([]int, len(probs))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(probs[b], probs[a])
	})

	out := make([]Prediction, 0, p.topK)
	for _, i := range order {
		if len(out) == p.topK || !(probs[i] > ConfidenceFloor) {
			break
		}
		out = append(out, Prediction{
			Disease:    p.classes[i],
			Confidence: roundPercent(probs[i]),
		})
	}
	return out, nil
}

func roundPercent(p float64) float64 {
	return math.Round(p*100*100) / 100
}
