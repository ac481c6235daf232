// Package pipeline turns free-text symptoms into ranked disease predictions
// and the medications and specialists they map to.
package pipeline

import (
	"errors"
	"strings"

	"github.com/curesense/curesense/internal/inference"
	"github.com/curesense/curesense/internal/recommend"
)

// ErrValidation matches every rejection of caller input.
var ErrValidation = errors.New("invalid symptom input")

// ValidationError explains why input was rejected.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Outcome is the result of one inference call.
type Outcome struct {
	Symptoms    []string               `json:"symptoms"`
	Predictions []inference.Prediction `json:"predicted_diseases"`
	Medications []string               `json:"medications"`
	Specialists []string               `json:"doctor_types"`
}

// Pipeline composes the vectorizer, predictor and mapper. It only reads the
// state it was built with, so one instance serves concurrent callers.
type Pipeline struct {
	predictor *inference.Predictor
	mapper    *recommend.Mapper
}

// New builds a Pipeline.
func New(predictor *inference.Predictor, mapper *recommend.Mapper) *Pipeline {
	return &Pipeline{predictor: predictor, mapper: mapper}
}

// Infer runs text through the whole pipeline. Blank text, or text with no
// letters left after normalization, is rejected with a ValidationError
// before the model is consulted. Tokens the model does not know are
// ignored.
func (p *Pipeline) Infer(text string) (*Outcome, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Reason: "no symptoms provided"}
	}
	tokens := inference.Tokenize(text)
	if len(tokens) == 0 {
		return nil, &ValidationError{Reason: "no recognizable symptoms in input"}
	}

	vec := p.predictor.Vocabulary().Encode(inference.NewSymptomSet(tokens))
	preds, err := p.predictor.Predict(vec)
	if err != nil {
		return nil, err
	}
	rec := p.mapper.Recommend(preds)

	return &Outcome{
		Symptoms:    tokens,
		Predictions: preds,
		Medications: rec.Medications,
		Specialists: rec.Specialists,
	}, nil
}
