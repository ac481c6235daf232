package pipeline

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curesense/curesense/internal/inference"
	"github.com/curesense/curesense/internal/model"
	"github.com/curesense/curesense/internal/recommend"
)

// fixedClassifier returns a probability per class computed from which
// features are set, and counts how often it was asked.
type fixedClassifier struct {
	mu       sync.Mutex
	features []string
	score    func(x []float64) []float64
	calls    int
}

func (f *fixedClassifier) Features() []string { return f.features }

func (f *fixedClassifier) PredictProba(x []float64) ([]float64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.score(x), nil
}

func (f *fixedClassifier) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// features: cough, fever, headache, itchy eyes
// classes:  Flu, Migraine, Conjunctivitis, Unknown Tropical Syndrome
func newTestPipeline(t *testing.T) (*Pipeline, *fixedClassifier) {
	t.Helper()
	clf := &fixedClassifier{
		features: []string{"cough", "fever", "headache", "itchy eyes"},
		score: func(x []float64) []float64 {
			return []float64{
				0.05 + 0.45*x[0] + 0.425*x[1],
				0.02 + 0.6*x[2],
				0.01 + 0.8*x[3],
				0.005,
			}
		},
	}
	labels := model.Labels{"Flu", "Migraine", "Conjunctivitis", "Unknown Tropical Syndrome"}
	predictor, err := inference.NewPredictor(clf, labels, 3)
	require.NoError(t, err)

	c, err := recommend.DefaultCatalog()
	require.NoError(t, err)
	return New(predictor, recommend.NewMapper(c)), clf
}

func TestInfer_EndToEnd(t *testing.T) {
	p, clf := newTestPipeline(t)

	out, err := p.Infer("Fever, cough")
	require.NoError(t, err)

	require.Equal(t, 1, clf.Calls())
	require.Equal(t, []string{"fever", "cough"}, out.Symptoms)
	require.Equal(t, []inference.Prediction{
		{Disease: "Flu", Confidence: 92.5},
		{Disease: "Migraine", Confidence: 2},
	}, out.Predictions)
	require.Equal(t, []string{"Fluids", "Ibuprofen", "Pain Relievers", "Paracetamol", "Rest"}, out.Medications)
	require.Equal(t, []string{"General Physician", "Neurologist"}, out.Specialists)
}

func TestInfer_RejectsEmptyInputWithoutCallingModel(t *testing.T) {
	p, clf := newTestPipeline(t)

	for _, in := range []string{"", "   ", "\t\n", "123, !!!", " , , ", "ｆｅｖｅｒ，ｃｏｕｇｈ"} {
		_, err := p.Infer(in)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "input %q", in)
		require.True(t, errors.Is(err, ErrValidation))
	}
	require.Zero(t, clf.Calls())
}

func TestInfer_UnknownTokensStillRunModel(t *testing.T) {
	p, clf := newTestPipeline(t)

	out, err := p.Infer("purple toes")
	require.NoError(t, err)

	require.Equal(t, 1, clf.Calls())
	require.Equal(t, []inference.Prediction{
		{Disease: "Flu", Confidence: 5},
		{Disease: "Migraine", Confidence: 2},
	}, out.Predictions)
}

func TestInfer_NoPredictionsGivesEmptyRecommendations(t *testing.T) {
	clf := &fixedClassifier{
		features: []string{"cough"},
		score:    func([]float64) []float64 { return []float64{0.01} },
	}
	predictor, err := inference.NewPredictor(clf, model.Labels{"Flu"}, 3)
	require.NoError(t, err)
	c, err := recommend.DefaultCatalog()
	require.NoError(t, err)

	out, err := New(predictor, recommend.NewMapper(c)).Infer("cough")
	require.NoError(t, err)
	require.Empty(t, out.Predictions)
	require.Empty(t, out.Medications)
	require.Empty(t, out.Specialists)
}

func TestInfer_Idempotent(t *testing.T) {
	p, _ := newTestPipeline(t)

	first, err := p.Infer("headache, itchy eyes, fever")
	require.NoError(t, err)
	second, err := p.Infer("headache, itchy eyes, fever")
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestInfer_Concurrent(t *testing.T) {
	p, clf := newTestPipeline(t)
	want, err := p.Infer("itchy eyes")
	require.NoError(t, err)

	const n = 32
	var wg sync.WaitGroup
	results := make([]*Outcome, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.Infer("itchy eyes")
		}(i)
	}
	wg.Wait()

	for i := range results {
		require.NoError(t, errs[i])
		require.Equal(t, want, results[i])
	}
	require.Equal(t, n+1, clf.Calls())
}
