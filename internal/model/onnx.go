package model

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	defaultONNXInput  = "float_input"
	defaultONNXOutput = "probabilities"
)

var (
	ortOnce sync.Once
	ortErr  error
)

// initRuntime loads the onnxruntime shared library once per process.
func initRuntime(libPath string) error {
	ortOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortErr = ort.InitializeEnvironment()
	})
	return ortErr
}

// ONNXClassifier runs an exported probability graph through onnxruntime.
// The graph must take a [1, features] float32 input and produce a
// [1, classes] float32 probability output. Tensors are allocated per call,
// so one session serves concurrent requests.
type ONNXClassifier struct {
	features []string
	classes  int
	session  *ort.DynamicAdvancedSession
}

func newONNXClassifier(dir string, a *ClassifierArtifact, classes int, libPath string) (*ONNXClassifier, error) {
	path := filepath.Join(dir, a.ONNX)
	if err := initRuntime(libPath); err != nil {
		return nil, &UnavailableError{Path: path, Err: fmt.Errorf("initialize onnxruntime: %w", err)}
	}

	input, output := a.Input, a.Output
	if input == "" {
		input = defaultONNXInput
	}
	if output == "" {
		output = defaultONNXOutput
	}

	session, err := ort.NewDynamicAdvancedSession(path, []string{input}, []string{output}, nil)
	if err != nil {
		return nil, &UnavailableError{Path: path, Err: fmt.Errorf("create session: %w", err)}
	}
	return &ONNXClassifier{
		features: a.Features,
		classes:  classes,
		session:  session,
	}, nil
}

// Features returns the ordered feature vocabulary. The slice must not be modified.
func (o *ONNXClassifier) Features() []string { return o.features }

// PredictProba runs the graph on x and returns one probability per class.
func (o *ONNXClassifier) PredictProba(x []float64) ([]float64, error) {
	if len(x) != len(o.features) {
		return nil, fmt.Errorf("input has %d features, model expects %d", len(x), len(o.features))
	}
	data := make([]float32, len(x))
	for i, v := range x {
		data[i] = float32(v)
	}

	in, err := ort.NewTensor(ort.NewShape(1, int64(len(data))), data)
	if err != nil {
		return nil, fmt.Errorf("create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(o.classes)))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := o.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("run session: %w", err)
	}

	probs := out.GetData()
	res := make([]float64, len(probs))
	for i, p := range probs {
		res[i] = float64(p)
	}
	return res, nil
}

// Close releases the onnxruntime session.
func (o *ONNXClassifier) Close() error {
	if o.session == nil {
		return nil
	}
	err := o.session.Destroy()
	o.session = nil
	return err
}
