package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_ONNXWithoutRuntime(t *testing.T) {
	if os.Getenv("ORT_LIBRARY_PATH") != "" {
		t.Skip("onnxruntime configured; missing-runtime path not reachable")
	}
	dir := writeArtifacts(t, ClassifierArtifact{
		Version:  "onnx-1",
		Kind:     KindONNX,
		Features: []string{"cough", "fever"},
		ONNX:     "model.onnx",
	}, testLabels())

	_, err := Load(Options{Dir: dir, ORTLibraryPath: filepath.Join(t.TempDir(), "libonnxruntime.so")})

	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoad_ONNXRequiresGraphPath(t *testing.T) {
	dir := writeArtifacts(t, map[string]any{
		"kind":     KindONNX,
		"features": []string{"cough"},
	}, testLabels())

	_, err := Load(Options{Dir: dir})

	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
}
