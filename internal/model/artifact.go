package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Artifact file names inside a versioned model directory. Each may also be
// stored zstd (.zst) or gzip (.gz) compressed.
const (
	ClassifierFile = "model.json"
	LabelsFile     = "labels.json"
)

// Classifier kinds.
const (
	KindLogistic = "ovr-logistic"
	KindONNX     = "onnx"
)

var compressedSuffixes = []string{"", ".zst", ".gz"}

// ClassifierArtifact is the exported classifier. For KindLogistic, Coef holds
// one row of feature weights per class and Intercept one bias per class.
// For KindONNX, ONNX names the graph file relative to the artifact directory.
type ClassifierArtifact struct {
	Version   string      `json:"version"`
	Kind      string      `json:"kind"`
	Features  []string    `json:"features"`
	Coef      [][]float64 `json:"coef,omitempty"`
	Intercept []float64   `json:"intercept,omitempty"`
	ONNX      string      `json:"onnx,omitempty"`
	Input     string      `json:"input,omitempty"`
	Output    string      `json:"output,omitempty"`
}

// LabelsArtifact is the exported label binarizer: class names in the order
// the classifier emits probabilities.
type LabelsArtifact struct {
	Classes []string `json:"classes"`
}

// readArtifact returns the decoded bytes of name (or a compressed variant)
// from dir, along with the path it was read from.
func readArtifact(dir, name string) ([]byte, string, error) {
	for _, suffix := range compressedSuffixes {
		path := filepath.Join(dir, name+suffix)
		data, err := readFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return data, path, err
	}
	return nil, filepath.Join(dir, name), fmt.Errorf("%s not found: %w", name, fs.ErrNotExist)
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch {
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		defer dec.Close()
		return io.ReadAll(dec)
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	default:
		return io.ReadAll(f)
	}
}

func decodeArtifact(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}
