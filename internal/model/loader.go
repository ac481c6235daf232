package model

import (
	"errors"
	"fmt"
	"sync"
)

// Classifier is a loaded model ready for scoring.
type Classifier interface {
	Features() []string
	PredictProba(x []float64) ([]float64, error)
	Close() error
}

// Labels is the ordered class list from the label binarizer.
type Labels []string

// Classes returns the labels in probability order.
func (l Labels) Classes() []string { return l }

// Bundle pairs a classifier with its aligned labels.
type Bundle struct {
	Version    string
	Kind       string
	Classifier Classifier
	Labels     Labels
}

// Close releases classifier resources.
func (b *Bundle) Close() error {
	if b == nil || b.Classifier == nil {
		return nil
	}
	return b.Classifier.Close()
}

// Options locate the artifacts.
type Options struct {
	// Dir is the versioned artifact directory, e.g. models/v1.
	Dir string
	// ORTLibraryPath points at the onnxruntime shared library. Only used
	// for onnx artifacts.
	ORTLibraryPath string
}

// Load reads, validates and assembles the artifacts in opts.Dir. Every
// error it returns matches ErrModelUnavailable.
func Load(opts Options) (*Bundle, error) {
	labels, err := loadLabels(opts.Dir)
	if err != nil {
		return nil, err
	}

	raw, path, err := readArtifact(opts.Dir, ClassifierFile)
	if err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}
	if err := validateDocument(classifierSchema, ClassifierFile, raw); err != nil {
		return nil, err
	}
	var art ClassifierArtifact
	if err := decodeArtifact(raw, &art); err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}

	var clf Classifier
	switch art.Kind {
	case KindLogistic:
		lc, err := newLogisticClassifier(&art)
		if err != nil {
			return nil, err
		}
		if lc.NumClasses() != len(labels) {
			return nil, &SchemaMismatchError{
				Artifact: ClassifierFile,
				Reason:   fmt.Sprintf("classifier has %d classes, %s lists %d", lc.NumClasses(), LabelsFile, len(labels)),
			}
		}
		clf = lc
	case KindONNX:
		oc, err := newONNXClassifier(opts.Dir, &art, len(labels), opts.ORTLibraryPath)
		if err != nil {
			return nil, err
		}
		clf = oc
	default:
		return nil, &SchemaMismatchError{Artifact: ClassifierFile, Reason: fmt.Sprintf("unknown kind %q", art.Kind)}
	}

	return &Bundle{
		Version:    art.Version,
		Kind:       art.Kind,
		Classifier: clf,
		Labels:     labels,
	}, nil
}

func loadLabels(dir string) (Labels, error) {
	raw, path, err := readArtifact(dir, LabelsFile)
	if err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}
	if err := validateDocument(labelsSchema, LabelsFile, raw); err != nil {
		return nil, err
	}
	var art LabelsArtifact
	if err := decodeArtifact(raw, &art); err != nil {
		return nil, &UnavailableError{Path: path, Err: err}
	}
	return Labels(art.Classes), nil
}

// Loader performs Load exactly once and hands every caller the same result.
type Loader struct {
	opts   Options
	once   sync.Once
	bundle *Bundle
	err    error
}

// NewLoader returns a Loader for opts. Nothing is read until Load is called.
func NewLoader(opts Options) *Loader {
	return &Loader{opts: opts}
}

// Load returns the bundle, reading artifacts on the first call only.
// Concurrent first calls block until the single load finishes.
func (l *Loader) Load() (*Bundle, error) {
	l.once.Do(func() {
		l.bundle, l.err = Load(l.opts)
		if l.err != nil && !errors.Is(l.err, ErrModelUnavailable) {
			l.err = &UnavailableError{Path: l.opts.Dir, Err: l.err}
		}
	})
	return l.bundle, l.err
}
