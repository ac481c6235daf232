package model

import (
	"errors"
	"fmt"
)

// ErrModelUnavailable matches every artifact load failure. Callers must treat
// it as fatal at startup.
var ErrModelUnavailable = errors.New("model unavailable")

// UnavailableError reports an artifact that could not be read or decoded.
type UnavailableError struct {
	Path string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("model unavailable: %s: %v", e.Path, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrModelUnavailable }

// SchemaMismatchError reports an artifact that was read but does not describe
// a usable model: empty vocabulary, inconsistent shapes, or misaligned labels.
type SchemaMismatchError struct {
	Artifact string
	Reason   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("model schema mismatch: %s: %s", e.Artifact, e.Reason)
}

func (e *SchemaMismatchError) Is(target error) bool { return target == ErrModelUnavailable }
