package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curesense/curesense/internal/inference"
	"github.com/curesense/curesense/internal/model"
	"github.com/curesense/curesense/internal/pipeline"
)

func writeModel(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	clf := `{
  "version": "cli-test",
  "kind": "ovr-logistic",
  "features": ["cough", "fever", "headache"],
  "coef": [[3, 3, 0], [0, 0, 4]],
  "intercept": [-4, -6]
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.ClassifierFile), []byte(clf), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, model.LabelsFile), []byte(`{"classes": ["Flu", "Migraine"]}`), 0o644))
	return dir
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	for _, key := range []string{"MODEL_BLOB_URL", "RECOMMENDATION_CATALOG", "TOP_K", "LOG_FORMAT", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}

	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPredict_JSONFromArgs(t *testing.T) {
	dir := writeModel(t)

	out, err := runCLI(t, "", "predict", "--model-dir", dir, "--json", "Fever", "cough")
	require.NoError(t, err)

	var got pipeline.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []string{"fever", "cough"}, got.Symptoms)
	require.Equal(t, []inference.Prediction{{Disease: "Flu", Confidence: 88.08}}, got.Predictions)
	require.Equal(t, []string{"Fluids", "Paracetamol", "Rest"}, got.Medications)
	require.Equal(t, []string{"General Physician"}, got.Specialists)
}

func TestPredict_FromStdin(t *testing.T) {
	dir := writeModel(t)

	out, err := runCLI(t, "headache\n", "predict", "--model-dir", dir, "--json")
	require.NoError(t, err)

	var got pipeline.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, []inference.Prediction{
		{Disease: "Migraine", Confidence: 11.92},
		{Disease: "Flu", Confidence: 1.8},
	}, got.Predictions)
}

func TestPredict_TopKFlag(t *testing.T) {
	dir := writeModel(t)

	out, err := runCLI(t, "headache", "predict", "--model-dir", dir, "--json", "--top-k", "1")
	require.NoError(t, err)

	var got pipeline.Outcome
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Predictions, 1)
	require.Equal(t, "Migraine", got.Predictions[0].Disease)
}

func TestPredict_Table(t *testing.T) {
	dir := writeModel(t)

	out, err := runCLI(t, "", "predict", "--model-dir", dir, "fever, cough")
	require.NoError(t, err)

	require.Contains(t, out, "Disease  Confidence")
	require.Contains(t, out, "88.08%")
	require.Contains(t, out, "Medications: Fluids, Paracetamol, Rest")
	require.Contains(t, out, "Specialists: General Physician")
}

func TestPredict_UnknownSymptomsUseZeroVector(t *testing.T) {
	dir := writeModel(t)

	out, err := runCLI(t, "", "predict", "--model-dir", dir, "purple toes")
	require.NoError(t, err)
	require.Contains(t, out, "Flu")
	require.NotContains(t, out, "Migraine")
}

func TestPredict_EmptyInput(t *testing.T) {
	dir := writeModel(t)

	_, err := runCLI(t, "  \n", "predict", "--model-dir", dir)
	require.ErrorIs(t, err, pipeline.ErrValidation)
}

func TestPredict_MissingModel(t *testing.T) {
	_, err := runCLI(t, "", "predict", "--model-dir", filepath.Join(t.TempDir(), "absent"), "fever")
	require.ErrorIs(t, err, model.ErrModelUnavailable)
}

func TestPadRight(t *testing.T) {
	require.Equal(t, "ab  ", padRight("ab", 4))
	require.Equal(t, "abcdef", padRight("abcdef", 4))
	// Wide runes count as two columns.
	require.Equal(t, "日本", padRight("日本", 4))
}
