package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/curesense/curesense/internal/pipeline"
)

// promptSymptoms asks for symptoms interactively. Replaced in tests.
var promptSymptoms = defaultPromptSymptoms

func defaultPromptSymptoms(in io.Reader, out io.Writer) (string, error) {
	var text string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Symptoms").
				Description("Comma-separated, e.g. fever, cough, headache").
				Value(&text).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("enter at least one symptom")
					}
					return nil
				}),
		),
	).WithInput(in).WithOutput(out).Run()
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	return text, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newPredictCommand() *cobra.Command {
	var (
		asJSON   bool
		topK     int
		modelDir string
	)

	cmd := &cobra.Command{
		Use:   "predict [symptom ...]",
		Short: "Predict diseases for a list of symptoms",
		Long: `Predict diseases for a list of symptoms and print the recommended
medications and specialists.

Each argument is one symptom; a single argument may also hold a
comma-separated list. With no arguments the symptoms are read from stdin, or
prompted for when stdin is a terminal.`,
		Example: `  curesense predict fever cough "sore throat"
  echo "headache, nausea" | curesense predict --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if modelDir != "" {
				cfg.ModelDir = modelDir
			}
			if topK > 0 {
				cfg.TopK = topK
			}

			text, err := readSymptoms(cmd, args)
			if err != nil {
				return err
			}

			p, bundle, err := buildPipeline(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer bundle.Close()

			out, err := p.Infer(text)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			return writeOutcome(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	cmd.Flags().IntVar(&topK, "top-k", 0, "Number of predictions to return (default from TOP_K)")
	cmd.Flags().StringVar(&modelDir, "model-dir", "", "Model artifact directory (default from MODEL_DIR)")

	return cmd
}

func readSymptoms(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, ", "), nil
	}
	in := cmd.InOrStdin()
	if isTerminal(in) {
		return promptSymptoms(in, cmd.OutOrStdout())
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeOutcome(w io.Writer, out *pipeline.Outcome) error {
	if len(out.Predictions) == 0 {
		_, err := fmt.Fprintln(w, "No disease cleared the confidence threshold.")
		return err
	}

	width := runewidth.StringWidth("Disease")
	for _, p := range out.Predictions {
		width = max(width, runewidth.StringWidth(p.Disease))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", padRight("Disease", width), "Confidence")
	fmt.Fprintf(&b, "%s  %s\n", strings.Repeat("-", width), strings.Repeat("-", len("Confidence")))
	for _, p := range out.Predictions {
		fmt.Fprintf(&b, "%s  %9.2f%%\n", padRight(p.Disease, width), p.Confidence)
	}
	fmt.Fprintf(&b, "\nMedications: %s\n", strings.Join(out.Medications, ", "))
	fmt.Fprintf(&b, "Specialists: %s\n", strings.Join(out.Specialists, ", "))

	_, err := io.WriteString(w, b.String())
	return err
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
