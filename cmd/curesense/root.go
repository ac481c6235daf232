package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/curesense/curesense/internal/config"
	"github.com/curesense/curesense/internal/inference"
	"github.com/curesense/curesense/internal/logging"
	"github.com/curesense/curesense/internal/model"
	"github.com/curesense/curesense/internal/pipeline"
	"github.com/curesense/curesense/internal/recommend"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curesense",
		Short: "Symptom-based disease prediction and care recommendations",
		Long: `CureSense predicts likely diseases from free-text symptoms and recommends
medications and specialists for them.

Run "curesense serve" for the HTTP API or "curesense predict" for a one-off
prediction from the terminal.`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newPredictCommand())
	cmd.AddCommand(newMigrateCommand())

	return cmd
}

func loadConfig(w io.Writer) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, w)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

// buildPipeline fetches artifacts when a blob URL is configured, loads them
// once and wires the predictor to the recommendation catalog. The caller
// owns the returned bundle.
func buildPipeline(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*pipeline.Pipeline, *model.Bundle, error) {
	if cfg.ModelBlobURL != "" {
		logger.Info().Str("url", cfg.ModelBlobURL).Str("dir", cfg.ModelDir).Msg("fetching model artifacts")
		if err := model.FetchArtifacts(ctx, cfg.ModelBlobURL, cfg.ModelDir); err != nil {
			return nil, nil, err
		}
	}

	bundle, err := model.NewLoader(model.Options{
		Dir:            cfg.ModelDir,
		ORTLibraryPath: cfg.ORTLibraryPath,
	}).Load()
	if err != nil {
		return nil, nil, err
	}

	catalog, err := loadCatalog(cfg.RecommendationCatalog)
	if err != nil {
		bundle.Close()
		return nil, nil, err
	}

	predictor, err := inference.NewPredictor(bundle.Classifier, bundle.Labels, cfg.TopK)
	if err != nil {
		bundle.Close()
		return nil, nil, err
	}

	logger.Info().
		Str("version", bundle.Version).
		Str("kind", bundle.Kind).
		Int("features", len(predictor.Vocabulary())).
		Int("classes", len(bundle.Labels)).
		Msg("model loaded")

	return pipeline.New(predictor, recommend.NewMapper(catalog)), bundle, nil
}

func loadCatalog(path string) (*recommend.Catalog, error) {
	if path == "" {
		return recommend.DefaultCatalog()
	}
	c, err := recommend.LoadCatalog(path)
	if err != nil {
		return nil, fmt.Errorf("recommendation catalog: %w", err)
	}
	return c, nil
}
