package main

import (
	"fmt"

	"github.com/mohammad-safakhou/toxscore/config"
	"github.com/mohammad-safakhou/toxscore/internal/analyzer"
	"github.com/mohammad-safakhou/toxscore/internal/classifier"
	"github.com/mohammad-safakhou/toxscore/internal/extract"
	"github.com/mohammad-safakhou/toxscore/tools/render"
	"github.com/rs/zerolog"
)

// buildAnalyzer wires the pipeline from cfg. The returned close func releases
// the renderer.
func buildAnalyzer(cfg *config.Config, logger zerolog.Logger) (*analyzer.Analyzer, func(), error) {
	rend, err := render.NewRenderer(render.RendererType(cfg.Renderer.Type), render.Options{
		NavigationTimeout: cfg.Renderer.NavigationTimeout,
		UserAgent:         cfg.Renderer.UserAgent,
		Headless:          cfg.Renderer.Headless,
		NoSandbox:         cfg.Renderer.NoSandbox,
		ExecPath:          cfg.Renderer.ExecPath,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("renderer: %w", err)
	}
	closeFn := func() {
		if err := rend.Close(); err != nil {
			logger.Warn().Err(err).Msg("close renderer")
		}
	}

	extractLog := logger.With().Str("component", "extract").Logger()
	rev := extract.NewRevealer(cfg.Extraction.ScrollPause, cfg.Extraction.MaxScrollSteps, extractLog)
	picker := &extract.Picker{
		SitePatterns: cfg.Extraction.SitePatterns,
		Universal:    extract.NewUniversal(rev, extractLog),
		SiteSpecific: extract.NewSiteSpecific(rev, extractLog),
	}

	a, err := analyzer.New(analyzer.Options{
		Renderer:   rend,
		Picker:     picker,
		Normalizer: extract.NewNormalizer(),
		Classifier: classifier.Shared(cfg.Classifier, logger.With().Str("component", "classifier").Logger()),
		BatchSize:  cfg.Classifier.BatchSize,
		Logger:     logger.With().Str("component", "analyzer").Logger(),
	})
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return a, closeFn, nil
}
