package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/institution-research/internal/config"
	"github.com/sells-group/institution-research/internal/cost"
	"github.com/sells-group/institution-research/internal/export"
	"github.com/sells-group/institution-research/internal/pipeline"
)

// runResearch loads preferences, checks credentials, runs the pipeline and
// persists the results. Configuration problems fail before any research
// work starts.
func runResearch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	prefs, err := config.LoadPreferences(cfg.Preferences.Path)
	if err != nil {
		return err
	}
	prefs.LogSummary()

	if err := cfg.Validate(); err != nil {
		return err
	}

	exec, err := initExecutor(ctx, cfg, prefs)
	if err != nil {
		return err
	}

	p := pipeline.New(exec, prefs, pipeline.Options{
		Concurrency:  cfg.Research.Concurrency,
		ExtendRounds: cfg.Research.ExtendRounds,
		Validate:     cfg.Research.Validate,
		Verbose:      prefs.Verbose,
	}, cost.NewCalculator(cost.RatesFromConfig(cfg.Pricing)))

	recs, err := p.Run(ctx)
	if err != nil {
		return eris.Wrap(err, "research run")
	}

	if err := export.WriteCSV(prefs.OutputFilename, recs); err != nil {
		if path, ferr := export.WriteFallback(recs); ferr == nil {
			zap.L().Warn("results saved to fallback file", zap.String("path", path))
		} else {
			zap.L().Error("fallback write failed, results lost", zap.Error(ferr))
		}
		return err
	}
	zap.L().Info("results written",
		zap.String("path", prefs.OutputFilename),
		zap.Int("records", len(recs)),
	)

	return export.PrintSummary(cmd.OutOrStdout(), recs)
}
