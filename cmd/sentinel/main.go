package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"sentinel-sandbox/internal/config"
	"sentinel-sandbox/internal/monitor"
	"sentinel-sandbox/internal/sandbox"
	"sentinel-sandbox/internal/storage"
	"sentinel-sandbox/internal/verdict"
)

func main() {
	// Structured logging on stderr; stdout carries only the verdict.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	cfg, cfgErr := loadConfig(os.Getenv("SENTINEL_CONFIG"))
	zerolog.SetGlobalLevel(cfg.LogLevel())

	if err := newRootCmd(cfg, cfgErr).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// loadConfig returns the defaults when path does not exist. A file that
// exists but cannot be loaded yields the defaults and the load error.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = "configs/sentinel.yaml"
	}

	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		log.Debug().Str("path", path).Msg("no config file found, using defaults")
		return config.DefaultConfig(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.DefaultConfig(), fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// newRootCmd builds the CLI. A non-nil cfgErr turns every invocation into
// an ERROR verdict for that error.
func newRootCmd(cfg *config.Config, cfgErr error) *cobra.Command {
	return &cobra.Command{
		Use:   "sentinel <file>",
		Short: "Analyze a file inside a disposable Firecracker microVM",
		Long: "Boots a single-use microVM, observes it for a fixed window, scores the target\n" +
			"heuristically and prints one JSON verdict on stdout. The exit status does not\n" +
			"reflect the verdict; read the status field.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfgErr != nil {
				log.Error().Err(cfgErr).Msg("failed to load config")
				return verdict.Encode(cmd.OutOrStdout(), configErrorVerdict(cfgErr))
			}
			return analyze(sandbox.WithAnalysisID(cmd.Context()), cfg, args[0], cmd.OutOrStdout())
		},
	}
}

func configErrorVerdict(err error) verdict.Verdict {
	return verdict.NewAssembler().Assemble(
		verdict.StatusError,
		fmt.Sprintf("Invalid configuration: %v", err),
		verdict.IsolationNone,
		verdict.Unknown("Analysis failed - configuration error"),
	)
}

// analyze runs one target and writes its verdict to out. Only a failure to
// write the verdict is returned; everything else ends up in the verdict.
func analyze(ctx context.Context, cfg *config.Config, target string, out io.Writer) error {
	metrics := monitor.NewMetrics()
	v := sandbox.New(cfg, metrics).Run(ctx, target)

	if err := verdict.Encode(out, v); err != nil {
		return fmt.Errorf("writing verdict: %w", err)
	}

	recordAudit(ctx, cfg.Audit, sandbox.AnalysisIDFromContext(ctx), target, v)

	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to write metrics textfile")
		}
	}
	return nil
}

// recordAudit stores v when an audit driver is configured. Audit problems
// are logged and never affect the verdict already printed.
func recordAudit(ctx context.Context, cfg config.AuditConfig, analysisID, target string, v verdict.Verdict) {
	if !cfg.Enabled() {
		return
	}

	openCtx, cancel := context.WithTimeout(ctx, cfg.FlushTimeout)
	defer cancel()

	store, err := storage.Open(openCtx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("driver", cfg.Driver).Msg("audit store unavailable, verdict not recorded")
		return
	}
	defer store.Close()

	w := storage.NewAuditWriter(store, cfg.BufferSize, cfg.MaxRecords)
	w.Start()
	w.Record(storage.FromVerdict(analysisID, target, v))
	w.Flush(cfg.FlushTimeout)
}
