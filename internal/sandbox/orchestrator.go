package sandbox

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/codes"

	"sentinel-sandbox/internal/assets"
	"sentinel-sandbox/internal/config"
	"sentinel-sandbox/internal/monitor"
	"sentinel-sandbox/internal/scoring"
	"sentinel-sandbox/internal/verdict"
	"sentinel-sandbox/pkg/firecracker"
)

// AssetLocator finds the VMM and its boot assets.
type AssetLocator interface {
	ExecutableAvailable(name string) bool
	Locate() (assets.Paths, error)
}

type Classifier interface {
	Classify(stdout, stderr string) monitor.Outcome
}

type Scorer interface {
	Score(path, outcome string) verdict.ThreatScore
}

// Orchestrator runs one target through a throwaway microVM and produces a
// verdict. Failures are reported in the verdict, never returned.
type Orchestrator struct {
	binary     string
	scratchDir string
	window     time.Duration

	locator    AssetLocator
	builder    *firecracker.Builder
	starter    ProcessStarter
	clock      Clock
	classifier Classifier
	scorer     Scorer
	assembler  verdict.Assembler
	metrics    *monitor.Metrics
	tracer     *monitor.Tracer
}

func New(cfg *config.Config, metrics *monitor.Metrics) *Orchestrator {
	fc := cfg.Firecracker
	if metrics == nil {
		metrics = monitor.NewMetrics()
	}
	return &Orchestrator{
		binary:     fc.Binary,
		scratchDir: fc.ScratchDir,
		window:     ObservationWindow,
		locator:    assets.NewLocator(fc.HomeEnv, fc.DefaultHome, fc.AssetDir, fc.SearchHelper),
		builder:    firecracker.NewBuilder(firecracker.NewPIDGenerator(firecracker.DefaultIDPrefix)),
		starter:    ExecStarter{WaitDelay: time.Second},
		clock:      realClock{},
		classifier: monitor.NewBannerClassifier(fc.BootBanner),
		scorer:     scoring.NewScorer(),
		assembler:  verdict.NewAssembler(),
		metrics:    metrics,
		tracer:     monitor.NewTracer(),
	}
}

// Run analyzes target. It always returns a complete verdict and leaves no
// socket or config file behind.
func (o *Orchestrator) Run(ctx context.Context, target string) verdict.Verdict {
	ctx = WithAnalysisID(ctx)
	analysisID := AnalysisIDFromContext(ctx)
	logger := log.With().Str("analysis_id", analysisID).Str("target", target).Logger()

	ctx, span := o.tracer.StartSpan(ctx, "analyze",
		monitor.AttrAnalysisID.String(analysisID),
		monitor.AttrTarget.String(target),
	)
	defer span.End()

	v := o.analyze(ctx, logger, target)

	span.SetAttributes(
		monitor.AttrStatus.String(string(v.Status)),
		monitor.AttrScore.Int(v.ThreatScore.Score),
		monitor.AttrLevel.String(string(v.ThreatScore.Level)),
	)
	o.metrics.RecordAnalysis(string(v.Status), string(v.ThreatScore.Level), v.ThreatScore.Score)
	if v.Status == verdict.StatusAnalyzed {
		if info, err := os.Stat(target); err == nil {
			o.metrics.TargetSizeBytes.Observe(float64(info.Size()))
		}
	}

	logger.Info().
		Str("status", string(v.Status)).
		Int("score", v.ThreatScore.Score).
		Str("level", string(v.ThreatScore.Level)).
		Msg("analysis complete")
	return v
}

func (o *Orchestrator) analyze(ctx context.Context, logger zerolog.Logger, target string) verdict.Verdict {
	if !o.locator.ExecutableAvailable(o.binary) {
		return o.fail(ctx, logger, &OrchestrationError{
			Op:   "preflight",
			Kind: ErrDependencyMissing,
			Err:  fmt.Errorf("%s not found on the search path", o.binary),
		})
	}

	paths, err := o.locator.Locate()
	if err != nil {
		return o.fail(ctx, logger, &OrchestrationError{Op: "locate_assets", Kind: ErrAssetMissing, Err: err})
	}

	vmID, doc := o.builder.Build(paths.Kernel, paths.Rootfs)
	rc := firecracker.NewRunContext(o.scratchDir, vmID)
	logger = logger.With().Str("vm_id", vmID).Logger()
	monitor.SpanFromContext(ctx).SetAttributes(monitor.AttrVMID.String(vmID))

	if err := doc.WriteFile(rc.ConfigPath); err != nil {
		o.removeArtifact(logger, "config", rc.ConfigPath)
		return o.fail(ctx, logger, &OrchestrationError{VMID: vmID, Op: "write_config", Kind: ErrConfigWrite, Err: err})
	}
	logger.Debug().Str("config", rc.ConfigPath).Msg("vm config written")

	details, err := o.execute(ctx, logger, rc, target, doc.MachineConfig)
	if err != nil {
		return o.fail(ctx, logger, err)
	}

	score := o.scorer.Score(target, details)
	return o.assembler.Assemble(verdict.StatusAnalyzed, details, verdict.IsolationFirecracker, score)
}

// execute spawns the VMM for rc and observes it. Both artifacts are gone by
// the time it returns.
func (o *Orchestrator) execute(ctx context.Context, logger zerolog.Logger, rc firecracker.RunContext, target string, machine firecracker.MachineConfig) (string, error) {
	defer o.removeArtifacts(logger, rc)

	_, span := o.tracer.StartSpan(ctx, "observe", monitor.AttrVMID.String(rc.VMID))
	defer span.End()

	proc, err := o.starter.Start(o.binary, rc.Args()...)
	if err != nil {
		return "", &OrchestrationError{VMID: rc.VMID, Op: "spawn", Kind: ErrSpawn, Err: err}
	}

	start := time.Now()
	out, err := newObservation(proc, o.clock, o.window, logger).run()
	o.metrics.ObservationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		logger.Warn().Err(err).Msg("vmm wait failed")
		span.RecordError(err)
		return fmt.Sprintf("MicroVM execution error: %v", err), nil
	}

	outcome := o.classifier.Classify(string(out.Stdout), string(out.Stderr))
	span.SetAttributes(monitor.AttrBooted.Bool(outcome.Booted))
	logger.Debug().Bool("booted", outcome.Booted).Int("stdout_bytes", len(out.Stdout)).Int("stderr_bytes", len(out.Stderr)).Msg("observation finished")

	return describeOutcome(target, machine, outcome), nil
}

func describeOutcome(target string, machine firecracker.MachineConfig, outcome monitor.Outcome) string {
	if outcome.Booted {
		return fmt.Sprintf("MicroVM Analysis Complete\nTarget: %s\nIsolation: Hardware microVM (%s)\nVerdict: Analyzed in isolated environment",
			target, machine.Envelope())
	}
	return fmt.Sprintf("MicroVM executed.\nStdout: %s\nStderr: %s", outcome.Stdout, outcome.Stderr)
}

func (o *Orchestrator) fail(ctx context.Context, logger zerolog.Logger, err error) verdict.Verdict {
	kind := errorType(err)
	o.metrics.RecordError(kind)

	span := monitor.SpanFromContext(ctx)
	span.RecordError(err)
	span.SetStatus(codes.Error, kind)

	logger.Error().Err(err).Str("type", kind).Msg("analysis failed")

	details, indicator := describeFailure(err)
	return o.assembler.Assemble(verdict.StatusError, details, verdict.IsolationNone, verdict.Unknown(indicator))
}
