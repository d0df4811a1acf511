package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/nhkbuild/nhkbuild/src/common/logs"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/fetch"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/toolchain"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the pipeline package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Pipeline runs an ordered list of stages sequentially, halting on the
// first failure. One instance serves one run; concurrent runs against
// the same workspace are undefined.
type Pipeline struct {
	stages []Stage
	state  State
}

// New creates a pipeline from an ordered stage list
func New(stages []Stage) *Pipeline {
	return &Pipeline{
		stages: stages,
		state:  StateInit,
	}
}

// DefaultStages wires the full flame build pipeline
func DefaultStages(cfg *config.Config, r runner.Runner, g fetch.Getter) []Stage {
	fetcher := fetch.NewFetcher(r)
	return []Stage{
		NewPrepareStage(cfg, r),
		NewFetchStage(cfg, fetcher),
		NewToolchainStage(toolchain.NewProvisioner(cfg.Toolchain, g)),
		NewKconfigStage(cfg, r),
		NewBuildStage(cfg, r, 0),
		NewKernelZipStage(cfg, fetcher),
		NewInstallerStage(cfg, r, g),
		NewReportStage(nil),
	}
}

// State returns the current pipeline state
func (p *Pipeline) State() State {
	return p.state
}

// Run executes every stage in order. Each stage is validated, executed,
// and timed; the first error aborts the run and is returned unchanged.
func (p *Pipeline) Run(ctx context.Context, sc *StageContext) error {
	p.state = StateInit

	for _, stage := range p.stages {
		name := stage.Name()

		select {
		case <-ctx.Done():
			p.state = StateAborted
			return ctx.Err()
		default:
		}

		log.Info("Starting stage", "stage", name, "run_id", sc.RunID)
		start := time.Now()

		if err := stage.Validate(ctx, sc); err != nil {
			p.state = StateAborted
			return fmt.Errorf("stage %s validation failed: %w", name, err)
		}

		progress := func(percent int, message string) {
			if message != "" {
				log.Debug("Stage progress", "stage", name, "percent", percent, "message", message)
			}
		}

		if err := stage.Execute(ctx, sc, progress); err != nil {
			p.state = StateAborted
			log.Error("Stage failed", "stage", name, "error", err)
			return err
		}

		if next, ok := stateAfter[name]; ok {
			p.state = next
		}
		log.Info("Stage completed", "stage", name,
			"duration", time.Since(start).Round(time.Millisecond), "state", p.state)
	}

	return nil
}
