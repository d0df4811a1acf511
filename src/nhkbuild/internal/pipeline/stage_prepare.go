package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

// PrepareStage creates the workspace and installs build dependencies via
// the system package manager.
type PrepareStage struct {
	cfg    *config.Config
	runner runner.Runner
}

// NewPrepareStage creates a new prepare stage
func NewPrepareStage(cfg *config.Config, r runner.Runner) *PrepareStage {
	return &PrepareStage{cfg: cfg, runner: r}
}

// Name returns the stage name
func (s *PrepareStage) Name() StageName {
	return StagePrepare
}

// Validate checks whether this stage can run
func (s *PrepareStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.Cfg == nil {
		return fmt.Errorf("pipeline configuration not set")
	}
	if sc.Cfg.Workspace == "" {
		return fmt.Errorf("workspace path not set")
	}
	return nil
}

// Execute creates the workspace directory and installs the development
// packages. The workspace is created once and never destroyed by the
// pipeline.
func (s *PrepareStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	progress(0, "Creating workspace")

	if err := os.MkdirAll(s.cfg.Workspace, 0755); err != nil {
		return errors.ErrWorkspaceCreate.
			WithMessagef("Failed to create workspace %s", s.cfg.Workspace).
			WithCause(err)
	}

	log.Info("Workspace ready",
		"path", s.cfg.Workspace,
		"device", s.cfg.Device,
		"run_id", sc.RunID)

	if s.cfg.SkipDeps {
		progress(100, "Dependency installation skipped")
		return nil
	}

	progress(30, fmt.Sprintf("Installing %d build dependencies", len(s.cfg.Packages)))

	// The package manager's exit code is the whole contract here; the
	// packages themselves are not verified.
	args := append([]string{"install", "-y"}, s.cfg.Packages...)
	if err := s.runner.Run(ctx, runner.Opts{Name: "apt-get", Args: args}); err != nil {
		return errors.ErrDepsInstall.WithCause(err)
	}

	progress(100, "Workspace prepared")
	return nil
}
