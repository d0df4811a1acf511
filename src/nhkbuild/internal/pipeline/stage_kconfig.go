package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/kconfig"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

// KconfigStage resolves the build configuration: tiered defconfig base
// selection, feature enablement, and normalization.
type KconfigStage struct {
	cfg    *config.Config
	runner runner.Runner
}

// NewKconfigStage creates a new configuration resolver stage
func NewKconfigStage(cfg *config.Config, r runner.Runner) *KconfigStage {
	return &KconfigStage{cfg: cfg, runner: r}
}

// Name returns the stage name
func (s *KconfigStage) Name() StageName {
	return StageKconfig
}

// Validate checks whether this stage can run
func (s *KconfigStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.BuildEnv == nil {
		return fmt.Errorf("build environment not set - toolchain stage must run first")
	}
	if !paths.IsDir(s.cfg.Kernel.Dir) {
		return fmt.Errorf("kernel source not present: %s", s.cfg.Kernel.Dir)
	}
	return nil
}

// Execute produces a finalized .config in the kernel tree
func (s *KconfigStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	env := sc.BuildEnv.Environ()

	selector := &kconfig.BaseSelector{
		KernelDir: s.cfg.Kernel.Dir,
		Arch:      sc.BuildEnv.Arch,
		Device:    s.cfg.Device,
		Sibling:   s.cfg.SiblingDevice,
		Runner:    s.runner,
		Env:       env,
	}

	progress(0, "Selecting base configuration")
	tier, err := selector.Select(ctx)
	if err != nil {
		return err
	}
	sc.ConfigTier = tier
	log.Info("Base configuration resolved", "tier", tier, "defconfig", selector.TargetPath())

	progress(30, "Generating .config from defconfig")
	if err := s.runner.Run(ctx, runner.Opts{
		Name: "make",
		Args: []string{s.cfg.Device + "_defconfig"},
		Dir:  s.cfg.Kernel.Dir,
		Env:  env,
	}); err != nil {
		return fmt.Errorf("defconfig generation failed: %w", err)
	}

	editor := &kconfig.Editor{
		KernelDir: s.cfg.Kernel.Dir,
		Runner:    s.runner,
		Env:       env,
	}

	progress(50, fmt.Sprintf("Enabling %d kernel features", len(s.cfg.Features)))
	if err := editor.Enable(ctx, s.cfg.Features); err != nil {
		return err
	}

	progress(85, "Normalizing configuration")
	if err := editor.Normalize(ctx); err != nil {
		return err
	}

	// Normalization may drop options with unmet dependencies. That is
	// not fatal, but the operator should know which requests survived.
	doc, err := kconfig.ParseFile(filepath.Join(s.cfg.Kernel.Dir, ".config"))
	if err != nil {
		return fmt.Errorf("resolved configuration unreadable: %w", err)
	}
	for _, feature := range s.cfg.Features {
		if !doc.Enabled(feature) {
			log.Warn("Requested feature not active after normalization", "feature", feature)
		}
	}

	progress(100, fmt.Sprintf("Configuration resolved, %d options", doc.Len()))
	return nil
}
