package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

// BuildStage invokes the kernel build and gates the pipeline on the
// expected output artifact.
type BuildStage struct {
	cfg    *config.Config
	runner runner.Runner
	jobs   int
}

// NewBuildStage creates a new build stage. jobs <= 0 means one job per
// available processing unit.
func NewBuildStage(cfg *config.Config, r runner.Runner, jobs int) *BuildStage {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	return &BuildStage{cfg: cfg, runner: r, jobs: jobs}
}

// Name returns the stage name
func (s *BuildStage) Name() StageName {
	return StageBuild
}

// Validate checks whether this stage can run
func (s *BuildStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.BuildEnv == nil {
		return fmt.Errorf("build environment not set - toolchain stage must run first")
	}
	if !paths.IsFile(filepath.Join(s.cfg.Kernel.Dir, ".config")) {
		return fmt.Errorf("no .config in kernel tree - kconfig stage must run first")
	}
	return nil
}

// Execute runs the build with maximum parallelism, then verifies the
// artifact. The build's exit code alone is not trusted: the artifact
// existence check is the pipeline's primary correctness gate.
func (s *BuildStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	progress(0, fmt.Sprintf("Building kernel with %d jobs", s.jobs))

	if err := s.runner.Run(ctx, runner.Opts{
		Name: "make",
		Args: []string{fmt.Sprintf("-j%d", s.jobs)},
		Dir:  s.cfg.Kernel.Dir,
		Env:  sc.BuildEnv.Environ(),
	}); err != nil {
		return errors.ErrBuildFailed.WithCause(err)
	}

	progress(90, "Verifying build artifact")

	artifact := s.cfg.ArtifactPath()
	if !paths.IsFile(artifact) {
		candidates := s.enumerateCandidates()
		log.Error("Expected kernel image missing",
			"expected", artifact,
			"candidates", candidates)
		return errors.ErrArtifactMissing.WithMessagef(
			"Expected %s, boot directory contains: %s", artifact, candidates)
	}

	progress(100, fmt.Sprintf("Kernel image ready: %s", artifact))
	return nil
}

// enumerateCandidates lists the boot output directory as a debugging
// aid for the missing-artifact case.
func (s *BuildStage) enumerateCandidates() string {
	entries, err := os.ReadDir(s.cfg.BootDir())
	if err != nil {
		return fmt.Sprintf("(unreadable: %v)", err)
	}
	if len(entries) == 0 {
		return "(empty)"
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return strings.Join(names, ", ")
}
