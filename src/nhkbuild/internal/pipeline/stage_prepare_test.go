package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

func TestPrepareStageInstallsPackages(t *testing.T) {
	cfg := testConfig(t)
	cfg.Workspace = filepath.Join(cfg.Workspace, "nested", "workspace")
	cfg.Packages = []string{"git", "make", "bc"}

	sr := &scriptRunner{}
	stage := NewPrepareStage(cfg, sr)
	sc := &StageContext{RunID: "test", Cfg: cfg}

	if err := stage.Validate(context.Background(), sc); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := stage.Execute(context.Background(), sc, noProgress); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if fi, err := os.Stat(cfg.Workspace); err != nil || !fi.IsDir() {
		t.Errorf("workspace not created: %v", err)
	}

	if len(sr.calls) != 1 {
		t.Fatalf("commands = %d, want 1", len(sr.calls))
	}
	got := sr.calls[0].String()
	if got != "apt-get install -y git make bc" {
		t.Errorf("command = %q, want apt-get install -y git make bc", got)
	}
}

func TestPrepareStageSkipDeps(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipDeps = true
	cfg.Packages = []string{"git"}

	sr := &scriptRunner{}
	stage := NewPrepareStage(cfg, sr)

	if err := stage.Execute(context.Background(), &StageContext{Cfg: cfg}, noProgress); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(sr.calls) != 0 {
		t.Errorf("commands = %d, want 0 with skip_deps", len(sr.calls))
	}
}

func TestPrepareStageInstallFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Packages = []string{"git"}

	sr := &scriptRunner{
		onRun: func(opts runner.Opts) error { return os.ErrPermission },
	}
	stage := NewPrepareStage(cfg, sr)

	err := stage.Execute(context.Background(), &StageContext{Cfg: cfg}, noProgress)
	if !errors.Is(err, errors.ErrDepsInstall) {
		t.Errorf("Execute() error = %v, want ErrDepsInstall", err)
	}
}

// Re-running prepare against an existing workspace is a no-op for the
// directory and a re-install for the packages, both harmless.
func TestPrepareStageIdempotent(t *testing.T) {
	cfg := testConfig(t)
	cfg.SkipDeps = true

	stage := NewPrepareStage(cfg, &scriptRunner{})
	sc := &StageContext{Cfg: cfg}

	for i := 0; i < 2; i++ {
		if err := stage.Execute(context.Background(), sc, noProgress); err != nil {
			t.Fatalf("Execute() run %d error = %v", i+1, err)
		}
	}
}

func TestPrepareStageValidate(t *testing.T) {
	cfg := testConfig(t)
	stage := NewPrepareStage(cfg, &scriptRunner{})

	if err := stage.Validate(context.Background(), &StageContext{}); err == nil {
		t.Error("Validate() passed without a configuration")
	}

	empty := *cfg
	empty.Workspace = ""
	if err := stage.Validate(context.Background(), &StageContext{Cfg: &empty}); err == nil {
		t.Error("Validate() passed with an empty workspace path")
	}
}
