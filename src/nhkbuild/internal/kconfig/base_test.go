package kconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

// fakeRunner records invocations and delegates behavior to an optional
// callback.
type fakeRunner struct {
	calls []runner.Opts
	onRun func(opts runner.Opts) error
}

func (f *fakeRunner) Run(ctx context.Context, opts runner.Opts) error {
	f.calls = append(f.calls, opts)
	if f.onRun != nil {
		return f.onRun(opts)
	}
	return nil
}

func (f *fakeRunner) Output(ctx context.Context, opts runner.Opts) (string, error) {
	f.calls = append(f.calls, opts)
	return "", nil
}

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func newSelector(kernelDir string, r runner.Runner) *BaseSelector {
	return &BaseSelector{
		KernelDir: kernelDir,
		Arch:      "arm64",
		Device:    "flame",
		Sibling:   "coral",
		Runner:    r,
	}
}

func TestSelectTargetPresent(t *testing.T) {
	kernelDir := t.TempDir()
	fr := &fakeRunner{}
	s := newSelector(kernelDir, fr)

	writeConfigFile(t, s.TargetPath(), "CONFIG_ARM64=y\n")

	tier, err := s.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if tier != TierTarget {
		t.Errorf("Select() tier = %v, want %v", tier, TierTarget)
	}
	if len(fr.calls) != 0 {
		t.Errorf("Select() ran %d commands, want 0", len(fr.calls))
	}
}

func TestSelectSiblingFallback(t *testing.T) {
	kernelDir := t.TempDir()
	fr := &fakeRunner{}
	s := newSelector(kernelDir, fr)

	sibling := filepath.Join(kernelDir, "arch", "arm64", "configs", "coral_defconfig")
	writeConfigFile(t, sibling, "CONFIG_ARM64=y\nCONFIG_CORAL=y\n")

	tier, err := s.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if tier != TierSibling {
		t.Errorf("Select() tier = %v, want %v", tier, TierSibling)
	}

	// The sibling content must now exist under the target name.
	data, err := os.ReadFile(s.TargetPath())
	if err != nil {
		t.Fatalf("target defconfig not created: %v", err)
	}
	if string(data) != "CONFIG_ARM64=y\nCONFIG_CORAL=y\n" {
		t.Errorf("target defconfig content = %q", data)
	}
}

func TestSelectVendorFallback(t *testing.T) {
	kernelDir := t.TempDir()
	fr := &fakeRunner{}
	s := newSelector(kernelDir, fr)

	vendor := filepath.Join(kernelDir, "arch", "arm64", "configs", "vendor", "flame_defconfig")
	writeConfigFile(t, vendor, "CONFIG_VENDOR=y\n")

	tier, err := s.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if tier != TierVendor {
		t.Errorf("Select() tier = %v, want %v", tier, TierVendor)
	}
	if !paths.IsFile(s.TargetPath()) {
		t.Error("target defconfig not created from vendor variant")
	}
}

func TestSelectGenerated(t *testing.T) {
	kernelDir := t.TempDir()
	fr := &fakeRunner{
		onRun: func(opts runner.Opts) error {
			if opts.String() == "make defconfig" {
				return os.WriteFile(filepath.Join(kernelDir, ".config"), []byte("CONFIG_GEN=y\n"), 0644)
			}
			return fmt.Errorf("unexpected command: %s", opts)
		},
	}
	s := newSelector(kernelDir, fr)

	tier, err := s.Select(context.Background())
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if tier != TierGenerated {
		t.Errorf("Select() tier = %v, want %v", tier, TierGenerated)
	}

	// The generated configuration is persisted so the next run resolves
	// at tier 1 without touching the kernel's config machinery.
	data, err := os.ReadFile(s.TargetPath())
	if err != nil {
		t.Fatalf("generated defconfig not persisted: %v", err)
	}
	if string(data) != "CONFIG_GEN=y\n" {
		t.Errorf("persisted defconfig content = %q", data)
	}

	fr.calls = nil
	tier, err = s.Select(context.Background())
	if err != nil {
		t.Fatalf("second Select() error = %v", err)
	}
	if tier != TierTarget || len(fr.calls) != 0 {
		t.Errorf("second Select() = (%v, %d commands), want (%v, 0)", tier, len(fr.calls), TierTarget)
	}
}

func TestSelectGenerationFails(t *testing.T) {
	fr := &fakeRunner{
		onRun: func(opts runner.Opts) error {
			return fmt.Errorf("make: command not found")
		},
	}
	s := newSelector(t.TempDir(), fr)

	_, err := s.Select(context.Background())
	if !errors.Is(err, errors.ErrNoBaseConfig) {
		t.Errorf("Select() error = %v, want ErrNoBaseConfig", err)
	}
}
