package kconfig

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

// Tier identifies which fallback produced the base configuration
type Tier int

const (
	// TierTarget: the target-specific defconfig was already present
	TierTarget Tier = iota + 1
	// TierSibling: seeded from the sibling device's defconfig
	TierSibling
	// TierVendor: seeded from the vendor-namespaced defconfig
	TierVendor
	// TierGenerated: generated by the kernel's own defconfig target
	TierGenerated
)

func (t Tier) String() string {
	switch t {
	case TierTarget:
		return "target"
	case TierSibling:
		return "sibling"
	case TierVendor:
		return "vendor"
	case TierGenerated:
		return "generated"
	default:
		return "unknown"
	}
}

// BaseSelector resolves the base defconfig for the target device via
// tiered fallback. Selection is total: tier 4 always produces a base,
// modulo kernel toolchain failure.
type BaseSelector struct {
	KernelDir string
	Arch      string
	Device    string
	Sibling   string
	Runner    runner.Runner
	Env       []string
}

// configsDir returns the arch defconfig directory of the kernel tree
func (s *BaseSelector) configsDir() string {
	return filepath.Join(s.KernelDir, "arch", s.Arch, "configs")
}

// TargetPath returns the target-specific defconfig path
func (s *BaseSelector) TargetPath() string {
	return filepath.Join(s.configsDir(), s.Device+"_defconfig")
}

// Select resolves exactly one base configuration, trying each tier in
// priority order, and guarantees the target-specific defconfig exists
// on success.
func (s *BaseSelector) Select(ctx context.Context) (Tier, error) {
	target := s.TargetPath()
	if paths.IsFile(target) {
		log.Info("Using existing target defconfig", "path", target)
		return TierTarget, nil
	}

	sibling := filepath.Join(s.configsDir(), s.Sibling+"_defconfig")
	if paths.IsFile(sibling) {
		// Sibling hardware shares a close enough kernel configuration
		// base to seed the target.
		log.Info("Seeding defconfig from sibling device",
			"sibling", s.Sibling, "target", s.Device)
		if err := copyFile(sibling, target); err != nil {
			return 0, errors.ErrNoBaseConfig.WithCause(err)
		}
		return TierSibling, nil
	}

	vendor := filepath.Join(s.configsDir(), "vendor", s.Device+"_defconfig")
	if paths.IsFile(vendor) {
		log.Info("Seeding defconfig from vendor variant", "path", vendor)
		if err := copyFile(vendor, target); err != nil {
			return 0, errors.ErrNoBaseConfig.WithCause(err)
		}
		return TierVendor, nil
	}

	// Last resort: let the kernel generate its default configuration,
	// then persist it as the target defconfig for future runs.
	log.Info("No defconfig candidate found, generating default configuration")
	if err := s.Runner.Run(ctx, runner.Opts{
		Name: "make",
		Args: []string{"defconfig"},
		Dir:  s.KernelDir,
		Env:  s.Env,
	}); err != nil {
		return 0, errors.ErrNoBaseConfig.WithCause(err)
	}
	generated := filepath.Join(s.KernelDir, ".config")
	if err := copyFile(generated, target); err != nil {
		return 0, errors.ErrNoBaseConfig.
			WithMessage("Generated configuration could not be persisted").
			WithCause(err)
	}
	return TierGenerated, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
