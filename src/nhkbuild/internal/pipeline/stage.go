// Package pipeline provides the sequential build pipeline that turns the
// remote sources into the two flashable NetHunter archives.
package pipeline

import (
	"context"
	"time"

	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/kconfig"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/toolchain"
)

// StageName identifies a pipeline stage
type StageName string

const (
	StagePrepare   StageName = "prepare"
	StageFetch     StageName = "fetch"
	StageToolchain StageName = "toolchain"
	StageKconfig   StageName = "kconfig"
	StageBuild     StageName = "build"
	StageKernelZip StageName = "kernelzip"
	StageInstaller StageName = "installer"
	StageReport    StageName = "report"
)

// Stage defines the interface for a single pipeline stage
type Stage interface {
	// Name returns the stage name
	Name() StageName

	// Validate checks whether this stage can run given the current context
	Validate(ctx context.Context, sc *StageContext) error

	// Execute runs the stage, updating progress via the callback
	Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error
}

// ProgressFunc reports stage progress (0-100) with an optional message
type ProgressFunc func(percent int, message string)

// StageContext holds shared state passed through the pipeline. Stages
// communicate through the file system; the context carries only the run
// identity, the resolved configuration, and the few values later stages
// cannot rediscover from disk.
type StageContext struct {
	// RunID uniquely identifies this pipeline run in logs
	RunID string

	// Cfg is the resolved pipeline configuration
	Cfg *config.Config

	// BuildDate stamps the archive names; zero value means "now"
	BuildDate time.Time

	// BuildEnv is populated by the toolchain stage
	BuildEnv *toolchain.BuildEnvironment

	// ConfigTier records which defconfig fallback won (diagnostic)
	ConfigTier kconfig.Tier

	// KernelZip is the kernel archive path, populated by kernelzip
	KernelZip string

	// InstallerZip is the installer archive path, populated by installer
	InstallerZip string
}

// Date returns the effective build date for archive naming
func (sc *StageContext) Date() time.Time {
	if sc.BuildDate.IsZero() {
		return time.Now()
	}
	return sc.BuildDate
}
