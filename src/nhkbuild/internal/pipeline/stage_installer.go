package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/archive"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/fetch"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

// InstallerStage assembles the full NetHunter installer zip: the kernel
// archive plus the userland rootfs, combined by the upstream installer
// builder.
type InstallerStage struct {
	cfg    *config.Config
	runner runner.Runner
	getter fetch.Getter
}

// NewInstallerStage creates a new installer assembly stage
func NewInstallerStage(cfg *config.Config, r runner.Runner, g fetch.Getter) *InstallerStage {
	return &InstallerStage{cfg: cfg, runner: r, getter: g}
}

// Name returns the stage name
func (s *InstallerStage) Name() StageName {
	return StageInstaller
}

// Validate checks whether this stage can run
func (s *InstallerStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.KernelZip == "" {
		return fmt.Errorf("kernel archive not built - kernelzip stage must run first")
	}
	if !paths.IsDir(s.cfg.Installer.Dir) {
		return fmt.Errorf("installer builder not present: %s", s.cfg.Installer.Dir)
	}
	return nil
}

// Execute downloads the rootfs if absent and drives the installer
// builder to produce the dated installer zip.
func (s *InstallerStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	if paths.IsFile(s.cfg.Rootfs.Path) {
		log.Info("Rootfs present, skipping download", "path", s.cfg.Rootfs.Path)
	} else {
		progress(0, "Downloading rootfs")
		sum, err := s.getter.Get(ctx, s.cfg.Rootfs.URL, s.cfg.Rootfs.Path)
		if err != nil {
			return errors.ErrRootfsDownload.
				WithMessagef("Failed to download rootfs from %s", s.cfg.Rootfs.URL).
				WithCause(err)
		}
		log.Info("Rootfs downloaded", "path", s.cfg.Rootfs.Path, "sha256", sum)
	}

	zipName := archive.DatedName(s.cfg.InstallerZipPrefix, sc.Date())
	zipPath := filepath.Join(s.cfg.Installer.Dir, zipName)

	progress(40, fmt.Sprintf("Assembling %s", zipName))

	if err := s.runner.Run(ctx, runner.Opts{
		Name: "python3",
		Args: []string{
			"build.py",
			"--device", s.cfg.Device,
			"--kernel", sc.KernelZip,
			"--rootfs", s.cfg.Rootfs.Path,
			"--output", zipName,
			"--force",
		},
		Dir: s.cfg.Installer.Dir,
	}); err != nil {
		return errors.ErrInstallerFailed.
			WithMessagef("Installer builder failed for %s", zipName).
			WithCause(err)
	}

	sc.InstallerZip = zipPath
	log.Info("Installer archive ready", "zip", zipPath)
	progress(100, "Installer assembled")
	return nil
}
