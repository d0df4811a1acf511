package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/archive"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/fetch"
)

var (
	deviceName1Re = regexp.MustCompile(`(?m)^(\s*device\.name1=).*$`)
	deviceName2Re = regexp.MustCompile(`(?m)^(\s*device\.name2=).*$`)
)

// KernelZipStage packages the built kernel image into a flashable
// AnyKernel3 zip.
type KernelZipStage struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
}

// NewKernelZipStage creates a new kernel packaging stage
func NewKernelZipStage(cfg *config.Config, fetcher *fetch.Fetcher) *KernelZipStage {
	return &KernelZipStage{cfg: cfg, fetcher: fetcher}
}

// Name returns the stage name
func (s *KernelZipStage) Name() StageName {
	return StageKernelZip
}

// Validate checks whether this stage can run
func (s *KernelZipStage) Validate(ctx context.Context, sc *StageContext) error {
	if !paths.IsFile(s.cfg.ArtifactPath()) {
		return fmt.Errorf("kernel image not built: %s", s.cfg.ArtifactPath())
	}
	if !paths.IsDir(s.cfg.AnyKernel.Dir) {
		return fmt.Errorf("packaging template not present: %s", s.cfg.AnyKernel.Dir)
	}
	return nil
}

// Execute resets the packaging template to a clean checkout, stages the
// kernel image into it, retargets the installer script to this device,
// and zips the result under a dated name.
func (s *KernelZipStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	progress(0, "Resetting packaging template")

	if err := s.fetcher.ResetClean(ctx, s.cfg.AnyKernel); err != nil {
		return errors.ErrPackageFailed.
			WithMessagef("Failed to reset %s to a clean checkout", s.cfg.AnyKernel.Name).
			WithCause(err)
	}

	progress(30, "Staging kernel image")

	imageDest := filepath.Join(s.cfg.AnyKernel.Dir, filepath.Base(s.cfg.ArtifactRelPath))
	if err := copyFile(s.cfg.ArtifactPath(), imageDest); err != nil {
		return errors.ErrPackageFailed.
			WithMessagef("Failed to stage kernel image into %s", s.cfg.AnyKernel.Name).
			WithCause(err)
	}

	progress(50, "Retargeting installer script")

	if err := s.retargetScript(); err != nil {
		return errors.ErrPackageFailed.
			WithMessage("Failed to retarget anykernel.sh").
			WithCause(err)
	}

	// The archive lives at the workspace root, not inside the checkout:
	// the reset step wipes untracked files there on the next run, and
	// prior days' archives must survive.
	zipName := archive.DatedName(s.cfg.KernelZipPrefix, sc.Date())
	zipPath := filepath.Join(s.cfg.Workspace, zipName)

	progress(70, fmt.Sprintf("Creating %s", zipName))

	if err := archive.CreateZip(zipPath, s.cfg.AnyKernel.Dir, archive.PackagingExcludes); err != nil {
		return errors.ErrPackageFailed.
			WithMessagef("Failed to create %s", zipName).
			WithCause(err)
	}

	sc.KernelZip = zipPath
	log.Info("Kernel archive ready", "zip", zipPath)
	progress(100, "Kernel packaged")
	return nil
}

// retargetScript rewrites the device.name bindings in anykernel.sh so
// the zip only flashes on the intended hardware.
func (s *KernelZipStage) retargetScript() error {
	scriptPath := filepath.Join(s.cfg.AnyKernel.Dir, "anykernel.sh")
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return err
	}

	data = deviceName1Re.ReplaceAll(data, []byte("${1}"+s.cfg.Device))
	data = deviceName2Re.ReplaceAll(data, []byte("${1}"+s.cfg.Device))

	info, err := os.Stat(scriptPath)
	if err != nil {
		return err
	}
	return os.WriteFile(scriptPath, data, info.Mode().Perm())
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
