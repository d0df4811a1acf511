package toolchain

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/fetch"
)

// Provisioner downloads and unpacks the toolchain bundle exactly once.
type Provisioner struct {
	cfg    config.Toolchain
	getter fetch.Getter
}

// NewProvisioner creates a toolchain provisioner
func NewProvisioner(cfg config.Toolchain, getter fetch.Getter) *Provisioner {
	return &Provisioner{cfg: cfg, getter: getter}
}

// Ensure provisions the toolchain directory. Presence of the directory
// is treated as already provisioned, regardless of version drift; the
// bundle is never re-downloaded once present.
func (p *Provisioner) Ensure(ctx context.Context) error {
	if paths.IsDir(p.cfg.Dir) {
		log.Info("Toolchain already provisioned", "dir", p.cfg.Dir, "version", p.cfg.Version)
		return nil
	}

	archive := p.cfg.Dir + ".tar"
	if strings.HasSuffix(p.cfg.URL, ".gz") {
		archive += ".gz"
	} else if strings.HasSuffix(p.cfg.URL, ".xz") {
		archive += ".xz"
	}

	log.Info("Downloading toolchain", "version", p.cfg.Version, "url", p.cfg.URL)
	if _, err := p.getter.Get(ctx, p.cfg.URL, archive); err != nil {
		return errors.ErrToolchainDownload.
			WithMessagef("Failed to download toolchain %s", p.cfg.Version).
			WithCause(err)
	}
	defer os.Remove(archive)

	if err := os.MkdirAll(p.cfg.Dir, 0755); err != nil {
		return errors.ErrToolchainExtract.WithCause(err)
	}

	log.Info("Extracting toolchain", "archive", archive, "dir", p.cfg.Dir)
	if err := ExtractArchive(ctx, archive, p.cfg.Dir); err != nil {
		// A half-extracted directory would pass the presence check on
		// the next run; remove it so re-running retries from scratch.
		os.RemoveAll(p.cfg.Dir)
		return errors.ErrToolchainExtract.WithCause(err)
	}

	p.prune()
	return nil
}

// Env returns the build environment backed by this toolchain.
func (p *Provisioner) Env() *BuildEnvironment {
	return FlameEnvironment(filepath.Join(p.cfg.Dir, "bin"))
}

// prune removes shared-library files outside the executable directory,
// a best-effort size reduction. Failures never abort provisioning.
func (p *Provisioner) prune() {
	binDir := filepath.Join(p.cfg.Dir, "bin")
	removed := 0

	err := filepath.WalkDir(p.cfg.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasPrefix(path, binDir+string(os.PathSeparator)) {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, "lib") && strings.Contains(name, ".so") {
			if rmErr := os.Remove(path); rmErr == nil {
				removed++
			}
		}
		return nil
	})
	if err != nil {
		log.Warn("Toolchain prune walk failed", "error", err)
		return
	}
	if removed > 0 {
		log.Info("Pruned toolchain shared libraries", "removed", removed)
	}
}
