// Package fetch acquires the pipeline's external dependencies: git
// repositories (clone-if-absent, update-in-place) and HTTP assets
// (download-if-absent).
package fetch

import (
	"context"

	"github.com/nhkbuild/nhkbuild/src/common/errors"
	"github.com/nhkbuild/nhkbuild/src/common/logs"
	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/runner"
)

var log = logs.NewDefault()

// SetLogger sets the logger for the fetch package
func SetLogger(l *logs.Logger) {
	if l != nil {
		log = l
	}
}

// Fetcher acquires source repositories idempotently
type Fetcher struct {
	runner runner.Runner
}

// NewFetcher creates a repository fetcher
func NewFetcher(r runner.Runner) *Fetcher {
	return &Fetcher{runner: r}
}

// Ensure makes the repository present at its local path. A missing
// repository is cloned (fatal on failure); a present one is assumed to
// be a valid clone and updated in place, best effort. Update failures
// are logged and swallowed: re-running the pipeline is the recovery
// path, but the repository must exist to proceed.
func (f *Fetcher) Ensure(ctx context.Context, repo config.Repo) error {
	if paths.IsDir(repo.Dir) {
		log.Info("Repository present, updating", "repo", repo.Name)
		if err := f.update(ctx, repo); err != nil {
			log.Warn("Repository update failed, keeping existing checkout",
				"repo", repo.Name, "error", err)
		}
	} else {
		log.Info("Cloning repository", "repo", repo.Name, "remote", repo.Remote, "shallow", repo.Shallow)
		if err := f.clone(ctx, repo); err != nil {
			return errors.ErrCloneFailed.
				WithMessagef("Failed to clone %s from %s", repo.Name, repo.Remote).
				WithCause(err)
		}
	}

	if rev := f.revision(ctx, repo); rev != "" {
		log.Info("Repository ready", "repo", repo.Name, "rev", rev)
	}
	return nil
}

// revision returns the checked-out commit for logging, best effort
func (f *Fetcher) revision(ctx context.Context, repo config.Repo) string {
	rev, err := f.runner.Output(ctx, runner.Opts{
		Name: "git",
		Args: []string{"rev-parse", "--short", "HEAD"},
		Dir:  repo.Dir,
	})
	if err != nil {
		return ""
	}
	return rev
}

func (f *Fetcher) clone(ctx context.Context, repo config.Repo) error {
	args := []string{"clone"}
	if repo.Shallow {
		args = append(args, "--depth", "1")
	}
	args = append(args, repo.Remote, repo.Dir)

	return f.runner.Run(ctx, runner.Opts{Name: "git", Args: args})
}

func (f *Fetcher) update(ctx context.Context, repo config.Repo) error {
	return f.runner.Run(ctx, runner.Opts{
		Name: "git",
		Args: []string{"pull", "--rebase"},
		Dir:  repo.Dir,
	})
}

// ResetClean discards local modifications and untracked files, restoring
// the repository to a pristine checkout. Used by the packager so no
// prior run contaminates the packaging template.
func (f *Fetcher) ResetClean(ctx context.Context, repo config.Repo) error {
	if err := f.runner.Run(ctx, runner.Opts{
		Name: "git",
		Args: []string{"reset", "--hard"},
		Dir:  repo.Dir,
	}); err != nil {
		return err
	}
	return f.runner.Run(ctx, runner.Opts{
		Name: "git",
		Args: []string{"clean", "-fdx"},
		Dir:  repo.Dir,
	})
}
