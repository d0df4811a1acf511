package pipeline

import (
	"context"
	"fmt"

	"github.com/nhkbuild/nhkbuild/src/common/paths"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/config"
	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/fetch"
)

// FetchStage acquires the source repositories the build depends on
type FetchStage struct {
	cfg     *config.Config
	fetcher *fetch.Fetcher
}

// NewFetchStage creates a new fetch stage
func NewFetchStage(cfg *config.Config, fetcher *fetch.Fetcher) *FetchStage {
	return &FetchStage{cfg: cfg, fetcher: fetcher}
}

// Name returns the stage name
func (s *FetchStage) Name() StageName {
	return StageFetch
}

// Validate checks whether this stage can run
func (s *FetchStage) Validate(ctx context.Context, sc *StageContext) error {
	if !paths.IsDir(s.cfg.Workspace) {
		return fmt.Errorf("workspace does not exist: %s", s.cfg.Workspace)
	}
	return nil
}

// Execute ensures each repository is present and fresh
func (s *FetchStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	repos := []config.Repo{s.cfg.Kernel, s.cfg.AnyKernel, s.cfg.Installer}

	for i, repo := range repos {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		progress((100*(i+1))/len(repos), fmt.Sprintf("Fetching %s", repo.Name))
		if err := s.fetcher.Ensure(ctx, repo); err != nil {
			return err
		}
	}

	progress(100, "All repositories present")
	return nil
}
