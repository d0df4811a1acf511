package pipeline

import (
	"context"
	"fmt"

	"github.com/nhkbuild/nhkbuild/src/nhkbuild/internal/toolchain"
)

// ToolchainStage provisions the cross toolchain and publishes the build
// environment to the rest of the pipeline.
type ToolchainStage struct {
	prov *toolchain.Provisioner
}

// NewToolchainStage creates a new toolchain stage
func NewToolchainStage(prov *toolchain.Provisioner) *ToolchainStage {
	return &ToolchainStage{prov: prov}
}

// Name returns the stage name
func (s *ToolchainStage) Name() StageName {
	return StageToolchain
}

// Validate checks whether this stage can run
func (s *ToolchainStage) Validate(ctx context.Context, sc *StageContext) error {
	if s.prov == nil {
		return fmt.Errorf("toolchain provisioner not configured")
	}
	return nil
}

// Execute provisions the toolchain once and records the resulting
// environment on the stage context for the kconfig and build stages.
func (s *ToolchainStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	progress(0, "Provisioning toolchain")

	if err := s.prov.Ensure(ctx); err != nil {
		return err
	}

	sc.BuildEnv = s.prov.Env()
	progress(100, fmt.Sprintf("Toolchain ready, ARCH=%s", sc.BuildEnv.Arch))
	return nil
}
