package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ReportStage prints the final artifact locations and flashing
// instructions for the operator.
type ReportStage struct {
	out io.Writer
}

// NewReportStage creates a new report stage. A nil writer means stdout.
func NewReportStage(out io.Writer) *ReportStage {
	if out == nil {
		out = os.Stdout
	}
	return &ReportStage{out: out}
}

// Name returns the stage name
func (s *ReportStage) Name() StageName {
	return StageReport
}

// Validate checks whether this stage can run
func (s *ReportStage) Validate(ctx context.Context, sc *StageContext) error {
	if sc.KernelZip == "" || sc.InstallerZip == "" {
		return fmt.Errorf("archives not built - packaging stages must run first")
	}
	return nil
}

// Execute writes the run summary
func (s *ReportStage) Execute(ctx context.Context, sc *StageContext, progress ProgressFunc) error {
	fmt.Fprintf(s.out, "\nBuild complete for %s\n\n", sc.Cfg.Device)
	fmt.Fprintf(s.out, "  Kernel zip:    %s\n", sc.KernelZip)
	fmt.Fprintf(s.out, "  Installer zip: %s\n\n", sc.InstallerZip)
	fmt.Fprintln(s.out, "Flash the kernel zip from a custom recovery, or sideload the")
	fmt.Fprintln(s.out, "installer zip for a full NetHunter installation:")
	fmt.Fprintln(s.out, "")
	fmt.Fprintf(s.out, "  adb sideload %s\n", sc.InstallerZip)
	fmt.Fprintln(s.out, "")

	progress(100, "Report written")
	return nil
}
