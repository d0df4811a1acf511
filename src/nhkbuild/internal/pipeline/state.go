package pipeline

// State describes pipeline progress. Transitions are strictly linear;
// any stage failure moves directly to StateAborted with no rollback of
// artifacts already on disk.
type State string

const (
	StateInit               State = "Init"
	StateDepsFetched        State = "DepsFetched"
	StateToolchainReady     State = "ToolchainReady"
	StateConfigResolved     State = "ConfigResolved"
	StateBuilt              State = "Built"
	StateKernelPackaged     State = "KernelPackaged"
	StateInstallerAssembled State = "InstallerAssembled"
	StateReported           State = "Reported"
	StateAborted            State = "Aborted"
)

// stateAfter maps a completed stage to the state it establishes.
// Workspace preparation completes within Init.
var stateAfter = map[StageName]State{
	StagePrepare:   StateInit,
	StageFetch:     StateDepsFetched,
	StageToolchain: StateToolchainReady,
	StageKconfig:   StateConfigResolved,
	StageBuild:     StateBuilt,
	StageKernelZip: StateKernelPackaged,
	StageInstaller: StateInstallerAssembled,
	StageReport:    StateReported,
}

// Terminal reports whether the state ends a run
func (s State) Terminal() bool {
	return s == StateReported || s == StateAborted
}
