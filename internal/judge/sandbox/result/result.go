package result

// ExecStatus classifies how a single sandboxed execution ended.
type ExecStatus string

const (
	ExecOK               ExecStatus = "ok"
	ExecCompileError     ExecStatus = "compile_error"
	ExecRuntimeError     ExecStatus = "runtime_error"
	ExecTimeout          ExecStatus = "timeout"
	ExecToolchainMissing ExecStatus = "toolchain_missing"
	ExecInternalError    ExecStatus = "internal_error"
)

// Phase names the stage an execution outcome belongs to.
type Phase string

const (
	PhaseCompile Phase = "compile"
	PhaseRun     Phase = "run"
)

// ExecOutcome is the full record of one process run inside the sandbox.
type ExecOutcome struct {
	Status   ExecStatus `json:"status"`
	Phase    Phase      `json:"phase"`
	ExitCode int        `json:"exit_code"`
	Stdout   string     `json:"stdout"`
	Stderr   string     `json:"stderr"`
	TimeMs   int64      `json:"time_ms"`
}

// OK reports whether the execution completed normally with exit code zero.
func (o ExecOutcome) OK() bool {
	return o.Status == ExecOK
}

// CompileOutcome is the result of compiling a submission once.
type CompileOutcome struct {
	OK         bool   `json:"ok"`
	TimedOut   bool   `json:"timed_out"`
	ExitCode   int    `json:"exit_code"`
	Stderr     string `json:"stderr"`
	TimeMs     int64  `json:"time_ms"`
	BinaryPath string `json:"binary_path"`
}
