package model

import "time"

// Verdict is the final classification of a submission. Severity ordering
// matters: the evaluator short-circuits on the first non-accepted case,
// so a submission carries exactly one verdict.
type Verdict string

const (
	VerdictAccepted          Verdict = "AC"
	VerdictWrongAnswer       Verdict = "WA"
	VerdictTimeLimitExceeded Verdict = "TLE"
	VerdictRuntimeError      Verdict = "RE"
	VerdictCompileError      Verdict = "CE"
	VerdictInternalError     Verdict = "IE"
)

// JudgeStatus tracks a submission through the dispatcher.
type JudgeStatus string

const (
	StatusPending  JudgeStatus = "pending"
	StatusRunning  JudgeStatus = "running"
	StatusFinished JudgeStatus = "finished"
	StatusFailed   JudgeStatus = "failed"
)

// JudgeRequest is one submission to judge.
type JudgeRequest struct {
	SubmissionID string `json:"submission_id"`
	ProblemCode  string `json:"problem_code"`
	Language     string `json:"language"`
	SourceCode   string `json:"source_code"`
}

// JudgeOutcome is the result of judging one submission to completion.
type JudgeOutcome struct {
	Verdict    Verdict `json:"verdict"`
	FailedCase int     `json:"failed_case,omitempty"`
	Message    string  `json:"message,omitempty"`
	TotalCases int     `json:"total_cases"`
	DoneCases  int     `json:"done_cases"`
	TimeMs     int64   `json:"time_ms"`
}

// Progress reports how far a running submission has advanced.
type Progress struct {
	TotalCases int `json:"total_cases"`
	DoneCases  int `json:"done_cases"`
}

// JudgeStatusResponse is the externally visible state of a submission.
type JudgeStatusResponse struct {
	SubmissionID string        `json:"submission_id"`
	Status       JudgeStatus   `json:"status"`
	Outcome      *JudgeOutcome `json:"outcome,omitempty"`
	Progress     *Progress     `json:"progress,omitempty"`
	EnqueuedAt   time.Time     `json:"enqueued_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}

// RunRequest executes user code once against a caller-supplied input
// without touching the problem corpus.
type RunRequest struct {
	Language   string `json:"language"`
	SourceCode string `json:"source_code"`
	Stdin      string `json:"stdin"`
}

// RunResponse carries the raw outcome of a custom run.
type RunResponse struct {
	Status   string `json:"status"`
	Phase    string `json:"phase"`
	ExitCode int    `json:"exit_code"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	TimeMs   int64  `json:"time_ms"`
}
