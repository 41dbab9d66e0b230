package model

// Event types emitted on the verdict topic.
const (
	VerdictEventFinal = "verdict.final"
)

// VerdictEvent notifies downstream consumers that a submission reached a
// terminal state.
type VerdictEvent struct {
	Type      string              `json:"type"`
	Status    JudgeStatusResponse `json:"status"`
	CreatedAt int64               `json:"created_at"`
}
