package domain

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// IsTerminal reports whether the run has finished.
func (s RunStatus) IsTerminal() bool {
	return s == RunCompleted || s == RunFailed
}

// StepStatus is the state of a single pipeline step.
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// StepRecord is one entry in a run's step log.
type StepRecord struct {
	Name     string     `json:"name"`
	Status   StepStatus `json:"status"`
	Progress int        `json:"progress"`
	Message  string     `json:"message,omitempty"`
	At       time.Time  `json:"at"`
}

// Run is an in-memory record of one pipeline invocation.
type Run struct {
	ID          string       `json:"id"`
	Source      SourceKind   `json:"source"`
	Target      string       `json:"target,omitempty"`
	Status      RunStatus    `json:"status"`
	Progress    int          `json:"progress"`
	Message     string       `json:"message,omitempty"`
	Steps       []StepRecord `json:"steps"`
	Summary     *CostSummary `json:"summary,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	StartedAt   *time.Time   `json:"started_at,omitempty"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Duration returns the wall time between start and completion.
func (r Run) Duration() time.Duration {
	if r.StartedAt == nil || r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(*r.StartedAt)
}
