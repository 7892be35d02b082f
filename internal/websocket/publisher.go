package websocket

import (
	"costsheet/pkg/contracts/domain"
	"costsheet/pkg/contracts/events"
)

// RunPublisher turns run transitions into hub broadcasts. The run ID is
// used as the message trace ID.
type RunPublisher struct {
	hub *Hub
}

// NewRunPublisher creates a RunPublisher.
func NewRunPublisher(hub *Hub) *RunPublisher {
	return &RunPublisher{hub: hub}
}

// PublishStep sends a run:progress message.
func (p *RunPublisher) PublishStep(run domain.Run, step domain.StepRecord) {
	p.hub.Broadcast(events.MessageTypeRunProgress, events.RunProgress{
		RunID:    run.ID,
		Step:     step.Name,
		Status:   string(step.Status),
		Progress: step.Progress,
		Message:  step.Message,
	}, run.ID)
}

// PublishStatus sends a run:status message.
func (p *RunPublisher) PublishStatus(run domain.Run) {
	p.hub.Broadcast(events.MessageTypeRunStatus, events.RunStatus{
		RunID:   run.ID,
		Status:  string(run.Status),
		Message: run.Message,
	}, run.ID)
}

// PublishResult sends the whole finished run as run:result.
func (p *RunPublisher) PublishResult(run domain.Run) {
	p.hub.Broadcast(events.MessageTypeRunResult, run, run.ID)
}
