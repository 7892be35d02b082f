// Package events contains the WebSocket message contracts pushed to the
// dashboard while a run progresses.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MessageTypeRunProgress  MessageType = "run:progress"
	MessageTypeRunStatus    MessageType = "run:status"
	MessageTypeRunResult    MessageType = "run:result"
	MessageTypeSystemStatus MessageType = "system:status"

	MessageTypeConnect MessageType = "connect"
	MessageTypeError   MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// RunProgress reports a single pipeline step.
type RunProgress struct {
	RunID    string `json:"run_id"`
	Step     string `json:"step"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message,omitempty"`
}

// RunStatus reports a run lifecycle transition.
type RunStatus struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// ErrorData is the payload of an error message.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}
