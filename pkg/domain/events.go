package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFlowLoaded      EventType = "flow_loaded"
	EventFlowSaved       EventType = "flow_saved"
	EventImportFailed    EventType = "import_failed"
	EventScriptGenerated EventType = "script_generated"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// FlowEvent reports a flow entering or leaving the editor.
type FlowEvent struct {
	EventBase
	Source      string `json:"source"` // slot, file or request the flow came from
	Cards       int    `json:"cards"`
	Connections int    `json:"connections"`
	Error       string `json:"error,omitempty"`
}

// ScriptEvent reports a generated script.
type ScriptEvent struct {
	EventBase
	Cards    int           `json:"cards"`
	Visited  int           `json:"visited"`
	Cycles   int           `json:"cycles"`
	Dangling int           `json:"dangling"`
	Fallback bool          `json:"fallback,omitempty"`
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for editor observability.
type LifecycleHooks struct {
	OnFlowLoaded      func(context.Context, *FlowEvent)
	OnFlowSaved       func(context.Context, *FlowEvent)
	OnImportFailed    func(context.Context, *FlowEvent)
	OnScriptGenerated func(context.Context, *ScriptEvent)
}
