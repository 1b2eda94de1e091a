package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event types delivered over the backend event channel.
const (
	TypeConnectionStatus = "connection_status"
	TypeTaskUpdate       = "task_update"
	TypeBrowserState     = "browser_state"
	TypeError            = "error"
	TypeTaskCreated      = "task_created"
	TypePing             = "ping"
)

// Task update statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Connection statuses.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// ErrMissingType indicates a frame without the mandatory "type" field.
var ErrMissingType = errors.New("frame missing type field")

// Inbound is one event from the backend event channel. Unknown types are
// carried through unchanged so newer backends keep working.
type Inbound struct {
	Type    string          // Mandatory event type
	Status  string          // connection_status / task_update payload
	TaskID  string          // task_update / task_created payload
	Message string          // error payload ("message" or "error" key)
	State   json.RawMessage // browser_state payload

	// Raw is the verbatim frame as received. Surfaces get this byte-for-byte;
	// synthesized events carry a marshaled equivalent.
	Raw json.RawMessage
}

// wireFrame mirrors the JSON frame schema. Error frames may use either
// "message" or "error" for the human-readable text.
type wireFrame struct {
	Type    string          `json:"type"`
	Status  string          `json:"status,omitempty"`
	TaskID  string          `json:"task_id,omitempty"`
	Message string          `json:"message,omitempty"`
	Err     string          `json:"error,omitempty"`
	State   json.RawMessage `json:"state,omitempty"`
}

// Parse decodes a raw frame into an Inbound event. The original bytes are
// retained in Raw so broadcasts stay verbatim.
func Parse(data []byte) (Inbound, error) {
	var w wireFrame
	if err := json.Unmarshal(data, &w); err != nil {
		return Inbound{}, fmt.Errorf("parse frame: %w", err)
	}
	if w.Type == "" {
		return Inbound{}, ErrMissingType
	}

	msg := w.Message
	if msg == "" {
		msg = w.Err
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)

	return Inbound{
		Type:    w.Type,
		Status:  w.Status,
		TaskID:  w.TaskID,
		Message: msg,
		State:   w.State,
		Raw:     raw,
	}, nil
}

// ConnectionStatus synthesizes a connection_status event.
func ConnectionStatus(connected bool) Inbound {
	status := StatusDisconnected
	if connected {
		status = StatusConnected
	}
	return synthesize(wireFrame{Type: TypeConnectionStatus, Status: status})
}

// ErrorEvent synthesizes an error event carrying a human-readable message.
func ErrorEvent(message string) Inbound {
	return synthesize(wireFrame{Type: TypeError, Message: message})
}

// TaskCreated synthesizes a task_created event for a newly-accepted task.
func TaskCreated(taskID string) Inbound {
	return synthesize(wireFrame{Type: TypeTaskCreated, TaskID: taskID})
}

func synthesize(w wireFrame) Inbound {
	raw, _ := json.Marshal(w)
	return Inbound{
		Type:    w.Type,
		Status:  w.Status,
		TaskID:  w.TaskID,
		Message: w.Message,
		State:   w.State,
		Raw:     raw,
	}
}
