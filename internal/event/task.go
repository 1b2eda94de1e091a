package event

import "encoding/json"

// TaskRequest is an outbound task submission constructed by a UI surface.
type TaskRequest struct {
	TaskText string      `json:"task_text"`
	Context  TaskContext `json:"context"`
}

// TaskContext carries prior user utterances and the last known browser state.
type TaskContext struct {
	PreviousTasks []string        `json:"previous_tasks"`
	BrowserState  json.RawMessage `json:"browser_state"`
}

// Surface command types.
const (
	CommandExecuteTask = "execute_task"
)

// SurfaceCommand is a message sent by a registered UI surface to the relay.
type SurfaceCommand struct {
	Type string      `json:"type"`
	Task TaskRequest `json:"task"`
}
