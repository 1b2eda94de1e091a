package event

import (
	"encoding/json"
	"testing"
)

func TestParse_TaskUpdate(t *testing.T) {
	data := []byte(`{"type":"task_update","task_id":"task-abc","status":"running"}`)

	ev, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if ev.Type != TypeTaskUpdate {
		t.Errorf("Type = %q, want %q", ev.Type, TypeTaskUpdate)
	}
	if ev.TaskID != "task-abc" {
		t.Errorf("TaskID = %q, want %q", ev.TaskID, "task-abc")
	}
	if ev.Status != StatusRunning {
		t.Errorf("Status = %q, want %q", ev.Status, StatusRunning)
	}
	if string(ev.Raw) != string(data) {
		t.Errorf("Raw = %s, want verbatim input", ev.Raw)
	}
}

func TestParse_ErrorMessageKeys(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"message key", `{"type":"error","message":"boom"}`, "boom"},
		{"error key", `{"type":"error","error":"bang"}`, "bang"},
		{"message wins", `{"type":"error","message":"boom","error":"bang"}`, "boom"},
		{"empty payload", `{"type":"error"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := Parse([]byte(tt.data))
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if ev.Message != tt.want {
				t.Errorf("Message = %q, want %q", ev.Message, tt.want)
			}
		})
	}
}

func TestParse_UnknownTypePreserved(t *testing.T) {
	data := []byte(`{"type":"unknown_future_type","x":1}`)

	ev, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if ev.Type != "unknown_future_type" {
		t.Errorf("Type = %q, want unknown_future_type", ev.Type)
	}
	if string(ev.Raw) != string(data) {
		t.Errorf("Raw = %s, want verbatim input", ev.Raw)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte(`{not json`)); err == nil {
		t.Error("expected error for malformed frame")
	}
	if _, err := Parse([]byte(`{"status":"running"}`)); err != ErrMissingType {
		t.Errorf("expected ErrMissingType, got %v", err)
	}
}

func TestSynthesizedEvents(t *testing.T) {
	ev := ConnectionStatus(true)
	if ev.Type != TypeConnectionStatus || ev.Status != StatusConnected {
		t.Errorf("ConnectionStatus(true) = %+v", ev)
	}

	ev = ConnectionStatus(false)
	if ev.Status != StatusDisconnected {
		t.Errorf("Status = %q, want disconnected", ev.Status)
	}

	ev = TaskCreated("t1")
	if ev.Type != TypeTaskCreated || ev.TaskID != "t1" {
		t.Errorf("TaskCreated = %+v", ev)
	}

	// Raw must round-trip through Parse unchanged in meaning.
	parsed, err := Parse(ev.Raw)
	if err != nil {
		t.Fatalf("Parse of synthesized raw failed: %v", err)
	}
	if parsed.TaskID != "t1" {
		t.Errorf("round-trip TaskID = %q, want t1", parsed.TaskID)
	}

	ev = ErrorEvent("task creation failed")
	var w map[string]any
	if err := json.Unmarshal(ev.Raw, &w); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	if w["message"] != "task creation failed" {
		t.Errorf("raw message = %v", w["message"])
	}
}
