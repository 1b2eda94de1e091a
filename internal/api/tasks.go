package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dkazakov/browser-relay/internal/event"
)

// CreateTaskResponse is the backend's answer to a task creation request.
type CreateTaskResponse struct {
	TaskID         string            `json:"task_id"`
	ParsedIntent   string            `json:"parsed_intent"`
	PlannedActions []json.RawMessage `json:"planned_actions"`
	EstimatedTime  string            `json:"estimated_time"`
}

// CreateTask submits a task payload and returns the assigned task_id.
func (c *Client) CreateTask(ctx context.Context, req event.TaskRequest) (CreateTaskResponse, error) {
	var resp CreateTaskResponse
	if err := c.post(ctx, "/api/tasks", req, &resp); err != nil {
		return CreateTaskResponse{}, err
	}
	if resp.TaskID == "" {
		return CreateTaskResponse{}, fmt.Errorf("backend returned no task_id")
	}

	c.logger.Debug("task created",
		"task_id", resp.TaskID,
		"intent", resp.ParsedIntent,
	)

	return resp, nil
}

// ExecuteTask starts execution of a previously-created task.
func (c *Client) ExecuteTask(ctx context.Context, taskID string) error {
	if err := c.post(ctx, "/api/execute/"+taskID, nil, nil); err != nil {
		return err
	}

	c.logger.Debug("task execution started", "task_id", taskID)
	return nil
}
