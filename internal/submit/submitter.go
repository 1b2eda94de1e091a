// Package submit implements the Task Submitter: the two-step create/
// execute protocol for forwarding task requests to the backend.
//
// Submission outcomes always reach registered surfaces as broadcast
// events (task_created on success, error on failure). Submit also returns
// the typed error so direct callers are not limited to the broadcast
// channel. No retries happen here; retrying is the caller's decision.
package submit

import (
	"context"
	"log/slog"

	"github.com/dkazakov/browser-relay/internal/api"
	"github.com/dkazakov/browser-relay/internal/event"
	"github.com/dkazakov/browser-relay/internal/store"
)

// API is the backend task endpoint pair.
type API interface {
	CreateTask(ctx context.Context, req event.TaskRequest) (api.CreateTaskResponse, error)
	ExecuteTask(ctx context.Context, taskID string) error
}

// Publisher injects submission outcomes into the event routing path.
type Publisher interface {
	Publish(ev event.Inbound)
}

// History records accepted submissions and supplies prior task text for
// requests that arrive without context. Optional.
type History interface {
	RecordTask(taskID, taskText string) error
	RecentTasks(limit int) ([]store.TaskRecord, error)
}

// previousTasksLimit bounds how much history backfills an empty context.
const previousTasksLimit = 10

// Submitter drives the two-step submission protocol.
type Submitter struct {
	api       API
	publisher Publisher
	history   History
	logger    *slog.Logger
}

// NewSubmitter creates a Task Submitter. history may be nil.
func NewSubmitter(backendAPI API, publisher Publisher, history History, logger *slog.Logger) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Submitter{
		api:       backendAPI,
		publisher: publisher,
		history:   history,
		logger:    logger,
	}
}

// Submit creates and then executes one task. Exactly one outcome event is
// published: task_created on success, error on the first failing step.
func (s *Submitter) Submit(ctx context.Context, req event.TaskRequest) error {
	if len(req.Context.PreviousTasks) == 0 && s.history != nil {
		// Surfaces that just opened have no local history; backfill the
		// backend's planning context from the durable record.
		if recent, err := s.history.RecentTasks(previousTasksLimit); err == nil {
			for _, rec := range recent {
				req.Context.PreviousTasks = append(req.Context.PreviousTasks, rec.TaskText)
			}
		} else {
			s.logger.Warn("failed to load task history for context", "error", err)
		}
	}

	resp, err := s.api.CreateTask(ctx, req)
	if err != nil {
		cerr := &TaskCreationError{Err: err}
		s.logger.Warn("task creation rejected", "error", err)
		s.publisher.Publish(event.ErrorEvent(cerr.Error()))
		return cerr
	}

	if err := s.api.ExecuteTask(ctx, resp.TaskID); err != nil {
		xerr := &TaskExecutionError{TaskID: resp.TaskID, Err: err}
		s.logger.Warn("task execution rejected", "task_id", resp.TaskID, "error", err)
		s.publisher.Publish(event.ErrorEvent(xerr.Error()))
		return xerr
	}

	if s.history != nil {
		if err := s.history.RecordTask(resp.TaskID, req.TaskText); err != nil {
			// History is bookkeeping; the submission itself succeeded.
			s.logger.Warn("failed to record task history", "task_id", resp.TaskID, "error", err)
		}
	}

	s.logger.Info("task submitted", "task_id", resp.TaskID)
	s.publisher.Publish(event.TaskCreated(resp.TaskID))
	return nil
}
