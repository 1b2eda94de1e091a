package submit

import "fmt"

// TaskCreationError means the backend rejected the create step; the
// execute step was never attempted.
type TaskCreationError struct {
	Err error
}

func (e *TaskCreationError) Error() string {
	return fmt.Sprintf("task creation failed: %v", e.Err)
}

func (e *TaskCreationError) Unwrap() error { return e.Err }

// TaskExecutionError means the task was created but the backend rejected
// the execute step.
type TaskExecutionError struct {
	TaskID string
	Err    error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("task execution failed for %s: %v", e.TaskID, e.Err)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }
