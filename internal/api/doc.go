// Package api provides the REST client for the task-execution backend.
//
// Task submission is a two-step protocol: POST /api/tasks creates a task
// and assigns a task_id, POST /api/execute/{task_id} starts execution.
// Progress is not reported here; it arrives on the persistent event
// channel owned by the backend package.
package api
