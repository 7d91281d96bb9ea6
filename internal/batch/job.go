// Where: cli/internal/batch/job.go
// What: Job and result records for batch conversion.
// Why: Each conversion attempt needs an owner-mutated status record; the
// aggregate needs counts that always reconcile with the job list.
package batch

import "time"

// Status is a job's lifecycle state. Only the worker owning the job moves
// it forward; the collector reads it after completion.
type Status string

const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// Job is one source directory's conversion attempt within a batch.
type Job struct {
	Dir      string
	AppID    string
	Index    int // 1-based position in the sorted batch
	Total    int
	Status   Status
	Err      error
	Warnings []string
}

// AppMessage attributes one error or warning line to an app.
type AppMessage struct {
	AppID   string
	Message string
}

// Result aggregates a completed batch. SuccessCount+FailureCount == Total
// and len(Errors) == FailureCount always hold.
type Result struct {
	Total        int
	SuccessCount int
	FailureCount int
	Errors       []AppMessage
	Warnings     []AppMessage
	Elapsed      time.Duration
}
