package domain

import "encoding/json"

// JobStatus is the lifecycle state of an async proxy job.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobDone    JobStatus = "done"
	JobFailed  JobStatus = "failed"
)

// IsTerminal reports whether the job can no longer change.
func (s JobStatus) IsTerminal() bool {
	return s == JobDone || s == JobFailed
}

// Job is the gateway's view of an async proxy job.
type Job struct {
	ID     string          `json:"-"`
	Status JobStatus       `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
