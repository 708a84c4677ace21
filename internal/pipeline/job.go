package pipeline

import (
	"time"

	"github.com/tastebase/recipe-api/internal/domain"
)

// JobStatus represents the current state of a queued extraction job.
type JobStatus string

// Possible job status values
const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// ManualSourceKey is the sentinel source key recorded for literal-text
// submissions, which have no URL to persist under.
const ManualSourceKey = "manual-text-input"

// JobResult holds the outcome of a completed job. StoredID is empty when the
// persistence layer was unavailable; the job still counts as completed.
type JobResult struct {
	Recipe   *domain.Recipe `json:"recipe"`
	StoredID string         `json:"storedId,omitempty"`
}

// Job is one unit of pipeline work, tracked from submission until it reaches
// a terminal state. Exactly one of URL and Text is set. The queue owns every
// job it holds; only the drain loop mutates a job after submission.
type Job struct {
	ID          string     `json:"id"`
	URL         string     `json:"url,omitempty"`
	Text        string     `json:"text,omitempty"`
	Status      JobStatus  `json:"status"`
	QueuedAt    time.Time  `json:"queuedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Result      *JobResult `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// SourceKey returns the key the job's result is persisted under: the
// submitted URL, or ManualSourceKey for literal-text jobs.
func (j *Job) SourceKey() string {
	if j.URL != "" {
		return j.URL
	}
	return ManualSourceKey
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
