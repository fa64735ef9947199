package model

import "time"

// ExecutionJob is the message pushed onto the Redis execution queue.
type ExecutionJob struct {
	SubmissionID string    `json:"submission_id"`
	Attempts     int       `json:"attempts"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}
