package model

import "time"

type InterviewStatus string

const (
	InterviewScheduled  InterviewStatus = "scheduled"
	InterviewPending    InterviewStatus = "pending"
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
)

func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewScheduled, InterviewPending, InterviewInProgress, InterviewCompleted:
		return true
	}
	return false
}

type Interview struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Position        string          `json:"position"`
	CompanyName     string          `json:"company_name"`
	JobDescription  string          `json:"job_description"`
	InterviewType   string          `json:"interview_type"`
	Difficulty      string          `json:"difficulty"`
	DurationMinutes int             `json:"duration"`
	Questions       []string        `json:"questions"`
	InterviewerName string          `json:"interviewer_name"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty"`
	Status          InterviewStatus `json:"status"`
	Feedback        *string         `json:"feedback,omitempty"`
	Rating          *int            `json:"rating,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// InterviewPatch carries a partial interview update. Nil fields are left untouched.
type InterviewPatch struct {
	Status      *InterviewStatus
	ScheduledAt *time.Time
	Feedback    *string
	Rating      *int
}

const (
	TurnCandidate   = "candidate"
	TurnInterviewer = "interviewer"
)

// Turn is one line of interview conversation held in the session store.
type Turn struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}
