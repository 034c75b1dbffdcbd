package model

import "time"

// MonitorEventType names the lifecycle change carried by a MonitorEvent.
type MonitorEventType string

const (
	MonitorEventStarted   MonitorEventType = "session_started"
	MonitorEventExpired   MonitorEventType = "session_expired"
	MonitorEventSubmitted MonitorEventType = "submitted"
)

// MonitorEvent is published on the exam's monitor channel.
type MonitorEvent struct {
	Type       MonitorEventType `json:"type"`
	ExamID     int64            `json:"exam_id"`
	StudentID  int              `json:"student_id"`
	Percentage *float64         `json:"percentage,omitempty"`
	At         time.Time        `json:"at"`
}

// ActiveSession is a row of the monitor snapshot.
type ActiveSession struct {
	StudentID int       `json:"student_id"`
	Username  string    `json:"username"`
	StartedAt time.Time `json:"started_at"`
}

// ExamResultRow is a result joined with the student's username.
type ExamResultRow struct {
	StudentID      int       `json:"student_id"`
	Username       string    `json:"username"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

// MonitorSnapshot is the initial state pushed to a monitor stream.
type MonitorSnapshot struct {
	ExamID         int64           `json:"exam_id"`
	ActiveSessions []ActiveSession `json:"active_sessions"`
	Completed      []ExamResultRow `json:"completed"`
}
