package domain

import "time"

// HistoryChangeType categorizes audit entries.
type HistoryChangeType string

const (
	ChangeTypeStatus     HistoryChangeType = "STATUS"
	ChangeTypeAssignment HistoryChangeType = "ASSIGNMENT"
	ChangeTypeAcceptance HistoryChangeType = "ACCEPTANCE"
)

// AppointmentHistory is an audit entry for a lifecycle change.
type AppointmentHistory struct {
	ID            string
	AppointmentID string
	ChangedByType SubjectType
	ChangedByID   *string
	ChangeType    HistoryChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
