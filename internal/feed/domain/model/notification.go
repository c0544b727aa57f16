// Package model defines the notification domain types exchanged with the
// CareerCoach backend.
package model

import "time"

// Status is the lifecycle state of a notification. The client only drives
// UNREAD -> READ and deletion; DISMISSED and ARCHIVED are reserved server
// states with no client transition.
type Status string

const (
	StatusUnread    Status = "UNREAD"
	StatusRead      Status = "READ"
	StatusDismissed Status = "DISMISSED"
	StatusArchived  Status = "ARCHIVED"
)

// Priority is the display priority of a notification, ordinal for sorting.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// Rank maps a priority to an ordinal, highest first. Unknown priorities sort
// after LOW.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// Type is the notification category. The set is closed on the server side;
// unknown values are carried through untouched.
type Type string

const (
	TypeCVReviewComplete    Type = "CV_REVIEW_COMPLETE"
	TypeCVReviewStarted     Type = "CV_REVIEW_STARTED"
	TypeNewMessage          Type = "NEW_MESSAGE"
	TypeApplicationStatus   Type = "APPLICATION_STATUS_UPDATED"
	TypeInterviewScheduled  Type = "INTERVIEW_SCHEDULED"
	TypeInterviewReminder   Type = "INTERVIEW_REMINDER"
	TypeProfileReminder     Type = "PROFILE_UPDATE_REMINDER"
	TypeAssessmentComplete  Type = "SKILL_ASSESSMENT_COMPLETE"
	TypeSystemAnnouncement  Type = "SYSTEM_ANNOUNCEMENT"
	TypeSecurityAlert       Type = "SECURITY_ALERT"
	TypeSystemNotification  Type = "SYSTEM_NOTIFICATION"
)

// DefaultTitle returns the server's default display title for a type, or ""
// for unknown types.
func (t Type) DefaultTitle() string {
	switch t {
	case TypeCVReviewComplete:
		return "CV Review Complete"
	case TypeCVReviewStarted:
		return "CV Review Started"
	case TypeNewMessage:
		return "New Message"
	case TypeApplicationStatus:
		return "Application Status Updated"
	case TypeInterviewScheduled:
		return "Interview Scheduled"
	case TypeInterviewReminder:
		return "Interview Reminder"
	case TypeProfileReminder:
		return "Profile Update Reminder"
	case TypeAssessmentComplete:
		return "Skill Assessment Complete"
	case TypeSystemAnnouncement:
		return "System Announcement"
	case TypeSecurityAlert:
		return "Security Alert"
	case TypeSystemNotification:
		return "System Notification"
	default:
		return ""
	}
}

// Notification is one message delivered to a user. Created by the server,
// delivered over the push channel or a paginated fetch; the client never
// invents one locally.
type Notification struct {
	ID              string                 `json:"id"`
	UserID          string                 `json:"userId,omitempty"`
	Type            Type                   `json:"type"`
	Title           string                 `json:"title"`
	Message         string                 `json:"message"`
	Status          Status                 `json:"status"`
	Priority        Priority               `json:"priority"`
	ActionURL       string                 `json:"actionUrl,omitempty"`
	RelatedEntityID string                 `json:"relatedEntityId,omitempty"`
	Metadata        map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
	ReadAt          *time.Time             `json:"readAt,omitempty"`
	ExpiresAt       *time.Time             `json:"expiresAt,omitempty"`
}

// IsUnread reports whether the notification counts toward the unread badge.
func (n Notification) IsUnread() bool {
	return n.Status == StatusUnread
}

// IsExpired reports whether the notification is past its expiry. Expiry is a
// display concern only: it never removes the notification from the active set
// or changes its status.
func (n Notification) IsExpired() bool {
	if n.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*n.ExpiresAt)
}
