package models

import (
	"strings"
	"time"
)

// RequestStatus is the lifecycle status of a client job request.
type RequestStatus string

const (
	RequestStatusNew    RequestStatus = "new"
	RequestStatusQuoted RequestStatus = "quoted"
)

// TranscriptSentinel separates the structured summary from the raw intake
// conversation inside a request description.
const TranscriptSentinel = "---TRANSCRIPT---"

// QuoteRequest is a client-submitted job description. It is created by the
// client-facing intake, flipped to "quoted" when a quote is sent against it,
// and never deleted by the engine.
type QuoteRequest struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the contractor this request was submitted to.
	UserID uint `gorm:"index;not null" json:"user_id"`

	ClientName  string `gorm:"size:255;not null" json:"client_name"`
	ClientEmail string `gorm:"size:255" json:"client_email,omitempty"`
	ClientPhone string `gorm:"size:50" json:"client_phone,omitempty"`
	Address     string `gorm:"size:500" json:"address,omitempty"`

	Description string `gorm:"type:text" json:"description"`

	Status RequestStatus `gorm:"size:20;default:'new';index" json:"status"`
}

// GetUserID implements the Ownable interface for ownership scoping.
func (r *QuoteRequest) GetUserID() uint {
	return r.UserID
}

// Summary returns the job description without the raw intake transcript.
func (r *QuoteRequest) Summary() string {
	before, _, _ := strings.Cut(r.Description, TranscriptSentinel)
	return strings.TrimSpace(before)
}

// Transcript returns the raw intake conversation, if one was recorded.
func (r *QuoteRequest) Transcript() string {
	_, after, found := strings.Cut(r.Description, TranscriptSentinel)
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}

// IsNeglected reports whether the request has been sitting in "new" for
// longer than the given age. The contractor digest uses 24 hours.
func (r *QuoteRequest) IsNeglected(now time.Time, age time.Duration) bool {
	return r.Status == RequestStatusNew && r.CreatedAt.Before(now.Add(-age))
}
