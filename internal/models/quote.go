package models

import (
	"strings"
	"time"
)

// QuoteStatus is the stored lifecycle status of a quote.
//
// "viewed" is deliberately not a status: it is a derived display state
// (status "sent" plus a non-null ViewedAt) modeled as an orthogonal timestamp
// so the transition rules never have to reason about status×flag combinations.
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// QASentinel separates contractor notes from the client Q&A section inside a
// quote's notes field.
const QASentinel = "---QA---"

// Quote is a priced proposal sent to a prospective client.
// Implements the Ownable interface for ownership scoping.
type Quote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the contractor who issued this quote.
	UserID uint `gorm:"index;not null" json:"user_id"`

	// RequestID links the originating client request, if any.
	RequestID *uint         `gorm:"index" json:"request_id,omitempty"`
	Request   *QuoteRequest `gorm:"foreignKey:RequestID" json:"request,omitempty"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	DiscountPercent float64 `gorm:"not null;default:0" json:"discount_percent"`
	TaxPercent      float64 `gorm:"not null;default:0" json:"tax_percent"`

	// Stored totals are recomputed and rounded to 2 decimals on every mutation.
	Subtotal   float64 `gorm:"not null;default:0" json:"subtotal"`
	TotalNet   float64 `gorm:"not null;default:0" json:"total_net"`
	TotalGross float64 `gorm:"not null;default:0" json:"total_gross"`

	Currency string `gorm:"size:3;default:'USD'" json:"currency"`

	Status     QuoteStatus `gorm:"size:20;default:'draft';index" json:"status"`
	ValidUntil *time.Time  `json:"valid_until,omitempty"`

	SentAt     *time.Time `json:"sent_at,omitempty"`
	ViewedAt   *time.Time `json:"viewed_at,omitempty"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
	RejectedAt *time.Time `json:"rejected_at,omitempty"`

	// Token is the sole credential for unauthenticated client access.
	// Minted at creation, immutable for the quote's lifetime.
	Token string `gorm:"size:32;uniqueIndex;not null" json:"-"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`
}

// QuoteItem is one priced line on a quote.
type QuoteItem struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	QuoteID uint `gorm:"index;not null" json:"quote_id"`

	Name      string  `gorm:"size:500;not null" json:"name"`
	Quantity  float64 `gorm:"not null;default:1" json:"quantity"`
	Unit      string  `gorm:"size:50" json:"unit,omitempty"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	// Total must equal Quantity * UnitPrice; callers mutating an item
	// recompute it. Stored figures are the source of truth.
	Total float64 `gorm:"not null" json:"total"`

	// OutsidePriceList marks an item the assistant (or contractor) priced
	// outside the contractor's price list. Such items must carry a non-zero
	// unit price before the quote can be sent.
	OutsidePriceList bool   `gorm:"default:false" json:"outside_price_list"`
	Rationale        string `gorm:"size:500" json:"rationale,omitempty"`

	// Position for ordering
	Position int `gorm:"default:0" json:"position"`
}

// GetUserID implements the Ownable interface for ownership scoping.
func (q *Quote) GetUserID() uint {
	return q.UserID
}

// IsTerminal reports whether the quote can transition no further.
func (q *Quote) IsTerminal() bool {
	switch q.Status {
	case QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// CanEdit reports whether the contractor may still edit the quote.
// Editing a sent quote neither resets it to draft nor clears ViewedAt.
func (q *Quote) CanEdit() bool {
	return q.Status == QuoteStatusDraft || q.Status == QuoteStatusSent
}

// CanDecide reports whether a client decision (accept/reject) is possible.
func (q *Quote) CanDecide() bool {
	return q.Status == QuoteStatusSent
}

// IsViewed reports the derived "viewed" display state.
func (q *Quote) IsViewed() bool {
	return q.Status == QuoteStatusSent && q.ViewedAt != nil
}

// IsExpirable reports whether the maintenance job should expire the quote.
func (q *Quote) IsExpirable(now time.Time) bool {
	return q.Status == QuoteStatusSent && q.ValidUntil != nil && q.ValidUntil.Before(now)
}

// PublicNotes returns the notes without the client Q&A section.
func (q *Quote) PublicNotes() string {
	before, _, _ := strings.Cut(q.Notes, QASentinel)
	return strings.TrimSpace(before)
}

// ClientQA returns the sentinel-delimited client Q&A section, if present.
func (q *Quote) ClientQA() string {
	_, after, found := strings.Cut(q.Notes, QASentinel)
	if !found {
		return ""
	}
	return strings.TrimSpace(after)
}
