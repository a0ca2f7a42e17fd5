package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// InvoiceStatus is the stored lifecycle status of an invoice.
//
// "overdue" is deliberately not a status: it is derived on read
// (status != paid and due date in the past) and never persisted.
type InvoiceStatus string

const (
	InvoiceStatusDraft InvoiceStatus = "draft"
	InvoiceStatusSent  InvoiceStatus = "sent"
	InvoiceStatusPaid  InvoiceStatus = "paid"
)

// Invoice is a billing document, trackable to payment. Client identity is a
// snapshot copied at creation time, never a live link, so later edits to the
// contractor's records do not retroactively alter an issued invoice.
type Invoice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// UserID is the contractor who issued this invoice.
	UserID uint `gorm:"index;not null" json:"user_id"`

	// QuoteID references the originating quote, if the invoice was seeded
	// from one.
	QuoteID *uint `gorm:"index" json:"quote_id,omitempty"`

	// Number: INV-YYYY-NNNN, sequential per contractor per year.
	Number string `gorm:"size:50;index" json:"number"`

	// Client identity snapshot
	ClientName    string `gorm:"size:255;not null" json:"client_name"`
	ClientEmail   string `gorm:"size:255" json:"client_email,omitempty"`
	ClientPhone   string `gorm:"size:50" json:"client_phone,omitempty"`
	ClientAddress string `gorm:"size:500" json:"client_address,omitempty"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"items,omitempty"`

	DiscountPercent float64 `gorm:"not null;default:0" json:"discount_percent"`
	TaxPercent      float64 `gorm:"not null;default:0" json:"tax_percent"`

	// Stored totals are recomputed and rounded to 2 decimals on every mutation.
	Subtotal   float64 `gorm:"not null;default:0" json:"subtotal"`
	TotalNet   float64 `gorm:"not null;default:0" json:"total_net"`
	TotalGross float64 `gorm:"not null;default:0" json:"total_gross"`

	Currency string `gorm:"size:3;default:'USD'" json:"currency"`

	Status  InvoiceStatus `gorm:"size:20;default:'draft';index" json:"status"`
	DueDate *time.Time    `json:"due_date,omitempty"`

	SentAt *time.Time `json:"sent_at,omitempty"`
	PaidAt *time.Time `json:"paid_at,omitempty"`

	// ReminderSentAt gates the payment-reminder cooldown. It is updated only
	// after a successful send, so a failed send leaves the invoice eligible
	// for the next run.
	ReminderSentAt *time.Time `json:"reminder_sent_at,omitempty"`
	ReminderCount  int        `gorm:"default:0" json:"reminder_count"`

	// Token is the sole credential for unauthenticated client access.
	Token string `gorm:"size:32;uniqueIndex;not null" json:"-"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	// Bank detail overrides; empty fields fall back to the contractor's.
	BankName    string `gorm:"size:255" json:"bank_name,omitempty"`
	BankAccount string `gorm:"size:100" json:"bank_account,omitempty"`
	BankRouting string `gorm:"size:100" json:"bank_routing,omitempty"`
}

// InvoiceItem is one priced line on an invoice.
type InvoiceItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	InvoiceID uint `gorm:"index;not null" json:"invoice_id"`

	Name      string  `gorm:"size:500;not null" json:"name"`
	Quantity  float64 `gorm:"not null;default:1" json:"quantity"`
	Unit      string  `gorm:"size:50" json:"unit,omitempty"`
	UnitPrice float64 `gorm:"not null" json:"unit_price"`
	Total     float64 `gorm:"not null" json:"total"`

	Position int `gorm:"default:0" json:"position"`
}

// GetUserID implements the Ownable interface for ownership scoping.
func (i *Invoice) GetUserID() uint {
	return i.UserID
}

// IsPaid reports whether the invoice reached its terminal state. A paid
// invoice is excluded from every reminder and overdue scan.
func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// IsOverdue reports the derived overdue condition: unpaid and past due.
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.Status != InvoiceStatusPaid && i.DueDate != nil && i.DueDate.Before(now)
}

// ReminderDue reports whether the client payment reminder may be sent:
// the invoice is sent, has a client email, is past due, and the last
// reminder (if any) is older than the cooldown.
func (i *Invoice) ReminderDue(now time.Time, cooldown time.Duration) bool {
	if i.Status != InvoiceStatusSent || i.ClientEmail == "" {
		return false
	}
	if i.DueDate == nil || !i.DueDate.Before(now) {
		return false
	}
	return i.ReminderSentAt == nil || i.ReminderSentAt.Before(now.Add(-cooldown))
}

// GenerateInvoiceNumber generates the next invoice number for a contractor.
// Format: INV-YYYY-NNNN (e.g., INV-2026-0001), sequential per year.
func GenerateInvoiceNumber(db *gorm.DB, userID uint, year int) (string, error) {
	var count int64
	prefix := fmt.Sprintf("INV-%d-", year)
	err := db.Model(&Invoice{}).
		Where("user_id = ? AND number LIKE ?", userID, prefix+"%").
		Count(&count).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, count+1), nil
}
