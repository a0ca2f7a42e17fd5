package models

import "time"

// Contractor is the authenticated account that owns every other record.
type Contractor struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Email    string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password string `gorm:"size:255;not null" json:"-"` // Hashed, never exposed in JSON

	FullName    string `gorm:"size:255" json:"full_name,omitempty"`
	CompanyName string `gorm:"size:255" json:"company_name,omitempty"`
	Phone       string `gorm:"size:50" json:"phone,omitempty"`

	// Country drives date formatting and the default currency.
	Country  string `gorm:"size:2;default:'US'" json:"country"`
	Currency string `gorm:"size:3;default:'USD'" json:"currency"`

	BusinessAddress string `gorm:"size:500" json:"business_address,omitempty"`
	TaxID           string `gorm:"size:50" json:"tax_id,omitempty"`

	// Bank details printed on invoices unless overridden per invoice.
	BankName    string `gorm:"size:255" json:"bank_name,omitempty"`
	BankAccount string `gorm:"size:100" json:"bank_account,omitempty"`
	BankRouting string `gorm:"size:100" json:"bank_routing,omitempty"`

	// NotifyEmail opts the contractor into the daily digest emails.
	NotifyEmail bool `gorm:"default:true" json:"notify_email"`
}

// DisplayName returns the name shown to clients on quotes and invoices.
func (c *Contractor) DisplayName() string {
	if c.CompanyName != "" {
		return c.CompanyName
	}
	if c.FullName != "" {
		return c.FullName
	}
	return "Contractor"
}
