package models

import (
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestQuote_IsTerminal(t *testing.T) {
	tests := []struct {
		status QuoteStatus
		want   bool
	}{
		{QuoteStatusDraft, false},
		{QuoteStatusSent, false},
		{QuoteStatusAccepted, true},
		{QuoteStatusRejected, true},
		{QuoteStatusExpired, true},
	}
	for _, tt := range tests {
		q := &Quote{Status: tt.status}
		if got := q.IsTerminal(); got != tt.want {
			t.Errorf("IsTerminal() for %s = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestQuote_CanEdit(t *testing.T) {
	for _, status := range []QuoteStatus{QuoteStatusDraft, QuoteStatusSent} {
		if !(&Quote{Status: status}).CanEdit() {
			t.Errorf("CanEdit() for %s = false, want true", status)
		}
	}
	for _, status := range []QuoteStatus{QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired} {
		if (&Quote{Status: status}).CanEdit() {
			t.Errorf("CanEdit() for %s = true, want false", status)
		}
	}
}

func TestQuote_IsViewed(t *testing.T) {
	now := time.Now()
	q := &Quote{Status: QuoteStatusSent}
	if q.IsViewed() {
		t.Error("sent quote without ViewedAt should not be viewed")
	}
	q.ViewedAt = ptrTime(now)
	if !q.IsViewed() {
		t.Error("sent quote with ViewedAt should be viewed")
	}
}

func TestQuote_IsExpirable(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name       string
		status     QuoteStatus
		validUntil *time.Time
		want       bool
	}{
		{"sent and past valid_until", QuoteStatusSent, ptrTime(now.Add(-time.Hour)), true},
		{"sent and future valid_until", QuoteStatusSent, ptrTime(now.Add(time.Hour)), false},
		{"sent without valid_until", QuoteStatusSent, nil, false},
		{"draft and past valid_until", QuoteStatusDraft, ptrTime(now.Add(-time.Hour)), false},
		{"accepted and past valid_until", QuoteStatusAccepted, ptrTime(now.Add(-time.Hour)), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &Quote{Status: tt.status, ValidUntil: tt.validUntil}
			if got := q.IsExpirable(now); got != tt.want {
				t.Errorf("IsExpirable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuote_NotesSentinel(t *testing.T) {
	q := &Quote{Notes: "Includes paint and primer.\n---QA---\nQ: When can you start?\nA: Next week."}
	if got := q.PublicNotes(); got != "Includes paint and primer." {
		t.Errorf("PublicNotes() = %q", got)
	}
	if got := q.ClientQA(); got != "Q: When can you start?\nA: Next week." {
		t.Errorf("ClientQA() = %q", got)
	}

	plain := &Quote{Notes: "No questions asked."}
	if got := plain.PublicNotes(); got != "No questions asked." {
		t.Errorf("PublicNotes() without sentinel = %q", got)
	}
	if got := plain.ClientQA(); got != "" {
		t.Errorf("ClientQA() without sentinel = %q, want empty", got)
	}
}

func TestQuoteRequest_DescriptionSentinel(t *testing.T) {
	r := &QuoteRequest{Description: "Paint two bedrooms, 40m2.\n---TRANSCRIPT---\nclient: hi\nassistant: hello"}
	if got := r.Summary(); got != "Paint two bedrooms, 40m2." {
		t.Errorf("Summary() = %q", got)
	}
	if got := r.Transcript(); got != "client: hi\nassistant: hello" {
		t.Errorf("Transcript() = %q", got)
	}
}

func TestQuoteRequest_IsNeglected(t *testing.T) {
	now := time.Now()
	r := &QuoteRequest{Status: RequestStatusNew}
	r.CreatedAt = now.Add(-25 * time.Hour)
	if !r.IsNeglected(now, 24*time.Hour) {
		t.Error("25h old new request should be neglected")
	}
	r.CreatedAt = now.Add(-23 * time.Hour)
	if r.IsNeglected(now, 24*time.Hour) {
		t.Error("23h old new request should not be neglected")
	}
	r.CreatedAt = now.Add(-48 * time.Hour)
	r.Status = RequestStatusQuoted
	if r.IsNeglected(now, 24*time.Hour) {
		t.Error("quoted request is never neglected")
	}
}

func TestInvoice_IsOverdue(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		status  InvoiceStatus
		dueDate *time.Time
		want    bool
	}{
		{"sent past due", InvoiceStatusSent, ptrTime(now.Add(-24 * time.Hour)), true},
		{"draft past due", InvoiceStatusDraft, ptrTime(now.Add(-24 * time.Hour)), true},
		{"paid past due", InvoiceStatusPaid, ptrTime(now.Add(-24 * time.Hour)), false},
		{"sent future due", InvoiceStatusSent, ptrTime(now.Add(24 * time.Hour)), false},
		{"sent no due date", InvoiceStatusSent, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{Status: tt.status, DueDate: tt.dueDate}
			if got := inv.IsOverdue(now); got != tt.want {
				t.Errorf("IsOverdue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInvoice_ReminderDue(t *testing.T) {
	now := time.Now()
	cooldown := 7 * 24 * time.Hour
	base := Invoice{
		Status:      InvoiceStatusSent,
		ClientEmail: "client@example.com",
		DueDate:     ptrTime(now.Add(-48 * time.Hour)),
	}

	t.Run("never reminded", func(t *testing.T) {
		inv := base
		if !inv.ReminderDue(now, cooldown) {
			t.Error("expected reminder due")
		}
	})
	t.Run("reminded 6 days ago", func(t *testing.T) {
		inv := base
		inv.ReminderSentAt = ptrTime(now.Add(-6 * 24 * time.Hour))
		if inv.ReminderDue(now, cooldown) {
			t.Error("cooldown not elapsed, reminder must not be due")
		}
	})
	t.Run("reminded 8 days ago", func(t *testing.T) {
		inv := base
		inv.ReminderSentAt = ptrTime(now.Add(-8 * 24 * time.Hour))
		if !inv.ReminderDue(now, cooldown) {
			t.Error("cooldown elapsed, reminder should be due")
		}
	})
	t.Run("no client email", func(t *testing.T) {
		inv := base
		inv.ClientEmail = ""
		if inv.ReminderDue(now, cooldown) {
			t.Error("no email, reminder must not be due")
		}
	})
	t.Run("paid", func(t *testing.T) {
		inv := base
		inv.Status = InvoiceStatusPaid
		if inv.ReminderDue(now, cooldown) {
			t.Error("paid invoice must never be reminded")
		}
	})
	t.Run("not yet due", func(t *testing.T) {
		inv := base
		inv.DueDate = ptrTime(now.Add(24 * time.Hour))
		if inv.ReminderDue(now, cooldown) {
			t.Error("future due date, reminder must not be due")
		}
	})
}

func TestGenerateInvoiceNumber(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&Invoice{}, &InvoiceItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	num, err := GenerateInvoiceNumber(db, 1, 2026)
	if err != nil {
		t.Fatalf("GenerateInvoiceNumber: %v", err)
	}
	if num != "INV-2026-0001" {
		t.Errorf("first number = %s, want INV-2026-0001", num)
	}

	if err := db.Create(&Invoice{UserID: 1, Number: num, ClientName: "a", Token: "0123456789abcdef0123456789abcdef"}).Error; err != nil {
		t.Fatalf("create: %v", err)
	}
	num, err = GenerateInvoiceNumber(db, 1, 2026)
	if err != nil {
		t.Fatalf("GenerateInvoiceNumber: %v", err)
	}
	if num != "INV-2026-0002" {
		t.Errorf("second number = %s, want INV-2026-0002", num)
	}

	// Other contractors and other years keep independent sequences.
	num, _ = GenerateInvoiceNumber(db, 2, 2026)
	if num != "INV-2026-0001" {
		t.Errorf("other contractor number = %s, want INV-2026-0001", num)
	}
	num, _ = GenerateInvoiceNumber(db, 1, 2027)
	if num != "INV-2027-0001" {
		t.Errorf("other year number = %s, want INV-2027-0001", num)
	}
}

func TestContractor_DisplayName(t *testing.T) {
	c := &Contractor{CompanyName: "Brick & Mortar LLC", FullName: "Jan Kowalski"}
	if got := c.DisplayName(); got != "Brick & Mortar LLC" {
		t.Errorf("DisplayName() = %q", got)
	}
	c.CompanyName = ""
	if got := c.DisplayName(); got != "Jan Kowalski" {
		t.Errorf("DisplayName() = %q", got)
	}
	c.FullName = ""
	if got := c.DisplayName(); got != "Contractor" {
		t.Errorf("DisplayName() = %q", got)
	}
}
