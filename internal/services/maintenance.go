package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/mailer"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
)

const (
	// NeglectedRequestAge is how long a request may sit in "new" before the
	// contractor digest flags it.
	NeglectedRequestAge = 24 * time.Hour

	// ExpiringQuoteWindow is how far ahead the digest looks for quotes about
	// to expire.
	ExpiringQuoteWindow = 48 * time.Hour

	// ReminderCooldown is the minimum gap between client payment reminders
	// for the same invoice.
	ReminderCooldown = 7 * 24 * time.Hour
)

// MaintenanceResult summarizes one maintenance run. Counts are items
// processed, not emails sent; per-item failures land in Errors and never
// abort the run.
type MaintenanceResult struct {
	RunID           string   `json:"run_id"`
	ExpiredQuotes   int      `json:"expired_quotes"`
	NewRequests     int      `json:"new_requests"`
	OverdueInvoices int      `json:"overdue_invoices"`
	ExpiringQuotes  int      `json:"expiring_quotes"`
	ClientReminders int      `json:"client_reminders"`
	Errors          []string `json:"errors,omitempty"`
}

// MaintenanceService runs the scheduled maintenance passes: quote expiry,
// contractor digests, and client payment reminders. Designed to be invoked
// by an external scheduler; every pass is idempotent, so overlapping or
// repeated runs converge instead of double-acting.
type MaintenanceService struct {
	db      *gorm.DB
	mailer  mailer.Mailer
	baseURL string
}

func NewMaintenanceService(db *gorm.DB, m mailer.Mailer, baseURL string) *MaintenanceService {
	return &MaintenanceService{db: db, mailer: m, baseURL: baseURL}
}

// Run executes all passes against the given reference time and returns the
// aggregate result. Expiry runs first so a quote lapsing right now is
// expired rather than flagged as expiring, and so later passes see final
// statuses.
func (s *MaintenanceService) Run(ctx context.Context, now time.Time) *MaintenanceResult {
	r := &MaintenanceResult{RunID: uuid.NewString()}
	started := time.Now()

	s.expireQuotes(r, now)
	s.sendDigests(ctx, r, now)
	s.sendReminders(ctx, r, now)

	log.Printf("maintenance run=%s expired=%d new_requests=%d overdue=%d expiring=%d reminders=%d errors=%d took=%s",
		r.RunID, r.ExpiredQuotes, r.NewRequests, r.OverdueInvoices, r.ExpiringQuotes, r.ClientReminders,
		len(r.Errors), time.Since(started).Round(time.Millisecond))
	for _, e := range r.Errors {
		log.Printf("maintenance run=%s error: %s", r.RunID, e)
	}
	return r
}

// expireQuotes flips every sent quote whose validity window has lapsed. A
// single conditional UPDATE, so a concurrent client decision on the same
// quote cannot be overwritten.
func (s *MaintenanceService) expireQuotes(r *MaintenanceResult, now time.Time) {
	res := s.db.Model(&models.Quote{}).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", models.QuoteStatusSent, now).
		Update("status", models.QuoteStatusExpired)
	if res.Error != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("expiring quotes: %v", res.Error))
		return
	}
	r.ExpiredQuotes = int(res.RowsAffected)
}

// sendDigests emails each opted-in contractor about work needing attention:
// neglected new requests, overdue invoices, and quotes about to expire. One
// email per condition per contractor, and one contractor's failure never
// blocks the next.
func (s *MaintenanceService) sendDigests(ctx context.Context, r *MaintenanceResult, now time.Time) {
	var contractors []models.Contractor
	if err := s.db.Where("notify_email = ?", true).Find(&contractors).Error; err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("loading contractors: %v", err))
		return
	}

	for _, c := range contractors {
		s.digestNewRequests(ctx, r, &c, now)
		s.digestOverdueInvoices(ctx, r, &c, now)
		s.digestExpiringQuotes(ctx, r, &c, now)
	}
}

func (s *MaintenanceService) digestNewRequests(ctx context.Context, r *MaintenanceResult, c *models.Contractor, now time.Time) {
	var requests []models.QuoteRequest
	err := s.db.Where("user_id = ? AND status = ? AND created_at < ?",
		c.ID, models.RequestStatusNew, now.Add(-NeglectedRequestAge)).
		Order("created_at ASC").Find(&requests).Error
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("contractor %d: loading new requests: %v", c.ID, err))
		return
	}
	if len(requests) == 0 {
		return
	}
	r.NewRequests += len(requests)

	items := make([]mailer.DigestItem, 0, len(requests))
	for _, req := range requests {
		items = append(items, mailer.DigestItem{
			Label:  req.ClientName,
			Detail: fmt.Sprintf("waiting since %s", req.CreatedAt.Format("Jan 2")),
		})
	}
	msg := mailer.DigestMessage(c.Email,
		fmt.Sprintf("%d request(s) awaiting a quote", len(requests)),
		"These client requests have been waiting for more than a day:",
		"#3b82f6", s.baseURL+"/requests", items)
	if err := s.mailer.Send(ctx, msg); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("contractor %d: new-requests digest: %v", c.ID, err))
	}
}

func (s *MaintenanceService) digestOverdueInvoices(ctx context.Context, r *MaintenanceResult, c *models.Contractor, now time.Time) {
	var invoices []models.Invoice
	err := s.db.Where("user_id = ? AND status <> ? AND due_date IS NOT NULL AND due_date < ?",
		c.ID, models.InvoiceStatusPaid, now).
		Order("due_date ASC").Find(&invoices).Error
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("contractor %d: loading overdue invoices: %v", c.ID, err))
		return
	}
	if len(invoices) == 0 {
		return
	}
	r.OverdueInvoices += len(invoices)

	items := make([]mailer.DigestItem, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, mailer.DigestItem{
			Label:  inv.Number,
			Detail: fmt.Sprintf("%s, %s, due %s", inv.ClientName, formatAmount(inv.Currency, inv.TotalGross), inv.DueDate.Format("Jan 2")),
		})
	}
	msg := mailer.DigestMessage(c.Email,
		fmt.Sprintf("%d invoice(s) overdue", len(invoices)),
		"These invoices are past their due date and still unpaid:",
		"#f97316", s.baseURL+"/invoices", items)
	if err := s.mailer.Send(ctx, msg); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("contractor %d: overdue digest: %v", c.ID, err))
	}
}

func (s *MaintenanceService) digestExpiringQuotes(ctx context.Context, r *MaintenanceResult, c *models.Contractor, now time.Time) {
	var quotes []models.Quote
	err := s.db.Where("user_id = ? AND status = ? AND valid_until IS NOT NULL AND valid_until >= ? AND valid_until < ?",
		c.ID, models.QuoteStatusSent, now, now.Add(ExpiringQuoteWindow)).
		Order("valid_until ASC").Find(&quotes).Error
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("contractor %d: loading expiring quotes: %v", c.ID, err))
		return
	}
	if len(quotes) == 0 {
		return
	}
	r.ExpiringQuotes += len(quotes)

	items := make([]mailer.DigestItem, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, mailer.DigestItem{
			Label:  formatAmount(q.Currency, q.TotalGross),
			Detail: fmt.Sprintf("expires %s", q.ValidUntil.Format("Jan 2")),
		})
	}
	msg := mailer.DigestMessage(c.Email,
		fmt.Sprintf("%d quote(s) expiring soon", len(quotes)),
		"These quotes expire within two days with no client decision yet:",
		"#eab308", s.baseURL+"/quotes", items)
	if err := s.mailer.Send(ctx, msg); err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("contractor %d: expiring digest: %v", c.ID, err))
	}
}

// sendReminders emails clients of overdue invoices, at most once per
// cooldown. ReminderSentAt is advanced only after a successful send, so a
// failed send leaves the invoice eligible for the next run.
func (s *MaintenanceService) sendReminders(ctx context.Context, r *MaintenanceResult, now time.Time) {
	var invoices []models.Invoice
	err := s.db.Where(
		"status = ? AND client_email <> '' AND due_date IS NOT NULL AND due_date < ? AND (reminder_sent_at IS NULL OR reminder_sent_at < ?)",
		models.InvoiceStatusSent, now, now.Add(-ReminderCooldown)).
		Order("due_date ASC").Find(&invoices).Error
	if err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("loading reminder-due invoices: %v", err))
		return
	}

	for _, inv := range invoices {
		overdueDays := int(now.Sub(*inv.DueDate).Hours() / 24)
		overdueText := ""
		if overdueDays >= 1 {
			overdueText = fmt.Sprintf("This invoice is %d day(s) overdue.", overdueDays)
		}
		msg := mailer.ReminderMessage(
			inv.ClientEmail,
			inv.ClientName,
			s.contractorName(inv.UserID),
			inv.Number,
			formatAmount(inv.Currency, inv.TotalGross),
			overdueText,
			fmt.Sprintf("%s/i/%s", s.baseURL, inv.Token),
		)
		if err := s.mailer.Send(ctx, msg); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("invoice %d: reminder: %v", inv.ID, err))
			continue
		}
		err = s.db.Model(&models.Invoice{}).Where("id = ?", inv.ID).
			Updates(map[string]any{
				"reminder_sent_at": &now,
				"reminder_count":   gorm.Expr("reminder_count + 1"),
			}).Error
		if err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("invoice %d: recording reminder: %v", inv.ID, err))
			continue
		}
		r.ClientReminders++
	}
}

func (s *MaintenanceService) contractorName(userID uint) string {
	var contractor models.Contractor
	if err := s.db.First(&contractor, userID).Error; err != nil {
		return "Your contractor"
	}
	return contractor.DisplayName()
}
