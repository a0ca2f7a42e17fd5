package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/finance"
	"github.com/HalooLaloo/quotesnap-sub000/internal/mailer"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/policy"
	"github.com/HalooLaloo/quotesnap-sub000/internal/token"
)

// DefaultDueDays is the payment term applied when an invoice is created
// without an explicit due date.
const DefaultDueDays = 14

// InvoiceService owns every invoice status transition and the quote-to-invoice
// conversion.
type InvoiceService struct {
	db      *gorm.DB
	mailer  mailer.Mailer
	baseURL string
}

func NewInvoiceService(db *gorm.DB, m mailer.Mailer, baseURL string) *InvoiceService {
	return &InvoiceService{db: db, mailer: m, baseURL: baseURL}
}

// Get loads an invoice owned by the contractor, with items. Missing and
// not-owned are both ErrNotFound.
func (s *InvoiceService) Get(userID, id uint) (*models.Invoice, error) {
	var inv models.Invoice
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !policy.Owns(userID, &inv) {
		return nil, ErrNotFound
	}
	return &inv, nil
}

// ResolveByToken loads an invoice for the public surface. Draft invoices do
// not exist publicly.
func (s *InvoiceService) ResolveByToken(tok string) (*models.Invoice, error) {
	if !token.Valid(tok) {
		return nil, ErrNotFound
	}
	var inv models.Invoice
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Where("token = ?", tok).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if inv.Status == models.InvoiceStatusDraft {
		return nil, ErrNotFound
	}
	return &inv, nil
}

// Recalculate recomputes every line total and the invoice's stored totals.
func (s *InvoiceService) Recalculate(inv *models.Invoice) {
	lineTotals := make([]float64, len(inv.Items))
	for i := range inv.Items {
		inv.Items[i].Total = finance.Round2(finance.LineTotal(inv.Items[i].Quantity, inv.Items[i].UnitPrice))
		lineTotals[i] = inv.Items[i].Total
	}
	t := finance.ComputeTotals(lineTotals, inv.DiscountPercent, inv.TaxPercent).Rounded()
	inv.Subtotal = t.Subtotal
	inv.TotalNet = t.Net
	inv.TotalGross = t.Gross
}

// CreateFromQuote seeds a draft invoice from an accepted quote: client
// identity is snapshotted from the originating request, items and pricing
// are copied, and a fresh token and invoice number are minted. Later edits
// to the quote or request never flow into the invoice.
func (s *InvoiceService) CreateFromQuote(userID, quoteID uint, now time.Time) (*models.Invoice, error) {
	var q models.Quote
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Preload("Request").First(&q, quoteID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !policy.Owns(userID, &q) {
		return nil, ErrNotFound
	}
	if q.Status != models.QuoteStatusAccepted {
		return nil, &ConflictError{Op: "invoice", Status: string(q.Status)}
	}

	tok, err := token.Mint()
	if err != nil {
		return nil, err
	}
	number, err := models.GenerateInvoiceNumber(s.db, userID, now.Year())
	if err != nil {
		return nil, err
	}

	due := now.AddDate(0, 0, DefaultDueDays)
	inv := &models.Invoice{
		UserID:          userID,
		QuoteID:         &q.ID,
		Number:          number,
		DiscountPercent: q.DiscountPercent,
		TaxPercent:      q.TaxPercent,
		Currency:        q.Currency,
		Status:          models.InvoiceStatusDraft,
		DueDate:         &due,
		Token:           tok,
		Notes:           q.PublicNotes(),
	}
	if q.Request != nil {
		inv.ClientName = q.Request.ClientName
		inv.ClientEmail = q.Request.ClientEmail
		inv.ClientPhone = q.Request.ClientPhone
		inv.ClientAddress = q.Request.Address
	}
	for i, item := range q.Items {
		inv.Items = append(inv.Items, models.InvoiceItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			Unit:      item.Unit,
			UnitPrice: item.UnitPrice,
			Position:  i,
		})
	}
	s.Recalculate(inv)

	if err := s.db.Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// Send validates and dispatches an invoice. Like quotes, the transition
// commits before the email goes out and is never rolled back on a failed
// send. Re-sending a sent invoice keeps the original SentAt.
func (s *InvoiceService) Send(ctx context.Context, userID, id uint, now time.Time) (*models.Invoice, error) {
	inv, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if inv.IsPaid() {
		return nil, &ConflictError{Op: "send", Status: string(inv.Status)}
	}
	if verr := validateInvoiceSendable(inv); verr != nil {
		return nil, verr
	}

	s.Recalculate(inv)
	if inv.SentAt == nil {
		inv.SentAt = &now
	}
	inv.Status = models.InvoiceStatusSent

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invoice{}).
			Where("id = ? AND status IN ?", inv.ID, []models.InvoiceStatus{models.InvoiceStatusDraft, models.InvoiceStatusSent}).
			Updates(map[string]any{
				"status":      inv.Status,
				"sent_at":     inv.SentAt,
				"subtotal":    inv.Subtotal,
				"total_net":   inv.TotalNet,
				"total_gross": inv.TotalGross,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Raced with a payment claim; report what won.
			if err := tx.First(inv, inv.ID).Error; err != nil {
				return err
			}
			return &ConflictError{Op: "send", Status: string(inv.Status)}
		}
		for _, item := range inv.Items {
			if err := tx.Model(&models.InvoiceItem{}).Where("id = ?", item.ID).
				Update("total", item.Total).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	dueDate := ""
	if inv.DueDate != nil {
		dueDate = inv.DueDate.Format("Jan 2, 2006")
	}
	msg := mailer.InvoiceMessage(
		inv.ClientEmail,
		inv.ClientName,
		s.contractorName(userID),
		inv.Number,
		formatAmount(inv.Currency, inv.TotalGross),
		dueDate,
		s.invoiceURL(inv.Token),
	)
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("invoice %d: client email failed: %v", inv.ID, err)
	}
	return inv, nil
}

// MarkPaid records payment on the contractor's say-so. Paid is terminal:
// a second call conflicts instead of moving the timestamp.
func (s *InvoiceService) MarkPaid(userID, id uint, now time.Time) (*models.Invoice, error) {
	inv, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	res := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status <> ?", inv.ID, models.InvoiceStatusPaid).
		Updates(map[string]any{"status": models.InvoiceStatusPaid, "paid_at": &now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &ConflictError{Op: "mark paid", Status: string(models.InvoiceStatusPaid)}
	}
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &now
	return inv, nil
}

// MarkPaidByToken records the client's payment claim from the public
// surface, gated on status "sent" so a draft or already-paid invoice
// conflicts. The contractor is notified best-effort.
func (s *InvoiceService) MarkPaidByToken(ctx context.Context, tok string, now time.Time) (*models.Invoice, error) {
	inv, err := s.ResolveByToken(tok)
	if err != nil {
		return nil, err
	}
	res := s.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", inv.ID, models.InvoiceStatusSent).
		Updates(map[string]any{"status": models.InvoiceStatusPaid, "paid_at": &now})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.db.First(inv, inv.ID).Error; err != nil {
			return nil, err
		}
		return nil, &ConflictError{Op: "mark paid", Status: string(inv.Status)}
	}
	inv.Status = models.InvoiceStatusPaid
	inv.PaidAt = &now

	var contractor models.Contractor
	if err := s.db.First(&contractor, inv.UserID).Error; err == nil {
		msg := mailer.PaidMessage(contractor.Email, inv.ClientName, inv.Number)
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Printf("invoice %d: paid notice failed: %v", inv.ID, err)
		}
	}
	return inv, nil
}

// Delete removes an invoice and its items in any state, paid included. The
// contractor owns the record; the public link dies with it.
func (s *InvoiceService) Delete(userID, id uint) error {
	inv, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	return s.db.Select("Items").Delete(inv).Error
}

func (s *InvoiceService) contractorName(userID uint) string {
	var contractor models.Contractor
	if err := s.db.First(&contractor, userID).Error; err != nil {
		return "Your contractor"
	}
	return contractor.DisplayName()
}

func (s *InvoiceService) invoiceURL(tok string) string {
	return fmt.Sprintf("%s/i/%s", s.baseURL, tok)
}

// validateInvoiceSendable enforces the invoice send gate: a named client
// with an email address and at least one named line.
func validateInvoiceSendable(inv *models.Invoice) error {
	violations := map[string]string{}
	if strings.TrimSpace(inv.ClientName) == "" {
		violations["client_name"] = "client name is required"
	}
	if strings.TrimSpace(inv.ClientEmail) == "" {
		violations["client_email"] = "client email is required to send"
	}
	if len(inv.Items) == 0 {
		violations["items"] = "at least one item is required"
	}
	for i, item := range inv.Items {
		if strings.TrimSpace(item.Name) == "" {
			violations[fmt.Sprintf("items.%d.name", i)] = "name is required"
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
