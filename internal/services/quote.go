package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/countries"
	"github.com/HalooLaloo/quotesnap-sub000/internal/finance"
	"github.com/HalooLaloo/quotesnap-sub000/internal/mailer"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/policy"
	"github.com/HalooLaloo/quotesnap-sub000/internal/token"
)

// QuoteService owns every quote status transition. Contractor-side methods
// are scoped by user id; client-side methods resolve by token only.
type QuoteService struct {
	db      *gorm.DB
	mailer  mailer.Mailer
	baseURL string
}

func NewQuoteService(db *gorm.DB, m mailer.Mailer, baseURL string) *QuoteService {
	return &QuoteService{db: db, mailer: m, baseURL: baseURL}
}

// Get loads a quote owned by the contractor, with items and the originating
// request. Missing and not-owned are both ErrNotFound.
func (s *QuoteService) Get(userID, id uint) (*models.Quote, error) {
	var q models.Quote
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Preload("Request").First(&q, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !policy.Owns(userID, &q) {
		return nil, ErrNotFound
	}
	return &q, nil
}

// ResolveByToken loads a quote for the public surface. Malformed tokens,
// unknown tokens and draft quotes are all ErrNotFound: a quote does not
// exist publicly until it has been sent.
func (s *QuoteService) ResolveByToken(tok string) (*models.Quote, error) {
	if !token.Valid(tok) {
		return nil, ErrNotFound
	}
	var q models.Quote
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).Where("token = ?", tok).First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if q.Status == models.QuoteStatusDraft {
		return nil, ErrNotFound
	}
	return &q, nil
}

// Recalculate recomputes every line total and the quote's stored totals.
// Called on every mutation so the stored figures stay the source of truth.
func (s *QuoteService) Recalculate(q *models.Quote) {
	lineTotals := make([]float64, len(q.Items))
	for i := range q.Items {
		q.Items[i].Total = finance.Round2(finance.LineTotal(q.Items[i].Quantity, q.Items[i].UnitPrice))
		lineTotals[i] = q.Items[i].Total
	}
	t := finance.ComputeTotals(lineTotals, q.DiscountPercent, q.TaxPercent).Rounded()
	q.Subtotal = t.Subtotal
	q.TotalNet = t.Net
	q.TotalGross = t.Gross
}

// Send validates and dispatches a quote. The status flips to "sent" before
// the email goes out; a failed send never rolls the transition back.
// Re-sending an already-sent quote is allowed and keeps the original SentAt.
func (s *QuoteService) Send(ctx context.Context, userID, id uint, now time.Time) (*models.Quote, error) {
	q, err := s.Get(userID, id)
	if err != nil {
		return nil, err
	}
	if q.IsTerminal() {
		return nil, &ConflictError{Op: "send", Status: string(q.Status)}
	}
	if verr := validateSendable(q.Items); verr != nil {
		return nil, verr
	}

	s.Recalculate(q)
	if q.SentAt == nil {
		q.SentAt = &now
	}
	q.Status = models.QuoteStatusSent

	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Quote{}).
			Where("id = ? AND status IN ?", q.ID, []models.QuoteStatus{models.QuoteStatusDraft, models.QuoteStatusSent}).
			Updates(map[string]any{
				"status":      q.Status,
				"sent_at":     q.SentAt,
				"subtotal":    q.Subtotal,
				"total_net":   q.TotalNet,
				"total_gross": q.TotalGross,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Raced with a decision or the expiry pass; report what won.
			if err := tx.First(q, q.ID).Error; err != nil {
				return err
			}
			return &ConflictError{Op: "send", Status: string(q.Status)}
		}
		for _, item := range q.Items {
			if err := tx.Model(&models.QuoteItem{}).Where("id = ?", item.ID).
				Update("total", item.Total).Error; err != nil {
				return err
			}
		}
		if q.RequestID != nil {
			if err := tx.Model(&models.QuoteRequest{}).Where("id = ?", *q.RequestID).
				Update("status", models.RequestStatusQuoted).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if q.Request != nil && q.Request.ClientEmail != "" {
		validUntil := ""
		if q.ValidUntil != nil {
			validUntil = q.ValidUntil.Format("Jan 2, 2006")
		}
		msg := mailer.QuoteMessage(
			q.Request.ClientEmail,
			q.Request.ClientName,
			s.contractorName(userID),
			formatAmount(q.Currency, q.TotalGross),
			validUntil,
			s.quoteURL(q.Token),
		)
		if err := s.mailer.Send(ctx, msg); err != nil {
			log.Printf("quote %d: client email failed: %v", q.ID, err)
		}
	}
	return q, nil
}

// Decide records the client's accept or reject decision, resolved by token.
// The update is conditional on status "sent", which linearizes concurrent
// decisions and races against the expiry pass: exactly one wins.
func (s *QuoteService) Decide(ctx context.Context, tok string, accept bool, now time.Time) (*models.Quote, error) {
	q, err := s.ResolveByToken(tok)
	if err != nil {
		return nil, err
	}

	newStatus := models.QuoteStatusRejected
	updates := map[string]any{"status": newStatus, "rejected_at": &now}
	if accept {
		newStatus = models.QuoteStatusAccepted
		updates = map[string]any{"status": newStatus, "accepted_at": &now}
	}

	res := s.db.Model(&models.Quote{}).
		Where("id = ? AND status = ?", q.ID, models.QuoteStatusSent).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.db.First(q, q.ID).Error; err != nil {
			return nil, err
		}
		op := "reject"
		if accept {
			op = "accept"
		}
		return nil, &ConflictError{Op: op, Status: string(q.Status)}
	}

	q.Status = newStatus
	if accept {
		q.AcceptedAt = &now
	} else {
		q.RejectedAt = &now
	}

	s.notifyDecision(ctx, q, accept)
	return q, nil
}

// MarkViewed stamps the first client open of a sent quote. Idempotent: only
// the first call while the quote is still "sent" writes anything, so the
// timestamp always records the first open.
func (s *QuoteService) MarkViewed(tok string, now time.Time) error {
	if !token.Valid(tok) {
		return ErrNotFound
	}
	return s.db.Model(&models.Quote{}).
		Where("token = ? AND viewed_at IS NULL AND status = ?", tok, models.QuoteStatusSent).
		Update("viewed_at", &now).Error
}

// Delete removes a quote and its items in any state. Deleting a sent quote
// kills its token, so the public link starts answering 404.
func (s *QuoteService) Delete(userID, id uint) error {
	q, err := s.Get(userID, id)
	if err != nil {
		return err
	}
	return s.db.Select("Items").Delete(q).Error
}

func (s *QuoteService) notifyDecision(ctx context.Context, q *models.Quote, accept bool) {
	var contractor models.Contractor
	if err := s.db.First(&contractor, q.UserID).Error; err != nil {
		log.Printf("quote %d: loading contractor for decision notice: %v", q.ID, err)
		return
	}
	clientName := "Your client"
	if q.RequestID != nil {
		var req models.QuoteRequest
		if err := s.db.First(&req, *q.RequestID).Error; err == nil && req.ClientName != "" {
			clientName = req.ClientName
		}
	}
	msg := mailer.DecisionMessage(contractor.Email, clientName, formatAmount(q.Currency, q.TotalGross), accept)
	if err := s.mailer.Send(ctx, msg); err != nil {
		log.Printf("quote %d: decision notice failed: %v", q.ID, err)
	}
}

func (s *QuoteService) contractorName(userID uint) string {
	var contractor models.Contractor
	if err := s.db.First(&contractor, userID).Error; err != nil {
		return "Your contractor"
	}
	return contractor.DisplayName()
}

func (s *QuoteService) quoteURL(tok string) string {
	return fmt.Sprintf("%s/q/%s", s.baseURL, tok)
}

// validateSendable enforces the quote send gate: at least one line, every
// line named, and outside-price-list lines priced.
func validateSendable(items []models.QuoteItem) error {
	violations := map[string]string{}
	if len(items) == 0 {
		violations["items"] = "at least one item is required"
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			violations[fmt.Sprintf("items.%d.name", i)] = "name is required"
		}
		if item.OutsidePriceList && item.UnitPrice == 0 {
			violations[fmt.Sprintf("items.%d.unit_price", i)] = "item priced outside the price list needs a manual price"
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func formatAmount(currency string, v float64) string {
	return fmt.Sprintf("%s%.2f", countries.CurrencySymbol(currency), finance.Round2(v))
}
