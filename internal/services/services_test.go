package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/HalooLaloo/quotesnap-sub000/internal/db"
	"github.com/HalooLaloo/quotesnap-sub000/internal/mailer"
	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
	"github.com/HalooLaloo/quotesnap-sub000/internal/token"
)

const testBaseURL = "http://localhost:8080"

// fakeMailer records every send and can be told to fail.
type fakeMailer struct {
	sent []mailer.Message
	fail error
}

func (f *fakeMailer) Send(_ context.Context, m mailer.Message) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeMailer) to() []string {
	out := make([]string, len(f.sent))
	for i, m := range f.sent {
		out[i] = m.To
	}
	return out
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func seedContractor(t *testing.T, gdb *gorm.DB, email string) *models.Contractor {
	t.Helper()
	c := &models.Contractor{
		Email:       email,
		Password:    "x",
		CompanyName: "Brick & Mortar LLC",
		Country:     "US",
		Currency:    "USD",
		NotifyEmail: true,
	}
	if err := gdb.Create(c).Error; err != nil {
		t.Fatalf("seed contractor: %v", err)
	}
	return c
}

func seedRequest(t *testing.T, gdb *gorm.DB, userID uint, clientEmail string) *models.QuoteRequest {
	t.Helper()
	r := &models.QuoteRequest{
		UserID:      userID,
		ClientName:  "Jan Kowalski",
		ClientEmail: clientEmail,
		Description: "Paint two rooms",
		Status:      models.RequestStatusNew,
	}
	if err := gdb.Create(r).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return r
}

func seedQuote(t *testing.T, gdb *gorm.DB, userID uint, status models.QuoteStatus, items ...models.QuoteItem) *models.Quote {
	t.Helper()
	tok, err := token.Mint()
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	q := &models.Quote{
		UserID:   userID,
		Status:   status,
		Currency: "USD",
		Token:    tok,
		Items:    items,
	}
	if status != models.QuoteStatusDraft {
		now := time.Now()
		q.SentAt = &now
	}
	if err := gdb.Create(q).Error; err != nil {
		t.Fatalf("seed quote: %v", err)
	}
	return q
}

func seedInvoice(t *testing.T, gdb *gorm.DB, userID uint, status models.InvoiceStatus, mutate func(*models.Invoice)) *models.Invoice {
	t.Helper()
	tok, err := token.Mint()
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	inv := &models.Invoice{
		UserID:      userID,
		Number:      "INV-2026-0001",
		ClientName:  "Jan Kowalski",
		ClientEmail: "jan@example.com",
		Currency:    "USD",
		Status:      status,
		Token:       tok,
		Items: []models.InvoiceItem{
			{Name: "Wall painting", Quantity: 40, Unit: "m2", UnitPrice: 5, Total: 200},
		},
	}
	if status != models.InvoiceStatusDraft {
		now := time.Now()
		inv.SentAt = &now
	}
	if mutate != nil {
		mutate(inv)
	}
	if err := gdb.Create(inv).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return inv
}

func namedItem() models.QuoteItem {
	return models.QuoteItem{Name: "Wall painting", Quantity: 40, Unit: "m2", UnitPrice: 5, Total: 200}
}

// ─── Quote lifecycle ─────────────────────────────────────────────────────────

func TestQuoteService_Send(t *testing.T) {
	gdb := testDB(t)
	fm := &fakeMailer{}
	svc := NewQuoteService(gdb, fm, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	req := seedRequest(t, gdb, c.ID, "jan@example.com")
	now := time.Now()

	q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft, namedItem())
	q.RequestID = &req.ID
	if err := gdb.Save(q).Error; err != nil {
		t.Fatalf("link request: %v", err)
	}

	sent, err := svc.Send(context.Background(), c.ID, q.ID, now)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Status != models.QuoteStatusSent {
		t.Errorf("status = %s, want sent", sent.Status)
	}
	if sent.SentAt == nil {
		t.Error("SentAt not set")
	}
	if sent.TotalGross != 200 {
		t.Errorf("TotalGross = %v, want 200", sent.TotalGross)
	}

	var reloadedReq models.QuoteRequest
	if err := gdb.First(&reloadedReq, req.ID).Error; err != nil {
		t.Fatalf("reload request: %v", err)
	}
	if reloadedReq.Status != models.RequestStatusQuoted {
		t.Errorf("request status = %s, want quoted", reloadedReq.Status)
	}

	if len(fm.sent) != 1 || fm.sent[0].To != "jan@example.com" {
		t.Errorf("emails sent to %v, want [jan@example.com]", fm.to())
	}
}

func TestQuoteService_SendValidation(t *testing.T) {
	gdb := testDB(t)
	svc := NewQuoteService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	now := time.Now()

	t.Run("no items", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft)
		_, err := svc.Send(context.Background(), c.ID, q.ID, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Send = %v, want ValidationError", err)
		}
		if _, ok := verr.Violations["items"]; !ok {
			t.Errorf("violations = %v, want items", verr.Violations)
		}
		// Rejected send leaves the quote untouched.
		var reloaded models.Quote
		if err := gdb.First(&reloaded, q.ID).Error; err != nil {
			t.Fatal(err)
		}
		if reloaded.Status != models.QuoteStatusDraft {
			t.Errorf("status = %s, want draft", reloaded.Status)
		}
	})

	t.Run("unpriced outside item", func(t *testing.T) {
		item := namedItem()
		item.OutsidePriceList = true
		item.UnitPrice = 0
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft, item)
		_, err := svc.Send(context.Background(), c.ID, q.ID, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Send = %v, want ValidationError", err)
		}
	})

	t.Run("terminal status", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusAccepted, namedItem())
		_, err := svc.Send(context.Background(), c.ID, q.ID, now)
		var cerr *ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("Send = %v, want ConflictError", err)
		}
	})

	t.Run("not owner", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft, namedItem())
		if _, err := svc.Send(context.Background(), c.ID+99, q.ID, now); !errors.Is(err, ErrNotFound) {
			t.Errorf("Send by stranger = %v, want ErrNotFound", err)
		}
	})
}

func TestQuoteService_SendEmailFailureKeepsTransition(t *testing.T) {
	gdb := testDB(t)
	fm := &fakeMailer{fail: errors.New("smtp down")}
	svc := NewQuoteService(gdb, fm, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	req := seedRequest(t, gdb, c.ID, "jan@example.com")

	q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft, namedItem())
	q.RequestID = &req.ID
	if err := gdb.Save(q).Error; err != nil {
		t.Fatal(err)
	}

	sent, err := svc.Send(context.Background(), c.ID, q.ID, time.Now())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Status != models.QuoteStatusSent {
		t.Errorf("status = %s, want sent despite email failure", sent.Status)
	}
}

func TestQuoteService_Decide(t *testing.T) {
	gdb := testDB(t)
	fm := &fakeMailer{}
	svc := NewQuoteService(gdb, fm, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	now := time.Now()

	t.Run("accept", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusSent, namedItem())
		got, err := svc.Decide(context.Background(), q.Token, true, now)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if got.Status != models.QuoteStatusAccepted || got.AcceptedAt == nil {
			t.Errorf("got status=%s acceptedAt=%v", got.Status, got.AcceptedAt)
		}
		// Contractor gets the decision notice.
		if len(fm.sent) == 0 || fm.sent[len(fm.sent)-1].To != c.Email {
			t.Errorf("decision notice to %v, want %s", fm.to(), c.Email)
		}
	})

	t.Run("reject", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusSent, namedItem())
		got, err := svc.Decide(context.Background(), q.Token, false, now)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if got.Status != models.QuoteStatusRejected || got.RejectedAt == nil {
			t.Errorf("got status=%s rejectedAt=%v", got.Status, got.RejectedAt)
		}
	})

	t.Run("second decision conflicts", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusSent, namedItem())
		if _, err := svc.Decide(context.Background(), q.Token, true, now); err != nil {
			t.Fatalf("first Decide: %v", err)
		}
		_, err := svc.Decide(context.Background(), q.Token, false, now)
		var cerr *ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("second Decide = %v, want ConflictError", err)
		}
		// The first decision stands.
		var reloaded models.Quote
		if err := gdb.Where("token = ?", q.Token).First(&reloaded).Error; err != nil {
			t.Fatal(err)
		}
		if reloaded.Status != models.QuoteStatusAccepted {
			t.Errorf("status = %s, want accepted", reloaded.Status)
		}
	})

	t.Run("unknown token", func(t *testing.T) {
		if _, err := svc.Decide(context.Background(), "00000000000000000000000000000000", true, now); !errors.Is(err, ErrNotFound) {
			t.Errorf("Decide = %v, want ErrNotFound", err)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if _, err := svc.Decide(context.Background(), "not-a-token", true, now); !errors.Is(err, ErrNotFound) {
			t.Errorf("Decide = %v, want ErrNotFound", err)
		}
	})
}

func TestQuoteService_MarkViewed(t *testing.T) {
	gdb := testDB(t)
	svc := NewQuoteService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")

	q := seedQuote(t, gdb, c.ID, models.QuoteStatusSent, namedItem())
	first := time.Now().Add(-time.Hour)
	if err := svc.MarkViewed(q.Token, first); err != nil {
		t.Fatalf("MarkViewed: %v", err)
	}

	// Second view keeps the first timestamp.
	if err := svc.MarkViewed(q.Token, time.Now()); err != nil {
		t.Fatalf("MarkViewed again: %v", err)
	}
	var reloaded models.Quote
	if err := gdb.Where("token = ?", q.Token).First(&reloaded).Error; err != nil {
		t.Fatal(err)
	}
	if reloaded.ViewedAt == nil {
		t.Fatal("ViewedAt not set")
	}
	if !reloaded.ViewedAt.Equal(first) {
		t.Errorf("ViewedAt = %v, want first view %v", reloaded.ViewedAt, first)
	}
}

func TestQuoteService_ResolveByToken(t *testing.T) {
	gdb := testDB(t)
	svc := NewQuoteService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")

	t.Run("draft is invisible publicly", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft, namedItem())
		if _, err := svc.ResolveByToken(q.Token); !errors.Is(err, ErrNotFound) {
			t.Errorf("ResolveByToken(draft) = %v, want ErrNotFound", err)
		}
	})

	t.Run("sent resolves", func(t *testing.T) {
		q := seedQuote(t, gdb, c.ID, models.QuoteStatusSent, namedItem())
		got, err := svc.ResolveByToken(q.Token)
		if err != nil {
			t.Fatalf("ResolveByToken: %v", err)
		}
		if got.ID != q.ID || len(got.Items) != 1 {
			t.Errorf("got id=%d items=%d", got.ID, len(got.Items))
		}
	})
}

func TestQuoteService_Delete(t *testing.T) {
	gdb := testDB(t)
	svc := NewQuoteService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")

	q := seedQuote(t, gdb, c.ID, models.QuoteStatusDraft, namedItem())
	if err := svc.Delete(c.ID, q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(c.ID, q.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	// Deletion works in any state; the public token dies with the row.
	accepted := seedQuote(t, gdb, c.ID, models.QuoteStatusAccepted, namedItem())
	if err := svc.Delete(c.ID, accepted.ID); err != nil {
		t.Fatalf("Delete(accepted): %v", err)
	}
	if _, err := svc.ResolveByToken(accepted.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveByToken after delete = %v, want ErrNotFound", err)
	}
}
