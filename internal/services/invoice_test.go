package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/HalooLaloo/quotesnap-sub000/internal/models"
)

func TestInvoiceService_CreateFromQuote(t *testing.T) {
	gdb := testDB(t)
	svc := NewInvoiceService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	req := seedRequest(t, gdb, c.ID, "jan@example.com")
	now := time.Now()

	q := seedQuote(t, gdb, c.ID, models.QuoteStatusAccepted, namedItem())
	q.RequestID = &req.ID
	q.DiscountPercent = 10
	q.TaxPercent = 23
	if err := gdb.Save(q).Error; err != nil {
		t.Fatal(err)
	}

	inv, err := svc.CreateFromQuote(c.ID, q.ID, now)
	if err != nil {
		t.Fatalf("CreateFromQuote: %v", err)
	}
	if inv.Status != models.InvoiceStatusDraft {
		t.Errorf("status = %s, want draft", inv.Status)
	}
	if inv.ClientName != "Jan Kowalski" || inv.ClientEmail != "jan@example.com" {
		t.Errorf("client snapshot = %q/%q", inv.ClientName, inv.ClientEmail)
	}
	if inv.Number != "INV-2026-0001" {
		t.Errorf("number = %s", inv.Number)
	}
	if len(inv.Items) != 1 || inv.Items[0].Name != "Wall painting" {
		t.Fatalf("items = %+v", inv.Items)
	}
	if inv.Token == q.Token || inv.Token == "" {
		t.Error("invoice must mint its own token")
	}
	// 200 subtotal, 10% discount, 23% tax.
	if inv.TotalGross != 221.4 {
		t.Errorf("TotalGross = %v, want 221.4", inv.TotalGross)
	}
	if inv.DueDate == nil {
		t.Error("DueDate not defaulted")
	}

	// The snapshot is isolated: later request edits never reach the invoice.
	if err := gdb.Model(&models.QuoteRequest{}).Where("id = ?", req.ID).
		Update("client_name", "Someone Else").Error; err != nil {
		t.Fatal(err)
	}
	reloaded, err := svc.Get(c.ID, inv.ID)
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.ClientName != "Jan Kowalski" {
		t.Errorf("snapshot leaked: ClientName = %q", reloaded.ClientName)
	}
}

func TestInvoiceService_CreateFromQuoteRequiresAccepted(t *testing.T) {
	gdb := testDB(t)
	svc := NewInvoiceService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")

	for _, status := range []models.QuoteStatus{
		models.QuoteStatusDraft, models.QuoteStatusSent,
		models.QuoteStatusRejected, models.QuoteStatusExpired,
	} {
		q := seedQuote(t, gdb, c.ID, status, namedItem())
		_, err := svc.CreateFromQuote(c.ID, q.ID, time.Now())
		var cerr *ConflictError
		if !errors.As(err, &cerr) {
			t.Errorf("CreateFromQuote(%s) = %v, want ConflictError", status, err)
		}
	}
}

func TestInvoiceService_Send(t *testing.T) {
	gdb := testDB(t)
	fm := &fakeMailer{}
	svc := NewInvoiceService(gdb, fm, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	now := time.Now()

	inv := seedInvoice(t, gdb, c.ID, models.InvoiceStatusDraft, nil)
	sent, err := svc.Send(context.Background(), c.ID, inv.ID, now)
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sent.Status != models.InvoiceStatusSent || sent.SentAt == nil {
		t.Errorf("status=%s sentAt=%v", sent.Status, sent.SentAt)
	}
	if len(fm.sent) != 1 || fm.sent[0].To != "jan@example.com" {
		t.Errorf("emails to %v, want [jan@example.com]", fm.to())
	}

	t.Run("missing client email", func(t *testing.T) {
		bad := seedInvoice(t, gdb, c.ID, models.InvoiceStatusDraft, func(i *models.Invoice) {
			i.ClientEmail = ""
		})
		_, err := svc.Send(context.Background(), c.ID, bad.ID, now)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Send = %v, want ValidationError", err)
		}
	})

	t.Run("paid conflicts", func(t *testing.T) {
		paid := seedInvoice(t, gdb, c.ID, models.InvoiceStatusPaid, nil)
		_, err := svc.Send(context.Background(), c.ID, paid.ID, now)
		var cerr *ConflictError
		if !errors.As(err, &cerr) {
			t.Fatalf("Send(paid) = %v, want ConflictError", err)
		}
	})
}

func TestInvoiceService_MarkPaid(t *testing.T) {
	gdb := testDB(t)
	svc := NewInvoiceService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	now := time.Now()

	inv := seedInvoice(t, gdb, c.ID, models.InvoiceStatusSent, nil)
	paid, err := svc.MarkPaid(c.ID, inv.ID, now)
	if err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid || paid.PaidAt == nil {
		t.Errorf("status=%s paidAt=%v", paid.Status, paid.PaidAt)
	}

	// Paid is terminal.
	var cerr *ConflictError
	if _, err := svc.MarkPaid(c.ID, inv.ID, now.Add(time.Hour)); !errors.As(err, &cerr) {
		t.Errorf("second MarkPaid = %v, want ConflictError", err)
	}

	// A draft can be marked paid directly (cash in hand before sending).
	draft := seedInvoice(t, gdb, c.ID, models.InvoiceStatusDraft, nil)
	if _, err := svc.MarkPaid(c.ID, draft.ID, now); err != nil {
		t.Errorf("MarkPaid(draft) = %v", err)
	}
}

func TestInvoiceService_MarkPaidByToken(t *testing.T) {
	gdb := testDB(t)
	fm := &fakeMailer{}
	svc := NewInvoiceService(gdb, fm, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")
	now := time.Now()

	inv := seedInvoice(t, gdb, c.ID, models.InvoiceStatusSent, nil)
	paid, err := svc.MarkPaidByToken(context.Background(), inv.Token, now)
	if err != nil {
		t.Fatalf("MarkPaidByToken: %v", err)
	}
	if paid.Status != models.InvoiceStatusPaid {
		t.Errorf("status = %s", paid.Status)
	}
	// Contractor gets the paid notice.
	if len(fm.sent) != 1 || fm.sent[0].To != c.Email {
		t.Errorf("notice to %v, want %s", fm.to(), c.Email)
	}

	t.Run("second claim conflicts", func(t *testing.T) {
		_, err := svc.MarkPaidByToken(context.Background(), inv.Token, now)
		var cerr *ConflictError
		if !errors.As(err, &cerr) {
			t.Errorf("second claim = %v, want ConflictError", err)
		}
	})

	t.Run("draft is invisible publicly", func(t *testing.T) {
		draft := seedInvoice(t, gdb, c.ID, models.InvoiceStatusDraft, nil)
		if _, err := svc.MarkPaidByToken(context.Background(), draft.Token, now); !errors.Is(err, ErrNotFound) {
			t.Errorf("claim on draft = %v, want ErrNotFound", err)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if _, err := svc.MarkPaidByToken(context.Background(), "zz", now); !errors.Is(err, ErrNotFound) {
			t.Errorf("claim = %v, want ErrNotFound", err)
		}
	})
}

func TestInvoiceService_Delete(t *testing.T) {
	gdb := testDB(t)
	svc := NewInvoiceService(gdb, &fakeMailer{}, testBaseURL)
	c := seedContractor(t, gdb, "pro@example.com")

	inv := seedInvoice(t, gdb, c.ID, models.InvoiceStatusDraft, nil)
	if err := svc.Delete(c.ID, inv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	// Paid invoices delete too; no state is protected from the owner.
	paid := seedInvoice(t, gdb, c.ID, models.InvoiceStatusPaid, nil)
	if err := svc.Delete(c.ID, paid.ID); err != nil {
		t.Fatalf("Delete(paid): %v", err)
	}
	if _, err := svc.ResolveByToken(paid.Token); !errors.Is(err, ErrNotFound) {
		t.Errorf("ResolveByToken after delete = %v, want ErrNotFound", err)
	}
}
