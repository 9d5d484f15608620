// Package mail dispatches transactional email through the hosted email
// provider's HTTP API. Delivery is best-effort: callers treat a dispatch
// failure as reportable, never as fatal to the surrounding operation.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mailer sends a single transactional email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is one outbound transactional email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	From    string `json:"from"`
}

// APIMailer posts messages to a JSON email API authenticated with a bearer
// key (Resend-style contract).
type APIMailer struct {
	BaseURL    string
	APIKey     string
	From       string
	HTTPClient *http.Client
}

func NewAPIMailer(baseURL, apiKey, from string) *APIMailer {
	return &APIMailer{
		BaseURL: baseURL,
		APIKey:  apiKey,
		From:    from,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (m *APIMailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.From
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encoding email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little of the body for the log line; providers put the
		// reason in a short JSON object.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("email provider returned %d: %s", resp.StatusCode, snippet)
	}

	return nil
}
