// Package mailer sends transactional email through the provider's HTTP API.
// Sending is best-effort everywhere it is used: failures are returned so the
// caller can log them, and nothing rolls back when a mail does not go out.
package mailer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Mailer posts messages to a Mailtrap-compatible send endpoint.
type Mailer struct {
	APIURL      string
	APIKey      string
	From        string
	FrontendURL string
	Client      *http.Client
}

// New builds a Mailer.  An empty apiKey disables sending; Send then returns
// an error without performing a request, which callers log and ignore.
func New(apiURL, apiKey, from, frontendURL string) *Mailer {
	return &Mailer{
		APIURL:      apiURL,
		APIKey:      apiKey,
		From:        from,
		FrontendURL: frontendURL,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type recipient struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendRequest struct {
	From    recipient   `json:"from"`
	To      []recipient `json:"to"`
	Subject string      `json:"subject"`
	HTML    string      `json:"html,omitempty"`
	Text    string      `json:"text,omitempty"`
}

// Send posts a single message to the provider.
func (m *Mailer) Send(toEmail, toName, subject, html, text string) error {
	if m.APIKey == "" {
		return fmt.Errorf("mailer: no API key configured")
	}
	body, err := json.Marshal(sendRequest{
		From:    recipient{Email: m.From, Name: "Centillion Gateway"},
		To:      []recipient{{Email: toEmail, Name: toName}},
		Subject: subject,
		HTML:    html,
		Text:    text,
	})
	if err != nil {
		return fmt.Errorf("mailer: marshal request: %w", err)
	}
	req, err := http.NewRequest(http.MethodPost, m.APIURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mailer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.APIKey)

	resp, err := m.Client.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mailer: provider returned %d", resp.StatusCode)
	}
	return nil
}

// SendVerificationEmail mails the email-ownership proof link.  The link
// points at the frontend, which posts the token back to /api/auth/verify-email.
func (m *Mailer) SendVerificationEmail(toEmail, toName, token string) error {
	verifyURL := fmt.Sprintf("%s/verify-email?token=%s", m.FrontendURL, url.QueryEscape(token))

	html := fmt.Sprintf(`<html><body>
<h2>Welcome to Centillion Gateway, %s!</h2>
<p>To complete your registration, please verify your email address:</p>
<p><a href="%s">Verify My Email</a></p>
<p>If the link does not work, copy and paste this address into your browser:</p>
<p>%s</p>
<p>After verification you can log in; on your first login you will be asked to set a password.</p>
<p>This link expires in 24 hours. If you did not create an account, please ignore this email.</p>
</body></html>`, toName, verifyURL, verifyURL)

	text := fmt.Sprintf(`Welcome to Centillion Gateway, %s!

To complete your registration, verify your email by visiting:
%s

After verification you can log in; on your first login you will be asked to set a password.
This link expires in 24 hours. If you did not create an account, please ignore this email.`,
		toName, verifyURL)

	return m.Send(toEmail, toName, "Verify Your Email - Centillion Gateway", html, text)
}
