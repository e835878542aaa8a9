package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ResendNotifier delivers notifications through a Resend-compatible
// transactional email API.
type ResendNotifier struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

// NewResendNotifier builds a notifier posting to baseURL (the API root,
// e.g. https://api.resend.com) with the given key and sender address.
func NewResendNotifier(baseURL, apiKey, from string, timeout time.Duration) *ResendNotifier {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ResendNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		client:  &http.Client{Timeout: timeout},
	}
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send renders the template for kind and posts it to the API.
func (n *ResendNotifier) Send(ctx context.Context, kind Kind, to Recipient) error {
	subject, html := render(kind, to)

	body, err := json.Marshal(emailRequest{
		From:    n.from,
		To:      []string{to.Email},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+n.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("send email: status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func render(kind Kind, to Recipient) (subject, html string) {
	name := strings.TrimSpace(to.FirstName)
	if name == "" {
		name = "there"
	}
	switch kind {
	case KindConfirmed:
		subject = "VOFMUN registration received"
		html = fmt.Sprintf(
			`<p>Dear %s,</p>
<p>Thank you for registering for VOFMUN. We have received your registration and your proof of payment. Our team will review it and confirm your spot shortly.</p>
<p>Best regards,<br>The VOFMUN Team</p>`, name)
	case KindReminder:
		subject = "VOFMUN registration received - payment pending"
		html = fmt.Sprintf(
			`<p>Dear %s,</p>
<p>Thank you for registering for VOFMUN. Your registration is recorded, but we have not received your payment yet. Please complete the payment to secure your spot.</p>
<p>Best regards,<br>The VOFMUN Team</p>`, name)
	default:
		subject = "VOFMUN registration received"
		html = fmt.Sprintf(`<p>Dear %s,</p><p>Thank you for registering for VOFMUN.</p>`, name)
	}
	return subject, html
}
