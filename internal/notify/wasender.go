package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"terestats-server/internal/config"
)

// Notifier delivers an out-of-band text notification to a phone number.
// Implementations are best-effort collaborators: callers fire and forget,
// and a delivery failure must never fail the triggering request.
type Notifier interface {
	Send(phoneNumber, text string) error
}

// WaSender posts messages to a WaSender-compatible WhatsApp gateway.
type WaSender struct {
	apiURL string
	apiKey string
	client *http.Client
}

// NewWaSender builds a Notifier from config. When no API key is configured,
// a disabled no-op notifier is returned instead so the rest of the app does
// not have to care.
func NewWaSender(cfg config.WaSenderConfig) Notifier {
	if cfg.APIKey == "" {
		slog.Warn("WaSender API key not configured, notifications disabled")
		return Disabled{}
	}
	return &WaSender{
		apiURL: cfg.APIURL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendMessageRequest struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Send posts one text message to the gateway.
func (w *WaSender) Send(phoneNumber, text string) error {
	body, err := json.Marshal(sendMessageRequest{To: phoneNumber, Text: text})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, w.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+w.apiKey)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("notification request failed: %w", err)
	}
	defer resp.Body.Close()

	var apiResp sendMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		// Non-JSON error bodies still carry the status code.
		apiResp = sendMessageResponse{}
	}

	if resp.StatusCode >= 300 {
		reason := apiResp.Error
		if reason == "" {
			reason = apiResp.Message
		}
		if reason == "" {
			reason = resp.Status
		}
		return fmt.Errorf("gateway rejected notification: %s", reason)
	}

	return nil
}

// Disabled is a Notifier that drops everything. Used when no gateway is
// configured and in tests.
type Disabled struct{}

func (Disabled) Send(phoneNumber, text string) error {
	return nil
}

// NewMessageText renders the notification sent to a recipient when someone
// leaves them a message. senderName is empty for anonymous messages.
func NewMessageText(senderName string, coolingOffMinutes int, appURL string) string {
	sender := senderName
	if sender == "" {
		sender = "Someone"
	}
	return fmt.Sprintf(`%s has sent you a message on *TereStats*.

TereStats is where honest feedback, praise, and advice are shared to help people grow. No spam, no ads—just real words from real people.

There's a cooling period of %d mins for them to edit/delete the message. Check %s in %d min to read it.`,
		sender, coolingOffMinutes, appURL, coolingOffMinutes)
}
