package external

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"shopnotify/internal/config"
	"shopnotify/internal/types"
)

// MailTransport is the outbound email API as seen by the dispatcher: a
// black-box HTTP sink that accepts a composed message and reports
// acceptance or failure. Failures come back as data in the DispatchResult,
// never as a Go error, so the send ledger can always be reconciled.
type MailTransport interface {
	Send(ctx context.Context, msg types.EmailMessage) types.DispatchResult
}

// MailClient implements MailTransport against a Resend-style HTTP API:
// POST {base}/emails with a JSON message, Bearer auth. A 2xx status with a
// clean body is acceptance; a non-2xx status or a body carrying an error or
// statusCode field is failure, with the raw body preserved verbatim.
type MailClient struct {
	client  *Client
	baseURL string
	apiKey  types.SecretString
	logger  *slog.Logger
}

// NewMailClient creates a MailClient from the email transport configuration.
// The http.Client timeout bounds the whole send; expiry surfaces as a failed
// DispatchResult and reconciles the ledger to "failed".
func NewMailClient(cfg config.EmailConfig, logger *slog.Logger) *MailClient {
	httpClient := &http.Client{Timeout: cfg.TransportTimeout}
	return &MailClient{
		client: NewClient(httpClient, "mail-transport", DefaultRetryPolicy(), "shopnotify/1.0",
			WithUnavailableCode(types.ErrCodeUpstreamEmailProvider)),
		baseURL: strings.TrimSuffix(cfg.TransportURL, "/"),
		apiKey:  cfg.TransportAPIKey,
		logger:  logger,
	}
}

// NewMailClientWithBase creates a MailClient with a caller-provided
// resilient Client, used by tests to disable retries and sleeps.
func NewMailClientWithBase(client *Client, baseURL string, apiKey types.SecretString, logger *slog.Logger) *MailClient {
	return &MailClient{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		logger:  logger,
	}
}

// transportAccept is the minimal success body: {"id": "..."}.
type transportAccept struct {
	ID string `json:"id"`
}

// transportError mirrors the provider's error body. Either shape marks
// failure: {"error": {...}} or {"statusCode": 422, "message": "...", "name": "..."}.
type transportError struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message"`
	Name       string          `json:"name"`
	Error      json.RawMessage `json:"error"`
}

// Send posts the composed message. It never returns a Go error: every
// failure mode (marshalling, network, breaker, provider rejection) is folded
// into a DispatchResult with Accepted=false and the raw error payload in
// ErrorDetail.
func (m *MailClient) Send(ctx context.Context, msg types.EmailMessage) types.DispatchResult {
	body, err := json.Marshal(msg)
	if err != nil {
		return types.DispatchResult{Accepted: false, ErrorDetail: "marshal message: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return types.DispatchResult{Accepted: false, ErrorDetail: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey.Unmask())

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn("mail transport request failed", "error", err.Error())
		return types.DispatchResult{Accepted: false, ErrorDetail: err.Error()}
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return types.DispatchResult{
			Accepted:    false,
			StatusCode:  resp.StatusCode,
			ErrorDetail: "read response body: " + readErr.Error(),
		}
	}

	result := types.DispatchResult{StatusCode: resp.StatusCode}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.ErrorDetail = string(raw)
		return result
	}

	// Some sinks return 200 with an error payload; treat a body carrying an
	// error or statusCode field as rejection.
	var te transportError
	if jsonErr := json.Unmarshal(raw, &te); jsonErr == nil {
		if len(te.Error) > 0 && string(te.Error) != "null" || te.StatusCode >= 400 {
			result.ErrorDetail = string(raw)
			return result
		}
	}

	var ok transportAccept
	_ = json.Unmarshal(raw, &ok)
	result.Accepted = true
	result.ProviderMessageID = ok.ID
	return result
}

var _ MailTransport = (*MailClient)(nil)
