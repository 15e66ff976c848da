package email

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopnotify/internal/config"
	"shopnotify/internal/types"
)

type captureTransport struct {
	lastMsg types.EmailMessage
	result  types.DispatchResult
}

func (c *captureTransport) Send(_ context.Context, msg types.EmailMessage) types.DispatchResult {
	c.lastMsg = msg
	return c.result
}

func newTestDispatcher(transport *captureTransport) *Dispatcher {
	cfg := config.EmailConfig{
		Sender:  "Ceainăria Verde <comenzi@ceainarie.ro>",
		ReplyTo: "contact@ceainarie.ro",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDispatcher(cfg, transport, logger)
}

func TestValidateSenderIdentity(t *testing.T) {
	tests := []struct {
		name   string
		sender string
		valid  bool
	}{
		{"bare address", "comenzi@ceainarie.ro", true},
		{"display form", "Ceainăria Verde <comenzi@ceainarie.ro>", true},
		{"empty", "", false},
		{"missing domain", "comenzi@", false},
		{"display without address", "Ceainăria Verde <>", false},
		{"angle brackets only", "<comenzi@ceainarie.ro>", false},
		{"nested brackets", "A <B <c@d.ro>>", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSenderIdentity(tt.sender)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var appErr *types.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, types.ErrCodeConfigInvalidSender, appErr.Code)
		})
	}
}

func TestValidateReplyTo(t *testing.T) {
	assert.NoError(t, ValidateReplyTo(""), "reply-to is optional")
	assert.NoError(t, ValidateReplyTo("contact@ceainarie.ro"))
	assert.NoError(t, ValidateReplyTo("Suport Clienți <contact@ceainarie.ro>"))

	for _, replyTo := range []string{"<missing-at-sign>", "not-an-address", "contact@"} {
		err := ValidateReplyTo(replyTo)
		require.Error(t, err, "reply-to %q", replyTo)
		var appErr *types.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, types.ErrCodeConfigInvalidSender, appErr.Code)
	}
}

func TestValidateIdentityCoversReplyTo(t *testing.T) {
	cfg := config.EmailConfig{
		Sender:  "comenzi@ceainarie.ro",
		ReplyTo: "<missing-at-sign>",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	d := NewDispatcher(cfg, &captureTransport{}, logger)

	err := d.ValidateIdentity()
	require.Error(t, err)
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeConfigInvalidSender, appErr.Code)
}

func TestDispatchBuildsEnvelope(t *testing.T) {
	transport := &captureTransport{result: types.DispatchResult{Accepted: true, ProviderMessageID: "msg-1"}}
	d := newTestDispatcher(transport)

	rec := &types.SendRecord{
		ID:         "snd-42",
		Recipients: []string{"maria@example.com"},
		Subject:    "Comandă Expediată",
	}
	result := d.Dispatch(context.Background(), rec, "<p>html</p>", "text")

	assert.True(t, result.Accepted)
	msg := transport.lastMsg
	assert.Equal(t, "Ceainăria Verde <comenzi@ceainarie.ro>", msg.From)
	assert.Equal(t, []string{"maria@example.com"}, msg.To)
	assert.Equal(t, "contact@ceainarie.ro", msg.ReplyTo)
	assert.Equal(t, "Comandă Expediată", msg.Subject)
	assert.Equal(t, "<p>html</p>", msg.HTML)
	assert.Equal(t, "text", msg.Text)

	assert.Equal(t, "snd-42", msg.Headers["X-Entity-Ref-ID"])
	assert.Equal(t, "shopnotify", msg.Headers["X-Mailer"])
	assert.Equal(t, "<mailto:comenzi@ceainarie.ro?subject=unsubscribe>", msg.Headers["List-Unsubscribe"])
}

func TestDispatchRejectionIsData(t *testing.T) {
	transport := &captureTransport{result: types.DispatchResult{
		Accepted:    false,
		StatusCode:  422,
		ErrorDetail: `{"message":"invalid recipient"}`,
	}}
	d := newTestDispatcher(transport)

	result := d.Dispatch(context.Background(), &types.SendRecord{ID: "snd-1", Recipients: []string{"x"}}, "", "")
	assert.False(t, result.Accepted)
	assert.Equal(t, 422, result.StatusCode)
	assert.Contains(t, result.ErrorDetail, "invalid recipient")
}
