package email

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"shopnotify/internal/config"
	"shopnotify/internal/external"
	"shopnotify/internal/types"
)

const mailerName = "shopnotify"

// senderRe accepts either a bare address ("orders@example.com") or a display
// form ("Example Shop <orders@example.com>"). Anything else is a fatal
// configuration error for every send attempt.
var senderRe = regexp.MustCompile(
	`^(?:[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}|[^<>]+ <[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}>)$`)

// Dispatcher assembles the outbound message envelope and hands it to the
// mail transport. It never returns an error for provider rejections; those
// are carried in the DispatchResult.
type Dispatcher struct {
	transport external.MailTransport
	sender    string
	replyTo   string
	logger    *slog.Logger
}

func NewDispatcher(cfg config.EmailConfig, transport external.MailTransport, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		sender:    cfg.Sender,
		replyTo:   cfg.ReplyTo,
		logger:    logger.With(slog.String("component", "dispatcher")),
	}
}

// ValidateIdentity checks the configured sender and reply-to against the
// accepted formats. Callers run this before creating any ledger row so a
// broken identity aborts the pipeline cleanly.
func (d *Dispatcher) ValidateIdentity() error {
	if err := ValidateSenderIdentity(d.sender); err != nil {
		return err
	}
	return ValidateReplyTo(d.replyTo)
}

// ValidateSenderIdentity rejects sender strings that are neither a bare
// email address nor a "Display Name <email>" pair.
func ValidateSenderIdentity(sender string) error {
	if !senderRe.MatchString(sender) {
		return types.NewAppError(types.ErrCodeConfigInvalidSender,
			fmt.Sprintf("sender identity %q is not a valid address or display form", sender), nil)
	}
	return nil
}

// ValidateReplyTo applies the sender format rules to the reply-to address.
// Reply-to is optional, so the empty string passes.
func ValidateReplyTo(replyTo string) error {
	if replyTo == "" {
		return nil
	}
	if !senderRe.MatchString(replyTo) {
		return types.NewAppError(types.ErrCodeConfigInvalidSender,
			fmt.Sprintf("reply-to identity %q is not a valid address or display form", replyTo), nil)
	}
	return nil
}

// Dispatch sends one message for the given ledger record. Deliverability
// headers ride along: the ledger id as the entity reference for provider-side
// correlation, plus list-unsubscribe and mailer identification.
func (d *Dispatcher) Dispatch(ctx context.Context, rec *types.SendRecord, html, text string) types.DispatchResult {
	msg := types.EmailMessage{
		From:    d.sender,
		To:      rec.Recipients,
		ReplyTo: d.replyTo,
		Subject: rec.Subject,
		HTML:    html,
		Text:    text,
		Headers: map[string]string{
			"X-Entity-Ref-ID":  rec.ID,
			"X-Mailer":         mailerName,
			"List-Unsubscribe": "<mailto:" + extractAddress(d.sender) + "?subject=unsubscribe>",
		},
	}

	result := d.transport.Send(ctx, msg)
	if result.Accepted {
		d.logger.InfoContext(ctx, "message accepted by provider",
			slog.String("send_id", rec.ID),
			slog.String("provider_message_id", result.ProviderMessageID))
	} else {
		d.logger.WarnContext(ctx, "message rejected by provider",
			slog.String("send_id", rec.ID),
			slog.Int("status_code", result.StatusCode),
			slog.String("detail", result.ErrorDetail))
	}
	return result
}

var addressRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

func extractAddress(sender string) string {
	return addressRe.FindString(sender)
}
