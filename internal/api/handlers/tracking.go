package handlers

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"shopnotify/internal/core"
	"shopnotify/internal/tracking"
	"shopnotify/internal/types"
)

// transparentGIF is a 1x1 transparent image. The open beacon always serves
// it, whatever happened to the capture, so broken tracking never renders as
// a broken image in the customer's mail client.
var transparentGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF, 0x21, 0xF9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

// EventStore appends engagement events to their per-send logs.
type EventStore interface {
	InsertOpen(ctx context.Context, e *types.OpenEvent) error
	InsertClick(ctx context.Context, e *types.ClickEvent) error
	InsertFeedback(ctx context.Context, e *types.FeedbackEvent) error
}

// CaptureOutcome reports what happened to one capture attempt. Capture is
// best effort: the visitor-facing response never depends on Persisted, and
// callers inspect the outcome only for logging.
type CaptureOutcome struct {
	Persisted bool
	Reason    string
}

func persisted() CaptureOutcome            { return CaptureOutcome{Persisted: true} }
func skipped(reason string) CaptureOutcome { return CaptureOutcome{Reason: reason} }

// TrackingHandler serves the engagement-capture endpoints embedded in sent
// email: the open pixel, the click redirector, and the feedback link.
type TrackingHandler struct {
	events        EventStore
	signingKey    []byte
	storefrontURL string
	logger        *slog.Logger
}

func NewTrackingHandler(events EventStore, signingKey []byte, storefrontURL string, logger *slog.Logger) *TrackingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TrackingHandler{
		events:        events,
		signingKey:    signingKey,
		storefrontURL: strings.TrimSuffix(storefrontURL, "/"),
		logger:        logger,
	}
}

// RegisterRoutes mounts the capture endpoints. The server mounts this group
// at /t, so the registered paths line up with the URLs the link builder
// emits.
func (h *TrackingHandler) RegisterRoutes(r chi.Router) {
	r.Get(strings.TrimPrefix(tracking.OpenPath, "/t"), h.HandleOpen)
	r.Get(strings.TrimPrefix(tracking.ClickPath, "/t"), h.HandleClick)
	r.Get(strings.TrimPrefix(tracking.FeedbackPath, "/t"), h.HandleFeedback)
}

// HandleOpen handles GET /t/open. The response is always the transparent
// pixel with a 200, even for tampered or incomplete parameters.
func (h *TrackingHandler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	outcome := h.captureOpen(r)
	if !outcome.Persisted {
		h.logger.DebugContext(r.Context(), "open capture skipped",
			slog.String("reason", outcome.Reason))
	}

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	w.Header().Set("Content-Length", strconv.Itoa(len(transparentGIF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(transparentGIF)
}

func (h *TrackingHandler) captureOpen(r *http.Request) CaptureOutcome {
	q := r.URL.Query()
	sendID := q.Get(tracking.ParamSendID)
	recipient := q.Get(tracking.ParamRecipient)
	sig := q.Get(tracking.ParamSignature)

	if sendID == "" || recipient == "" {
		return skipped("missing identifiers")
	}
	if !tracking.VerifyOpen(h.signingKey, sendID, recipient, sig) {
		return skipped("signature mismatch")
	}

	e := &types.OpenEvent{
		SendRecordID:   sendID,
		RecipientEmail: recipient,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	}
	if err := h.events.InsertOpen(r.Context(), e); err != nil {
		h.logger.WarnContext(r.Context(), "open event not persisted",
			slog.String("send_id", sendID), slog.Any("error", err))
		return skipped("store error")
	}
	return persisted()
}

// HandleClick handles GET /t/click. The visitor is always redirected: to the
// original destination when the signature checks out, to the storefront
// otherwise, so a tampered link can never turn this into an open redirect.
func (h *TrackingHandler) HandleClick(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sendID := q.Get(tracking.ParamSendID)
	recipient := q.Get(tracking.ParamRecipient)
	dest := q.Get(tracking.ParamURL)
	sig := q.Get(tracking.ParamSignature)

	outcome := skipped("missing identifiers")
	redirectTo := h.storefrontURL

	if sendID != "" && recipient != "" {
		if !tracking.VerifyClick(h.signingKey, sendID, recipient, dest, sig) {
			outcome = skipped("signature mismatch")
		} else {
			if isWebURL(dest) {
				redirectTo = dest
			}
			outcome = h.captureClick(r, sendID, recipient, dest)
		}
	}

	if !outcome.Persisted {
		h.logger.DebugContext(r.Context(), "click capture skipped",
			slog.String("reason", outcome.Reason))
	}
	http.Redirect(w, r, redirectTo, http.StatusFound)
}

func (h *TrackingHandler) captureClick(r *http.Request, sendID, recipient, dest string) CaptureOutcome {
	e := &types.ClickEvent{
		SendRecordID:   sendID,
		RecipientEmail: recipient,
		LinkURL:        dest,
		IPAddress:      clientIP(r),
		UserAgent:      r.UserAgent(),
	}
	if err := h.events.InsertClick(r.Context(), e); err != nil {
		h.logger.WarnContext(r.Context(), "click event not persisted",
			slog.String("send_id", sendID), slog.Any("error", err))
		return skipped("store error")
	}
	return persisted()
}

type feedbackAck struct {
	Status string `json:"status"`
}

// HandleFeedback handles GET /t/feedback. An out-of-range rating is the one
// capture input that returns an actual error; everything else stays best
// effort.
func (h *TrackingHandler) HandleFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sendID := q.Get(tracking.ParamSendID)
	recipient := q.Get(tracking.ParamRecipient)
	sig := q.Get(tracking.ParamSignature)

	rating, err := strconv.Atoi(q.Get(tracking.ParamRating))
	if err != nil || rating < 1 || rating > 5 {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationInvalidRating,
			"rating must be an integer between 1 and 5", nil))
		return
	}

	outcome := skipped("missing identifiers")
	if sendID != "" && recipient != "" {
		if !tracking.VerifyOpen(h.signingKey, sendID, recipient, sig) {
			outcome = skipped("signature mismatch")
		} else {
			e := &types.FeedbackEvent{
				SendRecordID:   sendID,
				RecipientEmail: recipient,
				Rating:         rating,
				FeedbackText:   strings.TrimSpace(q.Get("text")),
			}
			if insErr := h.events.InsertFeedback(r.Context(), e); insErr != nil {
				h.logger.WarnContext(r.Context(), "feedback event not persisted",
					slog.String("send_id", sendID), slog.Any("error", insErr))
				outcome = skipped("store error")
			} else {
				outcome = persisted()
			}
		}
	}

	if !outcome.Persisted {
		h.logger.DebugContext(r.Context(), "feedback capture skipped",
			slog.String("reason", outcome.Reason))
	}
	core.JSON(w, r, http.StatusOK, feedbackAck{Status: "received"})
}

func isWebURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the socket
// peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
