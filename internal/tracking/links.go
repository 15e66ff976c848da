// Package tracking builds and verifies the engagement-tracking URLs embedded
// in outbound email: the click redirector, the open pixel, and the feedback
// link. URL construction is a pure function of (original URL, send-record id,
// recipient) -- no counters, no clock -- so a retried send produces
// byte-identical links.
//
// Every URL carries an HMAC-SHA256 signature over its identifying fields so
// the click redirector cannot be driven as an open redirect and forged event
// submissions can be dropped.
package tracking

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
)

// Query parameter names shared by the builder and the capture handlers.
const (
	ParamSendID    = "sid"
	ParamRecipient = "r"
	ParamURL       = "url"
	ParamSignature = "sig"
	ParamRating    = "rating"
)

// Route paths mounted under the tracking router.
const (
	OpenPath     = "/t/open"
	ClickPath    = "/t/click"
	FeedbackPath = "/t/feedback"
)

// LinkBuilder produces trackable URLs for one send. It deliberately requires
// the send-record id at construction: the ledger row must exist before any
// link is rewritten, and making the id a constructor argument prevents
// reordering those pipeline stages.
type LinkBuilder struct {
	baseURL   string
	key       []byte
	sendID    string
	recipient string
}

// NewLinkBuilder creates a LinkBuilder for one (send record, recipient)
// pair. baseURL is the public base of this service without a trailing slash.
func NewLinkBuilder(baseURL string, signingKey []byte, sendID, recipient string) (*LinkBuilder, error) {
	if sendID == "" {
		return nil, fmt.Errorf("tracking: send-record id is required before links can be built")
	}
	if recipient == "" {
		return nil, fmt.Errorf("tracking: recipient is required before links can be built")
	}
	return &LinkBuilder{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		key:       signingKey,
		sendID:    sendID,
		recipient: recipient,
	}, nil
}

// Click wraps an original destination URL in the click-tracking redirector.
// The original URL is carried as a query parameter and restored by the
// capture handler after the ClickEvent is appended. Idempotent: wrapping an
// already-wrapped URL returns it unchanged.
func (b *LinkBuilder) Click(originalURL string) string {
	if originalURL == "" {
		return ""
	}
	if strings.HasPrefix(originalURL, b.baseURL+ClickPath) {
		return originalURL
	}

	q := url.Values{}
	q.Set(ParamSendID, b.sendID)
	q.Set(ParamRecipient, b.recipient)
	q.Set(ParamURL, originalURL)
	q.Set(ParamSignature, SignClick(b.key, b.sendID, b.recipient, originalURL))
	return b.baseURL + ClickPath + "?" + q.Encode()
}

// PixelURL returns the open-tracking beacon URL for this send. Fetching it
// appends an OpenEvent and returns a 1x1 transparent image.
func (b *LinkBuilder) PixelURL() string {
	q := url.Values{}
	q.Set(ParamSendID, b.sendID)
	q.Set(ParamRecipient, b.recipient)
	q.Set(ParamSignature, SignOpen(b.key, b.sendID, b.recipient))
	return b.baseURL + OpenPath + "?" + q.Encode()
}

// PixelTag returns the zero-size image tag embedding the open beacon,
// ready to append to compiled HTML.
func (b *LinkBuilder) PixelTag() string {
	return fmt.Sprintf(
		`<img src="%s" width="1" height="1" style="display:none;" alt="" />`,
		b.PixelURL(),
	)
}

// FeedbackURL returns a pre-filled feedback link for the given rating,
// intended for one-click rating rows in the email footer.
func (b *LinkBuilder) FeedbackURL(rating int) string {
	q := url.Values{}
	q.Set(ParamSendID, b.sendID)
	q.Set(ParamRecipient, b.recipient)
	q.Set(ParamRating, fmt.Sprintf("%d", rating))
	q.Set(ParamSignature, SignOpen(b.key, b.sendID, b.recipient))
	return b.baseURL + FeedbackPath + "?" + q.Encode()
}

// SignClick computes the signature for a click link: a MAC over the send id,
// recipient, and original destination.
func SignClick(key []byte, sendID, recipient, originalURL string) string {
	return sign(key, sendID, recipient, originalURL)
}

// SignOpen computes the signature for the open pixel and feedback links:
// a MAC over the send id and recipient.
func SignOpen(key []byte, sendID, recipient string) string {
	return sign(key, sendID, recipient)
}

// VerifyClick reports whether sig is a valid click signature for the given
// fields. Comparison is constant-time.
func VerifyClick(key []byte, sendID, recipient, originalURL, sig string) bool {
	return verify(SignClick(key, sendID, recipient, originalURL), sig)
}

// VerifyOpen reports whether sig is a valid open/feedback signature.
func VerifyOpen(key []byte, sendID, recipient, sig string) bool {
	return verify(SignOpen(key, sendID, recipient), sig)
}

// sign MACs the fields joined with a separator that cannot appear in ids or
// addresses, preventing field-boundary ambiguity.
func sign(key []byte, fields ...string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(strings.Join(fields, "\n")))
	return hex.EncodeToString(mac.Sum(nil))
}

func verify(want, got string) bool {
	return hmac.Equal([]byte(want), []byte(got))
}
