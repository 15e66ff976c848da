package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopnotify/internal/tracking"
	"shopnotify/internal/types"
)

var trackingTestKey = []byte("test-signing-key")

const trackingStorefront = "https://shop.example.com"

type stubEventStore struct {
	opens     []*types.OpenEvent
	clicks    []*types.ClickEvent
	feedbacks []*types.FeedbackEvent
	insertErr error
}

func (s *stubEventStore) InsertOpen(_ context.Context, e *types.OpenEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.opens = append(s.opens, e)
	return nil
}

func (s *stubEventStore) InsertClick(_ context.Context, e *types.ClickEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.clicks = append(s.clicks, e)
	return nil
}

func (s *stubEventStore) InsertFeedback(_ context.Context, e *types.FeedbackEvent) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.feedbacks = append(s.feedbacks, e)
	return nil
}

func newTrackingRouter(events *stubEventStore) chi.Router {
	h := NewTrackingHandler(events, trackingTestKey, trackingStorefront, testLogger())
	r := chi.NewRouter()
	r.Route("/t", h.RegisterRoutes)
	return r
}

func openQuery(sendID, recipient string) url.Values {
	q := url.Values{}
	q.Set(tracking.ParamSendID, sendID)
	q.Set(tracking.ParamRecipient, recipient)
	q.Set(tracking.ParamSignature, tracking.SignOpen(trackingTestKey, sendID, recipient))
	return q
}

func clickQuery(sendID, recipient, dest string) url.Values {
	q := url.Values{}
	q.Set(tracking.ParamSendID, sendID)
	q.Set(tracking.ParamRecipient, recipient)
	q.Set(tracking.ParamURL, dest)
	q.Set(tracking.ParamSignature, tracking.SignClick(trackingTestKey, sendID, recipient, dest))
	return q
}

func TestHandleOpenPersistsAndServesPixel(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	req := httptest.NewRequest(http.MethodGet, tracking.OpenPath+"?"+openQuery("snd-1", "maria@example.com").Encode(), nil)
	req.Header.Set("User-Agent", "Thunderbird/115")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("GIF89a")))

	require.Len(t, events.opens, 1)
	assert.Equal(t, "snd-1", events.opens[0].SendRecordID)
	assert.Equal(t, "maria@example.com", events.opens[0].RecipientEmail)
	assert.Equal(t, "Thunderbird/115", events.opens[0].UserAgent)
}

func TestHandleOpenTamperedSignatureStillServesPixel(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	q := openQuery("snd-1", "maria@example.com")
	q.Set(tracking.ParamSignature, "forged")
	req := httptest.NewRequest(http.MethodGet, tracking.OpenPath+"?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.Empty(t, events.opens, "forged signature skips the event row")
}

func TestHandleOpenStoreErrorStillServesPixel(t *testing.T) {
	events := &stubEventStore{insertErr: errors.New("db down")}
	r := newTrackingRouter(events)

	req := httptest.NewRequest(http.MethodGet, tracking.OpenPath+"?"+openQuery("snd-1", "m@x.ro").Encode(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("GIF89a")))
}

func TestHandleClickRedirectsToDestination(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	dest := "https://shop.example.com/products/p-1"
	req := httptest.NewRequest(http.MethodGet, tracking.ClickPath+"?"+clickQuery("snd-1", "maria@example.com", dest).Encode(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, dest, rec.Header().Get("Location"))

	require.Len(t, events.clicks, 1)
	assert.Equal(t, dest, events.clicks[0].LinkURL, "event carries the original URL")
}

func TestHandleClickTamperedURLFallsBackToStorefront(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	// Signature was computed for the shop URL; the destination was then
	// swapped for an attacker page.
	q := clickQuery("snd-1", "maria@example.com", "https://shop.example.com/products/p-1")
	q.Set(tracking.ParamURL, "https://evil.example.net/phish")
	req := httptest.NewRequest(http.MethodGet, tracking.ClickPath+"?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, trackingStorefront, rec.Header().Get("Location"))
	assert.Empty(t, events.clicks)
}

func TestHandleClickMissingURLRedirectsToStorefront(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	q := clickQuery("snd-1", "maria@example.com", "")
	req := httptest.NewRequest(http.MethodGet, tracking.ClickPath+"?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, trackingStorefront, rec.Header().Get("Location"))
	require.Len(t, events.clicks, 1, "the click itself is still recorded")
	assert.Equal(t, "", events.clicks[0].LinkURL)
}

func TestHandleFeedbackPersists(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	q := openQuery("snd-1", "maria@example.com")
	q.Set(tracking.ParamRating, "4")
	q.Set("text", "Livrare rapidă!")
	req := httptest.NewRequest(http.MethodGet, tracking.FeedbackPath+"?"+q.Encode(), nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "received")

	require.Len(t, events.feedbacks, 1)
	assert.Equal(t, 4, events.feedbacks[0].Rating)
	assert.Equal(t, "Livrare rapidă!", events.feedbacks[0].FeedbackText)
}

func TestHandleFeedbackInvalidRating(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	for _, rating := range []string{"0", "6", "-1", "abc", ""} {
		q := openQuery("snd-1", "maria@example.com")
		q.Set(tracking.ParamRating, rating)
		req := httptest.NewRequest(http.MethodGet, tracking.FeedbackPath+"?"+q.Encode(), nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "rating %q", rating)
	}
	assert.Empty(t, events.feedbacks)
}

func TestHandleFeedbackRepeatAppends(t *testing.T) {
	events := &stubEventStore{}
	r := newTrackingRouter(events)

	for _, rating := range []string{"2", "5"} {
		q := openQuery("snd-1", "maria@example.com")
		q.Set(tracking.ParamRating, rating)
		req := httptest.NewRequest(http.MethodGet, tracking.FeedbackPath+"?"+q.Encode(), nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	require.Len(t, events.feedbacks, 2, "revised feedback appends, never overwrites")
	assert.Equal(t, 2, events.feedbacks[0].Rating)
	assert.Equal(t, 5, events.feedbacks[1].Rating)
}
