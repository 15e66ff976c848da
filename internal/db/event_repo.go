package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"shopnotify/internal/types"
)

// EventRepository appends engagement events. All three tables are
// append-only: duplicates are expected (the same recipient opening or
// clicking repeatedly) and are never deduplicated. Events reference a
// SendRecord by id only; the original send context is never required.
type EventRepository struct {
	db DBTX
}

// NewEventRepository creates an EventRepository backed by the given database
// connection.
func NewEventRepository(db DBTX) *EventRepository {
	return &EventRepository{db: db}
}

// InsertOpen appends one OpenEvent row.
func (r *EventRepository) InsertOpen(ctx context.Context, e *types.OpenEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OpenedAt.IsZero() {
		e.OpenedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO email_opens
		 (id, send_record_id, recipient_email, opened_at, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.SendRecordID, e.RecipientEmail, e.OpenedAt, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert open event", err)
	}
	return nil
}

// InsertClick appends one ClickEvent row. LinkURL is the original
// destination carried on the tracking link, not the wrapped URL.
func (r *EventRepository) InsertClick(ctx context.Context, e *types.ClickEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.ClickedAt.IsZero() {
		e.ClickedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO email_clicks
		 (id, send_record_id, recipient_email, link_url, clicked_at, ip_address, user_agent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.SendRecordID, e.RecipientEmail, e.LinkURL, e.ClickedAt, e.IPAddress, e.UserAgent,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert click event", err)
	}
	return nil
}

// InsertFeedback appends one FeedbackEvent row. No uniqueness constraint:
// repeated submissions for the same send create separate rows.
func (r *EventRepository) InsertFeedback(ctx context.Context, e *types.FeedbackEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO email_feedback
		 (id, send_record_id, recipient_email, rating, feedback_text, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		e.ID, e.SendRecordID, e.RecipientEmail, e.Rating, e.FeedbackText, e.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to insert feedback event", err)
	}
	return nil
}
