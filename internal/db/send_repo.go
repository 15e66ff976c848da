package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"shopnotify/internal/types"
)

// SendRepository owns the email_sends ledger: one append-then-reconcile row
// per dispatch attempt. Rows are created in state "sending" before any
// network call; MarkSent/MarkFailed reconcile exactly once. The row id is
// the join key for every engagement event.
type SendRepository struct {
	db DBTX
}

// NewSendRepository creates a SendRepository backed by the given database
// connection (pool or transaction).
func NewSendRepository(db DBTX) *SendRepository {
	return &SendRepository{db: db}
}

// Create inserts a ledger row in state "sending" and fills in the generated
// id and creation time. The id must exist before any tracking link is built,
// so Create runs strictly before link rewriting in the pipeline.
func (r *SendRepository) Create(ctx context.Context, rec *types.SendRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.Status = types.SendStatusSending
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO email_sends
		 (id, recipients, subject, content, email_type, related_entity_id, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID,
		rec.Recipients,
		rec.Subject,
		rec.Content,
		string(rec.EmailType),
		rec.RelatedEntityID,
		string(rec.Status),
		rec.CreatedAt,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to create send record", err)
	}
	return nil
}

// MarkSent reconciles a "sending" row to "sent". The status guard in the
// WHERE clause makes reconciliation idempotent: a second reconcile of the
// same row affects zero rows and is reported as not found.
func (r *SendRepository) MarkSent(ctx context.Context, id string) error {
	return r.reconcile(ctx, id, types.SendStatusSent, "")
}

// MarkFailed reconciles a "sending" row to "failed", storing the raw
// provider error payload verbatim for diagnosis.
func (r *SendRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	return r.reconcile(ctx, id, types.SendStatusFailed, errorMessage)
}

func (r *SendRepository) reconcile(ctx context.Context, id string, status types.SendStatus, errorMessage string) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE email_sends SET
			status = $1,
			error_message = NULLIF($2, '')
		 WHERE id = $3 AND status = 'sending'`,
		string(status),
		errorMessage,
		id,
	)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to reconcile send record", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(
			types.ErrCodeNotFoundSend,
			fmt.Sprintf("send record %q not found in sending state", id),
			nil,
		)
	}
	return nil
}

// GetByID returns one ledger row.
func (r *SendRepository) GetByID(ctx context.Context, id string) (*types.SendRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, recipients, subject, content, email_type, related_entity_id,
		        status, COALESCE(error_message, ''), created_at
		 FROM email_sends
		 WHERE id = $1`,
		id,
	)

	var rec types.SendRecord
	err := row.Scan(&rec.ID, &rec.Recipients, &rec.Subject, &rec.Content,
		&rec.EmailType, &rec.RelatedEntityID, &rec.Status, &rec.ErrorMessage, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(
				types.ErrCodeNotFoundSend,
				fmt.Sprintf("send record %q not found", id),
				err,
			)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch send record", err)
	}

	return &rec, nil
}

// GetEngagement returns one ledger row with aggregated open/click/feedback
// counts: the read side of the engagement loop.
func (r *SendRepository) GetEngagement(ctx context.Context, id string) (*types.EngagementSummary, error) {
	rec, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &types.EngagementSummary{Send: *rec}
	row := r.db.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM email_opens    WHERE send_record_id = $1),
			(SELECT COUNT(*) FROM email_clicks   WHERE send_record_id = $1),
			(SELECT COUNT(*) FROM email_feedback WHERE send_record_id = $1)`,
		id,
	)
	if err := row.Scan(&summary.OpenCount, &summary.ClickCount, &summary.FeedbackCount); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to aggregate engagement", err)
	}

	return summary, nil
}

// SweepStale flips rows stuck in "sending" longer than the threshold to
// "failed". A row gets stuck when the process dies between ledger creation
// and reconciliation; the sweep is the documented recovery for that gap.
// Returns the number of rows reaped.
func (r *SendRepository) SweepStale(ctx context.Context, olderThan time.Duration, reason string) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE email_sends SET
			status = 'failed',
			error_message = $1
		 WHERE status = 'sending' AND created_at < $2`,
		reason,
		time.Now().UTC().Add(-olderThan),
	)
	if err != nil {
		return 0, types.NewAppError(types.ErrCodeInternalDB, "failed to sweep stale send records", err)
	}
	return tag.RowsAffected(), nil
}
