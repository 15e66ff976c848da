package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopnotify/internal/types"
)

func TestEventRepository_InsertOpen_GeneratesIDAndTimestamp(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewEventRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	e := &types.OpenEvent{
		SendRecordID:   "send-1",
		RecipientEmail: "ana@example.com",
		IPAddress:      "203.0.113.9",
		UserAgent:      "Mozilla/5.0",
	}
	require.NoError(t, repo.InsertOpen(context.Background(), e))

	assert.NotEmpty(t, e.ID)
	assert.False(t, e.OpenedAt.IsZero())
}

func TestEventRepository_InsertClick_CarriesOriginalURL(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewEventRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"),
		mock.MatchedBy(func(args []any) bool {
			return len(args) == 7 && args[3] == "https://shop.example.com/products/cafea"
		})).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	e := &types.ClickEvent{
		SendRecordID:   "send-1",
		RecipientEmail: "ana@example.com",
		LinkURL:        "https://shop.example.com/products/cafea",
	}
	require.NoError(t, repo.InsertClick(context.Background(), e))
	dbx.AssertExpectations(t)
}

func TestEventRepository_InsertFeedback_AllowsRepeats(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewEventRepository(dbx)

	dbx.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Twice()

	for i := 0; i < 2; i++ {
		e := &types.FeedbackEvent{
			SendRecordID:   "send-1",
			RecipientEmail: "ana@example.com",
			Rating:         5,
		}
		require.NoError(t, repo.InsertFeedback(context.Background(), e))
	}

	// Two submissions, two inserts: appends, never upserts.
	dbx.AssertNumberOfCalls(t, "Exec", 2)
}
