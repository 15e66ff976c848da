package db

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopnotify/internal/types"
)

func TestTemplateRepository_GetActiveByType_Success(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewTemplateRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"),
		mock.MatchedBy(func(args []any) bool {
			return len(args) == 1 && args[0] == "order_status_update"
		})).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*string) = "tpl-1"
			*dest[1].(*types.TemplateType) = types.TemplateOrderStatus
			*dest[2].(*string) = "{{statusEmoji}} {{statusTitle}}"
			*dest[3].(*string) = "<p>{{customerName}}</p>"
			*dest[4].(*[]string) = []string{"customerName", "statusTitle"}
			*dest[5].(*bool) = true
			*dest[6].(*time.Time) = time.Now()
			return nil
		}})

	tpl, err := repo.GetActiveByType(context.Background(), types.TemplateOrderStatus)
	require.NoError(t, err)

	assert.Equal(t, "tpl-1", tpl.ID)
	assert.True(t, tpl.IsActive)
	assert.Equal(t, types.TemplateOrderStatus, tpl.Type)
}

func TestTemplateRepository_GetActiveByType_NoneActive(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewTemplateRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetActiveByType(context.Background(), types.TemplateShipmentUpdate)
	require.Error(t, err)

	// Zero active templates is a hard configuration failure, never a
	// silent fallback.
	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeConfigTemplateNotFound, appErr.Code)
	assert.True(t, types.IsConfigError(err))
}
