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

func TestStorefrontRepository_GetOrderWithItems(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewStorefrontRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanFn: func(dest ...any) error {
			*dest[0].(*string) = "order-1"
			*dest[1].(*string) = "Ana Pop"
			*dest[2].(*string) = "ana@example.com"
			*dest[3].(*string) = "confirmed"
			*dest[4].(*float64) = 149.90
			*dest[5].(*time.Time) = time.Now()
			return nil
		}})
	dbx.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&itemMockRows{data: []itemRowData{
			{productID: "p1", name: "Cafea boabe", description: "Arabica", quantity: 2, price: 49.95},
			{productID: "p2", name: "Cană", description: "Ceramică", quantity: 1, price: 50.00},
		}}, nil)

	o, err := repo.GetOrderWithItems(context.Background(), "order-1")
	require.NoError(t, err)

	assert.Equal(t, "Ana Pop", o.CustomerName)
	require.Len(t, o.Items, 2)
	assert.Equal(t, 2, o.Items[0].Quantity)
}

func TestStorefrontRepository_GetOrder_NotFound(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewStorefrontRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	_, err := repo.GetOrderWithItems(context.Background(), "missing")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeNotFoundOrder, appErr.Code)
}

func TestStorefrontRepository_GetCompanyInfo_MissingDefaultsToEmpty(t *testing.T) {
	dbx := new(mockDBTX)
	repo := NewStorefrontRepository(dbx)

	dbx.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&mockRow{scanErr: pgx.ErrNoRows})

	// Missing company metadata must not block delivery.
	c, err := repo.GetCompanyInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.CompanyInfo{}, c)
}
