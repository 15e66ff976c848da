package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// mockDBTX is a testify mock of the DBTX interface shared by all repository
// tests in this package.
type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// mockRow implements pgx.Row with an injectable scan function.
type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// itemMockRows implements pgx.Rows over order_items fixtures.
type itemMockRows struct {
	data   []itemRowData
	idx    int
	closed bool
	errVal error
}

type itemRowData struct {
	productID   string
	name        string
	description string
	quantity    int
	price       float64
}

func (r *itemMockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx <= len(r.data)
}

func (r *itemMockRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]
	*dest[0].(*string) = row.productID
	*dest[1].(*string) = row.name
	*dest[2].(*string) = row.description
	*dest[3].(*int) = row.quantity
	*dest[4].(*float64) = row.price
	return nil
}

func (r *itemMockRows) Close()                                        { r.closed = true }
func (r *itemMockRows) Err() error                                    { return r.errVal }
func (r *itemMockRows) CommandTag() pgconn.CommandTag                 { return pgconn.CommandTag{} }
func (r *itemMockRows) FieldDescriptions() []pgconn.FieldDescription  { return nil }
func (r *itemMockRows) RawValues() [][]byte                           { return nil }
func (r *itemMockRows) Values() ([]any, error)                        { return nil, nil }
func (r *itemMockRows) Conn() *pgx.Conn                               { return nil }
