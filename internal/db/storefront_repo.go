package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"shopnotify/internal/types"
)

// StorefrontRepository reads order, shipment, and company data owned by the
// storefront's CRUD layer. This service never writes to those tables.
type StorefrontRepository struct {
	db DBTX
}

// NewStorefrontRepository creates a StorefrontRepository backed by the given
// database connection.
func NewStorefrontRepository(db DBTX) *StorefrontRepository {
	return &StorefrontRepository{db: db}
}

// GetOrderWithItems fetches an order and its line items. A missing order is
// a hard failure for the send pipeline (not_found_order).
func (r *StorefrontRepository) GetOrderWithItems(ctx context.Context, orderID string) (*types.Order, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, customer_name, customer_email, status, total, created_at
		 FROM orders
		 WHERE id = $1`,
		orderID,
	)

	var o types.Order
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerEmail, &o.Status, &o.Total, &o.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(
				types.ErrCodeNotFoundOrder,
				fmt.Sprintf("order %q not found", orderID),
				err,
			)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch order", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT product_id, name, description, quantity, price
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item types.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Description, &item.Quantity, &item.Price); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan order item", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating order items", err)
	}

	return &o, nil
}

// GetShipment fetches a shipment by id. A missing shipment is a hard failure
// for the send pipeline (not_found_shipment).
func (r *StorefrontRepository) GetShipment(ctx context.Context, shipmentID string) (*types.Shipment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT id, order_id, customer_name, customer_email, tracking_number, carrier, status, updated_at
		 FROM shipments
		 WHERE id = $1`,
		shipmentID,
	)

	var s types.Shipment
	err := row.Scan(&s.ID, &s.OrderID, &s.CustomerName, &s.CustomerEmail,
		&s.TrackingNumber, &s.Carrier, &s.Status, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(
				types.ErrCodeNotFoundShipment,
				fmt.Sprintf("shipment %q not found", shipmentID),
				err,
			)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch shipment", err)
	}

	return &s, nil
}

// GetCompanyInfo returns the sender's company profile. A missing profile is
// not an error: notification delivery must not be blocked by absent company
// metadata, so the zero value (all empty strings) is returned instead.
func (r *StorefrontRepository) GetCompanyInfo(ctx context.Context) (types.CompanyInfo, error) {
	row := r.db.QueryRow(ctx,
		`SELECT name, email, phone, address, website
		 FROM company_info
		 ORDER BY id
		 LIMIT 1`,
	)

	var c types.CompanyInfo
	err := row.Scan(&c.Name, &c.Email, &c.Phone, &c.Address, &c.Website)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.CompanyInfo{}, nil
		}
		return types.CompanyInfo{}, types.NewAppError(types.ErrCodeInternalDB, "failed to fetch company info", err)
	}

	return c, nil
}
