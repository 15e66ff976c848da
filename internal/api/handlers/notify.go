// Package handlers contains the HTTP handler implementations for the
// notification API: send triggers, engagement capture, and ledger reads.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopnotify/internal/core"
	"shopnotify/internal/email"
	"shopnotify/internal/types"
)

// NotificationServiceInterface defines the service contract for the trigger
// handler. Matches the email.Service methods but is defined locally to avoid
// tight coupling per the handler injection pattern.
type NotificationServiceInterface interface {
	SendOrderStatus(ctx context.Context, orderID, statusCode string) (*email.Outcome, error)
	SendShipmentUpdate(ctx context.Context, shipmentID, statusCode string) (*email.Outcome, error)
}

// NotifyHandler maps the trigger endpoints to the notification service.
type NotifyHandler struct {
	service NotificationServiceInterface
	logger  *slog.Logger
}

func NewNotifyHandler(svc NotificationServiceInterface, logger *slog.Logger) *NotifyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotifyHandler{service: svc, logger: logger}
}

// RegisterRoutes mounts the trigger endpoints onto the v1 router.
func (h *NotifyHandler) RegisterRoutes(r chi.Router) {
	r.Post("/notifications/order-status", h.HandleOrderStatus)
	r.Post("/notifications/shipment-update", h.HandleShipmentUpdate)
}

type orderStatusRequest struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type shipmentUpdateRequest struct {
	ShipmentID string `json:"shipment_id"`
	Status     string `json:"status"`
}

// HandleOrderStatus handles POST /v1/notifications/order-status. The call is
// synchronous: the response carries the ledger id and the reconciled outcome
// of the dispatch.
func (h *NotifyHandler) HandleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req orderStatusRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := requireFields(map[string]string{
		"order_id": req.OrderID,
		"status":   req.Status,
	}); err != nil {
		core.Error(w, r, err)
		return
	}

	outcome, err := h.service.SendOrderStatus(r.Context(), req.OrderID, req.Status)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: outcome})
}

// HandleShipmentUpdate handles POST /v1/notifications/shipment-update.
func (h *NotifyHandler) HandleShipmentUpdate(w http.ResponseWriter, r *http.Request) {
	var req shipmentUpdateRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := requireFields(map[string]string{
		"shipment_id": req.ShipmentID,
		"status":      req.Status,
	}); err != nil {
		core.Error(w, r, err)
		return
	}

	outcome, err := h.service.SendShipmentUpdate(r.Context(), req.ShipmentID, req.Status)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: outcome})
}

// requireFields returns a validation error naming every empty field.
func requireFields(fields map[string]string) error {
	missing := make([]string, 0, len(fields))
	for name, value := range fields {
		if value == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	err := types.NewAppError(types.ErrCodeValidationMissingField, "required fields are missing", nil)
	err.Details = map[string]any{"fields": missing}
	return err
}
