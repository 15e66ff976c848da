package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"shopnotify/internal/core"
	"shopnotify/internal/types"
)

// SendReader exposes the ledger read used by the engagement summary
// endpoint.
type SendReader interface {
	GetEngagement(ctx context.Context, id string) (*types.EngagementSummary, error)
}

// SendsHandler serves read access to the send ledger.
type SendsHandler struct {
	sends  SendReader
	logger *slog.Logger
}

func NewSendsHandler(sends SendReader, logger *slog.Logger) *SendsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SendsHandler{sends: sends, logger: logger}
}

// RegisterRoutes mounts the ledger read endpoints onto the v1 router.
func (h *SendsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/sends/{id}", h.HandleGetSend)
}

// HandleGetSend handles GET /v1/sends/{id}: the ledger row plus its open,
// click, and feedback counts.
func (h *SendsHandler) HandleGetSend(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"send id is required", nil))
		return
	}

	summary, err := h.sends.GetEngagement(r.Context(), id)
	if err != nil {
		core.Error(w, r, err)
		return
	}
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: summary})
}
