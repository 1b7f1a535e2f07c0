package handlers

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gestion2026/ledger/internal/api/middleware"
	"github.com/gestion2026/ledger/internal/warehouse"
)

// WarehouseHandler exposes the mirrored BigQuery aggregates. Only routed
// when the mirror is configured.
type WarehouseHandler struct {
	mirror *warehouse.Mirror
	log    zerolog.Logger
}

// NewWarehouseHandler creates the warehouse handler.
func NewWarehouseHandler(mirror *warehouse.Mirror, log zerolog.Logger) *WarehouseHandler {
	return &WarehouseHandler{mirror: mirror, log: log}
}

// Totals handles GET /api/dashboard/warehouse.
func (h *WarehouseHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.mirror.TotalsByCurrency(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query warehouse totals")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query warehouse totals")
		return
	}
	if totals == nil {
		totals = []warehouse.CurrencyTotal{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"totals": totals,
		"count":  len(totals),
	})
}
