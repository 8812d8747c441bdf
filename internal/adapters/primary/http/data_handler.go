package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

// DataErrorResponse is the GET /api/data failure body.
type DataErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

// DataHandler serves the unfiltered dataset that renderers bootstrap from.
type DataHandler struct {
	source ports.DatasetSource
	logger *slog.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(source ports.DatasetSource, logger *slog.Logger) *DataHandler {
	return &DataHandler{
		source: source,
		logger: logger.With("handler", "data"),
	}
}

// RegisterRoutes mounts GET / on r.
func (h *DataHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGetData)
}

// HandleGetData handles GET /api/data
func (h *DataHandler) HandleGetData(w http.ResponseWriter, r *http.Request) {
	dataset, err := h.source.Load(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load dataset", "error", err)
		WriteJSON(w, http.StatusInternalServerError, DataErrorResponse{
			Error:   true,
			Message: "Failed to load dataset",
		})
		return
	}

	WriteJSON(w, http.StatusOK, dataset)
}
