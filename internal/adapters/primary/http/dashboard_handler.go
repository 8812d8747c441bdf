package http

import (
	"encoding/csv"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lorrc/atendimento-dashboard/internal/adapters/primary/validation"
	"github.com/lorrc/atendimento-dashboard/internal/core/domain"
	"github.com/lorrc/atendimento-dashboard/internal/core/ports"
)

const (
	maxRecordsPerPage = 500
	maxFacetValueLen  = 512
	exportTimeLayout  = "02/01/2006 15:04:05"
)

// exportHeader is the first row of the CSV export.
var exportHeader = []string{"Data/Hora", "Cliente", "Funcionário", "Status", "Tipo", "Sistema", "Canal", "Descrição"}

// DashboardHandler exposes the dashboard session over REST.
type DashboardHandler struct {
	dashboard    ports.DashboardService
	refresh      ports.RefreshService
	errorHandler *ErrorHandler
	location     *time.Location
	clock        func() time.Time
	pageSize     int
	logger       *slog.Logger
}

// NewDashboardHandler creates a new dashboard handler. loc decides what
// "today" is when validating periods and how export timestamps are printed.
func NewDashboardHandler(
	dashboard ports.DashboardService,
	refresh ports.RefreshService,
	errorHandler *ErrorHandler,
	loc *time.Location,
	pageSize int,
	logger *slog.Logger,
) *DashboardHandler {
	if loc == nil {
		loc = time.Local
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	return &DashboardHandler{
		dashboard:    dashboard,
		refresh:      refresh,
		errorHandler: errorHandler,
		location:     loc,
		clock:        time.Now,
		pageSize:     pageSize,
		logger:       logger.With("handler", "dashboard"),
	}
}

// RegisterRoutes sets up the read routes on r and the state-changing routes
// behind protect.
func (h *DashboardHandler) RegisterRoutes(r chi.Router, protect func(http.Handler) http.Handler) {
	r.Get("/", h.HandleGetDashboard)
	r.Get("/records", h.HandleListRecords)
	r.Get("/export.csv", h.HandleExportCSV)

	r.Group(func(r chi.Router) {
		if protect != nil {
			r.Use(protect)
		}
		r.Post("/filters/toggle", h.HandleToggleFilter)
		r.Delete("/filters", h.HandleClearFilters)
		r.Put("/period", h.HandleSetPeriod)
		r.Delete("/period", h.HandleResetPeriod)
		r.Post("/refresh", h.HandleRefresh)
	})
}

// --- Request/Response DTOs ---

// DashboardResponse is the current view: the active filters plus the
// dashboardUpdate payload.
type DashboardResponse struct {
	Filters domain.FilterSnapshot `json:"filters"`
	domain.DashboardUpdate
}

func toDashboardResponse(view ports.DashboardView) DashboardResponse {
	return DashboardResponse{
		Filters:         view.Filters,
		DashboardUpdate: view.Update,
	}
}

// ToggleFilterRequest defines the body of POST /filters/toggle
type ToggleFilterRequest struct {
	Facet string `json:"facet"`
	Value string `json:"value"`
}

// Validate validates the toggle request
func (r *ToggleFilterRequest) Validate() error {
	return validation.NewValidator().
		Required("facet", r.Facet).
		MaxLength("value", r.Value, maxFacetValueLen).
		Err()
}

// SetPeriodRequest defines the body of PUT /period
type SetPeriodRequest struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate validates the period request
func (r *SetPeriodRequest) Validate() error {
	return validation.NewValidator().
		Required("start", r.Start).
		Required("end", r.End).
		Err()
}

// --- Handlers ---

// HandleGetDashboard handles GET /dashboard
func (h *DashboardHandler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, toDashboardResponse(h.dashboard.Current(r.Context())))
}

// HandleListRecords handles GET /dashboard/records
func (h *DashboardHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	pagination := validation.ParsePagination(r, h.pageSize, maxRecordsPerPage)
	records := h.dashboard.Current(r.Context()).Update.Records

	WritePaginated(w, records, pagination.Limit, pagination.Offset)
}

// HandleExportCSV handles GET /dashboard/export.csv
func (h *DashboardHandler) HandleExportCSV(w http.ResponseWriter, r *http.Request) {
	records := h.dashboard.Current(r.Context()).Update.Records

	filename := "atendimentos_" + h.now().Format("2006-01-02") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)

	// UTF-8 BOM so spreadsheet tools pick the right encoding for accented headers.
	_, _ = w.Write([]byte("\ufeff"))

	writer := csv.NewWriter(w)
	_ = writer.Write(exportHeader)
	for _, rec := range records {
		_ = writer.Write([]string{
			h.exportTimestamp(rec.Timestamp),
			rec.Client,
			rec.Employee,
			string(rec.Status),
			rec.Type,
			rec.System,
			rec.Channel,
			rec.Description,
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write csv export", "error", err)
	}
}

// HandleToggleFilter handles POST /dashboard/filters/toggle
func (h *DashboardHandler) HandleToggleFilter(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[ToggleFilterRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	facet, err := domain.ParseFacet(req.Facet)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.dashboard.Toggle(r.Context(), facet, req.Value)
	h.writeView(w, r)
}

// HandleClearFilters handles DELETE /dashboard/filters
func (h *DashboardHandler) HandleClearFilters(w http.ResponseWriter, r *http.Request) {
	h.dashboard.Clear(r.Context())
	h.writeView(w, r)
}

// HandleSetPeriod handles PUT /dashboard/period
func (h *DashboardHandler) HandleSetPeriod(w http.ResponseWriter, r *http.Request) {
	req, err := validation.DecodeAndValidate[SetPeriodRequest](r)
	if HandleError(w, r, err, h.errorHandler) {
		return
	}

	period := domain.Period{Start: req.Start, End: req.End}
	if err := domain.ValidatePeriod(period, h.now()); HandleError(w, r, err, h.errorHandler) {
		return
	}

	h.dashboard.SetPeriod(r.Context(), period.Start, period.End)
	h.writeView(w, r)
}

// HandleResetPeriod handles DELETE /dashboard/period
func (h *DashboardHandler) HandleResetPeriod(w http.ResponseWriter, r *http.Request) {
	h.dashboard.ResetPeriod(r.Context())
	h.writeView(w, r)
}

// HandleRefresh handles POST /dashboard/refresh
func (h *DashboardHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if HandleError(w, r, h.refresh.Refresh(r.Context()), h.errorHandler) {
		return
	}
	h.writeView(w, r)
}

func (h *DashboardHandler) writeView(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, toDashboardResponse(h.dashboard.Current(r.Context())))
}

func (h *DashboardHandler) now() time.Time {
	return h.clock().In(h.location)
}

// exportTimestamp prints parsable timestamps as dd/mm/yyyy hh:mm:ss and
// everything else as stored.
func (h *DashboardHandler) exportTimestamp(value string) string {
	t, ok := domain.ParseTimestamp(value, h.location)
	if !ok {
		return value
	}
	return t.Format(exportTimeLayout)
}
