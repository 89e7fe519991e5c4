package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/delivery/http/request"
	"github.com/user/equipment-scraper/internal/delivery/http/response"
	"github.com/user/equipment-scraper/internal/entity"
	"github.com/user/equipment-scraper/internal/export"
	"github.com/user/equipment-scraper/internal/repository"
	"github.com/user/equipment-scraper/internal/usecase"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
	maxRecordBytes  = 1 << 20
)

type Handler struct {
	maintenance usecase.Maintenance
	persister   usecase.Persister
	runner      usecase.Runner
	logger      *zap.Logger
}

func NewHandler(maintenance usecase.Maintenance, persister usecase.Persister, runner usecase.Runner, logger *zap.Logger) *Handler {
	return &Handler{
		maintenance: maintenance,
		persister:   persister,
		runner:      runner,
		logger:      logger,
	}
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.maintenance.Ping(ctx); err != nil {
		h.logger.Error("health check failed for store", zap.Error(err))
		h.writeJSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "degraded", Store: "unhealthy"})
		return
	}
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok", Store: "healthy"})
}

func (h *Handler) HandleListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.maintenance.ListTables(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.TablesResponse{Tables: tables})
}

func (h *Handler) HandleDescribeTable(w http.ResponseWriter, r *http.Request) {
	ts, err := h.maintenance.Describe(r.Context(), chi.URLParam(r, "table"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.TableResponse{Table: ts.Table, Columns: ts.Columns})
}

func (h *Handler) HandleRows(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultRowLimit)
	if err != nil || limit < 1 || limit > maxRowLimit {
		h.writeJSONError(w, fmt.Sprintf("limit must be between 1 and %d", maxRowLimit), http.StatusBadRequest)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		h.writeJSONError(w, "offset must be a non-negative integer", http.StatusBadRequest)
		return
	}

	data, err := h.maintenance.Rows(r.Context(), chi.URLParam(r, "table"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, response.RowsResponse{
		Table:   data.Table,
		Columns: data.Columns,
		Rows:    data.Rows,
		Limit:   limit,
		Offset:  offset,
	})
}

func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	table := chi.URLParam(r, "table")

	// Describe first so a missing table still gets a JSON error.
	ts, err := h.maintenance.Describe(r.Context(), table)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ts.Table+format.Extension()))
	if err := h.maintenance.Export(r.Context(), ts.Table, format, w); err != nil {
		h.logger.Error("export failed mid-stream", zap.String("table", ts.Table), zap.Error(err))
	}
}

func (h *Handler) HandlePersistRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := request.DecodeRecord(http.MaxBytesReader(w, r.Body, maxRecordBytes))
	if err != nil {
		h.writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	table := chi.URLParam(r, "table")
	ds := entity.Dataset{
		Name:     table,
		Table:    table,
		Identity: request.IdentityParam(r.URL.Query().Get("identity")),
	}
	res, err := h.persister.Persist(r.Context(), ds, rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	added := res.AddedColumns
	if added == nil {
		added = []string{}
	}
	h.writeJSON(w, http.StatusCreated, response.PersistResponse{
		ID:           res.ID,
		Table:        res.Table,
		AddedColumns: added,
		Created:      res.Created,
	})
}

func (h *Handler) HandleDropTable(w http.ResponseWriter, r *http.Request) {
	if err := h.maintenance.Drop(r.Context(), chi.URLParam(r, "table")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets := h.runner.Datasets()
	if datasets == nil {
		datasets = []entity.Dataset{}
	}
	h.writeJSON(w, http.StatusOK, response.DatasetsResponse{Datasets: datasets})
}

func (h *Handler) HandleRunDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	stats, err := h.runner.Run(r.Context(), name)
	if err != nil && stats == nil {
		h.writeError(w, r, err)
		return
	}
	if err != nil {
		h.writeJSON(w, statusFor(err), response.RunResponse{Stats: stats, Error: err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, response.RunResponse{Stats: stats})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, repository.ErrInvalidIdentifier),
		errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrTableNotFound),
		errors.Is(err, usecase.ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase.ErrDuplicateRecord):
		return http.StatusConflict
	case errors.Is(err, usecase.ErrMalformedRecord),
		errors.Is(err, repository.ErrWriteRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		if status == http.StatusInternalServerError {
			h.writeJSONError(w, "Internal server error", status)
			return
		}
	}
	h.writeJSONError(w, err.Error(), status)
}

func intParam(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
