package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/LizBugFree/network-monitor-demo/internal/api/dto"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/errors"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/utils"
	"github.com/LizBugFree/network-monitor-demo/internal/repository/docstore"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
)

// SnapshotHandler serves the latest persisted summaries to the dashboard
type SnapshotHandler struct {
	reader    *services.SnapshotReader
	projectID string
	logger    *logger.Logger
}

// NewSnapshotHandler creates a read handler for projectID
func NewSnapshotHandler(reader *services.SnapshotReader, projectID string, log *logger.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		reader:    reader,
		projectID: projectID,
		logger:    log,
	}
}

// LatestInventory returns the newest network-inventory summary
func (h *SnapshotHandler) LatestInventory(w http.ResponseWriter, r *http.Request) {
	h.serveLatest(w, r, h.reader.LatestInventory)
}

// LatestMetricsSummary returns the newest metrics summary
func (h *SnapshotHandler) LatestMetricsSummary(w http.ResponseWriter, r *http.Request) {
	h.serveLatest(w, r, h.reader.LatestMetricsSummary)
}

// CycleRecords returns the records one cycle wrote to a record collection.
// The cycle is selected by its timestamp query parameter.
func (h *SnapshotHandler) CycleRecords(w http.ResponseWriter, r *http.Request) {
	collection := chi.URLParam(r, "collection")
	if !services.IsRecordCollection(collection) {
		utils.WriteError(w, errors.NotFound("collection "+collection))
		return
	}
	timestamp := r.URL.Query().Get("timestamp")
	if timestamp == "" {
		utils.WriteError(w, errors.BadRequest("timestamp query parameter is required"))
		return
	}
	projectID, ok := h.project(w, r)
	if !ok {
		return
	}

	records, err := h.reader.Records(r.Context(), collection, projectID, timestamp)
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	resp := dto.RecordsResponse{
		Collection: collection,
		Timestamp:  timestamp,
		Count:      len(records),
		Records:    make([]dto.DocumentResponse, 0, len(records)),
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, dto.DocumentResponse{ID: rec.ID, Data: rec.Data})
	}
	utils.WriteSuccess(w, http.StatusOK, resp)
}

func (h *SnapshotHandler) serveLatest(w http.ResponseWriter, r *http.Request, latest func(context.Context, string) (docstore.Record, error)) {
	projectID, ok := h.project(w, r)
	if !ok {
		return
	}

	rec, err := latest(r.Context(), projectID)
	if err != nil {
		h.writeReadError(w, err)
		return
	}

	utils.WriteSuccess(w, http.StatusOK, dto.DocumentResponse{ID: rec.ID, Data: rec.Data})
}

func (h *SnapshotHandler) project(w http.ResponseWriter, r *http.Request) (string, bool) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		projectID = h.projectID
	}
	if projectID == "" {
		utils.WriteError(w, errors.BadRequest(services.MissingProjectMessage))
		return "", false
	}
	return projectID, true
}

func (h *SnapshotHandler) writeReadError(w http.ResponseWriter, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Internal("Failed to read snapshot", err)
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		h.logger.ErrorWithErr(err, "Failed to read snapshot")
	}
	utils.WriteError(w, appErr)
}
