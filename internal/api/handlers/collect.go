package handlers

import (
	"context"
	"net/http"

	"github.com/LizBugFree/network-monitor-demo/internal/api/dto"
	"github.com/LizBugFree/network-monitor-demo/internal/api/middleware"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/logger"
	"github.com/LizBugFree/network-monitor-demo/internal/pkg/utils"
	"github.com/LizBugFree/network-monitor-demo/internal/providers"
	"github.com/LizBugFree/network-monitor-demo/internal/services"
)

// NetworkRunner runs one network collection cycle
type NetworkRunner interface {
	Run(ctx context.Context, projectID string) (*services.NetworkCycleResult, error)
}

// MetricsRunner runs one metrics collection cycle
type MetricsRunner interface {
	Run(ctx context.Context, projectID string, durationMinutes int) (*services.MetricsCycleResult, error)
}

// CollectHandler triggers collection cycles over HTTP
type CollectHandler struct {
	network   NetworkRunner
	metrics   MetricsRunner
	projectID string
	logger    *logger.Logger
}

// NewCollectHandler creates a trigger handler for projectID
func NewCollectHandler(network NetworkRunner, metrics MetricsRunner, projectID string, log *logger.Logger) *CollectHandler {
	return &CollectHandler{
		network:   network,
		metrics:   metrics,
		projectID: projectID,
		logger:    log,
	}
}

// CollectNetwork runs a network cycle and reports its counts and insights
func (h *CollectHandler) CollectNetwork(w http.ResponseWriter, r *http.Request) {
	if h.projectID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, dto.MissingProjectResponse{Error: services.MissingProjectMessage})
		return
	}

	// The cycle outlives a disconnected caller
	res, err := h.network.Run(context.WithoutCancel(r.Context()), h.projectID)
	if err != nil {
		h.logger.With("request_id", middleware.GetRequestID(r)).ErrorWithErr(err, "Network collection failed")
		utils.WriteCollectionFailure(w, http.StatusInternalServerError, err)
		return
	}

	middleware.AddLogField(w, "cycle_timestamp", res.Timestamp)
	utils.WriteJSON(w, http.StatusOK, dto.NewNetworkCollectionResponse(res))
}

// CollectMetrics runs a metrics cycle over ?duration= minutes (default 60, clamped to 5..1440)
func (h *CollectHandler) CollectMetrics(w http.ResponseWriter, r *http.Request) {
	if h.projectID == "" {
		utils.WriteJSON(w, http.StatusBadRequest, dto.MissingProjectResponse{Error: services.MissingProjectMessage})
		return
	}

	duration := providers.ParseDuration(r.URL.Query().Get("duration"))
	res, err := h.metrics.Run(context.WithoutCancel(r.Context()), h.projectID, duration)
	if err != nil {
		h.logger.With("request_id", middleware.GetRequestID(r)).ErrorWithErr(err, "Metrics collection failed")
		utils.WriteCollectionFailure(w, http.StatusInternalServerError, err)
		return
	}

	middleware.AddLogField(w, "cycle_timestamp", res.Timestamp)
	utils.WriteJSON(w, http.StatusOK, dto.NewMetricsCollectionResponse(res))
}
