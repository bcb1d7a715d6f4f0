package http

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/domain"
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Version версия сервиса в ответах health и metrics
const Version = "1.0.0"

// PlanLister is the storage call used as the database probe.
type PlanLister interface {
	ListPlans(ctx context.Context) ([]domain.Plan, error)
}

// HealthHandler обработчик health checks
type HealthHandler struct {
	storage   PlanLister
	processor analytics.ProcessorInterface
	analytics *analytics.Service
	limiter   *RateLimiter
	log       *zap.Logger
}

// NewHealthHandler создает новый health handler
func NewHealthHandler(storage PlanLister, processor analytics.ProcessorInterface, svc *analytics.Service, limiter *RateLimiter, log *zap.Logger) *HealthHandler {
	return &HealthHandler{
		storage:   storage,
		processor: processor,
		analytics: svc,
		limiter:   limiter,
		log:       log,
	}
}

// HealthResponse структура ответа health check
type HealthResponse struct {
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Version        string    `json:"version"`
	DatabaseStatus string    `json:"database_status"`
	Uptime         string    `json:"uptime,omitempty"`
}

var startTime = time.Now()

// Health основной health check endpoint
//
//	@Summary	Health check
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	HealthResponse
//	@Failure	503	{object}	HealthResponse
//	@Router		/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Проверяем состояние базы данных: планы засеяны всегда
	dbStatus := "healthy"
	if _, err := h.storage.ListPlans(ctx); err != nil {
		dbStatus = "unhealthy"
		h.log.Error("database health check failed", zap.Error(err))
	}

	status := "healthy"
	statusCode := http.StatusOK
	if dbStatus == "unhealthy" {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(w, HealthResponse{
		Status:         status,
		Timestamp:      time.Now(),
		Version:        Version,
		DatabaseStatus: dbStatus,
		Uptime:         time.Since(startTime).String(),
	}, statusCode)

	if status == "healthy" {
		h.log.Debug("health check passed")
	} else {
		h.log.Warn("health check failed", zap.String("database_status", dbStatus))
	}
}

// Ready readiness probe: ready once the analytics processor accepts visits
//
//	@Summary	Readiness probe
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Failure	503	{object}	map[string]interface{}
//	@Router		/ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	started, _ := h.processor.GetStats()["started"].(bool)

	status, code := "ready", http.StatusOK
	if !started {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	writeJSON(w, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now(),
	}, code)
}

// Metrics endpoint с метриками процессора, кэша и rate limiter
//
//	@Summary	Runtime metrics
//	@Tags		System
//	@Produce	json
//	@Success	200	{object}	map[string]interface{}
//	@Router		/metrics [get]
func (h *HealthHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	metrics := map[string]interface{}{
		"uptime_seconds": time.Since(startTime).Seconds(),
		"timestamp":      time.Now(),
		"version":        Version,
		"processor":      h.processor.GetStats(),
		"rollup_cache":   h.analytics.CacheLen(),
	}
	if h.limiter != nil {
		metrics["rate_limited_clients"] = h.limiter.Clients()
	}

	writeJSON(w, metrics, http.StatusOK)
}
