// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taibuivan/crewdesk/internal/platform/respond"
)

// probeTimeout bounds a single dependency check.
const probeTimeout = 2 * time.Second

// HealthDependencies holds the injectable dependency checkers for the /ready endpoint.
type HealthDependencies struct {
	// CheckDatabase pings the PostgreSQL pool.
	CheckDatabase func(ctx context.Context) error

	// CheckCache pings the Redis client. Nil when counters live in memory.
	CheckCache func(ctx context.Context) error
}

// HealthHandlers are the probe endpoints.
type HealthHandlers struct {
	Liveness  http.HandlerFunc
	Readiness http.HandlerFunc
	Ping      http.HandlerFunc
}

type healthHandler struct {
	dependencies HealthDependencies
	logger       *slog.Logger
}

type checkResult struct {
	Name  string `json:"name"`
	IsOK  bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// NewHealthHandlers creates the /health, /ready and /api/ping handlers.
func NewHealthHandlers(deps HealthDependencies, logger *slog.Logger) HealthHandlers {
	handler := &healthHandler{dependencies: deps, logger: logger}
	return HealthHandlers{
		Liveness:  handler.liveness,
		Readiness: handler.readiness,
		Ping:      handler.ping,
	}
}

// liveness handles GET /health (Liveness probe).
func (handler *healthHandler) liveness(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, map[string]string{"status": "ok"})
}

func (handler *healthHandler) check(ctx context.Context, name string, probe func(context.Context) error) checkResult {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	result := checkResult{Name: name, IsOK: true}
	if err := probe(ctx); err != nil {
		result.IsOK = false
		result.Error = err.Error()
		handler.logger.ErrorContext(ctx, "readiness_check_failed", slog.String("dependency", name), slog.Any("error", err))
	}
	return result
}

// readiness handles GET /ready (Readiness probe).
func (handler *healthHandler) readiness(writer http.ResponseWriter, request *http.Request) {
	results := make([]checkResult, 0, 2)

	if handler.dependencies.CheckDatabase != nil {
		results = append(results, handler.check(request.Context(), "postgres", handler.dependencies.CheckDatabase))
	}
	if handler.dependencies.CheckCache != nil {
		results = append(results, handler.check(request.Context(), "redis", handler.dependencies.CheckCache))
	}

	responseStatus, httpStatus := "ready", http.StatusOK
	for _, result := range results {
		if !result.IsOK {
			responseStatus, httpStatus = "degraded", http.StatusServiceUnavailable
			break
		}
	}

	respond.JSON(writer, httpStatus, respond.SuccessEnvelope{Data: map[string]any{
		"status": responseStatus,
		"checks": results,
	}})
}

// ping handles GET /api/ping: a database round trip with no detail on failure.
func (handler *healthHandler) ping(writer http.ResponseWriter, request *http.Request) {
	if handler.dependencies.CheckDatabase != nil {
		if result := handler.check(request.Context(), "postgres", handler.dependencies.CheckDatabase); !result.IsOK {
			respond.JSON(writer, http.StatusServiceUnavailable, respond.SuccessEnvelope{Data: map[string]string{"status": "error"}})
			return
		}
	}
	respond.OK(writer, map[string]string{"status": "ok"})
}
