package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/school-portal-api/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestReadyReportsDegradedDependency(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	broken := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	router := newTestRouter()
	router.GET("/ready", NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy}).Ready)
	router.GET("/ready-broken", NewMetricsHandler(nil, map[string]Pinger{"postgres": healthy, "redis": broken}).Ready)

	rec := serve(router, jsonRequest(t, http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(router, jsonRequest(t, http.MethodGet, "/ready-broken", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestPrometheusEndpoint(t *testing.T) {
	router := newTestRouter()
	router.GET("/metrics", NewMetricsHandler(service.NewMetricsService(), nil).Prometheus)
	router.GET("/health", NewMetricsHandler(nil, nil).Health)

	rec := serve(router, jsonRequest(t, http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "school_portal_goroutines")

	assert.Equal(t, http.StatusOK, serve(router, jsonRequest(t, http.MethodGet, "/health", nil)).Code)
}
