package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", CORSOrigins: []string{"*"}},
		App:    config.AppConfig{Environment: "development", Version: "test"},
		Storage: config.StorageConfig{
			DatabasePath: ":memory:",
			SessionTTL:   time.Hour,
		},
		Admin: config.AdminConfig{
			VisitorRetention: time.Hour,
			CleanupSchedule:  "@daily",
			EvictionSchedule: "@every 15m",
		},
	}
}

func healthChecks(t *testing.T, h http.Handler) map[string]string {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Checks
}

func TestNewServiceWiresDependencies(t *testing.T) {
	svc, err := newService(context.Background(), testConfig(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.close)

	assert.Equal(t, ":0", svc.http.Addr)
	assert.Equal(t, 2, svc.sched.Len())
	assert.Equal(t, map[string]string{"sqlite": "up"}, healthChecks(t, svc.http.Handler))

	// Without a token the admin API is not mounted.
	rec := httptest.NewRecorder()
	svc.http.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewServiceWithRedisAndAdmin(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Storage.RedisURL = "redis://" + mr.Addr()
	cfg.Admin.Token = "secret"

	svc, err := newService(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(svc.close)

	assert.Equal(t, "up", healthChecks(t, svc.http.Handler)["redis"])

	req := httptest.NewRequest(http.MethodGet, "/admin/api/stats", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	svc.http.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewServiceRejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Admin.EvictionSchedule = "whenever"

	_, err := newService(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestRunServeNeedsConfiguredContext(t *testing.T) {
	serveCmd.SetContext(context.Background())
	err := runServe(serveCmd, nil)
	assert.Error(t, err)
}
