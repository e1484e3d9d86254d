package bootstrap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/ward-mar-api/internal/models"
	"github.com/noah-isme/ward-mar-api/internal/service"
	"github.com/noah-isme/ward-mar-api/pkg/config"
)

func redisConfig(t *testing.T) (*config.Config, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	host, portRaw, found := strings.Cut(mr.Addr(), ":")
	require.True(t, found)
	port, err := strconv.Atoi(portRaw)
	require.NoError(t, err)
	return &config.Config{
		Env:       config.EnvDevelopment,
		APIPrefix: "/api/v1",
		Redis:     config.RedisConfig{Host: host, Port: port},
		Mar: config.MarConfig{
			Source:         config.SourceRedis,
			Location:       time.UTC,
			RedisKeyPrefix: "mar",
		},
	}, mr
}

func TestOpenSourceRedisAndServeReport(t *testing.T) {
	cfg, _ := redisConfig(t)
	source, err := OpenSource(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })
	require.NotNil(t, source.Store)
	assert.Equal(t, config.SourceRedis, source.Name)
	require.NoError(t, source.Ready(context.Background()))

	require.NoError(t, source.Store.Replace(context.Background(), &models.MarSnapshot{
		Visits: []models.Visit{{ID: "V1", DeptCode: "ICU"}},
		Items:  []models.MedicationItem{{ID: "M1", VisitID: "V1", Status: models.MedicationStatusMissed}},
	}))

	router := NewRouter(cfg, zap.NewNop(), source, service.NewMetricsService())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mar/patients?deptCode=ICU", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"missed":1`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mar/patients/export?format=csv", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mar_reports_total")
}

func TestRouterRequiresTokenWhenAuthEnabled(t *testing.T) {
	cfg, _ := redisConfig(t)
	cfg.JWT = config.JWTConfig{Enabled: true, Secret: "secret"}
	cfg.Mar.ExportEnabled = true
	source, err := OpenSource(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = source.Close() })

	router := NewRouter(cfg, zap.NewNop(), source, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/mar/patients", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := service.NewTokenService(service.TokenConfig{Secret: "secret"}).IssueToken("nurse-1", models.RoleNurse, "ICU", time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/mar/patients/export?format=xlsx", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
}

func TestOpenSourceHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Mar:       config.MarConfig{Source: config.SourceHTTP},
		Directory: config.DirectoryConfig{BaseURL: srv.URL, Timeout: time.Second},
	}
	source, err := OpenSource(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, source.Store)
	assert.NoError(t, source.Ready(context.Background()))
	assert.NoError(t, source.Close())
}

func TestOpenSourceUnsupported(t *testing.T) {
	_, err := OpenSource(&config.Config{Mar: config.MarConfig{Source: "sqlite"}}, nil)
	assert.Error(t, err)
}
