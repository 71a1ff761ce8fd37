package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aescanero/dagsys/pkg/actors/database"
	"github.com/aescanero/dagsys/pkg/domain"
	"github.com/aescanero/dagsys/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type brokenStore struct{}

func (brokenStore) Put(context.Context, string, string) (ports.Record, error) {
	return ports.Record{}, errors.New("disk full")
}
func (brokenStore) Get(context.Context, string) (ports.Record, error) {
	return ports.Record{}, errors.New("disk full")
}
func (brokenStore) Delete(context.Context, string) error { return errors.New("disk full") }
func (brokenStore) List(context.Context) ([]string, error) { return nil, errors.New("disk full") }

func startedDatabase(t *testing.T) database.Database {
	t.Helper()
	a, err := database.NewMemory(nil).Start(context.Background())
	require.NoError(t, err)
	return a.(database.Database)
}

func testRouter(db KeyValue, status StatusSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return newRouter(&handlers{
		db:       db,
		status:   status,
		gatherer: prometheus.NewRegistry(),
		logger:   zap.NewNop(),
	}, nil, zap.NewNop())
}

func serve(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func statusIn(state string) StatusSource {
	return StatusFunc(func() domain.SystemStatus {
		return domain.SystemStatus{State: state}
	})
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		status StatusSource
		code   int
		state  string
	}{
		{"started", statusIn("started"), http.StatusOK, "started"},
		{"starting", statusIn("starting"), http.StatusOK, "starting"},
		{"failed", statusIn("failed"), http.StatusServiceUnavailable, "failed"},
		{"stopping", statusIn("stopping"), http.StatusServiceUnavailable, "stopping"},
		{"no source", nil, http.StatusOK, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(testRouter(brokenStore{}, tt.status), http.MethodGet, "/health", "")
			assert.Equal(t, tt.code, w.Code)

			var body struct {
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body.Checks["system"])
		})
	}
}

func TestSystemStatus(t *testing.T) {
	w := serve(testRouter(brokenStore{}, nil), http.MethodGet, "/api/v1/system", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_AVAILABLE")

	src := StatusFunc(func() domain.SystemStatus {
		return domain.SystemStatus{
			State: "started",
			Roles: []domain.RoleStatus{{Role: "db", Phase: domain.RolePhaseStarted}},
		}
	})
	w = serve(testRouter(brokenStore{}, src), http.MethodGet, "/api/v1/system", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"db"`)
}

func TestKeyValueRoutes(t *testing.T) {
	router := testRouter(startedDatabase(t), nil)

	w := serve(router, http.MethodGet, "/api/v1/kv", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"keys":[],"total":0}`, w.Body.String())

	w = serve(router, http.MethodPut, "/api/v1/kv/color", `{"value":"blue"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var rec ports.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "color", rec.Key)
	assert.Equal(t, "blue", rec.Value)

	w = serve(router, http.MethodPut, "/api/v1/kv/empty", `{"value":""}`)
	assert.Equal(t, http.StatusOK, w.Code, "an empty value is still a value")

	w = serve(router, http.MethodGet, "/api/v1/kv/color", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"blue"`)

	w = serve(router, http.MethodGet, "/api/v1/kv", "")
	assert.JSONEq(t, `{"keys":["color","empty"],"total":2}`, w.Body.String())

	w = serve(router, http.MethodDelete, "/api/v1/kv/color", "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = serve(router, http.MethodGet, "/api/v1/kv/color", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestPutRejectsMissingValue(t *testing.T) {
	router := testRouter(startedDatabase(t), nil)

	w := serve(router, http.MethodPut, "/api/v1/kv/k", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")

	w = serve(router, http.MethodPut, "/api/v1/kv/k", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStorageErrors(t *testing.T) {
	router := testRouter(brokenStore{}, nil)

	for _, req := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/v1/kv", ""},
		{http.MethodGet, "/api/v1/kv/k", ""},
		{http.MethodPut, "/api/v1/kv/k", `{"value":"v"}`},
		{http.MethodDelete, "/api/v1/kv/k", ""},
	} {
		w := serve(router, req.method, req.path, req.body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, req.method+" "+req.path)
		assert.Contains(t, w.Body.String(), "STORAGE_ERROR")
	}
}

func TestCORSPreflight(t *testing.T) {
	w := serve(testRouter(brokenStore{}, nil), http.MethodOptions, "/api/v1/kv", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	w := serve(testRouter(brokenStore{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
