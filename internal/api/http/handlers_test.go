package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduitedeprojet/testrunner/internal/api/middleware"
	"github.com/conduitedeprojet/testrunner/internal/domain/snippets"
	"github.com/conduitedeprojet/testrunner/internal/domain/testrun"
	"github.com/conduitedeprojet/testrunner/internal/infrastructure/monitoring"
	"github.com/conduitedeprojet/testrunner/internal/playground"
	"github.com/conduitedeprojet/testrunner/internal/sandbox"
	"github.com/conduitedeprojet/testrunner/internal/shared/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T, limits sandbox.Limits) *gin.Engine {
	t.Helper()

	pool := sandbox.NewPool(sandbox.NewEngine(limits), 2, time.Second)
	t.Cleanup(func() { pool.Close() })

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	runs := testrun.NewManager(pool, 50, nil).WithMetrics(metrics)

	store, err := snippets.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	svc := snippets.NewService(store, runs, 0, nil).WithMetrics(metrics)

	r := gin.New()
	RegisterRoutes(r, NewHandlers(runs, svc, pool, metrics, 0, nil))
	return r
}

func do(r *gin.Engine, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func postJSON(r *gin.Engine, path string, v any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(v)
	return do(r, http.MethodPost, path, body, "application/json")
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) types.RunResponse {
	t.Helper()
	var resp types.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestRunSuccess(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())

	w := postJSON(r, "/api/run", map[string]string{
		"code":  "function add(a, b) { return a + b; }",
		"tests": "test('adds', () => assertEquals(add(2, 3), 5));",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RunIDHeader))

	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	require.NotNil(t, resp.TestCount)
	assert.Equal(t, 1, *resp.TestCount)
	assert.Equal(t, 1, *resp.PassedCount)
	assert.Contains(t, *resp.Output, "✅ Test 1: adds")
	assert.Nil(t, resp.Error)
}

func TestRunProgramFailure(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())

	w := postJSON(r, "/api/run", map[string]string{"code": "throw new Error('boom');", "tests": ""})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "boom", *resp.Error)
	assert.Nil(t, resp.Output)
}

func TestRunTimeout(t *testing.T) {
	limits := sandbox.DefaultLimits()
	limits.Timeout = 100 * time.Millisecond
	limits.MaxIterations = 1 << 40
	r := newTestRouter(t, limits)

	w := postJSON(r, "/api/run", map[string]string{"code": "while (true) {}", "tests": ""})

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.False(t, resp.Success)
	assert.Equal(t, "Timeout: Execution was interrupted after 0.1 seconds (infinite loop detected?)", *resp.Error)
	require.NotNil(t, resp.Stack)
	assert.Empty(t, *resp.Stack)
}

func TestRunInvalidRequest(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())

	tests := []struct {
		name string
		body string
	}{
		{"invalid json", `{"code": `},
		{"missing tests", `{"code": "1"}`},
		{"wrong type", `{"code": 1, "tests": ""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPost, "/api/run", []byte(tt.body), "application/json")

			require.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeResponse(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.True(t, strings.HasPrefix(*resp.Error, "invalid request"), *resp.Error)
		})
	}
}

func TestRunHistory(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())

	w := postJSON(r, "/api/run", map[string]string{"code": "", "tests": "test('t', () => assert(true));"})
	require.Equal(t, http.StatusOK, w.Code)
	runID := w.Header().Get(middleware.RunIDHeader)

	w = do(r, http.MethodGet, "/api/runs/"+runID, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var record types.RunRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, runID, record.ID)
	assert.Equal(t, "completed", record.Outcome)

	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/api/runs/run_unknown", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/api/runs?limit=x", nil, "").Code)

	w = do(r, http.MethodGet, "/api/runs/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats types.RunStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.TestsRun)
}

func TestUpload(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())

	build := func(files map[string][]byte) ([]byte, string) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for name, data := range files {
			fw, err := mw.CreateFormFile(name, name+".js")
			require.NoError(t, err)
			_, err = fw.Write(data)
			require.NoError(t, err)
		}
		require.NoError(t, mw.Close())
		return buf.Bytes(), mw.FormDataContentType()
	}

	t.Run("latin1 transcoded", func(t *testing.T) {
		body, ct := build(map[string][]byte{
			"code":  []byte("// Fonction pour le caf\xe9 et le th\xe9, tr\xe8s appr\xe9ci\xe9s\nfunction boisson() { return \"caf\xe9\"; }\n"),
			"tests": []byte("test('boisson', () => assertEquals(boisson(), 'café'));"),
		})
		w := do(r, http.MethodPost, "/api/run/upload", body, ct)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		resp := decodeResponse(t, w)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, *resp.PassedCount)
	})

	t.Run("missing file", func(t *testing.T) {
		body, ct := build(map[string][]byte{"code": []byte("1")})
		w := do(r, http.MethodPost, "/api/run/upload", body, ct)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, *decodeResponse(t, w).Error, `file "tests" is required`)
	})

	t.Run("binary rejected", func(t *testing.T) {
		body, ct := build(map[string][]byte{
			"code":  []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"),
			"tests": []byte(""),
		})
		w := do(r, http.MethodPost, "/api/run/upload", body, ct)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, *decodeResponse(t, w).Error, "not text")
	})
}

func TestSnippetEndpoints(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())
	base := "/api/projects/p1/issues/42/tests"

	w := postJSON(r, base, map[string]string{"programCode": "const x = 1;", "testCode": "test('x', () => assertEquals(x, 1));"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created types.Snippet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = do(r, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []types.Snippet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	w = do(r, http.MethodPost, base+"/"+created.ID+"/run", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeResponse(t, w).Success)

	body, _ := json.Marshal(map[string]string{"programCode": "const x = 2;", "testCode": "test('x', () => assertEquals(x, 1));"})
	w = do(r, http.MethodPut, base+"/"+created.ID, body, "application/json")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodPost, base+"/"+created.ID+"/run", nil, "")
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, *resp.FailedCount)

	assert.Equal(t, http.StatusBadRequest, postJSON(r, base, map[string]string{"programCode": "1"}).Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodDelete, base+"/"+created.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, base+"/"+created.ID, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodPost, base+"/"+created.ID+"/run", nil, "").Code)
}

func TestDefaultsAndHealth(t *testing.T) {
	r := newTestRouter(t, sandbox.DefaultLimits())

	w := do(r, http.MethodGet, "/api/playground/defaults", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var defaults map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &defaults))
	assert.Equal(t, playground.Code, defaults["code"])
	assert.Equal(t, playground.Tests, defaults["tests"])

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil, "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/api/metrics", nil, "").Code)
}
