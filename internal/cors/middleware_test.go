package cors

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type decisionRecord struct {
	preflight bool
	decision  Decision
}

func newTestMiddleware(records *[]decisionRecord) http.Handler {
	m := NewMiddleware(Build(DefaultPolicy()), testLogger())
	m.SetObserver(func(preflight bool, d Decision) {
		*records = append(*records, decisionRecord{preflight, d})
	})
	return m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
}

func TestMiddleware_PreflightAllowed(t *testing.T) {
	var records []decisionRecord
	handler := newTestMiddleware(&records)

	req := httptest.NewRequest(http.MethodOptions, "/cors.json", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "PUT, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
	assert.Empty(t, w.Body.String())
	assert.Equal(t, []decisionRecord{{true, DecisionAllowed}}, records)
}

func TestMiddleware_PreflightDenied(t *testing.T) {
	var records []decisionRecord
	handler := newTestMiddleware(&records)

	req := httptest.NewRequest(http.MethodOptions, "/cors.json", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []decisionRecord{{true, DecisionDenied}}, records)
}

func TestMiddleware_SimpleRequest(t *testing.T) {
	var records []decisionRecord
	handler := newTestMiddleware(&records)

	req := httptest.NewRequest(http.MethodGet, "/cors.json", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, []decisionRecord{{false, DecisionAllowed}}, records)
}

func TestMiddleware_SimpleRequestFromUnknownOrigin(t *testing.T) {
	var records []decisionRecord
	handler := newTestMiddleware(&records)

	req := httptest.NewRequest(http.MethodGet, "/cors.json", nil)
	req.Header.Set("Origin", "http://localhost:9999")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	// the handler still runs; the browser enforces the missing header
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, []decisionRecord{{false, DecisionDenied}}, records)
}

func TestMiddleware_NoOrigin(t *testing.T) {
	var records []decisionRecord
	handler := newTestMiddleware(&records)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/cors.json", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Vary"))
	assert.Equal(t, []decisionRecord{{false, DecisionSkipped}}, records)
}
