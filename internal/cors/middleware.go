package cors

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Decision is the outcome of evaluating a request against the configuration
type Decision string

const (
	DecisionAllowed Decision = "allowed"
	DecisionDenied  Decision = "denied"
	// DecisionSkipped is used for requests without an Origin header
	DecisionSkipped Decision = "skipped"
)

// Middleware applies a Configuration to HTTP requests the way the bucket would
type Middleware struct {
	config   Configuration
	logger   *logrus.Entry
	observer func(preflight bool, d Decision)
}

// NewMiddleware creates a new CORS middleware
func NewMiddleware(config Configuration, logger *logrus.Entry) *Middleware {
	return &Middleware{
		config: config,
		logger: logger,
	}
}

// SetObserver sets a callback invoked for every CORS decision
func (m *Middleware) SetObserver(observer func(preflight bool, d Decision)) {
	m.observer = observer
}

// Middleware returns the HTTP middleware function
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		requestMethod := r.Header.Get("Access-Control-Request-Method")
		preflight := r.Method == http.MethodOptions && requestMethod != ""

		if origin == "" {
			m.observe(preflight, DecisionSkipped)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Add("Vary", "Origin")

		if preflight {
			m.handlePreflight(w, origin, requestMethod)
			return
		}

		if rule := m.config.Match(origin, r.Method); rule != nil {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if len(rule.ResponseHeaders) > 0 {
				w.Header().Set("Access-Control-Expose-Headers", strings.Join(rule.ResponseHeaders, ", "))
			}
			m.observe(false, DecisionAllowed)
		} else {
			m.observe(false, DecisionDenied)
		}

		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) handlePreflight(w http.ResponseWriter, origin, requestMethod string) {
	rule := m.config.Match(origin, requestMethod)
	if rule == nil {
		m.logger.WithFields(logrus.Fields{
			"origin": origin,
			"method": requestMethod,
		}).Warn("Preflight request denied by CORS configuration")
		m.observe(true, DecisionDenied)
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Methods", strings.Join(rule.Methods, ", "))
	w.Header().Set("Access-Control-Max-Age", strconv.Itoa(rule.MaxAgeSeconds))
	m.logger.WithFields(logrus.Fields{
		"origin": origin,
		"method": requestMethod,
	}).Debug("Preflight request allowed")
	m.observe(true, DecisionAllowed)
	w.WriteHeader(http.StatusNoContent)
}

func (m *Middleware) observe(preflight bool, d Decision) {
	if m.observer != nil {
		m.observer(preflight, d)
	}
}
