package app

import (
	"net/http"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	handlers map[string]http.Handler
}

// WithHTTPHandler serves handler on the debug listen address at pattern.
func WithHTTPHandler(pattern string, handler http.Handler) Option {
	return func(o *opts) {
		o.handlers[pattern] = handler
	}
}

// WithHealthCheck serves a health endpoint at /healthz that reports whether
// healthy returns true.
func WithHealthCheck(healthy func() bool) Option {
	return WithHTTPHandler("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("unhealthy\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	}))
}
