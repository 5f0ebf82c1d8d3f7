package api

import (
	"log/slog"
	"net/http"
	"time"
)

type statusRW struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRW) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRW) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// logRequests logs method, path, status, size and duration of each request.
// WebSocket upgrades pass through unwrapped; the upgrader needs the
// original writer to hijack the connection.
func logRequests(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isUpgrade(r) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			srw := &statusRW{ResponseWriter: w}
			next.ServeHTTP(srw, r)
			log.Info("http request",
				"method", r.Method, "path", r.URL.Path,
				"status", srw.status, "bytes", srw.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}
