package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-order-engine/internal/metrics"
	"go.uber.org/zap"
)

type responseData struct {
	statusCode int
	size       int
}

type logResponseWriter struct {
	http.ResponseWriter
	responseData *responseData
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.responseData.statusCode == 0 {
		w.responseData.statusCode = http.StatusOK
	}
	size, err := w.ResponseWriter.Write(b)
	w.responseData.size += size
	return size, err
}

func (w *logResponseWriter) WriteHeader(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	w.responseData.statusCode = statusCode
}

// requestLogger logs every request and records it in m when m is set.
func requestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(h http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			respData := &responseData{}
			writer := &logResponseWriter{ResponseWriter: w, responseData: respData}
			h.ServeHTTP(writer, r)

			duration := time.Since(start)

			zap.L().Info("got incoming HTTP request",
				zap.String("uri", r.RequestURI),
				zap.String("method", r.Method),
				zap.Duration("duration", duration),
				zap.Int("status", respData.statusCode),
				zap.Int("size", respData.size),
			)

			if m == nil {
				return
			}
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.Requests.WithLabelValues(route, strconv.Itoa(respData.statusCode)).Inc()
			m.LatencyMS.WithLabelValues(route).Observe(float64(duration.Milliseconds()))
		})
	}
}
