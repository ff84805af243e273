package webhook

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics tracks stub server activity in Prometheus form.
type metrics struct {
	requests      *prometheus.CounterVec // by route and status code
	logins        *prometheus.CounterVec // by result
	uploadedBytes prometheus.Counter
}

func newMetrics(reg prometheus.Registerer, st *state) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixndrive_webhook_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pixndrive_webhook_logins_total",
			Help: "Login attempts, by result.",
		}, []string{"result"}),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pixndrive_webhook_uploaded_bytes_total",
			Help: "Bytes received in uploads (discarded after counting).",
		}),
	}
	reg.MustRegister(
		m.requests,
		m.logins,
		m.uploadedBytes,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pixndrive_webhook_files",
			Help: "File records currently held.",
		}, func() float64 { return float64(st.fileCount()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "pixndrive_webhook_accounts",
			Help: "Known accounts, including ones created in open mode.",
		}, func() float64 { return float64(st.accountCount()) }),
	)
	return m
}

// observe logs each request with slog and counts it by route pattern.
func (m *metrics) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()

		slog.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
