package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DiagnosticsServer exposes /metrics and /healthz on a dedicated port.
type DiagnosticsServer struct {
	srv *http.Server
}

func NewDiagnosticsServer(port int) *DiagnosticsServer {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	// The otel prometheus exporter feeds the default registry, which is
	// what promhttp serves.
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return &DiagnosticsServer{
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		},
	}
}

// Start serves in the background. Listen failures are logged rather than
// returned since they surface after the accept loop starts.
func (s *DiagnosticsServer) Start() {
	go func() {
		slog.Info("diagnostics server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("diagnostics server failed", "error", err)
		}
	}()
}

func (s *DiagnosticsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
