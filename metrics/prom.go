package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/curtisnewbie/cpubridge/util/errs"
	"github.com/curtisnewbie/cpubridge/util/utillog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func PrometheusHandler() http.Handler {
	return promhttp.Handler()
}

// Handler for metrics registered in the given registry only.
func RegistryHandler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Serve '/metrics' on the given address until ctx is done.
func ServeMetrics(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errs.WrapErrf(err, "failed to listen for metrics server, addr: %v", addr)
	}
	return ServeMetricsListener(ctx, ln, h)
}

// Serve '/metrics' on ln until ctx is done, ln is closed when it returns.
func ServeMetricsListener(ctx context.Context, ln net.Listener, h http.Handler) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			utillog.Warnf("Failed to shutdown metrics server, %v", err)
		}
	}()

	utillog.Infof("Serving prometheus metrics on %v/metrics", ln.Addr())
	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return errs.WrapErrf(err, "metrics server failed, addr: %v", ln.Addr())
	}
	return nil
}
