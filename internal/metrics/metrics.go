package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadyFunc сообщает, готов ли сервис обслуживать котировки (например, жива ли нода).
type ReadyFunc func(ctx context.Context) error

// Serve поднимает отдельный health-check сервер на addr, когда порт
// проверок отличается от порта API. Останавливается по ctx.Done().
func Serve(ctx context.Context, addr string, ready ReadyFunc, log *zap.Logger) {
	if addr == "" {
		log.Info("health server disabled: shares the api port")
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           newMux(ready),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("health server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("health server error", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("health server shutdown error", zap.Error(err))
		}
	}()
}

func newMux(ready ReadyFunc) *http.ServeMux {
	mux := http.NewServeMux()

	// liveness: процесс отвечает
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// readiness: нода доступна
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
