package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wiz-fleet/internal/config"
	"wiz-fleet/internal/lights/application"
	lights "wiz-fleet/internal/lights/domain"
	"wiz-fleet/internal/lights/infrastructure/memory"
	lightsrepo "wiz-fleet/internal/lights/infrastructure/postgres"
	"wiz-fleet/internal/lights/infrastructure/udp"
	lightshttp "wiz-fleet/internal/lights/interfaces/http"
	"wiz-fleet/internal/observability/metrics"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	logger := log.New(os.Stdout, "", log.LstdFlags)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config error: %v", err)
	}
	if len(cfg.Lights) == 0 {
		logger.Printf("no lights configured; set WIZ_LIGHTS or WIZ_CONFIG")
	}

	metrics.Init()

	runs, closeRuns := openRunRepository(cfg.DatabaseURL, logger)
	defer closeRuns()

	client, err := udp.NewClient(cfg.UDPPort, udp.WithTimeout(cfg.Timeout))
	if err != nil {
		logger.Fatalf("udp client error: %v", err)
	}
	fleet, err := application.NewFleet(client,
		application.WithDelay(cfg.Delay),
		application.WithConcurrency(cfg.Concurrency),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("fleet error: %v", err)
	}
	service, err := application.NewService(fleet, cfg.Lights,
		application.WithRunRepository(runs),
		application.WithServiceLogger(logger),
		application.WithOperationTimeout(cfg.OperationTimeout),
	)
	if err != nil {
		logger.Fatalf("lights service error: %v", err)
	}
	lightsHandler, err := lightshttp.NewHandler(service, lightshttp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("lights handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/lights/", lightsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           loggingMiddleware(mux, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Printf("http listening on %s (%d lights, udp port %d)", cfg.HTTPAddr, len(cfg.Lights), cfg.UDPPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal(err)
	}
}

// openRunRepository uses Postgres when a DSN is configured and falls back to
// the in-memory history otherwise.
func openRunRepository(dsn string, logger *log.Logger) (lights.RunRepository, func()) {
	if dsn == "" {
		logger.Printf("run history: in memory")
		return memory.NewRunRepository(0), func() {}
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}
	logger.Printf("run history: postgres")
	return lightsrepo.NewRunRepository(db), func() { _ = db.Close() }
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
