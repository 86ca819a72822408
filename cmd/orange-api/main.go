package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pribylovaa/orange-copywriter/internal/config"
	orangehttp "github.com/pribylovaa/orange-copywriter/internal/transport/http"
)

// closeTimeout — дедлайн закрытия хранилища и кэша после остановки HTTP.
const closeTimeout = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	// .env необязателен: в контейнере переменные приходят из окружения.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("dotenv_load_failed", slog.String("err", err.Error()))
	}

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting orange-api", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	a, err := newApp(rootCtx, cfg, prometheus.DefaultRegisterer)
	if err != nil {
		log.Error("app_init_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()

		if cerr := a.close(ctx); cerr != nil {
			log.Warn("app_close_failed", slog.String("err", cerr.Error()))
		}
	}()

	apiHandler := orangehttp.NewRouter(orangehttp.Deps{Auth: a.auth, Generator: a.service}, orangehttp.Options{
		Logger:            log,
		ServiceTimeout:    cfg.Timeouts.Service,
		GenerationTimeout: cfg.Generation.Timeout,
		CORSOrigins:       cfg.HTTP.CORSOrigins,
		RateLimitRPS:      cfg.RateLimit.RPS,
		RateLimitBurst:    cfg.RateLimit.Burst,
	})

	var ready atomic.Bool

	mux := http.NewServeMux()
	mux.HandleFunc("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !ready.Load() {
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := a.ping(ctx); err != nil {
			log.Warn("readiness_ping_failed", slog.String("err", err.Error()))
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", apiHandler)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := newHTTPServer(httpAddr, mux)

	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		log.Error("http_listen_failed", slog.String("addr", httpAddr), slog.String("err", err.Error()))
		os.Exit(1)
	}

	log.Info("http_listen_start", slog.String("addr", httpAddr))

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		ready.Store(false)
		log.Info("shutdown_requested")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout(cfg))
		defer cancel()

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Warn("http_shutdown_incomplete", slog.String("err", err.Error()))
			return nil
		}

		log.Info("http_stopped")
		return nil
	})

	ready.Store(true)
	log.Info("orange_api_ready",
		slog.Any("clients", a.service.Clients()),
		slog.Bool("insights", cfg.Insights.Enabled()),
		slog.String("storage", cfg.DB.Driver()),
	)

	if err := g.Wait(); err != nil {
		log.Error("http_serve_failed", slog.String("err", err.Error()))
	}

	log.Info("service_stopped")
}

// newHTTPServer — контексты запросов не наследуют сигнальный контекст:
// по SIGTERM сервер перестаёт принимать соединения и дожидается начатых генераций.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// drainTimeout — сколько ждать завершения запросов при остановке:
// не меньше дедлайна маршрута генерации.
func drainTimeout(cfg *config.Config) time.Duration {
	d := cfg.Generation.Timeout + cfg.Timeouts.Service
	if d < closeTimeout {
		return closeTimeout
	}

	return d
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
