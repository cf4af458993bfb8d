package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/lojasmm/supportdemo/internal/agentapi"
	"github.com/lojasmm/supportdemo/internal/config"
	"github.com/lojasmm/supportdemo/internal/events"
	"github.com/lojasmm/supportdemo/internal/health"
	"github.com/lojasmm/supportdemo/internal/observability"
	"github.com/lojasmm/supportdemo/internal/query"
	"github.com/lojasmm/supportdemo/internal/store"
	"github.com/lojasmm/supportdemo/internal/web"
)

const janitorInterval = 5 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}

	log := observability.InitLogger(cfg.LogLevel, cfg.LogFile)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEnabled {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.OTelServiceName)
		if err != nil {
			log.Fatalf("otel: %v", err)
		}
		defer func() {
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracer(flushCtx); err != nil {
				log.WithError(err).Warn("otel: flushing traces failed")
			}
		}()
	}

	metrics, err := observability.NewMetrics()
	if err != nil {
		log.Fatalf("metrics: %v", err)
	}

	db, err := store.NewBoltStore(filepath.Join(cfg.DataDir, "supportdemo.db"), cfg.HistoryLimit)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer db.Close()

	examples, err := query.LoadExamples(cfg.ExamplesFile)
	if err != nil {
		log.Fatalf("examples: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		log.Infof("supportdemo: publishing outcomes to %s on %v", cfg.KafkaTopic, cfg.KafkaBrokers)
	}
	defer publisher.Close()

	client := agentapi.NewClient(cfg.APIURL, agentapi.WithTimeout(cfg.APITimeout()))
	recorder := &events.Recorder{Store: db, Publisher: publisher, Metrics: metrics}

	sessionMgr := newSessionManager(sessionDeps{
		API:                client,
		Recorder:           recorder,
		Store:              db,
		Timeout:            cfg.APITimeout(),
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	handler := web.NewHandler(ctx, sessionMgr, db, examples, cfg.APIURL,
		web.WithHealthHook(func(st health.Status, _ error) {
			metrics.RecordHealth(context.Background(), string(st.Tone()))
		}),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&observability.RequestLogger{Logger: log}))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	handler.Routes(r)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Infof("supportdemo: listening on %s (backend %s)", cfg.BaseURL, cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Evict idle sessions so their machines and history do not pile up.
	g.Go(func() error {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				if n := sessionMgr.Cleanup(cfg.SessionTTL()); n > 0 {
					log.Infof("supportdemo: evicted %d idle sessions", n)
				}
			}
		}
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("supportdemo: shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Errorf("server: %v", err)
	}
	log.Info("supportdemo: stopped")
}
