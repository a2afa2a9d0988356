package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	caseshandler "caseflow/internal/cases/handler"
	casesmetrics "caseflow/internal/cases/metrics"
	casesservice "caseflow/internal/cases/service"
	casesstore "caseflow/internal/cases/store"
	"caseflow/internal/catalog/cache"
	catalogmetrics "caseflow/internal/catalog/metrics"
	catalogstore "caseflow/internal/catalog/store"
	"caseflow/internal/drafts"
	jwttoken "caseflow/internal/jwt_token"
	"caseflow/internal/notify"
	"caseflow/internal/platform/config"
	"caseflow/internal/platform/httpserver"
	"caseflow/internal/platform/kafka"
	"caseflow/internal/platform/metrics"
	"caseflow/internal/platform/middleware"
	"caseflow/internal/platform/otel"
	"caseflow/internal/platform/postgres"
	platformredis "caseflow/internal/platform/redis"
	"caseflow/internal/provider"
	"caseflow/internal/searchindex"
	"caseflow/pkg/platform/httputil"
	auditpg "caseflow/pkg/platform/audit/store/postgres"
	authmw "caseflow/pkg/platform/middleware/auth"
	"caseflow/pkg/platform/middleware/csrf"
	"caseflow/pkg/platform/middleware/metadata"
	"caseflow/pkg/platform/middleware/requesttime"
	"caseflow/pkg/platform/tx"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

// deps holds the long-lived infrastructure clients. Optional ones are nil
// when unconfigured.
type deps struct {
	db       *sql.DB
	redis    *platformredis.Client
	producer *kafka.Producer
}

func (d *deps) close(ctx context.Context) {
	if d.producer != nil {
		_ = d.producer.Close(ctx)
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
	if d.db != nil {
		_ = d.db.Close()
	}
}

func serve(ctx context.Context, cfg config.Server, log *slog.Logger, migrate bool) error {
	shutdownTracing, err := otel.Setup(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = shutdownTracing(context.WithoutCancel(ctx)) }()

	d := &deps{}
	defer d.close(context.WithoutCancel(ctx))
	if d.db, err = postgres.Open(ctx, cfg.DatabaseURL); err != nil {
		return err
	}
	if migrate {
		if err := postgres.Migrate(ctx, d.db); err != nil {
			return err
		}
	}
	if d.redis, err = platformredis.New(ctx, cfg.Redis); err != nil {
		return err
	}
	if d.producer, err = kafka.New(cfg.Kafka, log); err != nil {
		return err
	}

	catalog := cache.New(catalogstore.NewPostgres(d.db), cfg.Catalog.RefreshInterval,
		cache.WithLogger(log),
		cache.WithMetrics(catalogmetrics.New()),
	)
	if _, err := catalog.Snapshot(ctx); err != nil {
		return err
	}

	var draftStore drafts.Store = drafts.NewInMemoryStore()
	if d.redis != nil {
		draftStore = drafts.NewRedisStore(d.redis.Client)
	}
	draftService := drafts.NewService(draftStore, cfg.Cases.DraftTTL)

	var notifier casesservice.Notifier = notify.NewLog(log)
	if d.producer != nil {
		if err := d.producer.EnsureTopics(ctx, cfg.Kafka.TopicPartitions, cfg.Kafka.TopicReplication, cfg.Kafka.NotificationTopic); err != nil {
			return err
		}
		notifier = notify.NewKafka(d.producer, cfg.Kafka.NotificationTopic, log)
	}

	index := searchindex.NewPostgres(d.db)
	cases := casesservice.New(
		casesstore.NewPostgres(d.db),
		tx.NewPostgresRunner(d.db, cfg.Cases.TransitionTimeout),
		catalog,
		provider.NewSelector(cfg.Cases.DefaultProviderID),
		index,
		casesservice.WithLogger(log),
		casesservice.WithMetrics(casesmetrics.New()),
		casesservice.WithNotifier(notifier),
		casesservice.WithAuditStore(auditpg.New(d.db)),
		casesservice.WithDrafts(draftService),
		casesservice.WithTransitionTimeout(cfg.Cases.TransitionTimeout),
		casesservice.WithCurrency(cfg.Cases.CurrencyCode),
	)

	router := newRouter(cfg, log, d,
		caseshandler.New(cases, draftService, log),
		searchindex.NewHandler(index, log),
	)
	srv := httpserver.New(cfg.Addr, router, cfg.Cases.TransitionTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := catalog.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.InfoContext(gctx, "starting caseflow", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

type registrar interface {
	Register(r chi.Router)
}

func newRouter(cfg config.Server, log *slog.Logger, d *deps, handlers ...registrar) http.Handler {
	httpMetrics := metrics.New()
	csrfKey := []byte(cfg.Auth.CSRFKey)
	validator := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)

	r := chi.NewRouter()
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestID)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))

	r.Handle("/metrics", metrics.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		checks := map[string]string{"postgres": "ok"}
		status := http.StatusOK
		if err := d.db.PingContext(ctx); err != nil {
			checks["postgres"], status = err.Error(), http.StatusServiceUnavailable
		}
		if d.redis != nil {
			checks["redis"] = "ok"
			if err := d.redis.Health(ctx); err != nil {
				checks["redis"], status = err.Error(), http.StatusServiceUnavailable
			}
		}
		if d.producer != nil {
			checks["kafka"] = "ok"
			if err := d.producer.Health(ctx); err != nil {
				checks["kafka"], status = err.Error(), http.StatusServiceUnavailable
			}
		}
		httputil.WriteJSON(w, status, checks)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(authmw.RequireAuth(validator, log))
		r.Get("/csrf-token", func(w http.ResponseWriter, r *http.Request) {
			token := csrf.Token(csrfKey, authmw.SessionID(r.Context()))
			httputil.WriteJSON(w, http.StatusOK, map[string]string{"csrf_token": token})
		})
		r.Group(func(r chi.Router) {
			r.Use(csrf.Protect(csrfKey, log))
			for _, h := range handlers {
				h.Register(r)
			}
		})
	})
	return r
}
