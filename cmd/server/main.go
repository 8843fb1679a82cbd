package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	jwttoken "registrar/internal/jwt_token"
	"registrar/internal/platform/config"
	"registrar/internal/platform/httpserver"
	"registrar/internal/platform/kafka"
	"registrar/internal/platform/logger"
	httpmetrics "registrar/internal/platform/metrics"
	"registrar/internal/platform/postgres"
	"registrar/internal/platform/redis"
	"registrar/internal/registry/cache"
	"registrar/internal/registry/handler"
	registrymetrics "registrar/internal/registry/metrics"
	"registrar/internal/registry/payout"
	"registrar/internal/registry/service"
	"registrar/internal/registry/snapshot"
	"registrar/internal/registry/store"
	"registrar/internal/registry/store/migrations"
	"registrar/pkg/platform/circuit"
	"registrar/pkg/platform/httputil"
	authmw "registrar/pkg/platform/middleware/auth"
	"registrar/pkg/platform/middleware/request"
)

// main wires dependencies and owns the server lifecycle. Business logic lives
// in internal/registry.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("registrar stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("registrar stopped")
}

// infra holds the backends chosen by configuration and their teardown.
type infra struct {
	store      service.Store
	epoch      string
	memory     *store.InMemory
	db         *sql.DB
	redis      *redis.Client
	kafka      *kgo.Client
	transferer service.Transferer
}

func (i *infra) close(cfg config.Server, log *slog.Logger) {
	if i.memory != nil && cfg.Registry.SnapshotPath != "" {
		if err := snapshot.Save(cfg.Registry.SnapshotPath, i.memory.Export()); err != nil {
			log.Error("failed to write snapshot", "path", cfg.Registry.SnapshotPath, "error", err)
		} else {
			log.Info("snapshot written", "path", cfg.Registry.SnapshotPath)
		}
	}
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	deps, err := buildInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close(cfg, log)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registryMetrics := registrymetrics.New(reg)

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(registryMetrics),
		service.WithTransferer(deps.transferer),
	}
	if deps.redis != nil {
		breaker := circuit.New("controller-cache", circuit.WithCooldown(cfg.Redis.DialTimeout))
		opts = append(opts, service.WithControllerCache(cache.New(deps.redis, cfg.Redis.CacheTTL,
			cache.WithBreaker(breaker),
			cache.WithNamespace(deps.epoch),
		)))
	}
	svc, err := service.New(deps.store, cfg.Registry.Admin, opts...)
	if err != nil {
		return err
	}

	fee, err := svc.CurrentFee(ctx)
	if err != nil {
		return fmt.Errorf("read fee: %w", err)
	}
	registryMetrics.SetFee(fee)

	tokens := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	router := newRouter(routerDeps{
		service:   svc,
		validator: jwttoken.NewJWTServiceAdapter(tokens),
		infra:     deps,
		cfg:       cfg,
		registry:  reg,
		logger:    log,
	})
	srv := httpserver.New(cfg.Addr, router, log)

	log.InfoContext(ctx, "starting registrar",
		"addr", cfg.Addr,
		"store", cfg.Registry.Store,
		"payout", cfg.Registry.Payout,
		"cache", deps.redis != nil,
		"admin", cfg.Registry.Admin.String(),
		"fee", fee.String(),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		defer cancel()
		log.Info("shutting down", "grace", cfg.ShutdownGrace.String())
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func buildInfra(ctx context.Context, cfg config.Server, log *slog.Logger) (*infra, error) {
	deps := &infra{}
	fail := func(err error) (*infra, error) {
		deps.close(config.Server{}, log)
		return nil, err
	}

	switch cfg.Registry.Store {
	case config.BackendPostgres:
		db, err := postgres.Open(ctx, cfg.Postgres)
		if err != nil {
			return fail(err)
		}
		deps.db = db
		if err := postgres.Migrate(ctx, db, migrations.FS, log); err != nil {
			return fail(err)
		}
		pg := store.NewPostgres(db)
		if err := pg.EnsureState(ctx, cfg.Registry.InitialFee); err != nil {
			return fail(err)
		}
		deps.store = pg
		if deps.epoch, err = pg.Epoch(ctx); err != nil {
			return fail(err)
		}
		count, err := pg.CountDomains(ctx)
		if err != nil {
			return fail(err)
		}
		log.InfoContext(ctx, "postgres store ready", "domains", count)
	default:
		mem, err := loadMemory(cfg, log)
		if err != nil {
			return fail(err)
		}
		deps.memory = mem
		deps.store = mem
		deps.epoch = mem.Epoch()
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	deps.redis = client

	switch cfg.Registry.Payout {
	case config.PayoutKafka:
		producer, err := kafka.NewProducer(cfg.Kafka)
		if err != nil {
			return fail(err)
		}
		deps.kafka = producer
		if err := kafka.EnsureTopic(ctx, producer, cfg.Kafka.PayoutTopic, cfg.Kafka.Partitions, cfg.Kafka.ReplicationFactor); err != nil {
			return fail(err)
		}
		deps.transferer = payout.NewKafkaTransferer(producer, cfg.Kafka.PayoutTopic)
	default:
		deps.transferer = payout.NewLedger()
	}
	return deps, nil
}

func loadMemory(cfg config.Server, log *slog.Logger) (*store.InMemory, error) {
	if cfg.Registry.SnapshotPath == "" {
		return store.NewInMemory(cfg.Registry.InitialFee), nil
	}
	doc, err := snapshot.Load(cfg.Registry.SnapshotPath)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		log.Info("no snapshot found, starting empty", "path", cfg.Registry.SnapshotPath)
		return store.NewInMemory(cfg.Registry.InitialFee), nil
	}
	mem, err := store.NewInMemoryFromSnapshot(doc)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	count, _ := mem.CountDomains(context.Background())
	log.Info("snapshot restored", "path", cfg.Registry.SnapshotPath, "domains", count)
	return mem, nil
}

type routerDeps struct {
	service   *service.Service
	validator authmw.JWTValidator
	infra     *infra
	cfg       config.Server
	registry  *prometheus.Registry
	logger    *slog.Logger
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Time)
	r.Use(chimw.Recoverer)
	r.Use(httpmetrics.New(d.registry).Middleware)

	r.Get("/health", healthHandler(d.infra))
	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(authmw.Authenticate(d.validator, d.logger))
		handler.New(d.service, d.logger, d.cfg.Registry.WithdrawRecipient).Register(r)
	})
	return r
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func healthHandler(deps *infra) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{Status: "ok", Checks: map[string]string{}}
		check := func(name string, err error) {
			if err != nil {
				resp.Status = "degraded"
				resp.Checks[name] = err.Error()
				return
			}
			resp.Checks[name] = "ok"
		}
		if deps.db != nil {
			check("postgres", deps.db.PingContext(ctx))
		}
		if deps.redis != nil {
			check("redis", deps.redis.Health(ctx))
		}
		if deps.kafka != nil {
			check("kafka", kafka.Health(ctx, deps.kafka))
		}

		status := http.StatusOK
		if resp.Status != "ok" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, resp)
	}
}
