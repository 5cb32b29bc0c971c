// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Decision logic lives in the internal packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"gatewatch/internal/accesslog"
	"gatewatch/internal/alert"
	"gatewatch/internal/auth"
	"gatewatch/internal/engine"
	enginemetrics "gatewatch/internal/engine/metrics"
	"gatewatch/internal/matcher"
	"gatewatch/internal/platform/config"
	"gatewatch/internal/platform/httpserver"
	"gatewatch/internal/platform/logger"
	platformredis "gatewatch/internal/platform/redis"
	"gatewatch/internal/roster"
	"gatewatch/internal/stream"
	httptransport "gatewatch/internal/transport/http"
	"gatewatch/internal/visitor"
	authmw "gatewatch/pkg/platform/middleware/auth"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Server, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: in-memory by default, durable backends when configured.
	var (
		rosterStore roster.Store = roster.NewInMemoryStore()
		logShadow   accesslog.Store
		db          *sql.DB
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		pgRoster := roster.NewPostgresStore(db)
		if err := pgRoster.Migrate(ctx); err != nil {
			return err
		}
		pgLogs := accesslog.NewPostgresStore(db)
		if err := pgLogs.Migrate(ctx); err != nil {
			return err
		}
		rosterStore = pgRoster
		logShadow = pgLogs
		log.Info("postgres stores enabled")
	}

	var grantStore visitor.GrantStore = visitor.NewInMemoryGrantStore()
	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		grantStore = visitor.NewRedisGrantStore(redisClient.Client)
		log.Info("redis grant store enabled")
	}

	var publisher stream.Publisher = stream.Noop{}
	if cfg.KafkaBrokers != "" {
		kafka, err := stream.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			return err
		}
		publisher = kafka
		log.Info("kafka publisher enabled", "topic", cfg.KafkaTopic)
	}
	defer publisher.Close()

	metrics := enginemetrics.New()

	// Domain services.
	alerts, err := alert.NewService(alert.NewInMemoryStore(), log)
	if err != nil {
		return err
	}
	rosterSvc, err := roster.NewService(rosterStore,
		roster.WithNotifier(alerts),
		roster.WithLogger(log),
	)
	if err != nil {
		return err
	}
	visitors, err := visitor.NewManager(grantStore, config.GrantTTL, visitor.WithLogger(log))
	if err != nil {
		return err
	}

	recorderOpts := []accesslog.RecorderOption{
		accesslog.WithFailureHook(metrics.IncPersistenceFailure),
	}
	if logShadow != nil {
		recorderOpts = append(recorderOpts, accesslog.WithShadowStore(logShadow))
	}
	recorder := accesslog.NewRecorder(accesslog.NewInMemoryStore(), log, recorderOpts...)

	euclid := matcher.NewEuclidean(matcher.DefaultThreshold)
	adapter := matcher.NewAdapter(euclid, log,
		matcher.WithFailureHook(metrics.IncMatcherFailure),
	)

	eng, err := engine.New(engine.Deps{
		Roster:   rosterSvc,
		Matcher:  adapter,
		Visitors: visitors,
		Alerts:   alerts,
		Recorder: recorder,
	},
		engine.WithEnroller(euclid),
		engine.WithPublisher(publisher),
		engine.WithMetrics(metrics),
		engine.WithLogger(log),
		engine.WithLocation(cfg.Location),
		engine.WithSounder(alert.LogSounder{Logger: log}),
	)
	if err != nil {
		return err
	}
	eng.RefreshEnrollment(ctx)

	// Grant expiry sweeps run on their own schedule regardless of whether
	// monitoring is on.
	sweeper := visitor.NewSweeper(visitors, config.SweepInterval, log,
		visitor.WithSweepHook(func(removed int) {
			metrics.AddGrantsExpired(removed)
			publisher.Publish(ctx, stream.Event{
				Type:      stream.EventGrantSwept,
				Timestamp: time.Now().UTC(),
				Payload:   map[string]int{"removed": removed},
			})
		}),
	)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	if cfg.Simulate {
		eng.StartMonitoring(ctx, cfg.DetectionInterval)
		defer eng.StopMonitoring()
	}

	// Transport.
	authSvc := auth.NewService(auth.NewTokenService(cfg.JWTSigningKey, "gatewatch"), log)
	if err := authSvc.AddOperator(cfg.OperatorName, cfg.OperatorPassword); err != nil {
		return err
	}
	guard := authmw.RequireOperator(authSvc, log)

	health := func() error {
		if db != nil {
			if err := db.Ping(); err != nil {
				return err
			}
		}
		if redisClient != nil {
			return redisClient.Health(context.Background())
		}
		return nil
	}

	router := httptransport.NewRouter(log, health,
		httptransport.NewMonitorHandler(eng, ctx, cfg.DetectionInterval, guard, log),
		httptransport.NewRosterHandler(eng, guard, log),
		httptransport.NewVisitorHandler(eng, guard, log),
		httptransport.NewAlertHandler(eng, guard, log),
		httptransport.NewLogHandler(eng),
		httptransport.NewAuthHandler(authSvc, log),
	)
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("gatewatch listening", "addr", cfg.Addr, "location", cfg.Location)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
