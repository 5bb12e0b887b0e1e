package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"givecycle/internal/jwt_token"
	"givecycle/internal/matching/handler"
	"givecycle/internal/platform/config"
	"givecycle/internal/platform/httpserver"
	"givecycle/internal/platform/logger"
	"givecycle/internal/platform/metrics"
	ratelimit "givecycle/internal/ratelimit/middleware"
	"givecycle/internal/ratelimit/store/bucket"
	"givecycle/pkg/platform/httputil"
	"givecycle/pkg/platform/middleware/auth"
	"givecycle/pkg/platform/middleware/request"
	"givecycle/pkg/platform/middleware/requesttime"
	"givecycle/pkg/platform/middleware/tracing"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Run the HTTP API, the expiration sweeper and the notification emitter",
	Action: serve,
}

func loadConfig(cCtx *cli.Context) (*config.Config, error) {
	return config.Load(cCtx.String("env-prefix"))
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cCtx)
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log)

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	srv := httpserver.New(cfg.Server.Addr, a.router(), cfg.Server.ReadHeaderTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.emitter.Run(gctx) })
	g.Go(func() error { return a.sweeper.Run(gctx) })
	g.Go(func() error { return httpserver.Serve(gctx, srv, cfg.Server.ShutdownTimeout, log) })

	log.InfoContext(ctx, "givecycle started",
		"addr", cfg.Server.Addr,
		"environment", cfg.Environment,
	)
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("givecycle stopped")
	return nil
}

// router mounts the public, payment-flow and operator routes behind their roles.
func (a *app) router() http.Handler {
	jwt := jwttoken.NewJWTService(a.cfg.Server.JWTSigningKey, a.cfg.Server.JWTIssuer, a.cfg.Server.JWTAudience)
	validator := jwttoken.NewValidator(jwt)
	h := handler.New(a.allocator, a.sweeper, a.flags, a.logger)

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(tracing.Middleware(a.tracer))
	r.Use(metrics.New(a.registry).Middleware)

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(validator, a.logger))
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(a.logger, jwttoken.RoleService, jwttoken.RoleAdmin))
			r.Use(a.allocationLimiter().Limit)
			h.Register(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(a.logger, jwttoken.RolePayments, jwttoken.RoleAdmin))
			h.RegisterPayments(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(a.logger, jwttoken.RoleAdmin))
			h.RegisterAdmin(r)
		})
	})
	return r
}

// allocationLimiter shares windows through Redis when it is configured.
func (a *app) allocationLimiter() *ratelimit.Middleware {
	var store ratelimit.Store = bucket.NewInMemoryBucketStore()
	if a.redis != nil {
		store = bucket.NewRedisBucketStore(a.redis, "givecycle:ratelimit:")
	}
	return ratelimit.New(store, "allocations", a.cfg.Limits.AllocationRequests, a.cfg.Limits.Window, a.logger)
}

func (a *app) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := a.ping(ctx); err != nil {
		a.logger.WarnContext(ctx, "health check failed", "error", err)
		httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
