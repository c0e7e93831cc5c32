package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"itemshare/internal/items/handler"
	"itemshare/pkg/config"
	"itemshare/pkg/contracts"
	"itemshare/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

type Application struct {
	cfg              *config.Config
	server           *http.Server
	idempotencyStore *middleware.InMemoryIdempotencyStore
	rateLimiter      *middleware.RateLimiter
	healthHandler    http.Handler
	appHttpHandler   http.Handler
	stoppers         []contracts.Stopper
}

func NewApplication() *Application {
	return &Application{}
}

// SetApp builds the server: health endpoints behind minimal middleware and
// the application routes behind the full stack.
func (a *Application) SetApp(cfg *config.Config, ping handler.Pinger, appHandler contracts.Handler) {
	a.cfg = cfg
	a.setHealthHandler(ping)
	a.setAppHandler(appHandler)
	a.setAppServer()
}

// OnShutdown registers components stopped after the server, in order.
func (a *Application) OnShutdown(stoppers ...contracts.Stopper) {
	a.stoppers = append(a.stoppers, stoppers...)
}

// Handler exposes the routed handler for in-process tests.
func (a *Application) Handler() http.Handler {
	return a.server.Handler
}

func (a *Application) setHealthHandler(ping handler.Pinger) {
	healthRouter := httprouter.New()
	healthHandler := handler.NewHealthHandler(ping, a.cfg.Log)
	healthHandler.RegisterRoutes(healthRouter)

	var healthHTTPHandler http.Handler = healthRouter
	healthHTTPHandler = middleware.RequestLogging(a.cfg.Log)(healthHTTPHandler)
	healthHTTPHandler = middleware.Recovery(a.cfg.Log)(healthHTTPHandler)
	a.healthHandler = healthHTTPHandler
	a.cfg.Log.Info("Health endpoints configured with minimal middleware (Recovery + Logging only)")
}

func (a *Application) setAppHandler(appHandler contracts.Handler) {
	appRouter := httprouter.New()
	appHandler.RegisterRoutes(appRouter)

	a.idempotencyStore = middleware.NewInMemoryIdempotencyStore(a.cfg.IdempotencyTTL)
	a.rateLimiter = middleware.NewRateLimiter(
		a.cfg.RateLimitRequests,
		a.cfg.RateLimitWindow,
		middleware.IdentityKey,
		a.cfg.Log,
	)

	// Recovery → Logging → MaxSize → ContentType → RateLimit → Timeout → Idempotency → Router
	var appHttpHandler http.Handler = appRouter
	appHttpHandler = middleware.Idempotency(a.idempotencyStore, middleware.HeaderIdempotencyKey)(appHttpHandler)
	appHttpHandler = middleware.RequestTimeout(a.cfg.RequestTimeout)(appHttpHandler)
	appHttpHandler = middleware.RateLimit(a.rateLimiter)(appHttpHandler)
	appHttpHandler = middleware.ContentTypeValidation(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.MaxRequestSize(int64(a.cfg.MaxRequestSize))(appHttpHandler)
	appHttpHandler = middleware.RequestLogging(a.cfg.Log)(appHttpHandler)
	appHttpHandler = middleware.Recovery(a.cfg.Log)(appHttpHandler)
	a.appHttpHandler = appHttpHandler
	a.cfg.Log.Info("Application endpoints configured with full middleware stack")
}

func (a *Application) setAppServer() {
	mux := http.NewServeMux()
	mux.Handle("/health", a.healthHandler)
	mux.Handle("/ready", a.healthHandler)
	mux.Handle("/", a.appHttpHandler)

	a.server = &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      mux,
		ReadTimeout:  a.cfg.ReadTimeout,
		WriteTimeout: a.cfg.WriteTimeout,
		IdleTimeout:  a.cfg.IdleTimeout,
	}

	a.cfg.Log.Info("HTTP server configured", "port", a.cfg.Port)
}

func (a *Application) Run() {
	serverErrors := make(chan error, 1)

	go func() {
		a.cfg.Log.Info("Starting HTTP server", "address", a.server.Addr)
		serverErrors <- a.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			a.cfg.Log.Fatal("HTTP server failed", "error", err)
		}

	case sig := <-shutdown:
		a.cfg.Log.Info("Shutdown signal received", "signal", sig)
		a.gracefulShutdown()
	}
}

func (a *Application) gracefulShutdown() {
	a.cfg.Log.Info("Starting graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cfg.Log.Error("Server shutdown failed", "error", err)
		if err := a.server.Close(); err != nil {
			a.cfg.Log.Fatal("Could not stop server gracefully", "error", err)
		}
	}

	a.cfg.Log.Info("Stopping background workers...")
	a.idempotencyStore.Stop()
	a.rateLimiter.Stop()
	for _, s := range a.stoppers {
		if err := s.Stop(ctx); err != nil {
			a.cfg.Log.Error("Background worker did not stop cleanly", "error", err)
		}
	}
	a.cfg.Log.Info("Background workers stopped")

	a.cfg.Log.Info("Server stopped gracefully")
}
