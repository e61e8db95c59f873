package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"deal-qualifier/internal/app"
	"deal-qualifier/internal/httputil"
	"deal-qualifier/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx)
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("failed to close backends", "err", err)
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("web service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		deps.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("web service stopped", "err", err)
	}
}

func newRouter(deps app.Deps) http.Handler {
	r := httputil.NewRouter(deps.Log)
	r.Use(deps.Sessions.Load)

	r.Get("/health", httputil.HealthHandler(deps.Log, "deal-qualifier"))
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/", loginPageHandler(deps))
	r.Post("/dev-login", devLoginHandler(deps))
	r.Post("/logout", logoutHandler(deps))

	r.Group(func(r chi.Router) {
		r.Use(session.RequireSession)
		r.Get("/deals", listDealsHandler(deps))
		r.Post("/deal", createDealHandler(deps))
		r.Get("/deal/{id}", showDealHandler(deps))
		r.Post("/assess", assessHandler(deps))
		r.Get("/assessment/{dealId}/{ts}", showAssessmentHandler(deps))
	})

	return r
}
