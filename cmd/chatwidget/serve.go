package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/uniserved/chatwidget/internal/handler"
	"github.com/uniserved/chatwidget/internal/middleware"
	askService "github.com/uniserved/chatwidget/internal/service/ask"
	"github.com/uniserved/chatwidget/internal/web"
)

const (
	reapInterval    = time.Minute
	limiterIdle     = 10 * time.Minute
	shutdownTimeout = 10 * time.Second
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat widget page and API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address, overrides PORT")
	return cmd
}

func runServe(ctx context.Context, addrOverride string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap()
	if err != nil {
		return err
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		return errors.Wrap(err, "load templates")
	}

	limiter := middleware.NewRateLimiter(a.cfg.Ask.RateLimit, a.cfg.Ask.RateBurst)
	router := handler.NewRouter(handler.Dependencies{
		Chatbots:   a.chatbots,
		Gate:       a.gate,
		ChatSvc:    a.chatSvc,
		AskSvc:     askService.NewService(a.cfg.Ask.Answer),
		Renderer:   renderer,
		AskLimiter: limiter,
	})

	addr := a.cfg.Server.Addr
	if addrOverride != "" {
		addr = addrOverride
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info().Str("addr", addr).Msg("chat widget listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "listen")
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		log.Info().Msg("shutting down")

		// Closing sessions ends the event streams so Shutdown is not held open by them.
		a.chatSvc.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})

	eg.Go(func() error {
		ticker := time.NewTicker(reapInterval)
		defer ticker.Stop()
		for {
			select {
			case <-egCtx.Done():
				return nil
			case <-ticker.C:
				a.chatSvc.Reap(a.cfg.Session.IdleTTL)
				limiter.Prune(limiterIdle)
			}
		}
	})

	return eg.Wait()
}
