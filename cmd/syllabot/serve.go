package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/syllabus-hq/syllabot/internal/api"
	"github.com/syllabus-hq/syllabot/internal/auth"
	"github.com/syllabus-hq/syllabot/internal/cache"
	"github.com/syllabus-hq/syllabot/internal/config"
	"github.com/syllabus-hq/syllabot/internal/hubspot"
	"github.com/syllabus-hq/syllabot/internal/journal"
	"github.com/syllabus-hq/syllabot/internal/monday"
	"github.com/syllabus-hq/syllabot/internal/options"
	"github.com/syllabus-hq/syllabot/internal/relay"
	"github.com/syllabus-hq/syllabot/internal/session"
	gateway "github.com/syllabus-hq/syllabot/internal/slack"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg.LogLevel)
			slog.SetDefault(logger)

			// Slack is the one integration nothing works without; the
			// others are validated at point of use.
			if err := cfg.SlackReady(); err != nil {
				return err
			}

			server := newServer(cfg, logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("gateway_start", "addr", cfg.ListenAddr)
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("gateway_stop", "reason", "signal")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newServer(cfg *config.Config, logger *slog.Logger) *http.Server {
	crm := &hubspot.Client{Token: cfg.HubSpotToken, BaseURL: cfg.HubSpotBaseURL}
	board := &monday.Client{Token: cfg.MondayToken, BaseURL: cfg.MondayBaseURL}

	handler := &api.Handler{
		SigningSecret: cfg.SlackSigningSecret,
		Auth:          &auth.SharedSecret{Secret: cfg.ZapierSecret},
		Messenger:     gateway.NewWebMessenger(cfg.SlackBotToken),
		Source: &options.Source{
			CRM:     crm,
			Board:   board,
			BoardID: cfg.MondayBoardID,
			Cache:   cache.New(cfg.CacheTTL),
		},
		Sessions: session.NewStore(cfg.SessionTTL, nil),
		Relay: &relay.Client{
			TaskURL: cfg.ZapierTaskURL,
			NoteURL: cfg.ZapierNoteURL,
			Secret:  cfg.ZapierSecret,
		},
		Notes:         crm,
		Items:         board,
		Callbacks:     api.NewInMemoryCallbackStore(),
		Journal:       journal.New(nil),
		MondayBoardID: cfg.MondayBoardID,
		MondayGroupID: cfg.MondayGroupID,
		Logger:        logger,
	}

	return &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
