package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gi8lino/jiraactions/internal/actions"
	"github.com/gi8lino/jiraactions/internal/config"
	"github.com/gi8lino/jiraactions/internal/dialog"
	"github.com/gi8lino/jiraactions/internal/enricher"
	"github.com/gi8lino/jiraactions/internal/flag"
	"github.com/gi8lino/jiraactions/internal/gateway"
	"github.com/gi8lino/jiraactions/internal/jira"
	"github.com/gi8lino/jiraactions/internal/logging"
	"github.com/gi8lino/jiraactions/internal/render"
	"github.com/gi8lino/jiraactions/internal/server"
	"github.com/gi8lino/jiraactions/internal/templates"
	"github.com/gi8lino/jiraactions/internal/utils"

	"github.com/containeroo/tinyflags"
)

// Run starts the jiraactions plugin backend.
func Run(ctx context.Context, webFS fs.FS, version, commit string, args []string, w io.Writer, getEnv func(string) string) error {
	// Create a new context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse command-line flags
	flags, err := flag.ParseArgs(version, args, w, getEnv)
	if err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(w, err.Error()) // nolint:errcheck
			return nil
		}
		return fmt.Errorf("parsing error: %w", err)
	}

	// Setup logger
	logger := logging.SetupLogger(flags.LogFormat, flags.Debug, w)

	logger.Info("Starting jiraactions",
		"version", version,
		"commit", commit,
	)

	// Load and validate config
	cfg, err := config.LoadConfig(flags.Config)
	if err != nil {
		return fmt.Errorf("loading config error: %w", err)
	}
	if err := config.ValidateConfig(&cfg); err != nil {
		return fmt.Errorf("validating config error: %w", err)
	}

	// Parse dialog templates
	tmpl, err := templates.ParseDialogTemplates(webFS, "web/templates", templates.TemplateFuncMap())
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}
	renderer := render.NewRenderer(tmpl)

	// Outbound clients share one tuned transport
	httpClient := jira.NewHTTPClient(cfg.HTTP.Timeout, cfg.HTTP.SkipInsecure())
	tracker := jira.NewClient(cfg.Integration.APIURL, httpClient, cfg.HTTP.LookupTTL)
	authorizer := gateway.NewClient(cfg.Integration.APIURL, cfg.Integration.AppID, cfg.Integration.PodToken, httpClient)
	host := dialog.NewHTTPHost(cfg.Host.APIURL, cfg.Host.Token, httpClient)

	logger.Debug("outbound clients",
		"integration", cfg.Integration.APIURL.String(),
		"app_id", cfg.Integration.AppID,
		"pod_token", utils.ObfuscateToken(cfg.Integration.PodToken),
		"host", cfg.Host.APIURL.String(),
		"host_token", utils.ObfuscateToken(cfg.Host.Token),
		"timeout", cfg.HTTP.Timeout,
		"lookup_ttl", cfg.HTTP.LookupTTL,
	)

	events := cfg.Enricher.MessageEvents
	if len(events) == 0 {
		events = enricher.DefaultMessageEvents
	}

	// One router per conversation, created on first use
	registry := enricher.NewRegistry(func(conversation string) *enricher.Enricher {
		router := actions.NewRouter(actions.Deps{
			Host:         host,
			Authorizer:   authorizer,
			Tracker:      tracker,
			Renderer:     renderer,
			Logger:       logger.With("conversation", conversation),
			DismissDelay: cfg.Dialog.DismissDelay,
		})
		return enricher.New(router, renderer, events)
	})

	// Setup Server and run forever
	handler := server.NewRouter(
		registry,
		events,
		logger,
		flags.Debug,
		flags.RoutePrefix,
	)
	err = server.RunHTTPServer(ctx, handler, flags.ListenAddr, logger)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server exited with error", "error", err)
	}

	return err
}
