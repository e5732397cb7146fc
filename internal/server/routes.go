package server

import (
	"log/slog"
	"net/http"

	"github.com/gi8lino/jiraactions/internal/enricher"
	"github.com/gi8lino/jiraactions/internal/handlers"
	"github.com/gi8lino/jiraactions/internal/middleware"
	"github.com/gi8lino/jiraactions/internal/utils"
)

// NewRouter creates the plugin's HTTP router, mounted below routePrefix.
func NewRouter(
	reg *enricher.Registry,
	events []string,
	logger *slog.Logger,
	debug bool,
	routePrefix string,
) http.Handler {
	root := http.NewServeMux()

	// Health checks (no logging)
	root.Handle("GET /healthz", handlers.Healthz())
	root.Handle("POST /healthz", handlers.Healthz())

	api := http.NewServeMux()
	api.Handle("GET /enricher", handlers.EnricherInfoHandler(enricher.Name, events))
	api.Handle("POST /conversations/{conversation}/enrich", handlers.EnrichHandler(reg, logger))
	api.Handle("POST /conversations/{conversation}/action", handlers.ActionHandler(reg, logger))
	api.Handle("POST /conversations/{conversation}/selected", handlers.SelectedHandler(reg))
	api.Handle("POST /conversations/{conversation}/deselected", handlers.DeselectedHandler(reg))
	api.Handle("POST /conversations/{conversation}/changed", handlers.ChangedHandler(reg))
	api.Handle("DELETE /conversations/{conversation}", handlers.CloseHandler(reg, logger))

	mws := []middleware.Middleware{middleware.RequestID()}
	if debug {
		mws = append(mws, middleware.LoggingMiddleware(logger))
	}

	// mount under /api/v1/
	root.Handle("/api/v1/", middleware.Chain(http.StripPrefix("/api/v1", api), mws...))

	return withPrefix(root, utils.NormalizeRoutePrefix(routePrefix))
}
