// Package httptransport assembles the service's HTTP surface: public health
// and metrics endpoints plus the authenticated buyer routes.
package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"beatvault/internal/fulfillment/handler"
	"beatvault/pkg/platform/httputil"
	"beatvault/pkg/platform/middleware/auth"
	"beatvault/pkg/platform/middleware/requestmeta"
)

// NewRouter wires all endpoints. Everything under the buyer group requires a
// valid session token; health and metrics stay open for probes and scrapers.
func NewRouter(fulfillmentHandler *handler.Handler, validator auth.TokenValidator, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(requestmeta.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireBuyer(validator, logger))
		fulfillmentHandler.Register(r)
	})

	return r
}
