package handler

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/phishsim/internal/db"
	"github.com/unclebandit/phishsim/internal/metrics"
)

// Routes wires every handler onto one chi router.
type Routes struct {
	Campaigns *CampaignHandler
	Tracking  *TrackingHandler
	Health    *HealthHandler
	// Pool backs the per-request store scope. Nil disables it.
	Pool     *sql.DB
	Gatherer prometheus.Gatherer
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	if rt.Pool != nil {
		r.Use(db.ScopeMiddleware(rt.Pool))
	}

	// Campaign routes
	r.Get("/", rt.Campaigns.Dashboard)
	r.Get("/new_campaign", rt.Campaigns.NewCampaignForm)
	r.Post("/new_campaign", rt.Campaigns.CreateCampaign)
	r.Get("/campaigns/{id}", rt.Campaigns.GetCampaignHandlerWithStats)

	// Tracking routes
	r.Get("/track_open/{trackingID}", rt.Tracking.TrackOpen)
	r.Get("/track/{campaignID:[0-9]+}/{trackingID}", rt.Tracking.TrackClick)
	r.Post("/submit/{campaignID:[0-9]+}/{trackingID}", rt.Tracking.Submit)
	r.Get("/education", rt.Tracking.Education)

	if rt.Health != nil {
		r.Get("/healthz", rt.Health.Healthz)
	}
	if rt.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(rt.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
