package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/logging"
	"github.com/irisuniflora/VF/internal/infrastructure/monitoring/prometheus"
	"github.com/irisuniflora/VF/internal/interfaces/http/handlers"
	"github.com/irisuniflora/VF/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware of the route tree.
// Nil handlers leave their routes unregistered.
type RouterConfig struct {
	FileHandler      *handlers.FileHandler
	StructureHandler *handlers.StructureHandler
	ViewerHandler    *handlers.ViewerHandler
	HealthHandler    *handlers.HealthHandler

	// StaticDir is served at "/" when set.
	StaticDir string

	CORS    *middleware.CORSConfig
	Logging *middleware.LoggingConfig

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string
}

// NewRouter builds the HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logging != nil && cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, *cfg.Logging))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if h := cfg.HealthHandler; h != nil {
		r.Get("/healthz", h.Liveness)
		r.Get("/readyz", h.Readiness)
		r.Get("/api/health", h.APIHealth)
	}
	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsCollector.Handler())
	}
	if cfg.FileHandler != nil {
		r.Post("/api/read_pdb", cfg.FileHandler.ReadPDB)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerStructureRoutes(api, cfg.StructureHandler)
		registerViewerRoutes(api, cfg.ViewerHandler)
	})

	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	return r
}

func registerStructureRoutes(r chi.Router, h *handlers.StructureHandler) {
	if h == nil {
		return
	}
	r.Route("/structures", func(sr chi.Router) {
		sr.Get("/", h.List)
		sr.Post("/", h.Load)
		sr.Put("/active", h.Activate)

		sr.Route("/{structureID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Remove)
			item.Get("/sequence", h.Sequence)
		})
	})
}

func registerViewerRoutes(r chi.Router, h *handlers.ViewerHandler) {
	if h == nil {
		return
	}
	r.Route("/viewer", func(vr chi.Router) {
		vr.Get("/state", h.State)
		vr.Get("/scene", h.Scene)
		vr.Get("/interactions", h.Interactions)

		vr.Post("/click", h.Click)
		vr.Post("/click-empty", h.ClickEmpty)
		vr.Put("/selection", h.Select)
		vr.Post("/pointer", h.Pointer)

		vr.Post("/regions", h.CreateRegion)
		vr.Put("/regions/active", h.ActivateRegion)
		vr.Delete("/regions/{regionID}", h.DeleteRegion)

		vr.Put("/color", h.SetColor)
		vr.Delete("/color", h.ClearColor)
		vr.Put("/style", h.SetStyle)
		vr.Put("/scheme", h.SetScheme)
		vr.Post("/representations/{kind}/toggle", h.ToggleRepresentation)
		vr.Put("/representations/{kind}/mode", h.SetRepresentationMode)
		vr.Post("/nearby/toggle", h.ToggleNearby)
		vr.Post("/hetero/toggle", h.ToggleHetero)
		vr.Post("/interactions/toggle", h.ToggleInteractions)
		vr.Post("/overlay/toggle", h.ToggleOverlay)
		vr.Put("/chains", h.SetChains)
	})
}
