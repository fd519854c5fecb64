package handler

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/tastebook/internal/domain"
	"github.com/yourorg/tastebook/internal/observability/metrics"
	"github.com/yourorg/tastebook/internal/security/auth"
	"github.com/yourorg/tastebook/internal/security/middleware"
	"github.com/yourorg/tastebook/internal/security/ratelimit"
	"github.com/yourorg/tastebook/internal/service"
	"github.com/yourorg/tastebook/internal/tenant"
)

// Services are the application services exposed over HTTP
type Services struct {
	PlaceTypes *service.CatalogService[domain.PlaceType]
	Tags       *service.CatalogService[domain.Tag]
	Foods      *service.CatalogService[domain.Food]
	Areas      *service.CatalogService[domain.Area]
	Places     *service.PlaceService
	Visits     *service.VisitService
	VisitFoods *service.VisitFoodService
}

// RouterConfig wires the router
type RouterConfig struct {
	Services    Services
	Tokens      *auth.TokenManager
	Resolver    *tenant.Resolver
	Limiter     *ratelimit.Limiter
	Checks      map[string]Pinger
	CORSOrigins []string
	Logger      *slog.Logger
}

// NewRouter builds the HTTP surface: routes, middleware chain and tracing
func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, metrics.HTTPMetricsMiddleware(h))
	}

	health := NewHealthHandler(cfg.Checks, log)
	handle("GET /healthz", health.Health)
	handle("GET /readyz", health.Ready)
	mux.Handle("GET /metrics", promhttp.Handler())

	catalog(handle, "/api/place-types", NewCatalogHandler(cfg.Services.PlaceTypes, log))
	catalog(handle, "/api/tags", NewCatalogHandler(cfg.Services.Tags, log))
	catalog(handle, "/api/foods", NewCatalogHandler(cfg.Services.Foods, log))

	areas := NewCatalogHandler(cfg.Services.Areas, log)
	handle("GET /api/areas", areas.List)
	handle("GET /api/areas/{id}", areas.Get)

	places := NewPlacesHandler(cfg.Services.Places, log)
	handle("GET /api/places", places.List)
	handle("POST /api/places", places.Create)
	handle("GET /api/places/{id}", places.Get)
	handle("PATCH /api/places/{id}", places.Update)
	handle("DELETE /api/places/{id}", places.Delete)
	handle("PUT /api/places/{id}/tags", places.SetTags)

	visits := NewVisitsHandler(cfg.Services.Visits, log)
	handle("GET /api/visits", visits.List)
	handle("POST /api/visits", visits.Create)
	handle("POST /api/visits/create-with-foods", visits.CreateWithFoods)
	handle("GET /api/visits/{id}", visits.Get)
	handle("PATCH /api/visits/{id}", visits.Update)
	handle("DELETE /api/visits/{id}", visits.Delete)

	visitFoods := NewVisitFoodsHandler(cfg.Services.VisitFoods, log)
	handle("GET /api/visit-foods", visitFoods.List)
	handle("POST /api/visit-foods", visitFoods.Create)
	handle("GET /api/visit-foods/{id}", visitFoods.Get)
	handle("PATCH /api/visit-foods/{id}", visitFoods.Update)
	handle("DELETE /api/visit-foods/{id}", visitFoods.Delete)
	handle("GET /api/foods/{id}/latest-by-place", visitFoods.LatestByPlace)

	// request id -> CORS -> body limits -> tenant -> rate limit
	chain := []func(http.Handler) http.Handler{
		middleware.RequestID(log),
		middleware.CORS(cfg.CORSOrigins),
		middleware.LimitBody,
		middleware.ValidateJSONContentType(log),
		middleware.TenantMiddleware(cfg.Tokens, cfg.Resolver, log),
	}
	if cfg.Limiter != nil {
		chain = append(chain, middleware.RateLimitMiddleware(cfg.Limiter, log))
	}

	return otelhttp.NewHandler(middleware.Chain(mux, chain...), "tastebook.http")
}

func catalog[T domain.Entity](handle func(string, http.HandlerFunc), prefix string, h *CatalogHandler[T]) {
	handle("GET "+prefix, h.List)
	handle("POST "+prefix, h.Create)
	handle("GET "+prefix+"/{id}", h.Get)
	handle("PATCH "+prefix+"/{id}", h.Update)
	handle("DELETE "+prefix+"/{id}", h.Delete)
}
