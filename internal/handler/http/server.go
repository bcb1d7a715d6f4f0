package http

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/auth"
	"LinkHub-Backend/internal/classifier"
	"LinkHub-Backend/internal/service"
	"LinkHub-Backend/internal/shield"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Deps зависимости HTTP сервера
type Deps struct {
	Storage    PlanLister
	Links      *service.LinkService
	Folders    *service.FolderService
	Plans      *service.PlanService
	Analytics  *analytics.Service
	Processor  analytics.ProcessorInterface
	Classifier *classifier.Classifier
	Resolver   *shield.Resolver
	Auth       *auth.Middleware
	Limiter    *RateLimiter

	BaseURL          string
	DomainPool       []string
	QRSize           int
	DefaultRangeDays int
}

// Server HTTP сервер с обработчиками
type Server struct {
	linksHandler     *LinksHandler
	foldersHandler   *FoldersHandler
	plansHandler     *PlansHandler
	analyticsHandler *AnalyticsHandler
	redirectHandler  *RedirectHandler
	healthHandler    *HealthHandler
	authMiddleware   *auth.Middleware
	limiter          *RateLimiter
	log              *zap.Logger
}

// NewServer создает новый HTTP сервер
func NewServer(deps Deps, log *zap.Logger) *Server {
	return &Server{
		linksHandler:     NewLinksHandler(deps.Links, deps.Folders, log, deps.BaseURL, deps.QRSize),
		foldersHandler:   NewFoldersHandler(deps.Folders, log),
		plansHandler:     NewPlansHandler(deps.Plans, deps.Links, deps.Folders, log),
		analyticsHandler: NewAnalyticsHandler(deps.Analytics, deps.Links, deps.Plans, deps.DefaultRangeDays, log),
		redirectHandler: NewRedirectHandler(
			deps.Links,
			deps.Classifier,
			deps.Resolver,
			deps.Processor,
			NewPages(),
			RedirectConfig{BaseURL: deps.BaseURL, DomainPool: deps.DomainPool},
			log,
		),
		healthHandler:  NewHealthHandler(deps.Storage, deps.Processor, deps.Analytics, deps.Limiter, log),
		authMiddleware: deps.Auth,
		limiter:        deps.Limiter,
		log:            log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Health checks (без аутентификации)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)
	mux.HandleFunc("GET /metrics", s.healthHandler.Metrics)

	// Swagger документация
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	// CORS preflight для API маршрутов
	preflight := s.withCORS(func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("OPTIONS /api/", preflight)
	mux.HandleFunc("OPTIONS /analytics/", preflight)
	mux.HandleFunc("OPTIONS /resolve/", preflight)

	// Links (с аутентификацией)
	mux.HandleFunc("GET /api/links", s.private(s.linksHandler.ListLinks))
	mux.HandleFunc("POST /api/links", s.private(s.linksHandler.CreateLink))
	mux.HandleFunc("GET /api/links/{id}", s.private(s.linksHandler.GetLink))
	mux.HandleFunc("PATCH /api/links/{id}", s.private(s.linksHandler.UpdateLink))
	mux.HandleFunc("PUT /api/links/{id}", s.private(s.linksHandler.UpdateLink))
	mux.HandleFunc("DELETE /api/links/{id}", s.private(s.linksHandler.DeleteLink))
	mux.HandleFunc("POST /api/links/{id}/duplicate", s.private(s.linksHandler.DuplicateLink))
	mux.HandleFunc("GET /api/links/{id}/qr", s.private(s.linksHandler.QRCode))
	mux.HandleFunc("PUT /api/links/{id}/folder", s.private(s.linksHandler.MoveLink))

	// Folders (с аутентификацией)
	mux.HandleFunc("GET /api/folders", s.private(s.foldersHandler.ListFolders))
	mux.HandleFunc("POST /api/folders", s.private(s.foldersHandler.CreateFolder))
	mux.HandleFunc("PATCH /api/folders/{id}", s.private(s.foldersHandler.UpdateFolder))
	mux.HandleFunc("PUT /api/folders/{id}/parent", s.private(s.foldersHandler.MoveFolder))
	mux.HandleFunc("DELETE /api/folders/{id}", s.private(s.foldersHandler.DeleteFolder))

	// Plans
	mux.HandleFunc("GET /api/plans", s.withCORS(s.plansHandler.ListPlans)) // без аутентификации
	mux.HandleFunc("GET /api/plans/current", s.private(s.plansHandler.GetCurrentPlan))

	// Analytics (с аутентификацией)
	mux.HandleFunc("GET /analytics/{linkId}", s.private(s.analyticsHandler.LinkAnalytics))
	mux.HandleFunc("GET /api/analytics", s.private(s.analyticsHandler.OwnerAnalytics))

	// Публичные endpoints с ограничением частоты запросов
	mux.HandleFunc("POST /resolve/{slug}", s.public(s.redirectHandler.HandleResolve))
	mux.HandleFunc("POST /api/events", s.public(s.redirectHandler.HandleEvent))
	mux.HandleFunc("GET /go/{slug}/{subLinkID}", s.public(s.redirectHandler.HandleSubLink))
	mux.HandleFunc("GET /{slug}", s.public(s.redirectHandler.HandleVisit))

	return mux
}

// withCORS добавляет CORS headers к обработчику
func (s *Server) withCORS(handler http.HandlerFunc) http.HandlerFunc {
	return s.authMiddleware.CORS(handler)
}

func (s *Server) private(handler http.HandlerFunc) http.HandlerFunc {
	return s.withCORS(s.authMiddleware.RequireAuth(handler))
}

func (s *Server) public(handler http.HandlerFunc) http.HandlerFunc {
	if s.limiter != nil {
		handler = s.limiter.Limit(handler)
	}
	return s.withCORS(handler)
}
