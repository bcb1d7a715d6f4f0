package http

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/classifier"
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/service"
	"LinkHub-Backend/internal/shield"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// RedirectConfig holds the public host settings of the redirect handler.
type RedirectConfig struct {
	BaseURL    string
	DomainPool []string
}

// RedirectHandler обработчик публичных визитов: редиректы, интерстишлы,
// мультиссылки и запись событий
type RedirectHandler struct {
	links      *service.LinkService
	classifier *classifier.Classifier
	resolver   *shield.Resolver
	processor  analytics.ProcessorInterface
	pages      *Pages
	scheme     string
	domainPool []string
	log        *zap.Logger
}

// NewRedirectHandler создает новый обработчик редиректов
func NewRedirectHandler(
	links *service.LinkService,
	classifier *classifier.Classifier,
	resolver *shield.Resolver,
	processor analytics.ProcessorInterface,
	pages *Pages,
	cfg RedirectConfig,
	log *zap.Logger,
) *RedirectHandler {
	scheme := "https"
	if u, err := url.Parse(cfg.BaseURL); err == nil && u.Scheme != "" {
		scheme = u.Scheme
	}
	return &RedirectHandler{
		links:      links,
		classifier: classifier,
		resolver:   resolver,
		processor:  processor,
		pages:      pages,
		scheme:     scheme,
		domainPool: cfg.DomainPool,
		log:        log,
	}
}

// ResolveRequest optional body of POST /resolve/{slug}
type ResolveRequest struct {
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
	VisitorID string `json:"visitor_id,omitempty"`
}

// EventRequest body of POST /api/events
type EventRequest struct {
	Slug      string           `json:"slug"`
	Kind      domain.EventKind `json:"kind"`
	SubLinkID *int64           `json:"sub_link_id,omitempty"`
}

// HandleVisit serves a public visit to a slug.
//
//	@Summary		Visit a link
//	@Description	Redirects, renders a shield interstitial or the multi-link page, or blocks the visit
//	@Tags			Public
//	@Produce		html
//	@Param			slug	path	string	true	"Link slug"
//	@Success		200		"Interstitial or multi-link page"
//	@Success		302		"Redirect to the destination"
//	@Failure		403		{object}	ErrorResponse	"Visit blocked"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/{slug} [get]
func (h *RedirectHandler) HandleVisit(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	link, err := h.links.ResolveSlug(r.Context(), slug)
	if err != nil {
		h.log.Debug("slug not resolved", zap.String("slug", slug), zap.Error(err))
		writeServiceError(w, h.log, err)
		return
	}

	cls := h.classifier.Classify(r.UserAgent(), r.Referer(), elapsedSincePageLoad(r))
	vid := visitorID(w, r)

	if !link.IsDirect {
		h.record(r, link, nil, domain.EventView, cls, "")
		if err := h.pages.RenderMultiLink(w, link); err != nil {
			h.log.Error("failed to render multi-link page", zap.String("slug", slug), zap.Error(err))
			writeError(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	d := h.resolver.Resolve(link, h.signals(r, cls, vid, 0))
	h.record(r, link, nil, domain.EventClick, cls, string(d.Kind))

	h.log.Info("visit resolved",
		zap.String("slug", slug),
		zap.String("decision", string(d.Kind)),
		zap.String("device_type", cls.DeviceType),
		zap.Bool("likely_bot", cls.IsLikelyBot),
	)

	h.respond(w, r, link, d)
}

// respond executes a decision for a direct link.
func (h *RedirectHandler) respond(w http.ResponseWriter, r *http.Request, link *domain.Link, d shield.Decision) {
	switch d.Kind {
	case shield.KindBlock:
		writeError(w, "Access denied", http.StatusForbidden)
	case shield.KindDelay, shield.KindAdaptiveContent:
		h.render(w, link, d)
	case shield.KindRotateDomain:
		// Already on a pool host: finish the redirect instead of looping
		if lo.Contains(h.domainPool, r.Host) {
			http.Redirect(w, r, d.DestinationURL, http.StatusFound)
			return
		}
		target := url.URL{Scheme: h.scheme, Host: d.AlternateHost, Path: "/" + link.Slug}
		http.Redirect(w, r, target.String(), http.StatusFound)
	default:
		if d.Obfuscate {
			h.render(w, link, d)
			return
		}
		http.Redirect(w, r, d.DestinationURL, http.StatusFound)
	}
}

func (h *RedirectHandler) render(w http.ResponseWriter, link *domain.Link, d shield.Decision) {
	if err := h.pages.RenderInterstitial(w, link, d); err != nil {
		h.log.Error("failed to render interstitial", zap.String("slug", link.Slug), zap.Error(err))
		writeError(w, "Internal server error", http.StatusInternalServerError)
	}
}

// HandleSubLink records a click on a multi-link entry and redirects to it.
//
//	@Summary		Open a multi-link entry
//	@Tags			Public
//	@Param			slug		path	string	true	"Link slug"
//	@Param			subLinkID	path	int		true	"Sub-link ID"
//	@Success		302			"Redirect to the sub-link URL"
//	@Failure		404			{object}	ErrorResponse	"Link not found"
//	@Router			/go/{slug}/{subLinkID} [get]
func (h *RedirectHandler) HandleSubLink(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	subID, ok := pathID(r, "subLinkID")
	if !ok {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}

	link, err := h.links.ResolveSlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	sub, found := lo.Find(link.SubLinks, func(s domain.SubLink) bool { return s.ID == subID })
	if link.IsDirect || !found {
		writeError(w, "Not found", http.StatusNotFound)
		return
	}

	cls := h.classifier.Classify(r.UserAgent(), r.Referer(), elapsedSincePageLoad(r))
	visitorID(w, r)
	h.record(r, link, &sub.ID, domain.EventClick, cls, "")

	http.Redirect(w, r, sub.URL, http.StatusFound)
}

// HandleResolve returns the shield decision for a slug as JSON.
//
//	@Summary		Resolve a slug
//	@Description	Returns the decision the page renderer must execute for a visit
//	@Tags			Public
//	@Accept			json
//	@Produce		json
//	@Param			slug	path		string			true	"Link slug"
//	@Param			request	body		ResolveRequest	false	"Client timing and visitor ID"
//	@Success		200		{object}	shield.Decision
//	@Failure		400		{object}	ErrorResponse	"Invalid request data"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Failure		429		{object}	ErrorResponse	"Rate limit exceeded"
//	@Router			/resolve/{slug} [post]
func (h *RedirectHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}

	slug := r.PathValue("slug")
	link, err := h.links.ResolveSlug(r.Context(), slug)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	elapsed := elapsedSincePageLoad(r)
	if req.ElapsedMs > 0 {
		elapsed = time.Duration(req.ElapsedMs) * time.Millisecond
	}
	cls := h.classifier.Classify(r.UserAgent(), r.Referer(), elapsed)

	vid := strings.TrimSpace(req.VisitorID)
	if vid == "" {
		vid = visitorID(w, r)
	}

	d := h.resolver.Resolve(link, h.signals(r, cls, vid, elapsed))
	kind := domain.EventClick
	if !link.IsDirect {
		kind = domain.EventView
	}
	h.record(r, link, nil, kind, cls, string(d.Kind))

	writeJSON(w, d, http.StatusOK)
}

// HandleEvent records a view or click reported by the page renderer.
//
//	@Summary		Record a visit event
//	@Tags			Public
//	@Accept			json
//	@Produce		json
//	@Param			request	body		EventRequest		true	"Event"
//	@Success		202		{object}	map[string]string	"Event accepted"
//	@Failure		400		{object}	ErrorResponse		"Invalid request data"
//	@Failure		404		{object}	ErrorResponse		"Link not found"
//	@Failure		429		{object}	ErrorResponse		"Rate limit exceeded"
//	@Router			/api/events [post]
func (h *RedirectHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "Invalid request format", http.StatusBadRequest)
		return
	}
	if !req.Kind.IsValid() {
		writeServiceError(w, h.log, domain.NewValidationError("kind", "kind must be click or view"))
		return
	}
	if req.Slug == "" {
		writeServiceError(w, h.log, domain.NewValidationError("slug", "slug is required"))
		return
	}

	link, err := h.links.ResolveSlug(r.Context(), req.Slug)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	if req.SubLinkID != nil && !lo.ContainsBy(link.SubLinks, func(s domain.SubLink) bool { return s.ID == *req.SubLinkID }) {
		writeServiceError(w, h.log, domain.NewValidationError("sub_link_id", "unknown sub-link"))
		return
	}

	cls := h.classifier.Classify(r.UserAgent(), r.Referer(), elapsedSincePageLoad(r))
	h.record(r, link, req.SubLinkID, req.Kind, cls, "")

	writeJSON(w, map[string]string{"status": "accepted"}, http.StatusAccepted)
}

func (h *RedirectHandler) signals(r *http.Request, cls classifier.Classification, vid string, elapsed time.Duration) shield.Signals {
	if elapsed == 0 {
		elapsed = elapsedSincePageLoad(r)
	}
	return shield.Signals{
		UserAgent:            r.UserAgent(),
		Referrer:             r.Referer(),
		ElapsedSincePageLoad: elapsed,
		IsLikelyBot:          cls.IsLikelyBot,
		VisitorID:            vid,
		At:                   time.Now(),
	}
}

// record hands the visit to the analytics processor. A dropped visit never fails
// the request.
func (h *RedirectHandler) record(r *http.Request, link *domain.Link, subLinkID *int64, kind domain.EventKind, cls classifier.Classification, decision string) {
	visit := &analytics.Visit{
		LinkID:     link.ID,
		SubLinkID:  subLinkID,
		Kind:       kind,
		OccurredAt: time.Now(),
		IPAddress:  extractIPAddress(r),
		UserAgent:  r.UserAgent(),
		Referrer:   classifier.ReferrerHost(r.Referer()),
		DeviceType: cls.DeviceType,
		Browser:    cls.Browser,
		OS:         cls.OS,
		Country:    headerCountry(r),
		Decision:   decision,
	}
	if err := h.processor.Submit(visit); err != nil {
		h.log.Warn("visit not recorded", zap.String("slug", link.Slug), zap.Error(err))
	}
}
