package http

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/service"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	queryDateLayout = "2006-01-02"
	maxRangeDays    = 366
)

// AnalyticsHandler отдает сводную аналитику по ссылкам
type AnalyticsHandler struct {
	analytics   *analytics.Service
	links       *service.LinkService
	plans       *service.PlanService
	defaultDays int
	now         func() time.Time
	log         *zap.Logger
}

// NewAnalyticsHandler создает обработчик аналитики
func NewAnalyticsHandler(svc *analytics.Service, links *service.LinkService, plans *service.PlanService, defaultDays int, log *zap.Logger) *AnalyticsHandler {
	if defaultDays <= 0 {
		defaultDays = 7
	}
	return &AnalyticsHandler{
		analytics:   svc,
		links:       links,
		plans:       plans,
		defaultDays: defaultDays,
		now:         time.Now,
		log:         log,
	}
}

// LinkAnalytics returns the rollup of one link.
//
//	@Summary		Link analytics
//	@Description	Daily summary, hourly distribution and top countries, devices and browsers. The range is clamped to the plan's retention.
//	@Tags			Analytics
//	@Produce		json
//	@Security		BearerAuth
//	@Param			linkId	path		int		true	"Link ID"
//	@Param			range	query		string	false	"Last N days, e.g. 7d, 30d, 90d"
//	@Param			from	query		string	false	"First day, YYYY-MM-DD"
//	@Param			to		query		string	false	"Last day, YYYY-MM-DD"
//	@Success		200		{object}	analytics.Rollup
//	@Failure		400		{object}	ErrorResponse	"Invalid range"
//	@Failure		404		{object}	ErrorResponse	"Link not found"
//	@Router			/analytics/{linkId} [get]
func (h *AnalyticsHandler) LinkAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	linkID, ok := pathID(r, "linkId")
	if !ok {
		writeError(w, "Invalid link ID", http.StatusBadRequest)
		return
	}

	link, err := h.links.GetLink(r.Context(), userID, linkID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	h.serveRollup(w, r, userID, fmt.Sprintf("link:%d", link.ID), []int64{link.ID})
}

// OwnerAnalytics returns the rollup over all links of the owner.
//
//	@Summary	Owner analytics
//	@Tags		Analytics
//	@Produce	json
//	@Security	BearerAuth
//	@Param		range	query		string	false	"Last N days, e.g. 7d, 30d, 90d"
//	@Param		from	query		string	false	"First day, YYYY-MM-DD"
//	@Param		to		query		string	false	"Last day, YYYY-MM-DD"
//	@Success	200		{object}	analytics.Rollup
//	@Failure	400		{object}	ErrorResponse	"Invalid range"
//	@Router		/api/analytics [get]
func (h *AnalyticsHandler) OwnerAnalytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}

	links, err := h.links.ListLinks(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	ids := lo.Map(links, func(l *domain.Link, _ int) int64 { return l.ID })

	h.serveRollup(w, r, userID, fmt.Sprintf("owner:%d", userID), ids)
}

func (h *AnalyticsHandler) serveRollup(w http.ResponseWriter, r *http.Request, userID int64, scope string, linkIDs []int64) {
	now := h.now()
	loc := h.analytics.Aggregator().Location()

	rng, err := parseRange(r, now, loc, h.defaultDays)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	rng, err = h.plans.ClampRange(r.Context(), userID, rng, now)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	rollup, err := h.analytics.Rollup(r.Context(), scope, linkIDs, rng)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, rollup, http.StatusOK)
}

// parseRange reads either range=Nd or from/to dates. Without parameters the last
// defaultDays days are used.
func parseRange(r *http.Request, now time.Time, loc *time.Location, defaultDays int) (analytics.Range, error) {
	q := r.URL.Query()
	from, to, span := q.Get("from"), q.Get("to"), q.Get("range")

	switch {
	case from != "" || to != "":
		if from == "" || to == "" {
			return analytics.Range{}, domain.NewValidationError("range", "from and to must be given together")
		}
		f, err := time.ParseInLocation(queryDateLayout, from, loc)
		if err != nil {
			return analytics.Range{}, domain.NewValidationError("from", "expected YYYY-MM-DD")
		}
		t, err := time.ParseInLocation(queryDateLayout, to, loc)
		if err != nil {
			return analytics.Range{}, domain.NewValidationError("to", "expected YYYY-MM-DD")
		}
		rng, err := analytics.NewRange(f, t, loc)
		if err != nil {
			return analytics.Range{}, domain.NewValidationError("range", err.Error())
		}
		if rng.Days() > maxRangeDays {
			return analytics.Range{}, domain.NewValidationError("range", fmt.Sprintf("range cannot exceed %d days", maxRangeDays))
		}
		return rng, nil

	case span != "":
		days, err := strconv.Atoi(strings.TrimSuffix(span, "d"))
		if err != nil || days < 1 || days > maxRangeDays {
			return analytics.Range{}, domain.NewValidationError("range", "expected a number of days like 7d")
		}
		return analytics.LastDays(days, now, loc), nil

	default:
		return analytics.LastDays(defaultDays, now, loc), nil
	}
}
