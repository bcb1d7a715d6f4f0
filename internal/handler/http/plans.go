package http

import (
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/service"
	"net/http"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PlansHandler handles plan-related HTTP requests
type PlansHandler struct {
	plans   *service.PlanService
	links   *service.LinkService
	folders *service.FolderService
	log     *zap.Logger
}

// NewPlansHandler creates a new plans handler
func NewPlansHandler(plans *service.PlanService, links *service.LinkService, folders *service.FolderService, log *zap.Logger) *PlansHandler {
	return &PlansHandler{
		plans:   plans,
		links:   links,
		folders: folders,
		log:     log,
	}
}

// PlanUsage represents how much of the plan limits the owner uses
type PlanUsage struct {
	Links   int `json:"links"`
	Folders int `json:"folders"`
}

// CurrentPlanResponse represents the owner's current plan
type CurrentPlanResponse struct {
	CurrentPlan    domain.Plan   `json:"current_plan"`
	Usage          PlanUsage     `json:"usage"`
	CanUpgrade     bool          `json:"can_upgrade"`
	AvailablePlans []domain.Plan `json:"available_plans"`
}

// ListPlans handles GET /api/plans
//
//	@Summary	List plans
//	@Tags		Plans
//	@Produce	json
//	@Success	200	{array}	domain.Plan
//	@Router		/api/plans [get]
func (h *PlansHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListPlans(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	writeJSON(w, plans, http.StatusOK)
}

// GetCurrentPlan handles GET /api/plans/current
//
//	@Summary	Current plan and usage
//	@Tags		Plans
//	@Produce	json
//	@Security	BearerAuth
//	@Success	200	{object}	CurrentPlanResponse
//	@Failure	401	{object}	ErrorResponse	"Authentication required"
//	@Router		/api/plans/current [get]
func (h *PlansHandler) GetCurrentPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := ownerID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	current, err := h.plans.PlanFor(ctx, userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	allPlans, err := h.plans.ListPlans(ctx)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	links, err := h.links.ListLinks(ctx, userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}
	folders, err := h.folders.ListFolders(ctx, userID)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	available := lo.Filter(allPlans, func(p domain.Plan, _ int) bool { return p.ID != current.ID })

	writeJSON(w, CurrentPlanResponse{
		CurrentPlan:    *current,
		Usage:          PlanUsage{Links: len(links), Folders: len(folders)},
		CanUpgrade:     lo.ContainsBy(available, func(p domain.Plan) bool { return p.ID > current.ID }),
		AvailablePlans: available,
	}, http.StatusOK)
}
