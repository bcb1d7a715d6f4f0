package http

import (
	"LinkHub-Backend/internal/domain"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlansAPI_List(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/plans", nil, 0)
	require.Equal(t, http.StatusOK, rec.Code)

	plans := decodeBody[[]domain.Plan](t, rec)
	require.Len(t, plans, 3)
	assert.Equal(t, domain.PlanFree, plans[0].Name)
	assert.False(t, plans[0].DirectLinks)
	assert.True(t, plans[2].UltraLinks)
}

func TestPlansAPI_Current(t *testing.T) {
	ts := newTestServer(t)
	ts.createLink(freeOwner, multiLink("Mine"))
	ts.createFolder(freeOwner, "Box", nil)

	rec := ts.do(http.MethodGet, "/api/plans/current", nil, freeOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decodeBody[CurrentPlanResponse](t, rec)
	assert.Equal(t, domain.PlanFree, resp.CurrentPlan.Name)
	assert.Equal(t, PlanUsage{Links: 1, Folders: 1}, resp.Usage)
	assert.True(t, resp.CanUpgrade)
	assert.Len(t, resp.AvailablePlans, 2)

	rec = ts.do(http.MethodGet, "/api/plans/current", nil, premiumOwner)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decodeBody[CurrentPlanResponse](t, rec)
	assert.Equal(t, domain.PlanPremium, resp.CurrentPlan.Name)
	assert.False(t, resp.CanUpgrade)

	rec = ts.do(http.MethodGet, "/api/plans/current", nil, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
