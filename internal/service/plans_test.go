package service

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/domain"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanFor_NewOwnerGetsFreePlan(t *testing.T) {
	f := newFixture(t)
	plan, err := f.plans.PlanFor(context.Background(), 12345)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, plan.Name)
}

func TestCheckLimit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.NoError(t, f.plans.CheckLimit(ctx, freeOwner, domain.LimitLinksPerPage, 5))
	assert.True(t, domain.IsLimitExceeded(f.plans.CheckLimit(ctx, freeOwner, domain.LimitLinksPerPage, 6)))
	assert.NoError(t, f.plans.CheckLimit(ctx, premiumOwner, domain.LimitLinksPerPage, 100000))
}

func TestRequireFeature(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.True(t, domain.IsLimitExceeded(f.plans.RequireFeature(ctx, freeOwner, domain.FeatureDirectLinks)))
	assert.NoError(t, f.plans.RequireFeature(ctx, standardOwner, domain.FeatureShieldLinks))
	assert.True(t, domain.IsLimitExceeded(f.plans.RequireFeature(ctx, standardOwner, domain.FeatureUltraLinks)))
	assert.NoError(t, f.plans.RequireFeature(ctx, premiumOwner, domain.FeatureUltraLinks))
}

func TestClampRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 30, 15, 0, 0, 0, time.UTC)

	rng := analytics.LastDays(90, now, time.UTC)

	clamped, err := f.plans.ClampRange(ctx, freeOwner, rng, now)
	require.NoError(t, err)
	assert.Equal(t, 7, clamped.Days())
	assert.Equal(t, rng.To, clamped.To)

	clamped, err = f.plans.ClampRange(ctx, standardOwner, rng, now)
	require.NoError(t, err)
	assert.Equal(t, rng, clamped)

	old := analytics.Range{From: now.AddDate(0, 0, -60), To: now.AddDate(0, 0, -30)}
	clamped, err = f.plans.ClampRange(ctx, freeOwner, old, now)
	require.NoError(t, err)
	assert.Equal(t, clamped.From, clamped.To, "a range entirely past retention collapses to its first kept day")
}

func TestListPlans(t *testing.T) {
	f := newFixture(t)
	plans, err := f.plans.ListPlans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, domain.PlanFree, plans[0].Name)
}
