package service

import (
	"LinkHub-Backend/internal/analytics"
	"LinkHub-Backend/internal/domain"
	"LinkHub-Backend/internal/repository"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// PlanService answers plan limit and feature questions for owners.
type PlanService struct {
	storage repository.Storage
	log     *zap.Logger
}

func NewPlanService(storage repository.Storage, log *zap.Logger) *PlanService {
	return &PlanService{storage: storage, log: log}
}

// PlanFor returns the owner's plan, registering owners seen for the first time.
func (s *PlanService) PlanFor(ctx context.Context, ownerID int64) (*domain.Plan, error) {
	user, err := s.storage.FindOrCreateUser(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	plan, err := s.storage.GetPlan(ctx, user.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan %d: %w", user.PlanID, err)
	}
	return plan, nil
}

// ListPlans returns every available plan.
func (s *PlanService) ListPlans(ctx context.Context) ([]domain.Plan, error) {
	plans, err := s.storage.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	return plans, nil
}

// CheckLimit returns a LimitExceededError when proposed is above the owner's limit.
func (s *PlanService) CheckLimit(ctx context.Context, ownerID int64, limit domain.LimitName, proposed int) error {
	plan, err := s.PlanFor(ctx, ownerID)
	if err != nil {
		return err
	}
	return checkLimit(plan, limit, proposed)
}

// RequireFeature returns a LimitExceededError when the owner's plan lacks feature.
func (s *PlanService) RequireFeature(ctx context.Context, ownerID int64, feature domain.PlanFeature) error {
	plan, err := s.PlanFor(ctx, ownerID)
	if err != nil {
		return err
	}
	return requireFeature(plan, feature)
}

// ClampRange shortens rng so it does not reach further back than the plan's
// analytics retention, counted from now.
func (s *PlanService) ClampRange(ctx context.Context, ownerID int64, rng analytics.Range, now time.Time) (analytics.Range, error) {
	plan, err := s.PlanFor(ctx, ownerID)
	if err != nil {
		return analytics.Range{}, err
	}
	return clampRange(plan, rng, now), nil
}

func clampRange(plan *domain.Plan, rng analytics.Range, now time.Time) analytics.Range {
	if plan.AnalyticsRetentionDays <= 0 {
		return rng
	}
	earliest := analytics.LastDays(int(plan.AnalyticsRetentionDays), now, rng.From.Location()).From
	if rng.From.Before(earliest) {
		rng.From = earliest
	}
	if rng.To.Before(rng.From) {
		rng.To = rng.From
	}
	return rng
}

func checkLimit(plan *domain.Plan, limit domain.LimitName, proposed int) error {
	if !plan.Allows(limit, proposed) {
		return &domain.LimitExceededError{Limit: string(limit)}
	}
	return nil
}

func requireFeature(plan *domain.Plan, feature domain.PlanFeature) error {
	if !plan.HasFeature(feature) {
		return &domain.LimitExceededError{Limit: string(feature)}
	}
	return nil
}
