package services

import (
	"context"
	"fmt"
	"time"

	"textport/internal/models"
	"textport/internal/repositories"

	"github.com/google/uuid"
)

// SubscriptionService handles subscription-related business logic
type SubscriptionService interface {
	Create(ctx context.Context, tenantID uuid.UUID, planID string) (*models.Subscription, error)
	GetByID(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*models.Subscription, error)
	GetActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error)
	List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Subscription, error)
	GetAvailablePlans() map[string]PlanConfig
}

// PlanConfig represents a subscription plan configuration
type PlanConfig struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Amount          float64  `json:"amount"`
	Currency        string   `json:"currency"`
	Interval        string   `json:"interval"`
	MonthlySegments int      `json:"monthly_segments"`
	Features        []string `json:"features"`
}

var availablePlans = map[string]PlanConfig{
	"starter": {
		ID:              "starter",
		Name:            "Starter",
		Description:     "One local number for small businesses getting started with SMS",
		Amount:          29.0,
		Currency:        "USD",
		Interval:        "monthly",
		MonthlySegments: 1000,
		Features: []string{
			"1 local phone number",
			"1,000 message segments / month",
			"Email support",
		},
	},
	"growth": {
		ID:              "growth",
		Name:            "Growth",
		Description:     "Higher volume messaging for growing businesses",
		Amount:          79.0,
		Currency:        "USD",
		Interval:        "monthly",
		MonthlySegments: 5000,
		Features: []string{
			"1 local phone number",
			"5,000 message segments / month",
			"Campaign scheduling",
			"Priority support",
		},
	},
	"scale": {
		ID:              "scale",
		Name:            "Scale",
		Description:     "Full-volume messaging with dedicated support",
		Amount:          199.0,
		Currency:        "USD",
		Interval:        "monthly",
		MonthlySegments: 25000,
		Features: []string{
			"1 local phone number",
			"25,000 message segments / month",
			"Dedicated account manager",
			"API access",
		},
	},
}

type subscriptionService struct {
	subscriptionRepo repositories.SubscriptionRepository
}

func NewSubscriptionService(subscriptionRepo repositories.SubscriptionRepository) SubscriptionService {
	return &subscriptionService{subscriptionRepo: subscriptionRepo}
}

func (s *subscriptionService) Create(ctx context.Context, tenantID uuid.UUID, planID string) (*models.Subscription, error) {
	plan, exists := availablePlans[planID]
	if !exists {
		return nil, fmt.Errorf("invalid plan: %s", planID)
	}

	now := time.Now()
	endDate := now.AddDate(0, 1, 0)

	subscription := &models.Subscription{
		ID:        uuid.New(),
		TenantID:  tenantID,
		PlanName:  plan.Name,
		Amount:    plan.Amount,
		Currency:  plan.Currency,
		Status:    models.SubscriptionStatusActive,
		StartDate: now,
		EndDate:   &endDate,
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return subscription, nil
}

func (s *subscriptionService) GetByID(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*models.Subscription, error) {
	return s.subscriptionRepo.GetByID(ctx, tenantID, subscriptionID)
}

func (s *subscriptionService) GetActiveByTenant(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	return s.subscriptionRepo.GetActiveByTenant(ctx, tenantID)
}

func (s *subscriptionService) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]*models.Subscription, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	return s.subscriptionRepo.List(ctx, tenantID, limit, offset)
}

// GetAvailablePlans returns all available subscription plans
func (s *subscriptionService) GetAvailablePlans() map[string]PlanConfig {
	result := make(map[string]PlanConfig)
	for k, v := range availablePlans {
		result[k] = v
	}
	return result
}
