package handlers

import (
	"errors"
	"net/http"

	"textport/internal/common"
	"textport/internal/repositories"
	"textport/internal/services"

	"github.com/labstack/echo/v4"
)

// SubscriptionHandlers handles subscription lifecycle endpoints
type SubscriptionHandlers struct {
	subscriptions services.SubscriptionService
	cancellation  services.CancellationService
}

// NewSubscriptionHandlers creates a new subscription handlers instance
func NewSubscriptionHandlers(subscriptions services.SubscriptionService, cancellation services.CancellationService) *SubscriptionHandlers {
	return &SubscriptionHandlers{
		subscriptions: subscriptions,
		cancellation:  cancellation,
	}
}

// ListPlans returns the plan catalog
func (h *SubscriptionHandlers) ListPlans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.subscriptions.GetAvailablePlans())
}

// CreateSubscriptionRequest represents the subscription creation payload
type CreateSubscriptionRequest struct {
	PlanID string `json:"plan_id"`
}

// CreateSubscription starts a subscription for the authenticated tenant
func (h *SubscriptionHandlers) CreateSubscription(c echo.Context) error {
	var req CreateSubscriptionRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	if req.PlanID == "" {
		return common.SendValidationError(c, "plan_id", "plan_id is required")
	}

	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	subscription, err := h.subscriptions.Create(ctx, tenantID, req.PlanID)
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	return c.JSON(http.StatusCreated, subscription)
}

// GetSubscription returns one subscription for the authenticated tenant
func (h *SubscriptionHandlers) GetSubscription(c echo.Context) error {
	subscriptionID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	subscription, err := h.subscriptions.GetByID(ctx, tenantID, subscriptionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSubscriptionNotFound) {
			return common.SendNotFoundError(c, "Subscription")
		}
		return common.SendServerError(c, "Failed to load subscription")
	}
	return c.JSON(http.StatusOK, subscription)
}

// ListSubscriptionsRequest represents query parameters for listing
type ListSubscriptionsRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// ListSubscriptions lists the authenticated tenant's subscriptions
func (h *SubscriptionHandlers) ListSubscriptions(c echo.Context) error {
	var req ListSubscriptionsRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	subscriptions, err := h.subscriptions.List(ctx, tenantID, req.Limit, req.Offset)
	if err != nil {
		return common.SendServerError(c, "Failed to list subscriptions")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"subscriptions": subscriptions,
	})
}

// CancelSubscription cancels a subscription, quarantines the tenant's
// number and deactivates the tenant in one transaction
func (h *SubscriptionHandlers) CancelSubscription(c echo.Context) error {
	subscriptionID, err := common.ValidateUUID(c.Param("id"), "id")
	if err != nil {
		return common.SendValidationError(c, "id", err.Error())
	}

	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	result, err := h.cancellation.Cancel(ctx, tenantID, subscriptionID)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSubscriptionNotFound):
			return common.SendNotFoundError(c, "Subscription")
		case errors.Is(err, repositories.ErrTenantNotFound):
			return common.SendNotFoundError(c, "Tenant")
		default:
			return common.SendServerError(c, "Failed to cancel subscription")
		}
	}
	return c.JSON(http.StatusOK, result)
}
