package handlers

import (
	"errors"
	"net/http"

	"textport/internal/common"
	"textport/internal/coverage"
	"textport/internal/repositories"
	"textport/internal/services"

	"github.com/labstack/echo/v4"
)

// OnboardingHandlers handles number provisioning during tenant signup
type OnboardingHandlers struct {
	onboarding services.OnboardingService
}

// NewOnboardingHandlers creates a new onboarding handlers instance
func NewOnboardingHandlers(onboarding services.OnboardingService) *OnboardingHandlers {
	return &OnboardingHandlers{onboarding: onboarding}
}

// ProvisionNumberRequest represents the provisioning payload
type ProvisionNumberRequest struct {
	ZipCode string `json:"zip_code"`
}

// ProvisionNumber resolves the tenant's zip to an area code and assigns a
// number from the pool
func (h *OnboardingHandlers) ProvisionNumber(c echo.Context) error {
	var req ProvisionNumberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}

	zip, err := common.ValidateZipCode(req.ZipCode)
	if err != nil {
		return common.SendValidationError(c, "zip_code", err.Error())
	}

	ctx := c.Request().Context()
	tenantID, ok := common.GetTenantIDFromContext(ctx)
	if !ok {
		return common.SendUnauthorizedError(c)
	}

	provisioned, err := h.onboarding.ProvisionNumber(ctx, zip, tenantID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrZipNotSupported):
			return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("ZIP_NOT_SUPPORTED", "Text messaging is not yet available in this area", nil))
		case errors.Is(err, services.ErrNoAvailableNumber):
			return common.SendConflictError(c, "NO_AVAILABLE_NUMBER", "No number is currently available for this area; our team has been notified")
		case errors.Is(err, services.ErrTenantHasNumber):
			return common.SendConflictError(c, "TENANT_HAS_NUMBER", "This account already has a phone number")
		case errors.Is(err, services.ErrTenantInactive):
			return common.SendConflictError(c, "TENANT_INACTIVE", "Account is not active")
		case errors.Is(err, services.ErrProvisionRateLimited):
			return c.JSON(http.StatusTooManyRequests, common.CreateErrorResponse("RATE_LIMITED", "Too many provisioning attempts, try again shortly", nil))
		case errors.Is(err, repositories.ErrTenantNotFound):
			return common.SendNotFoundError(c, "Tenant")
		default:
			return common.SendServerError(c, "Failed to provision number")
		}
	}
	return c.JSON(http.StatusCreated, provisioned)
}

// CheckCoverage reports whether a zip code is inside the coverage table
func (h *OnboardingHandlers) CheckCoverage(c echo.Context) error {
	zip, err := common.ValidateZipCode(c.Param("zip"))
	if err != nil {
		return common.SendValidationError(c, "zip_code", err.Error())
	}

	loc, ok := coverage.Resolve(zip)
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"zip_code":  zip,
			"supported": false,
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"zip_code":  zip,
		"supported": true,
		"location":  loc,
	})
}
