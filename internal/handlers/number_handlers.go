package handlers

import (
	"errors"
	"net/http"

	"textport/internal/common"
	"textport/internal/models"
	"textport/internal/repositories"
	"textport/internal/services"

	"github.com/labstack/echo/v4"
)

// NumberHandlers handles administrative inventory endpoints
type NumberHandlers struct {
	allocator services.AllocatorService
}

// NewNumberHandlers creates a new number handlers instance
func NewNumberHandlers(allocator services.AllocatorService) *NumberHandlers {
	return &NumberHandlers{allocator: allocator}
}

// IngestNumberRequest represents the manual ingest payload
type IngestNumberRequest struct {
	PhoneNumber     string   `json:"phone_number"`
	CarrierNumberID string   `json:"carrier_number_id"`
	MonthlyPrice    *float64 `json:"monthly_price"`
}

// IngestNumber handles out-of-band number acquisition
func (h *NumberHandlers) IngestNumber(c echo.Context) error {
	var req IngestNumberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}
	if req.PhoneNumber == "" {
		return common.SendValidationError(c, "phone_number", "phone_number is required")
	}

	result, err := h.allocator.Ingest(c.Request().Context(), req.PhoneNumber, req.CarrierNumberID, models.NumberSourceManual, req.MonthlyPrice)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPhoneNumber) {
			return common.SendValidationError(c, "phone_number", err.Error())
		}
		return common.SendServerError(c, "Failed to ingest number")
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	return c.JSON(status, result)
}

// SearchNumbersRequest represents query parameters for inventory search
type SearchNumbersRequest struct {
	Query      string `query:"q"`
	AreaCode   string `query:"area_code"`
	Status     string `query:"status"`
	PrevTenant string `query:"previous_tenant_id"`
	Limit      int    `query:"limit"`
	Offset     int    `query:"offset"`
}

// SearchNumbers handles filtered inventory listing for the ops dashboard
func (h *NumberHandlers) SearchNumbers(c echo.Context) error {
	var req SearchNumbersRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid query parameters")
	}

	limit, offset := common.ValidatePaginationParams(req.Limit, req.Offset)
	filter := &models.NumberSearchFilter{
		Query:    req.Query,
		AreaCode: req.AreaCode,
		Status:   req.Status,
		Limit:    limit,
		Offset:   offset,
	}
	if req.PrevTenant != "" {
		prevID, err := common.ValidateUUID(req.PrevTenant, "previous_tenant_id")
		if err != nil {
			return common.SendValidationError(c, "previous_tenant_id", err.Error())
		}
		filter.PreviousTenantID = &prevID
	}

	numbers, err := h.allocator.Search(c.Request().Context(), filter)
	if err != nil {
		return common.SendServerError(c, "Failed to search inventory")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"numbers": numbers,
		"limit":   limit,
		"offset":  offset,
	})
}

// Stats returns the pool snapshot for the operations dashboard
func (h *NumberHandlers) Stats(c echo.Context) error {
	snapshot, err := h.allocator.Stats(c.Request().Context())
	if err != nil {
		return common.SendServerError(c, "Failed to compute inventory stats")
	}
	return c.JSON(http.StatusOK, snapshot)
}

// GetNumber returns one inventory record by its canonical number string
func (h *NumberHandlers) GetNumber(c echo.Context) error {
	number, err := h.allocator.GetByNumber(c.Request().Context(), c.Param("number"))
	if err != nil {
		if errors.Is(err, repositories.ErrNumberNotFound) {
			return common.SendNotFoundError(c, "Phone number")
		}
		return common.SendServerError(c, "Failed to load number")
	}
	return c.JSON(http.StatusOK, number)
}

// SetCarrierRequest represents the carrier registration override payload
type SetCarrierRequest struct {
	CarrierNumberID *string `json:"carrier_number_id"`
}

// SetCarrierNumberID sets or clears the carrier-side identifier without
// touching lifecycle status
func (h *NumberHandlers) SetCarrierNumberID(c echo.Context) error {
	var req SetCarrierRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request payload")
	}

	number, err := h.allocator.SetCarrierNumberID(c.Request().Context(), c.Param("number"), req.CarrierNumberID)
	if err != nil {
		if errors.Is(err, repositories.ErrNumberNotFound) {
			return common.SendNotFoundError(c, "Phone number")
		}
		return common.SendServerError(c, "Failed to update carrier registration")
	}
	return c.JSON(http.StatusOK, number)
}

// ReleaseNumber is the manual release path for operations; the regular
// path runs through subscription cancellation
func (h *NumberHandlers) ReleaseNumber(c echo.Context) error {
	number, err := h.allocator.Release(c.Request().Context(), c.Param("number"))
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNumberNotFound):
			return common.SendNotFoundError(c, "Phone number")
		case errors.Is(err, repositories.ErrNotAssigned):
			return common.SendConflictError(c, "NOT_ASSIGNED", "Number is not currently assigned")
		default:
			return common.SendServerError(c, "Failed to release number")
		}
	}
	return c.JSON(http.StatusOK, number)
}
