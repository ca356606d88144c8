package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"textport/internal/caching"
	"textport/internal/coverage"
	"textport/internal/models"
	"textport/internal/repositories"

	"github.com/google/uuid"
)

var (
	// ErrZipNotSupported means the postal code is outside the coverage
	// table. User-facing; retrying with the same zip will not help.
	ErrZipNotSupported = errors.New("zip code is not in a supported coverage area")
	// ErrTenantInactive means the tenant is not in a state that allows
	// number provisioning.
	ErrTenantInactive = errors.New("tenant is not active")
	// ErrProvisionRateLimited means the tenant exceeded the provisioning
	// request budget for the window.
	ErrProvisionRateLimited = errors.New("provisioning rate limit exceeded")
)

const (
	provisionRateLimit  = 5
	provisionRateWindow = time.Minute
)

// Provisioned is the onboarding result handed back to the signup flow.
type Provisioned struct {
	PhoneNumber string            `json:"phone_number"`
	AreaCode    string            `json:"area_code"`
	Location    coverage.Location `json:"location"`
	Source      string            `json:"source,omitempty"`
}

// OnboardingService composes the coverage resolver with the allocator to
// provision a number for a newly subscribed tenant.
type OnboardingService interface {
	ProvisionNumber(ctx context.Context, zipCode string, tenantID uuid.UUID) (*Provisioned, error)
}

type onboardingService struct {
	allocator  AllocatorService
	tenantRepo repositories.TenantRepository
	cacheSvc   caching.CacheService
}

func NewOnboardingService(allocator AllocatorService, tenantRepo repositories.TenantRepository, cacheSvc caching.CacheService) OnboardingService {
	return &onboardingService{
		allocator:  allocator,
		tenantRepo: tenantRepo,
		cacheSvc:   cacheSvc,
	}
}

func (s *onboardingService) ProvisionNumber(ctx context.Context, zipCode string, tenantID uuid.UUID) (*Provisioned, error) {
	loc, ok := coverage.Resolve(zipCode)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrZipNotSupported, zipCode)
	}

	tenant, err := s.tenantRepo.GetByID(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if tenant.Status != models.TenantStatusActive {
		return nil, ErrTenantInactive
	}

	if s.cacheSvc != nil {
		limited, err := s.cacheSvc.IsRateLimited(ctx, "provision:"+tenantID.String(), provisionRateLimit, provisionRateWindow)
		if err != nil {
			log.Printf("rate limit check failed for tenant %s: %v", tenantID, err)
		} else if limited {
			return nil, ErrProvisionRateLimited
		}
		if err := s.cacheSvc.IncrementRateLimit(ctx, "provision:"+tenantID.String(), provisionRateWindow); err != nil {
			log.Printf("rate limit increment failed for tenant %s: %v", tenantID, err)
		}
	}

	number, err := s.allocator.AcquireAndAssign(ctx, loc.AreaCode, tenantID)
	if err != nil {
		if errors.Is(err, ErrNoAvailableNumber) {
			// Procurement signal: operations buys stock out-of-band, the
			// allocator never purchases numbers itself.
			log.Printf("pool exhausted for area code %s (zip %s), procurement needed", loc.AreaCode, zipCode)
		}
		return nil, err
	}

	return &Provisioned{
		PhoneNumber: number.PhoneNumber,
		AreaCode:    number.AreaCode,
		Location:    loc,
	}, nil
}
