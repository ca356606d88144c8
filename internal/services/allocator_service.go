package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"textport/internal/caching"
	"textport/internal/models"
	"textport/internal/repositories"

	"github.com/google/uuid"
)

// AcquisitionSource tags where an acquired number came from.
const (
	AcquisitionSourceInventory       = "inventory"
	AcquisitionSourceCooldownExpired = "cooldown_expired"
)

var (
	// ErrNoAvailableNumber means the pool is exhausted for the area code.
	// This is a procurement signal for operations, not a caller bug.
	ErrNoAvailableNumber = errors.New("no available number for area code")
	// ErrTenantHasNumber means the tenant already holds an assigned number.
	ErrTenantHasNumber = errors.New("tenant already holds a phone number")
	// ErrInvalidPhoneNumber means the number string is not usable E.164.
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
)

// assignRetries bounds the re-acquire loop when concurrent callers race
// over the same candidate record.
const assignRetries = 3

// DefaultCooldown is the mandatory quarantine after release. Released
// numbers keep carrier reputation and consumer opt-in state tied to the
// previous tenant's brand, so immediate reuse is never allowed.
const DefaultCooldown = 30 * 24 * time.Hour

const statsCacheTTL = 30 * time.Second

// AcquisitionResult is a candidate number handed to the caller before
// assignment, tagged with its provenance.
type AcquisitionResult struct {
	Number *models.PhoneNumber `json:"number"`
	Source string              `json:"source"`
}

// IngestResult reports the outcome of an idempotent inventory upsert.
type IngestResult struct {
	Number  *models.PhoneNumber `json:"number"`
	Created bool                `json:"created"`
}

// AllocatorService drives the number lifecycle state machine:
// available → assigned → cooldown → available. All mutual exclusion is
// pushed down to the store's conditional updates; the service holds no
// locks across store calls.
type AllocatorService interface {
	Acquire(ctx context.Context, areaCode string) (*AcquisitionResult, error)
	Assign(ctx context.Context, numberID, tenantID uuid.UUID) (*models.PhoneNumber, error)
	AcquireAndAssign(ctx context.Context, areaCode string, tenantID uuid.UUID) (*models.PhoneNumber, error)
	Release(ctx context.Context, phoneNumber string) (*models.PhoneNumber, error)
	Ingest(ctx context.Context, phoneNumber, carrierNumberID, source string, monthlyPrice *float64) (*IngestResult, error)
	SetCarrierNumberID(ctx context.Context, phoneNumber string, carrierNumberID *string) (*models.PhoneNumber, error)
	Stats(ctx context.Context) (*models.InventorySnapshot, error)
	Search(ctx context.Context, filter *models.NumberSearchFilter) ([]*models.PhoneNumber, error)
	GetByNumber(ctx context.Context, phoneNumber string) (*models.PhoneNumber, error)
}

type allocatorService struct {
	numberRepo repositories.PhoneNumberRepository
	cacheSvc   caching.CacheService
	cooldown   time.Duration
}

func NewAllocatorService(numberRepo repositories.PhoneNumberRepository, cacheSvc caching.CacheService, cooldown time.Duration) AllocatorService {
	if cooldown <= 0 {
		// Quarantine is mandatory; a zero window is a config bug, not a
		// way to opt out.
		cooldown = DefaultCooldown
	}
	return &allocatorService{
		numberRepo: numberRepo,
		cacheSvc:   cacheSvc,
		cooldown:   cooldown,
	}
}

// Acquire finds a reusable number in the area code: available stock first
// (oldest released), then expired cooldowns (earliest expiry, reactivated
// atomically). Returns ErrNoAvailableNumber when both are empty — the
// allocator never fabricates numbers; procurement is out-of-band.
func (s *allocatorService) Acquire(ctx context.Context, areaCode string) (*AcquisitionResult, error) {
	number, err := s.numberRepo.FindAvailable(ctx, areaCode)
	if err == nil {
		return &AcquisitionResult{Number: number, Source: AcquisitionSourceInventory}, nil
	}
	if !errors.Is(err, repositories.ErrNumberNotFound) {
		return nil, err
	}

	number, err = s.numberRepo.ReactivateExpiredCooldown(ctx, areaCode, time.Now())
	if err == nil {
		return &AcquisitionResult{Number: number, Source: AcquisitionSourceCooldownExpired}, nil
	}
	if !errors.Is(err, repositories.ErrNumberNotFound) {
		return nil, err
	}
	return nil, ErrNoAvailableNumber
}

// Assign binds an acquired number to a tenant. The one-number-per-tenant
// check here gives a clean error before the store's partial unique index
// would reject the row anyway.
func (s *allocatorService) Assign(ctx context.Context, numberID, tenantID uuid.UUID) (*models.PhoneNumber, error) {
	held, err := s.numberRepo.GetByCurrentTenant(ctx, tenantID)
	if err == nil && held != nil {
		return nil, ErrTenantHasNumber
	}
	if err != nil && !errors.Is(err, repositories.ErrNumberNotFound) {
		return nil, err
	}

	number, err := s.numberRepo.Assign(ctx, numberID, tenantID)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return number, nil
}

// AcquireAndAssign composes Acquire and Assign with bounded retries. A lost
// race on Assign re-acquires from scratch; another caller may have taken a
// different candidate, or the pool may now be empty.
func (s *allocatorService) AcquireAndAssign(ctx context.Context, areaCode string, tenantID uuid.UUID) (*models.PhoneNumber, error) {
	for attempt := 0; attempt < assignRetries; attempt++ {
		result, err := s.Acquire(ctx, areaCode)
		if err != nil {
			return nil, err
		}

		number, err := s.Assign(ctx, result.Number.ID, tenantID)
		if err == nil {
			return number, nil
		}
		if errors.Is(err, repositories.ErrAlreadyAssigned) {
			log.Printf("lost acquisition race for %s in area %s, retrying (attempt %d)", result.Number.PhoneNumber, areaCode, attempt+1)
			continue
		}
		return nil, err
	}
	return nil, ErrNoAvailableNumber
}

// Release quarantines a number after its tenant cancels. The store keeps
// the previous tenant on the record for audit and anti-abuse lookups.
func (s *allocatorService) Release(ctx context.Context, phoneNumber string) (*models.PhoneNumber, error) {
	number, err := s.numberRepo.Release(ctx, phoneNumber, s.cooldown)
	if err != nil {
		return nil, err
	}
	s.invalidateStats(ctx)
	return number, nil
}

// Ingest upserts a number into inventory. Re-ingesting an existing number
// refreshes carrier metadata only and never moves it out of its current
// lifecycle state.
func (s *allocatorService) Ingest(ctx context.Context, phoneNumber, carrierNumberID, source string, monthlyPrice *float64) (*IngestResult, error) {
	areaCode, err := AreaCodeFromE164(phoneNumber)
	if err != nil {
		return nil, err
	}
	if source == "" {
		source = models.NumberSourceManual
	}

	record := &models.PhoneNumber{
		ID:           uuid.New(),
		PhoneNumber:  phoneNumber,
		AreaCode:     areaCode,
		MonthlyPrice: monthlyPrice,
		Source:       source,
	}
	if carrierNumberID != "" {
		record.CarrierNumberID = &carrierNumberID
	}

	number, created, err := s.numberRepo.Upsert(ctx, record)
	if err != nil {
		return nil, err
	}
	if created {
		s.invalidateStats(ctx)
	}
	return &IngestResult{Number: number, Created: created}, nil
}

func (s *allocatorService) SetCarrierNumberID(ctx context.Context, phoneNumber string, carrierNumberID *string) (*models.PhoneNumber, error) {
	return s.numberRepo.SetCarrierNumberID(ctx, phoneNumber, carrierNumberID)
}

// Stats returns the pool snapshot, served from cache within a short TTL.
// The underlying read is a single aggregate query, so each snapshot is
// internally consistent even though cached copies lag mutations.
func (s *allocatorService) Stats(ctx context.Context) (*models.InventorySnapshot, error) {
	if s.cacheSvc != nil {
		if snapshot, err := s.cacheSvc.GetInventorySnapshot(ctx); err == nil && snapshot != nil {
			return snapshot, nil
		}
	}

	snapshot, err := s.numberRepo.Stats(ctx)
	if err != nil {
		return nil, err
	}
	if s.cacheSvc != nil {
		if cacheErr := s.cacheSvc.SetInventorySnapshot(ctx, snapshot, statsCacheTTL); cacheErr != nil {
			log.Printf("failed to cache inventory snapshot: %v", cacheErr)
		}
	}
	return snapshot, nil
}

func (s *allocatorService) Search(ctx context.Context, filter *models.NumberSearchFilter) ([]*models.PhoneNumber, error) {
	return s.numberRepo.Search(ctx, filter)
}

func (s *allocatorService) GetByNumber(ctx context.Context, phoneNumber string) (*models.PhoneNumber, error) {
	return s.numberRepo.GetByNumber(ctx, phoneNumber)
}

func (s *allocatorService) invalidateStats(ctx context.Context) {
	if s.cacheSvc == nil {
		return
	}
	if err := s.cacheSvc.DeleteInventorySnapshot(ctx); err != nil {
		log.Printf("failed to invalidate inventory snapshot cache: %v", err)
	}
}

// AreaCodeFromE164 derives the 3-digit NANP area code from a canonical
// +1NXXNXXXXXX number. Derivation happens once at ingestion; the stored
// column is never recomputed afterwards.
func AreaCodeFromE164(phoneNumber string) (string, error) {
	if !strings.HasPrefix(phoneNumber, "+1") || len(phoneNumber) != 12 {
		return "", fmt.Errorf("%w: %q is not a +1 E.164 number", ErrInvalidPhoneNumber, phoneNumber)
	}
	for _, c := range phoneNumber[2:] {
		if c < '0' || c > '9' {
			return "", fmt.Errorf("%w: %q contains non-digit characters", ErrInvalidPhoneNumber, phoneNumber)
		}
	}
	return phoneNumber[2:5], nil
}
