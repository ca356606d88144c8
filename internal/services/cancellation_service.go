package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"textport/internal/models"
	"textport/internal/repositories"

	"github.com/google/uuid"
)

// CancellationResult reports what the cancellation flow actually did with
// the tenant's number, for the caller's audit trail.
type CancellationResult struct {
	TenantID       uuid.UUID  `json:"tenant_id"`
	SubscriptionID uuid.UUID  `json:"subscription_id"`
	ReleasedNumber *string    `json:"released_number,omitempty"`
	CooldownUntil  *time.Time `json:"cooldown_until,omitempty"`
}

// CancellationService ends a tenant's subscription: the subscription flips
// to cancelled, the tenant's number (if any) is quarantined, and the tenant
// is deactivated — all in one transaction, since every row lives in the
// same database. A number the allocator does not track is logged and
// skipped; it never blocks the cancellation.
type CancellationService interface {
	Cancel(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*CancellationResult, error)
}

type cancellationService struct {
	db       repositories.DB
	cooldown time.Duration
}

func NewCancellationService(db repositories.DB, cooldown time.Duration) CancellationService {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &cancellationService{db: db, cooldown: cooldown}
}

func (s *cancellationService) Cancel(ctx context.Context, tenantID, subscriptionID uuid.UUID) (*CancellationResult, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin cancellation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	subscriptions := repositories.NewSubscriptionRepo(tx)
	numbers := repositories.NewPhoneNumberRepo(tx)
	tenants := repositories.NewTenantRepo(tx)

	if err := subscriptions.UpdateStatus(ctx, tenantID, subscriptionID, models.SubscriptionStatusCancelled); err != nil {
		return nil, err
	}

	result := &CancellationResult{TenantID: tenantID, SubscriptionID: subscriptionID}

	held, err := numbers.GetByCurrentTenant(ctx, tenantID)
	switch {
	case err == nil:
		released, relErr := numbers.Release(ctx, held.PhoneNumber, s.cooldown)
		if relErr != nil {
			return nil, relErr
		}
		result.ReleasedNumber = &released.PhoneNumber
		result.CooldownUntil = released.CooldownUntil
	case errors.Is(err, repositories.ErrNumberNotFound):
		// Tenant holds no tracked number (e.g. assigned outside this
		// allocator). Deactivation proceeds regardless.
		log.Printf("no tracked number for tenant %s during cancellation", tenantID)
	default:
		return nil, err
	}

	if err := tenants.Deactivate(ctx, tenantID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}
	return result, nil
}

// ReleaseForNumber is the narrow bridge used by billing webhooks that only
// have the number string on hand. Unknown numbers are tolerated and logged.
func ReleaseForNumber(ctx context.Context, allocator AllocatorService, phoneNumber string) {
	if _, err := allocator.Release(ctx, phoneNumber); err != nil {
		if errors.Is(err, repositories.ErrNumberNotFound) || errors.Is(err, repositories.ErrNotAssigned) {
			log.Printf("release of %s skipped: %v", phoneNumber, err)
			return
		}
		log.Printf("release of %s failed, manual reconciliation needed: %v", phoneNumber, err)
	}
}
