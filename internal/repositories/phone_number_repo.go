package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"textport/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Typed repository failures the allocator recovers from or surfaces as-is.
var (
	// ErrAlreadyAssigned means a conditional status update affected zero
	// rows because another caller won the race.
	ErrAlreadyAssigned = errors.New("phone number already assigned")
	// ErrNumberNotFound means no inventory record exists for the number.
	ErrNumberNotFound = errors.New("phone number not found in inventory")
	// ErrNotAssigned means a release targeted a record that is not
	// currently assigned to any tenant.
	ErrNotAssigned = errors.New("phone number is not assigned")
)

// Expected schema constraints for phone_numbers:
//   phone_number UNIQUE,
//   status CHECK (status IN ('available','assigned','cooldown','reserved')),
//   partial UNIQUE index on current_tenant_id WHERE current_tenant_id IS NOT NULL.
// The partial unique index backs the one-number-per-tenant invariant at the
// store level; the service layer checks it first for a cleaner error.

type PhoneNumberRepository interface {
	FindAvailable(ctx context.Context, areaCode string) (*models.PhoneNumber, error)
	ReactivateExpiredCooldown(ctx context.Context, areaCode string, now time.Time) (*models.PhoneNumber, error)
	Assign(ctx context.Context, id, tenantID uuid.UUID) (*models.PhoneNumber, error)
	Release(ctx context.Context, phoneNumber string, cooldown time.Duration) (*models.PhoneNumber, error)
	Upsert(ctx context.Context, number *models.PhoneNumber) (*models.PhoneNumber, bool, error)
	SetCarrierNumberID(ctx context.Context, phoneNumber string, carrierNumberID *string) (*models.PhoneNumber, error)
	GetByNumber(ctx context.Context, phoneNumber string) (*models.PhoneNumber, error)
	GetByCurrentTenant(ctx context.Context, tenantID uuid.UUID) (*models.PhoneNumber, error)
	Stats(ctx context.Context) (*models.InventorySnapshot, error)
	Search(ctx context.Context, filter *models.NumberSearchFilter) ([]*models.PhoneNumber, error)
}

type phoneNumberRepo struct {
	db Querier
}

func NewPhoneNumberRepo(db Querier) PhoneNumberRepository {
	return &phoneNumberRepo{db: db}
}

const phoneNumberColumns = `id, phone_number, area_code, status, current_tenant_id, previous_tenant_id,
		carrier_number_id, cooldown_until, assigned_at, released_at, purchased_at, monthly_price, source, created_at`

func scanPhoneNumber(row pgx.Row) (*models.PhoneNumber, error) {
	n := &models.PhoneNumber{}
	err := row.Scan(&n.ID, &n.PhoneNumber, &n.AreaCode, &n.Status, &n.CurrentTenantID, &n.PreviousTenantID,
		&n.CarrierNumberID, &n.CooldownUntil, &n.AssignedAt, &n.ReleasedAt, &n.PurchasedAt, &n.MonthlyPrice, &n.Source, &n.CreatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

// FindAvailable returns the oldest-released available number in the area
// code, or ErrNumberNotFound when the area has no available stock. The
// returned record is a candidate only; the claim happens in Assign.
func (r *phoneNumberRepo) FindAvailable(ctx context.Context, areaCode string) (*models.PhoneNumber, error) {
	query := `
		SELECT ` + phoneNumberColumns + `
		FROM phone_numbers
		WHERE area_code = $1 AND status = 'available'
		ORDER BY released_at ASC NULLS FIRST
		LIMIT 1
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, areaCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNumberNotFound
	}
	return n, err
}

// ReactivateExpiredCooldown claims the cooldown record with the earliest
// expired cooldown_until and flips it back to available in one statement.
// SKIP LOCKED keeps two concurrent callers from claiming the same row.
func (r *phoneNumberRepo) ReactivateExpiredCooldown(ctx context.Context, areaCode string, now time.Time) (*models.PhoneNumber, error) {
	query := `
		UPDATE phone_numbers
		SET status = 'available', cooldown_until = NULL
		WHERE id = (
			SELECT id FROM phone_numbers
			WHERE area_code = $1 AND status = 'cooldown' AND cooldown_until <= $2
			ORDER BY cooldown_until ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING ` + phoneNumberColumns + `
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, areaCode, now))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNumberNotFound
	}
	return n, err
}

// Assign transitions available→assigned with a conditional update keyed on
// the expected prior status. Zero rows means another caller won the record;
// the caller must re-acquire rather than retry the same id.
func (r *phoneNumberRepo) Assign(ctx context.Context, id, tenantID uuid.UUID) (*models.PhoneNumber, error) {
	query := `
		UPDATE phone_numbers
		SET status = 'assigned', current_tenant_id = $2, previous_tenant_id = NULL,
			assigned_at = NOW(), cooldown_until = NULL
		WHERE id = $1 AND status = 'available'
		RETURNING ` + phoneNumberColumns + `
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAlreadyAssigned
	}
	return n, err
}

// Release quarantines an assigned number: assigned→cooldown, provenance
// moved to previous_tenant_id, cooldown_until stamped. The status guard in
// the WHERE clause is what forbids shortcutting assigned→available.
func (r *phoneNumberRepo) Release(ctx context.Context, phoneNumber string, cooldown time.Duration) (*models.PhoneNumber, error) {
	query := `
		UPDATE phone_numbers
		SET status = 'cooldown', previous_tenant_id = current_tenant_id, current_tenant_id = NULL,
			released_at = NOW(), cooldown_until = NOW() + $2
		WHERE phone_number = $1 AND status = 'assigned'
		RETURNING ` + phoneNumberColumns + `
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, phoneNumber, cooldown))
	if err == nil {
		return n, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	// Distinguish a number we simply do not track from one that exists but
	// is not assigned.
	if _, getErr := r.GetByNumber(ctx, phoneNumber); getErr != nil {
		return nil, getErr
	}
	return nil, ErrNotAssigned
}

// Upsert ingests a number. Existing rows only refresh carrier_number_id and
// monthly_price; status and tenant columns are never touched, so ingest can
// never silently pull a number out of assigned or cooldown. The bool return
// reports whether a new row was created.
func (r *phoneNumberRepo) Upsert(ctx context.Context, number *models.PhoneNumber) (*models.PhoneNumber, bool, error) {
	query := `
		INSERT INTO phone_numbers (id, phone_number, area_code, status, carrier_number_id, monthly_price, source, purchased_at, created_at)
		VALUES ($1, $2, $3, 'available', $4, $5, $6, NOW(), NOW())
		ON CONFLICT (phone_number) DO UPDATE
		SET carrier_number_id = EXCLUDED.carrier_number_id, monthly_price = EXCLUDED.monthly_price
		RETURNING ` + phoneNumberColumns + `, (xmax = 0) AS inserted
	`
	n := &models.PhoneNumber{}
	var inserted bool
	err := r.db.QueryRow(ctx, query, number.ID, number.PhoneNumber, number.AreaCode,
		number.CarrierNumberID, number.MonthlyPrice, number.Source).
		Scan(&n.ID, &n.PhoneNumber, &n.AreaCode, &n.Status, &n.CurrentTenantID, &n.PreviousTenantID,
			&n.CarrierNumberID, &n.CooldownUntil, &n.AssignedAt, &n.ReleasedAt, &n.PurchasedAt,
			&n.MonthlyPrice, &n.Source, &n.CreatedAt, &inserted)
	if err != nil {
		return nil, false, err
	}
	return n, inserted, nil
}

// SetCarrierNumberID is the manual carrier-registration override; it never
// alters status. Pass nil to clear the registration.
func (r *phoneNumberRepo) SetCarrierNumberID(ctx context.Context, phoneNumber string, carrierNumberID *string) (*models.PhoneNumber, error) {
	query := `
		UPDATE phone_numbers
		SET carrier_number_id = $2
		WHERE phone_number = $1
		RETURNING ` + phoneNumberColumns + `
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, phoneNumber, carrierNumberID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNumberNotFound
	}
	return n, err
}

func (r *phoneNumberRepo) GetByNumber(ctx context.Context, phoneNumber string) (*models.PhoneNumber, error) {
	query := `
		SELECT ` + phoneNumberColumns + `
		FROM phone_numbers
		WHERE phone_number = $1
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, phoneNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNumberNotFound
	}
	return n, err
}

func (r *phoneNumberRepo) GetByCurrentTenant(ctx context.Context, tenantID uuid.UUID) (*models.PhoneNumber, error) {
	query := `
		SELECT ` + phoneNumberColumns + `
		FROM phone_numbers
		WHERE current_tenant_id = $1
	`
	n, err := scanPhoneNumber(r.db.QueryRow(ctx, query, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNumberNotFound
	}
	return n, err
}

// Stats aggregates the whole pool in one GROUP BY statement so the counts
// come from a single consistent snapshot rather than racing sequential
// per-status queries.
func (r *phoneNumberRepo) Stats(ctx context.Context) (*models.InventorySnapshot, error) {
	query := `
		SELECT area_code,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'available') AS available,
			COUNT(*) FILTER (WHERE status = 'assigned') AS assigned,
			COUNT(*) FILTER (WHERE status = 'cooldown') AS cooldown,
			COUNT(*) FILTER (WHERE status = 'reserved') AS reserved
		FROM phone_numbers
		GROUP BY area_code
		ORDER BY area_code
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &models.InventorySnapshot{TakenAt: time.Now()}
	for rows.Next() {
		var s models.AreaCodeStats
		if err := rows.Scan(&s.AreaCode, &s.Total, &s.Available, &s.Assigned, &s.Cooldown, &s.Reserved); err != nil {
			return nil, err
		}
		snapshot.ByAreaCode = append(snapshot.ByAreaCode, s)
		snapshot.Total += s.Total
		snapshot.Available += s.Available
		snapshot.Assigned += s.Assigned
		snapshot.Cooldown += s.Cooldown
		snapshot.Reserved += s.Reserved
	}
	return snapshot, rows.Err()
}

// Search performs filtered inventory lookups for the operations dashboard
func (r *phoneNumberRepo) Search(ctx context.Context, filter *models.NumberSearchFilter) ([]*models.PhoneNumber, error) {
	if filter.Limit == 0 {
		filter.Limit = 50
	}

	queryBase := `
		SELECT ` + phoneNumberColumns + `
		FROM phone_numbers
		WHERE 1=1
	`
	args := []interface{}{}
	conditionCount := 0

	if filter.AreaCode != "" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND area_code = $%d`, conditionCount)
		args = append(args, filter.AreaCode)
	}
	if filter.Status != "" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND status = $%d`, conditionCount)
		args = append(args, filter.Status)
	}
	if filter.PreviousTenantID != nil {
		conditionCount++
		queryBase += fmt.Sprintf(` AND previous_tenant_id = $%d`, conditionCount)
		args = append(args, *filter.PreviousTenantID)
	}
	if filter.Query != "" {
		conditionCount++
		queryBase += fmt.Sprintf(` AND phone_number ILIKE $%d`, conditionCount)
		args = append(args, "%"+filter.Query+"%")
	}

	queryBase += ` ORDER BY created_at DESC`

	conditionCount++
	queryBase += fmt.Sprintf(` LIMIT $%d`, conditionCount)
	args = append(args, filter.Limit)
	if filter.Offset > 0 {
		conditionCount++
		queryBase += fmt.Sprintf(` OFFSET $%d`, conditionCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Query(ctx, queryBase, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var numbers []*models.PhoneNumber
	for rows.Next() {
		n := &models.PhoneNumber{}
		if err := rows.Scan(&n.ID, &n.PhoneNumber, &n.AreaCode, &n.Status, &n.CurrentTenantID, &n.PreviousTenantID,
			&n.CarrierNumberID, &n.CooldownUntil, &n.AssignedAt, &n.ReleasedAt, &n.PurchasedAt, &n.MonthlyPrice, &n.Source, &n.CreatedAt); err != nil {
			return nil, err
		}
		numbers = append(numbers, n)
	}
	return numbers, rows.Err()
}
