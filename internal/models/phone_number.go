package models

import (
	"time"

	"github.com/google/uuid"
)

// Phone number lifecycle statuses. `reserved` is set by manual operator
// action only; the allocator never produces it but must never select it.
const (
	NumberStatusAvailable = "available"
	NumberStatusAssigned  = "assigned"
	NumberStatusCooldown  = "cooldown"
	NumberStatusReserved  = "reserved"
)

// Provenance tags for how a number entered inventory.
const (
	NumberSourceManual     = "manual"
	NumberSourceVendorSync = "vendor_sync"
)

type PhoneNumber struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	PhoneNumber      string     `json:"phone_number" db:"phone_number"`
	AreaCode         string     `json:"area_code" db:"area_code"`
	Status           string     `json:"status" db:"status"`
	CurrentTenantID  *uuid.UUID `json:"current_tenant_id,omitempty" db:"current_tenant_id"`
	PreviousTenantID *uuid.UUID `json:"previous_tenant_id,omitempty" db:"previous_tenant_id"`
	CarrierNumberID  *string    `json:"carrier_number_id,omitempty" db:"carrier_number_id"`
	CooldownUntil    *time.Time `json:"cooldown_until,omitempty" db:"cooldown_until"`
	AssignedAt       *time.Time `json:"assigned_at,omitempty" db:"assigned_at"`
	ReleasedAt       *time.Time `json:"released_at,omitempty" db:"released_at"`
	PurchasedAt      *time.Time `json:"purchased_at,omitempty" db:"purchased_at"`
	MonthlyPrice     *float64   `json:"monthly_price,omitempty" db:"monthly_price"`
	Source           string     `json:"source" db:"source"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
}

// NumberSearchFilter holds search and filter criteria for inventory queries
type NumberSearchFilter struct {
	Query            string     `json:"query,omitempty"`              // Substring match on the number string
	AreaCode         string     `json:"area_code,omitempty"`          // Area code filter
	Status           string     `json:"status,omitempty"`             // Lifecycle status filter
	PreviousTenantID *uuid.UUID `json:"previous_tenant_id,omitempty"` // Prior holder, for audit lookups
	Limit            int        `json:"limit,omitempty"`              // Page size (default: 50)
	Offset           int        `json:"offset,omitempty"`             // Page offset
}

// AreaCodeStats is the per-area-code slice of an inventory snapshot.
type AreaCodeStats struct {
	AreaCode  string `json:"area_code"`
	Total     int    `json:"total"`
	Available int    `json:"available"`
	Assigned  int    `json:"assigned"`
	Cooldown  int    `json:"cooldown"`
	Reserved  int    `json:"reserved"`
}

// InventorySnapshot aggregates pool counts from a single consistent read.
type InventorySnapshot struct {
	Total      int             `json:"total"`
	Available  int             `json:"available"`
	Assigned   int             `json:"assigned"`
	Cooldown   int             `json:"cooldown"`
	Reserved   int             `json:"reserved"`
	ByAreaCode []AreaCodeStats `json:"by_area_code"`
	TakenAt    time.Time       `json:"taken_at"`
}
