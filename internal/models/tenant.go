package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	TenantStatusActive      = "active"
	TenantStatusDeactivated = "deactivated"
)

type Tenant struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Subdomain string    `json:"subdomain" db:"subdomain"`
	ZipCode   string    `json:"zip_code" db:"zip_code"`
	Status    string    `json:"status" db:"status"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
