package accounts

import "time"

// Tenant is the isolation root. It is created with its owner at registration.
type Tenant struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

// User belongs to exactly one tenant. Users are never hard-deleted;
// IsActive=false is the soft-disable.
type User struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

const DefaultPlan = "Basic"

type RegisterInput struct {
	Email    string
	Password string
	FullName string
}
