package leads

import (
	"time"

	"callcenter-platform/internal/apperr"
	"callcenter-platform/internal/store"
)

// Lead is a tenant-owned contact tracked through the call pipeline.
type Lead struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Source    string    `json:"source"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status transitions are unconstrained; only membership is validated.
type Status string

const (
	StatusNew       Status = "new"
	StatusContacted Status = "contacted"
	StatusQualified Status = "qualified"
	StatusConverted Status = "converted"
	StatusLost      Status = "lost"
)

func ParseStatus(v string) (Status, error) {
	switch s := Status(v); s {
	case StatusNew, StatusContacted, StatusQualified, StatusConverted, StatusLost:
		return s, nil
	default:
		return "", apperr.Validation("status", "invalid lead status %q", v)
	}
}

// Input carries lead fields for create and update. Nil fields are left
// unchanged on update. Name is an alias split into first and last name.
type Input struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Company   *string `json:"company"`
	Source    *string `json:"source"`
	Status    *string `json:"status"`
	Notes     *string `json:"notes"`
}

type Filter struct {
	Status Status
	Search string
	Sort   string
	Desc   bool
	Page   store.Page
}
