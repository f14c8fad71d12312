// Package tenancy defines the capability every tenant-owned read or write
// must present.
package tenancy

import (
	"errors"

	"github.com/google/uuid"
)

var ErrInvalidTenant = errors.New("tenancy: tenant id is required")

// Scope is an authenticated tenant boundary. The zero value is not a valid
// scope and matches no rows.
type Scope struct {
	tenantID uuid.UUID
}

// NewScope builds a scope for a verified tenant.
func NewScope(tenantID uuid.UUID) (Scope, error) {
	if tenantID == uuid.Nil {
		return Scope{}, ErrInvalidTenant
	}
	return Scope{tenantID: tenantID}, nil
}

// MustScope is NewScope for ids that are known to be valid, such as fixtures.
func MustScope(tenantID uuid.UUID) Scope {
	s, err := NewScope(tenantID)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Scope) TenantID() uuid.UUID { return s.tenantID }

func (s Scope) IsZero() bool { return s.tenantID == uuid.Nil }

func (s Scope) String() string { return s.tenantID.String() }
