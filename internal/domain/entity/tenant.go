package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant represents a restaurant business in the multitenant system
type Tenant struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Slug      string         `gorm:"size:255;unique;not null" json:"slug"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	Settings  TenantSettings `gorm:"type:jsonb;serializer:json" json:"settings"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Branches []Branch `gorm:"foreignKey:TenantID" json:"branches,omitempty"`
}

// TenantSettings holds per-tenant preferences stored as JSON
type TenantSettings struct {
	Currency      string `json:"currency,omitempty"`
	Timezone      string `json:"timezone,omitempty"`
	ReceiptFooter string `json:"receipt_footer,omitempty"`
}

// Location resolves the tenant timezone, falling back to fallback when the
// setting is empty or unknown.
func (t *Tenant) Location(fallback *time.Location) *time.Location {
	if t == nil || t.Settings.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(t.Settings.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// BeforeCreate generates a UUID before creating a new tenant
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// Branch is a physical outlet of a tenant
type Branch struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Address   string         `gorm:"size:500" json:"address,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (Branch) TableName() string {
	return "branches"
}
