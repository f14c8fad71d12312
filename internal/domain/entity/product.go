package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/pkg/money"
)

// Product is a menu item. The order pipeline only reads it.
type Product struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TenantID           uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	Code               string         `gorm:"size:100" json:"code,omitempty"`
	Price              money.Money    `gorm:"not null;default:0" json:"price"`
	CostPrice          *money.Money   `json:"cost_price,omitempty"`
	IsInventoryTracked bool           `gorm:"default:false" json:"is_inventory_tracked"`
	IsAvailable        bool           `gorm:"default:true" json:"is_available"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate generates a UUID before creating a new product
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}
