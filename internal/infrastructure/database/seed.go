package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/pkg/logger"
	"github.com/sangkips/tablepos-api/pkg/money"
)

const demoTenantSlug = "demo-cafe"

// SeedDemoData creates a demo tenant with one branch, a small menu and
// opening stock. It does nothing when the tenant already exists.
func SeedDemoData(ctx context.Context, db *gorm.DB) (*entity.Tenant, error) {
	var existing entity.Tenant
	err := db.WithContext(ctx).Preload("Branches").First(&existing, "slug = ?", demoTenantSlug).Error
	if err == nil {
		logger.Info(ctx).Str("tenant_id", existing.ID.String()).Msg("demo tenant already seeded")
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	tenant := &entity.Tenant{
		Name:     "Demo Cafe",
		Slug:     demoTenantSlug,
		IsActive: true,
		Settings: entity.TenantSettings{Currency: "KES", Timezone: "Africa/Nairobi", ReceiptFooter: "Asante!"},
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(tenant).Error; err != nil {
			return fmt.Errorf("create tenant: %w", err)
		}

		branch := entity.Branch{TenantID: tenant.ID, Name: "Main", Address: "Moi Avenue", IsActive: true}
		if err := tx.Create(&branch).Error; err != nil {
			return fmt.Errorf("create branch: %w", err)
		}
		tenant.Branches = []entity.Branch{branch}

		menu := []struct {
			name    string
			code    string
			price   string
			tracked bool
			qty     int
		}{
			{"Espresso", "ESP", "2.50", false, 0},
			{"Flat White", "FLW", "3.50", false, 0},
			{"Croissant", "CRS", "5.00", true, 40},
			{"Bottled Water", "WTR", "1.20", true, 120},
		}
		for _, m := range menu {
			product := entity.Product{
				TenantID:           tenant.ID,
				Name:               m.name,
				Code:               m.code,
				Price:              money.MustParse(m.price),
				IsInventoryTracked: m.tracked,
				IsAvailable:        true,
			}
			if err := tx.Create(&product).Error; err != nil {
				return fmt.Errorf("create product %s: %w", m.code, err)
			}
			if !m.tracked {
				continue
			}
			item := entity.StockItem{TenantID: tenant.ID, ProductID: product.ID, Qty: m.qty, MinQty: 10}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return fmt.Errorf("create stock %s: %w", m.code, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx).Str("tenant_id", tenant.ID.String()).Msg("demo data seeded")
	return tenant, nil
}
