// Package testutil bootstraps an in-memory schema and fixtures for
// repository, service and handler tests.
package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/internal/infrastructure/database"
	"github.com/sangkips/tablepos-api/internal/infrastructure/messaging"
	"github.com/sangkips/tablepos-api/internal/infrastructure/queue"
	"github.com/sangkips/tablepos-api/pkg/money"
)

// NewDB opens a private in-memory sqlite database with the full schema.
// It holds a single connection so transactions run one at a time.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_busy_timeout=5000", uuid.NewString())
	cfg := database.GormConfig(false)
	// sqlite compares timestamps as text, so keep every write in UTC
	cfg.NowFunc = func() time.Time { return time.Now().UTC() }
	db, err := gorm.Open(sqlite.Open(dsn), cfg)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database.Models()...))
	return db
}

// Tenant is a seeded tenant with one branch
type Tenant struct {
	Tenant *entity.Tenant
	Branch *entity.Branch
	Scope  tenancy.Scope
}

// CreateTenant inserts an active tenant and its main branch
func CreateTenant(t *testing.T, db *gorm.DB, name string) *Tenant {
	t.Helper()

	tenant := &entity.Tenant{
		Name:     name,
		Slug:     fmt.Sprintf("%s-%s", name, uuid.NewString()[:8]),
		IsActive: true,
		Settings: entity.TenantSettings{Currency: "KES", Timezone: "UTC"},
	}
	require.NoError(t, db.Create(tenant).Error)

	branch := &entity.Branch{TenantID: tenant.ID, Name: "Main", IsActive: true}
	require.NoError(t, db.Create(branch).Error)

	return &Tenant{Tenant: tenant, Branch: branch, Scope: tenancy.MustScope(tenant.ID)}
}

// CreateProduct inserts an available product priced at price
func CreateProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, name, price string, tracked bool) *entity.Product {
	t.Helper()

	product := &entity.Product{
		TenantID:           tenantID,
		Name:               name,
		Price:              money.MustParse(price),
		IsInventoryTracked: tracked,
		IsAvailable:        true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateStock inserts a tenant wide stock row for product
func CreateStock(t *testing.T, db *gorm.DB, product *entity.Product, qty, minQty int) *entity.StockItem {
	t.Helper()

	item := &entity.StockItem{TenantID: product.TenantID, ProductID: product.ID, Qty: qty, MinQty: minQty}
	require.NoError(t, db.Omit("Product").Create(item).Error)
	return item
}

// StockQty reads the current quantity of a stock row
func StockQty(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()

	var item entity.StockItem
	require.NoError(t, db.First(&item, "id = ?", id).Error)
	return item.Qty
}

// Count counts the rows of model matching the optional condition
func Count(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

// Queue records enqueued jobs
type Queue struct {
	mu   sync.Mutex
	Jobs []*queue.Job
	Err  error
}

func (q *Queue) Enqueue(ctx context.Context, name string, data interface{}) (*queue.Job, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.Err != nil {
		return nil, q.Err
	}
	job, err := queue.NewJob(name, data)
	if err != nil {
		return nil, err
	}
	q.Jobs = append(q.Jobs, job)
	return job, nil
}

// Len returns the number of recorded jobs
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.Jobs)
}

// Publisher records published messages
type Publisher struct {
	mu       sync.Mutex
	Messages []messaging.Message
	Err      error
}

func (p *Publisher) Publish(ctx context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, msg)
	return nil
}

// Types returns the event types published so far, in order
func (p *Publisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.Messages))
	for _, m := range p.Messages {
		types = append(types, m.Type)
	}
	return types
}
