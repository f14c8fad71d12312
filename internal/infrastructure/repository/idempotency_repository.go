package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	domainRepo "github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, scope tenancy.Scope, userID uuid.UUID, key string) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("user_id = ? AND key = ? AND expires_at > ?", userID, key, time.Now().UTC()).
		First(&ikey).Error
	return notFoundAsNil(&ikey, err)
}

// Reserve relies on the (tenant_id, user_id, key) unique index: of two
// concurrent reservations exactly one insert succeeds.
func (r *idempotencyRepository) Reserve(ctx context.Context, scope tenancy.Scope, ikey *entity.IdempotencyKey) (*entity.IdempotencyKey, bool, error) {
	if err := requireScope(scope); err != nil {
		return nil, false, err
	}
	db := conn(ctx, r.db)

	err := db.Scopes(TenantScope(scope)).
		Where("user_id = ? AND key = ? AND expires_at <= ?", ikey.UserID, ikey.Key, time.Now().UTC()).
		Delete(&entity.IdempotencyKey{}).Error
	if err != nil {
		return nil, false, err
	}

	ikey.TenantID = scope.TenantID()
	ikey.ResponseCode = 0
	ikey.ResponseBody = ""
	err = translateCreate(db.Create(ikey).Error)
	if err == nil {
		return ikey, true, nil
	}
	if !errors.Is(err, domainRepo.ErrDuplicate) {
		return nil, false, err
	}

	existing, err := r.GetByKey(ctx, scope, ikey.UserID, ikey.Key)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		// the holder expired or was released in between
		return nil, false, domainRepo.ErrDuplicate
	}
	return existing, false, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, scope tenancy.Scope, id uuid.UUID, code int, body string) error {
	return conn(ctx, r.db).Model(&entity.IdempotencyKey{}).
		Scopes(TenantScope(scope)).
		Where("id = ?", id).
		Updates(map[string]interface{}{"response_code": code, "response_body": body}).Error
}

func (r *idempotencyRepository) Release(ctx context.Context, scope tenancy.Scope, id uuid.UUID) error {
	return conn(ctx, r.db).Scopes(TenantScope(scope)).
		Where("id = ? AND response_code = 0", id).
		Delete(&entity.IdempotencyKey{}).Error
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result := conn(ctx, r.db).
		Where("expires_at < ?", time.Now().UTC()).
		Delete(&entity.IdempotencyKey{})
	return result.RowsAffected, result.Error
}
