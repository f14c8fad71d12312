package repository

import (
	"context"
	"errors"
)

// ErrDuplicate is returned (wrapped) when an insert violates a unique constraint.
var ErrDuplicate = errors.New("repository: duplicate key")

// Transactor runs fn as one atomic unit. Repository calls made with the
// context passed to fn join the unit; nested calls reuse the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
