package middleware

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/repository"
	"github.com/sangkips/tablepos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/tablepos-api/pkg/apperror"
	"github.com/sangkips/tablepos-api/pkg/logger"
)

const (
	// IdempotencyKeyHeader is the HTTP header for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"
	// IdempotencyReplayedHeader marks a response served from the cache
	IdempotencyReplayedHeader = "X-Idempotency-Replayed"
	// IdempotencyKeyTTL is how long keys are valid
	IdempotencyKeyTTL = 24 * time.Hour

	maxIdempotencyKeyLen = 255
)

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Repo repository.IdempotencyRepository
	TTL  time.Duration
}

// responseWriter wraps gin.ResponseWriter to capture the response body
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the first 2xx response stored for a key. Requests
// without the header pass through. Keys are scoped to tenant and user and
// are claimed before the handler runs, so a concurrent retry of a request
// in flight gets 409 instead of running twice. Runs after AuthMiddleware
// and TenantMiddleware.
func Idempotency(config IdempotencyConfig) gin.HandlerFunc {
	ttl := config.TTL
	if ttl <= 0 {
		ttl = IdempotencyKeyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			response.Abort(c, apperror.NewFieldError(IdempotencyKeyHeader, "must be at most 255 characters"))
			return
		}

		scope, ok := GetScope(c)
		userID, hasUser := GetUserID(c)
		if !ok || !hasUser {
			response.Abort(c, apperror.ErrUnauthorized)
			return
		}

		ctx := c.Request.Context()
		endpoint := c.Request.Method + " " + c.FullPath()
		claim := &entity.IdempotencyKey{
			UserID:    userID,
			Key:       key,
			Endpoint:  endpoint,
			ExpiresAt: time.Now().UTC().Add(ttl),
		}
		existing, claimed, err := config.Repo.Reserve(ctx, scope, claim)
		if errors.Is(err, repository.ErrDuplicate) {
			inFlight(c)
			return
		}
		if err != nil {
			logger.Error(ctx).Err(err).Str("idempotency_key", key).Msg("idempotency reservation failed")
			response.Abort(c, err)
			return
		}

		if !claimed {
			switch {
			case existing.Endpoint != endpoint:
				response.Abort(c, apperror.NewConflictError("Idempotency-Key was already used for another endpoint"))
			case existing.IsPending():
				inFlight(c)
			default:
				c.Header(IdempotencyReplayedHeader, "true")
				c.Data(existing.ResponseCode, "application/json; charset=utf-8", []byte(existing.ResponseBody))
				c.Abort()
			}
			return
		}

		// the outcome is recorded even if the client goes away
		storeCtx := context.WithoutCancel(ctx)
		release := func() {
			if err := config.Repo.Release(storeCtx, scope, claim.ID); err != nil {
				logger.Warn(storeCtx).Err(err).Str("idempotency_key", key).Msg("releasing idempotency key failed")
			}
		}
		defer func() {
			if r := recover(); r != nil {
				release()
				panic(r)
			}
		}()

		blw := &responseWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			release()
			return
		}
		if err := config.Repo.Complete(storeCtx, scope, claim.ID, status, blw.body.String()); err != nil {
			logger.Warn(storeCtx).Err(err).Str("idempotency_key", key).Msg("storing idempotency response failed")
		}
	}
}

func inFlight(c *gin.Context) {
	c.Header("Retry-After", "1")
	response.Abort(c, apperror.NewConflictError("A request with this Idempotency-Key is still being processed"))
}
