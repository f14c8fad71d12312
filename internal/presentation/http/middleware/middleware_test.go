package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sangkips/tablepos-api/internal/config"
	"github.com/sangkips/tablepos-api/internal/domain/entity"
	"github.com/sangkips/tablepos-api/internal/domain/tenancy"
	"github.com/sangkips/tablepos-api/internal/infrastructure/repository"
	"github.com/sangkips/tablepos-api/internal/testutil"
	"github.com/sangkips/tablepos-api/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r http.Handler, method, path string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func withIdentity(scope tenancy.Scope, userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(userIDKey, userID)
		c.Set(tenantIDKey, scope.TenantID())
		c.Set(scopeKey, scope)
		c.Next()
	}
}

func TestIdempotencyReplaysSuccessfulResponses(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.CreateTenant(t, db, "cafe")
	userID := uuid.New()

	calls := 0
	status := http.StatusCreated
	r := gin.New()
	r.Use(withIdentity(tn.Scope, userID))
	idem := Idempotency(IdempotencyConfig{Repo: repository.NewIdempotencyRepository(db)})
	r.POST("/a", idem, func(c *gin.Context) {
		calls++
		c.JSON(status, gin.H{"call": calls})
	})
	r.POST("/b", idem, func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{})
	})

	w := serve(r, http.MethodPost, "/a", IdempotencyKeyHeader, "k1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(IdempotencyReplayedHeader))

	w = serve(r, http.MethodPost, "/a", IdempotencyKeyHeader, "k1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(IdempotencyReplayedHeader))
	assert.JSONEq(t, `{"call":1}`, w.Body.String())
	assert.Equal(t, 1, calls)

	w = serve(r, http.MethodPost, "/b", IdempotencyKeyHeader, "k1")
	assert.Equal(t, http.StatusConflict, w.Code)

	// no header, no caching
	serve(r, http.MethodPost, "/a")
	assert.Equal(t, 2, calls)

	status = http.StatusUnprocessableEntity
	serve(r, http.MethodPost, "/a", IdempotencyKeyHeader, "k2")
	serve(r, http.MethodPost, "/a", IdempotencyKeyHeader, "k2")
	assert.Equal(t, 4, calls, "failed responses are not stored")
	assert.EqualValues(t, 1, testutil.Count(t, db, &entity.IdempotencyKey{}, ""))

	w = serve(r, http.MethodPost, "/a", IdempotencyKeyHeader, strings.Repeat("x", 256))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 4, calls)
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.CreateTenant(t, db, "cafe")
	repo := repository.NewIdempotencyRepository(db)

	calls := 0
	handler := func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{})
	}
	alice := gin.New()
	alice.POST("/a", withIdentity(tn.Scope, uuid.New()), Idempotency(IdempotencyConfig{Repo: repo}), handler)
	bob := gin.New()
	bob.POST("/a", withIdentity(tn.Scope, uuid.New()), Idempotency(IdempotencyConfig{Repo: repo}), handler)

	serve(alice, http.MethodPost, "/a", IdempotencyKeyHeader, "same")
	serve(bob, http.MethodPost, "/a", IdempotencyKeyHeader, "same")
	assert.Equal(t, 2, calls)
}

func TestTenantRateLimiter(t *testing.T) {
	rl := NewTenantRateLimiter(RateLimiterConfig{RequestsPerSecond: 0.001, BurstSize: 2})
	t.Cleanup(rl.Stop)

	tenantA, tenantB := uuid.New(), uuid.New()
	current := tenantA
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(tenantIDKey, current)
		c.Next()
	}, rl.Middleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	serve(r, http.MethodGet, "/")
	w = serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	current = tenantB
	w = serve(r, http.MethodGet, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, rl.Stats()["active_tenants"])
}

func TestAuthMiddlewareClaims(t *testing.T) {
	jwtManager := utils.NewJWTManager("secret", time.Hour, "tablepos-api")
	tenantID, branchID := uuid.New(), uuid.New()

	var (
		gotBranch    uuid.UUID
		hasBranch    bool
		gotTenant    uuid.UUID
		gotUserFound bool
	)
	r := gin.New()
	r.GET("/", AuthMiddleware(jwtManager), func(c *gin.Context) {
		gotTenant = GetTenantID(c)
		gotBranch, hasBranch = GetBranchID(c)
		_, gotUserFound = GetUserID(c)
		c.Status(http.StatusOK)
	})

	token, err := jwtManager.GenerateAccessToken(uuid.New(), tenantID, &branchID, []string{"cashier"})
	require.NoError(t, err)
	w := serve(r, http.MethodGet, "/", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, tenantID, gotTenant)
	assert.True(t, hasBranch)
	assert.Equal(t, branchID, gotBranch)
	assert.True(t, gotUserFound)

	token, err = jwtManager.GenerateAccessToken(uuid.New(), tenantID, nil, nil)
	require.NoError(t, err)
	serve(r, http.MethodGet, "/", "Authorization", "Bearer "+token)
	assert.False(t, hasBranch)

	w = serve(r, http.MethodGet, "/", "Authorization", "Token "+token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIdempotencyRejectsRetryWhileFirstRequestRuns(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.CreateTenant(t, db, "cafe")

	var calls atomic.Int32
	entered := make(chan struct{})
	unblock := make(chan struct{})
	r := gin.New()
	r.POST("/pay", withIdentity(tn.Scope, uuid.New()),
		Idempotency(IdempotencyConfig{Repo: repository.NewIdempotencyRepository(db)}),
		func(c *gin.Context) {
			if calls.Add(1) == 1 {
				close(entered)
				<-unblock
			}
			c.JSON(http.StatusCreated, gin.H{"paid": true})
		})

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- serve(r, http.MethodPost, "/pay", IdempotencyKeyHeader, "retry-1")
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first request never reached the handler")
	}

	w := serve(r, http.MethodPost, "/pay", IdempotencyKeyHeader, "retry-1")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	close(unblock)
	w = <-first
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(r, http.MethodPost, "/pay", IdempotencyKeyHeader, "retry-1")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "true", w.Header().Get(IdempotencyReplayedHeader))
	assert.EqualValues(t, 1, calls.Load())
}

func TestIdempotencyReleasesKeyWhenHandlerPanics(t *testing.T) {
	db := testutil.NewDB(t)
	tn := testutil.CreateTenant(t, db, "cafe")

	fail := true
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/pay", withIdentity(tn.Scope, uuid.New()),
		Idempotency(IdempotencyConfig{Repo: repository.NewIdempotencyRepository(db)}),
		func(c *gin.Context) {
			if fail {
				panic("boom")
			}
			c.JSON(http.StatusCreated, gin.H{})
		})

	w := serve(r, http.MethodPost, "/pay", IdempotencyKeyHeader, "k")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.EqualValues(t, 0, testutil.Count(t, db, &entity.IdempotencyKey{}, ""))

	fail = false
	w = serve(r, http.MethodPost, "/pay", IdempotencyKeyHeader, "k")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(IdempotencyReplayedHeader))
}

func TestCORSConfig(t *testing.T) {
	c := corsConfig(&config.CORSConfig{AllowedHeaders: []string{"content-type", "x-request-id"}})
	assert.Equal(t, []string{"content-type", "x-request-id", IdempotencyKeyHeader}, c.AllowHeaders)
	assert.ElementsMatch(t, devOrigins, c.AllowOrigins)
	assert.True(t, c.AllowCredentials)
	assert.Equal(t, 12*time.Hour, c.MaxAge)
	require.NoError(t, c.Validate())

	c = corsConfig(&config.CORSConfig{AllowedOrigins: []string{"https://pos.example.com", "*"}, MaxAge: time.Hour})
	assert.True(t, c.AllowAllOrigins)
	assert.Empty(t, c.AllowOrigins)
	assert.False(t, c.AllowCredentials, "credentials are never sent with a wildcard origin")
	assert.Equal(t, time.Hour, c.MaxAge)
	require.NoError(t, c.Validate())
}

func TestCORSMiddlewarePreflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware(&config.CORSConfig{AllowedOrigins: []string{"https://*.tablepos.test"}}))
	r.POST("/orders", func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := serve(r, http.MethodOptions, "/orders",
		"Origin", "https://till-1.tablepos.test",
		"Access-Control-Request-Method", http.MethodPost)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://till-1.tablepos.test", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), IdempotencyKeyHeader)

	w = serve(r, http.MethodPost, "/orders", "Origin", "https://till-1.tablepos.test")
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), IdempotencyReplayedHeader)

	w = serve(r, http.MethodPost, "/orders", "Origin", "https://evil.test")
	assert.Equal(t, http.StatusForbidden, w.Code)
}
