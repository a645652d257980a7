package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func employeeCaller() user.Caller {
	return user.Caller{UserID: "u-1", EmployeeID: "e-1", CompanyID: "c-1", Role: user.RoleEmployee}
}

func protected(svc jwt.Service, access user.Access) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired)
	r.With(RequireAccess(access)).Get("/", func(w http.ResponseWriter, r *http.Request) {
		c, _ := CallerFrom(r.Context())
		_, _ = io.WriteString(w, c.EmployeeID)
	})
	return r
}

func get(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("secret", time.Hour)
	h := protected(svc, user.AccessAny())

	access, _, err := svc.GenerateAccessToken(employeeCaller())
	require.NoError(t, err)
	rec := get(h, access)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e-1", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, get(h, "").Code)

	// stream tokens are not accepted on the API
	sse, _, err := svc.GenerateSSEToken(employeeCaller())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(h, sse).Code)
}

func TestRequireAccess(t *testing.T) {
	svc := jwt.NewJWTService("secret", time.Hour)
	h := protected(svc, user.AccessManagerWithPermission(user.PermissionLeaveApprove))

	employeeToken, _, _ := svc.GenerateAccessToken(employeeCaller())
	rec := get(h, employeeToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "leave.approve")

	mgr := employeeCaller()
	mgr.Role = user.RoleManager
	mgr.Permissions = []user.Permission{user.PermissionLeaveApprove}
	managerToken, _, _ := svc.GenerateAccessToken(mgr)
	assert.Equal(t, http.StatusOK, get(h, managerToken).Code)

	mgr.Permissions = nil
	bareManager, _, _ := svc.GenerateAccessToken(mgr)
	assert.Equal(t, http.StatusForbidden, get(h, bareManager).Code)
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	h := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(c user.Caller) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req = req.WithContext(WithCaller(req.Context(), c))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	a := employeeCaller()
	assert.Equal(t, http.StatusNoContent, call(a))
	assert.Equal(t, http.StatusNoContent, call(a))
	assert.Equal(t, http.StatusTooManyRequests, call(a))

	// budgets are per employee
	b := employeeCaller()
	b.EmployeeID = "e-2"
	assert.Equal(t, http.StatusNoContent, call(b))
}

func idempotentRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/marketplace/orders", strings.NewReader(`{}`))
	req.Header.Set(IdempotencyHeader, key)
	return req.WithContext(WithCaller(req.Context(), employeeCaller()))
}

func TestIdempotency_StoresThenReplays(t *testing.T) {
	db, mock := redismock.NewClientMock()
	ttl := time.Hour

	calls := 0
	h := Idempotency(db, ttl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"success":true}`)
	}))

	req := idempotentRequest("k-1")
	cacheKey, lockKey := idempotencyKeys(req, "k-1")
	payload, err := encodeCached(http.StatusCreated, "application/json", []byte(`{"success":true}`))
	require.NoError(t, err)

	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(lockKey, "locked", idempotencyLockTTL).SetVal(true)
	mock.ExpectSet(cacheKey, payload, ttl).SetVal("OK")
	mock.ExpectDel(lockKey).SetVal(1)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	mock.ExpectGet(cacheKey).SetVal(payload)
	replay := httptest.NewRecorder()
	h.ServeHTTP(replay, idempotentRequest("k-1"))

	assert.Equal(t, http.StatusCreated, replay.Code)
	assert.Equal(t, "true", replay.Header().Get(ReplayedHeader))
	assert.JSONEq(t, `{"success":true}`, replay.Body.String())
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_InFlightConflictAndServerErrors(t *testing.T) {
	db, mock := redismock.NewClientMock()
	failing := Idempotency(db, time.Hour)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := idempotentRequest("k-2")
	cacheKey, lockKey := idempotencyKeys(req, "k-2")

	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(lockKey, "locked", idempotencyLockTTL).SetVal(false)
	rec := httptest.NewRecorder()
	failing.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// a 500 releases the lock without storing anything
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(lockKey, "locked", idempotencyLockTTL).SetVal(true)
	mock.ExpectDel(lockKey).SetVal(1)
	rec = httptest.NewRecorder()
	failing.ServeHTTP(rec, idempotentRequest("k-2"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_KeysAreScopedPerCaller(t *testing.T) {
	a := idempotentRequest("same")
	other := employeeCaller()
	other.EmployeeID = "e-9"
	b := idempotentRequest("same")
	b = b.WithContext(WithCaller(b.Context(), other))

	ka, _ := idempotencyKeys(a, "same")
	kb, _ := idempotencyKeys(b, "same")
	assert.NotEqual(t, ka, kb)
}
