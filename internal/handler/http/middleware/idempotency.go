package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyLockTTL = 30 * time.Second
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// idempotencyKeys scopes a client key to the caller and route so two
// employees reusing the same key never collide.
func idempotencyKeys(r *http.Request, key string) (cacheKey, lockKey string) {
	scope := r.Method + " " + r.URL.Path + " " + key
	if c, ok := CallerFrom(r.Context()); ok {
		scope = c.CompanyID + ":" + c.EmployeeID + ":" + scope
	}
	fp := uuid.NewSHA1(uuid.NameSpaceURL, []byte(scope))
	cacheKey = "idemp:" + fp.String()
	return cacheKey, cacheKey + ":lock"
}

func encodeCached(status int, contentType string, body []byte) (string, error) {
	b, err := json.Marshal(cachedResponse{Status: status, ContentType: contentType, Body: body})
	return string(b), err
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *recordingWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// Idempotency replays the stored response of a POST that carries a previously
// seen Idempotency-Key. A second request racing the first gets 409. Server
// errors are not stored, so the client may retry them. Redis failures fall
// through to the handler.
func Idempotency(rdb redis.Cmdable, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			cacheKey, lockKey := idempotencyKeys(r, key)

			val, err := rdb.Get(ctx, cacheKey).Result()
			switch {
			case err == nil:
				var cached cachedResponse
				if jsonErr := json.Unmarshal([]byte(val), &cached); jsonErr == nil {
					if cached.ContentType != "" {
						w.Header().Set("Content-Type", cached.ContentType)
					}
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(cached.Status)
					_, _ = w.Write(cached.Body)
					return
				}
				slog.Warn("idempotency cache entry unreadable", "key", cacheKey)
			case !errors.Is(err, redis.Nil):
				slog.Warn("idempotency lookup failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			locked, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
			if err != nil {
				slog.Warn("idempotency lock failed", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if !locked {
				response.Conflict(w, "A request with this Idempotency-Key is still being processed")
				return
			}
			defer func() {
				if err := rdb.Del(ctx, lockKey).Err(); err != nil {
					slog.Warn("idempotency unlock failed", "error", err)
				}
			}()

			rec := &recordingWriter{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			if rec.status == 0 || rec.status >= http.StatusInternalServerError {
				return
			}
			payload, err := encodeCached(rec.status, rec.Header().Get("Content-Type"), rec.body.Bytes())
			if err != nil {
				return
			}
			if err := rdb.Set(ctx, cacheKey, payload, ttl).Err(); err != nil {
				slog.Warn("idempotency store failed", "error", err)
			}
		})
	}
}
