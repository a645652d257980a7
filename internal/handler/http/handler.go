package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/hris-policy-engine/internal/handler/http/response"
)

const maxBodyBytes = 1 << 20

// callerOrUnauthorized returns the authenticated caller, writing a 401 when
// the route was mounted outside the auth group.
func callerOrUnauthorized(w http.ResponseWriter, r *http.Request) (user.Caller, bool) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
	}
	return caller, ok
}

// decodeJSON reads the body into v. An empty body leaves v untouched so
// optional payloads (approve, consume) can be sent bare.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("request decode error", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getBoolQueryParam gets a bool query parameter with a default value
func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// clientIP is the connection address after chi's RealIP has run.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
