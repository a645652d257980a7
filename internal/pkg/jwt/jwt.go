package jwt

import (
	"time"

	"github.com/cmlabs-hris/hris-policy-engine/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

// Service signs and verifies the tokens this API accepts. Access tokens are
// normally minted by the auth service with the same secret; GenerateAccessToken
// exists for tooling and tests.
type Service interface {
	GenerateAccessToken(caller user.Caller) (token string, expiresAt int64, err error)
	GenerateSSEToken(caller user.Caller) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (user.Caller, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenExpiration time.Duration
	tokenAuth             *jwtauth.JWTAuth
}

func NewJWTService(secretKey string, accessTokenExpiration time.Duration) Service {
	return &JWTService{
		accessTokenExpiration: accessTokenExpiration,
		tokenAuth:             jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func callerClaims(c user.Caller, tokenType string, expiresAt int64) map[string]interface{} {
	perms := make([]string, 0, len(c.Permissions))
	for _, p := range c.Permissions {
		perms = append(perms, string(p))
	}
	return map[string]interface{}{
		"user_id":     c.UserID,
		"employee_id": c.EmployeeID,
		"company_id":  c.CompanyID,
		"role":        string(c.Role),
		"permissions": perms,
		"type":        tokenType,
		"exp":         expiresAt,
	}
}

func (j *JWTService) GenerateAccessToken(caller user.Caller) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenExpiration).Unix()
	_, token, err = j.tokenAuth.Encode(callerClaims(caller, TokenTypeAccess, expiresAt))
	return token, expiresAt, err
}

// GenerateSSEToken issues a short-lived token for EventSource connections,
// which cannot send an Authorization header.
func (j *JWTService) GenerateSSEToken(caller user.Caller) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenTTL).Unix()
	_, token, err = j.tokenAuth.Encode(callerClaims(caller, TokenTypeSSE, expiresAt))
	if err != nil {
		return "", 0, err
	}
	return token, int(sseTokenTTL.Seconds()), nil
}

// ValidateSSEToken verifies an SSE token and returns the caller it was issued to.
func (j *JWTService) ValidateSSEToken(tokenString string) (user.Caller, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return user.Caller{}, err
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return user.Caller{}, jwt.ErrInvalidJWT()
	}

	claims := token.PrivateClaims()
	return user.CallerFromClaims(claims)
}
