package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/siplan/siplan-skills/internal/core/domain"
)

// Claim keys carried by every signed session token. Middleware reads the same
// keys back out, so they live here as the single source of truth.
const (
	ClaimKind         = "kind"
	ClaimEmail        = "email"
	ClaimUsername     = "username"
	ClaimUserID       = "user_id"
	ClaimCartorioID   = "cartorio_id"
	ClaimCartorioNome = "cartorio_nome"
)

// accessClaims builds the claim set shared by admin and tenant access tokens.
func accessClaims(identityID string, kind domain.IdentityKind, email string, ttl time.Duration, now time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"sub":      identityID,
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(ttl).Unix(),
		ClaimKind:  string(kind),
		ClaimEmail: email,
	}
}

func signToken(secret string, claims jwt.MapClaims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// newRefreshToken returns an opaque refresh token value. Possession is the
// only credential; the value itself carries no claims.
func newRefreshToken() string {
	return uuid.NewString() + uuid.NewString()
}
