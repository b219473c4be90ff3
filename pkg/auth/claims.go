package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionTokenPayload captures the data available when minting a session JWT.
type SessionTokenPayload struct {
	SessionID uuid.UUID
	JTI       string
}

// SessionTokenClaims represents the typed JWT carried by storefront sessions.
type SessionTokenClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	jwt.RegisteredClaims
}
