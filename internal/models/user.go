package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated student's identity. Tokens are issued
// by the accounts service; this API only verifies them.
type JWTClaims struct {
	StudentID string `json:"studentId"`
	Email     string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
