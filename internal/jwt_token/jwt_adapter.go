package jwttoken

import (
	authmw "registrar/pkg/platform/middleware/auth"
)

// JWTServiceAdapter lets the auth middleware validate registrar tokens without
// importing this package.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

// ValidateToken returns middleware claims carrying the canonical caller
// address, whatever casing the token subject used.
func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	caller, err := claims.Caller()
	if err != nil {
		return nil, err
	}
	return &authmw.JWTClaims{Caller: caller.String(), JTI: claims.ID}, nil
}
