package jwttoken

import (
	"slices"

	dErrors "givecycle/pkg/domain-errors"
	authmw "givecycle/pkg/platform/middleware/auth"
)

// Roles lists every role the engine authorizes.
var Roles = []string{RoleService, RoleAdmin, RolePayments}

// KnownRole reports whether role is one of Roles.
func KnownRole(role string) bool {
	return slices.Contains(Roles, role)
}

// Validator adapts JWTService to the auth middleware. Tokens carrying a role
// the engine does not know are rejected before any route sees them.
type Validator struct {
	service *JWTService
}

func NewValidator(service *JWTService) *Validator {
	return &Validator{service: service}
}

func (v *Validator) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := v.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if !KnownRole(claims.Role) {
		return nil, dErrors.New(dErrors.CodeForbidden, "unknown role "+claims.Role)
	}
	return &authmw.JWTClaims{
		Subject: claims.Subject,
		Role:    claims.Role,
		JTI:     claims.ID,
	}, nil
}
