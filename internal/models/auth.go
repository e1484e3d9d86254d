package models

import "github.com/golang-jwt/jwt/v5"

// WardRole represents the staff roles recognised on MAR routes.
type WardRole string

const (
	RoleAdmin      WardRole = "ADMIN"
	RoleNurse      WardRole = "NURSE"
	RolePhysician  WardRole = "PHYSICIAN"
	RolePharmacist WardRole = "PHARMACIST"
)

// JWTClaims represents the access token payload issued by the ward identity service.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     WardRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	DeptCode string   `json:"dept_code,omitempty"`
	jwt.RegisteredClaims
}

// Valid reports whether the role may access MAR routes at all.
func (r WardRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleNurse, RolePhysician, RolePharmacist:
		return true
	default:
		return false
	}
}
