package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the available roles for the RBAC system.
type UserRole string

// Roles recognised by the exam engine. Tokens are issued by the identity
// service; this API only verifies and enforces them.
const (
	RoleAdmin       UserRole = "ADMIN"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleTeacher     UserRole = "TEACHER"
	RoleStudent     UserRole = "STUDENT"
)

// JWTClaims is the access-token payload. SchoolID and SessionID carry the
// tenant and academic-session scope; handlers thread them explicitly into
// every service call.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	SchoolID  string   `json:"school_id"`
	SessionID string   `json:"session_id"`
	FullName  string   `json:"full_name"`
	jwt.RegisteredClaims
}
