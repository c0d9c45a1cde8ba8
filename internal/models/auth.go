package models

import "github.com/golang-jwt/jwt/v5"

// UserRole enumerates the platform roles relevant to timetable endpoints.
type UserRole string

const (
	RoleAdmin   UserRole = "ADMIN"
	RoleTeacher UserRole = "TEACHER"
	RoleStudent UserRole = "STUDENT"
)

// JWTClaims represents the JWT payload for access tokens issued by the
// platform's auth service. TeacherID is set for teacher accounts and drives
// the /timetable/my view.
type JWTClaims struct {
	UserID    string   `json:"user_id"`
	Role      UserRole `json:"role"`
	Email     string   `json:"email"`
	TeacherID string   `json:"teacher_id,omitempty"`
	jwt.RegisteredClaims
}
