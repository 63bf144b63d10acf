package model

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// IsAdmin is the single global-admin capability check. Middleware and
// services must use it instead of comparing role strings ad hoc.
func (r UserRole) IsAdmin() bool {
	return r == UserRoleAdmin
}

type User struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Role     UserRole `json:"role"`
}

type UsersPage struct {
	Users   []*User `json:"users"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	Total   int     `json:"total"`
}

type DashboardSummary struct {
	Users int `json:"users"`
	Teams int `json:"teams"`
}
