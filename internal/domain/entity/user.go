package entity

import "time"

// Role is the fixed function a user plays in the approval pipeline
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleFinance  Role = "FINANCE"
)

// IsValid returns true for the three known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleFinance:
		return true
	}
	return false
}

// User is a seeded account
type User struct {
	ID        int64     `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Actor is the authenticated caller of an operation
type Actor struct {
	UserID   int64  `json:"id"`
	Role     Role   `json:"role"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// ActorFromUser builds the actor for a loaded user
func ActorFromUser(u *User) Actor {
	return Actor{UserID: u.ID, Role: u.Role, FullName: u.FullName, Email: u.Email}
}
