package models

import "time"

// Role is a named capability carried by a user's credential.
type Role string

const (
	RoleSeller Role = "seller"
	RoleAdmin  Role = "admin"
)

// User represents an account allowed to obtain credentials.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Username  string    `json:"username" gorm:"uniqueIndex;type:varchar(100)"`
	Email     string    `json:"email" gorm:"uniqueIndex;type:varchar(255)"`
	Password  string    `json:"-" gorm:"type:varchar(255)"` // bcrypt hash
	IsSeller  bool      `json:"isSeller"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Roles returns the capabilities granted to the user.
func (u *User) Roles() []Role {
	roles := make([]Role, 0, 2)
	if u.IsSeller {
		roles = append(roles, RoleSeller)
	}
	if u.IsAdmin {
		roles = append(roles, RoleAdmin)
	}
	return roles
}
