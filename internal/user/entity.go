// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Name      string    `db:"name"`
	PhotoURL  string    `db:"photo_url"`
	Role      *string   `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// RoleName returns the user's role, or RoleNone if none was granted.
func (u *User) RoleName() string {
	if u.Role == nil {
		return RoleNone
	}
	return *u.Role
}

func (u *User) IsAdmin() bool {
	return u.RoleName() == RoleAdmin
}

const (
	RoleNone  = ""
	RoleAdmin = "admin"
)
