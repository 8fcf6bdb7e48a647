// AngelaMos | 2026
// entity.go

package cart

import (
	"time"
)

// Entry is one selected dish in a user's cart. Name, price and image are
// copied from the menu item when the entry is added.
type Entry struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	MenuID    string    `db:"menu_id"`
	Name      string    `db:"name"`
	Price     float64   `db:"price"`
	Image     string    `db:"image"`
	CreatedAt time.Time `db:"created_at"`
}

func (e *Entry) OwnedBy(email string) bool {
	return e.Email == email
}
