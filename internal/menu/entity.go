// AngelaMos | 2026
// entity.go

package menu

import (
	"time"
)

// Item is a dish on the menu. Items are maintained outside this service.
type Item struct {
	ID        string    `db:"id"         json:"_id"`
	Name      string    `db:"name"       json:"name"`
	Category  string    `db:"category"   json:"category"`
	Price     float64   `db:"price"      json:"price"`
	Recipe    string    `db:"recipe"     json:"recipe"`
	Image     string    `db:"image"      json:"image"`
	CreatedAt time.Time `db:"created_at" json:"-"`
}
