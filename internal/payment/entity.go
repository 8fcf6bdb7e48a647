// AngelaMos | 2026
// entity.go

package payment

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Record is an immutable receipt of one checkout.
type Record struct {
	ID            string    `db:"id"`
	Email         string    `db:"email"`
	Price         float64   `db:"price"`
	Currency      string    `db:"currency"`
	TransactionID string    `db:"transaction_id"`
	CartIDs       IDList    `db:"cart_ids"`
	MenuItemIDs   IDList    `db:"menu_item_ids"`
	Status        string    `db:"status"`
	Metadata      Metadata  `db:"metadata"`
	CreatedAt     time.Time `db:"created_at"`
}

const (
	StatusPending   = "pending"
	StatusSucceeded = "succeeded"
)

// IDList is stored as a JSONB array.
type IDList []string

func (l IDList) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

func (l *IDList) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan id list: %w", err)
	}
	if raw == nil {
		*l = IDList{}
		return nil
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

// Metadata holds provider transaction details as a JSONB object.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(m))
}

func (m *Metadata) Scan(src any) error {
	raw, err := jsonBytes(src)
	if err != nil {
		return fmt.Errorf("scan metadata: %w", err)
	}
	if raw == nil {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(raw, (*map[string]any)(m))
}

func jsonBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", src)
	}
}
