// AngelaMos | 2026
// gateway.go

package payment

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/carterperez-dev/bistro-backend/internal/core"
)

// Gateway creates provider-side charge intents. Implementations make a
// single call and never retry.
type Gateway interface {
	Name() string
	CreateChargeIntent(ctx context.Context, req ChargeRequest) (*ChargeIntent, error)
}

type ChargeRequest struct {
	AmountMinor int64
	Currency    string
	Email       string
}

type ChargeIntent struct {
	ID           string
	ClientSecret string
}

// ToMinorUnits multiplies by 100 and truncates toward zero. The
// arithmetic runs on the shortest decimal form of amount, so 19.99
// yields 1999 rather than the 1998 a float multiply would give.
func ToMinorUnits(amount float64) (int64, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("minor units: non-finite amount: %w", core.ErrInvalidInput)
	}

	s := strconv.FormatFloat(math.Abs(amount), 'f', -1, 64)
	whole, frac, _ := strings.Cut(s, ".")
	frac = (frac + "00")[:2]

	v, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("minor units: %w", core.ErrInvalidInput)
	}

	if amount < 0 {
		v = -v
	}
	return v, nil
}
