package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals is the fixed-point scale used by both contracts.
const Decimals = 18

// Submission bounds in human token units.
var (
	MinAmount = decimal.RequireFromString("0.000001")
	MaxAmount = decimal.RequireFromString("1000000")
)

// Parse converts a human-entered amount string into a decimal.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Validate checks the submission invariants: amount > 0 and within
// [MinAmount, MaxAmount].
func Validate(d decimal.Decimal) error {
	if d.Sign() <= 0 {
		return fmt.Errorf("amount must be positive, got %s", d)
	}
	if d.LessThan(MinAmount) {
		return fmt.Errorf("amount %s below minimum %s", d, MinAmount)
	}
	if d.GreaterThan(MaxAmount) {
		return fmt.Errorf("amount %s above maximum %s", d, MaxAmount)
	}
	return nil
}

// ToWei converts a human amount into the 18-decimal fixed-point integer
// representation the contracts expect. Digits beyond 18 places are
// truncated, never rounded up.
func ToWei(d decimal.Decimal) *big.Int {
	return d.Truncate(Decimals).Shift(Decimals).BigInt()
}

// FromWei converts a fixed-point integer back into a human amount.
func FromWei(wei *big.Int) decimal.Decimal {
	if wei == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(wei, -Decimals)
}

// FormatUnits renders a fixed-point integer with an arbitrary scale as a
// trimmed decimal string. Example: 1234500000000000000 at 18 => "1.2345".
func FormatUnits(v *big.Int, decimals int32) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -decimals).String()
}

// Format renders a token amount (18 decimals) as a trimmed decimal string.
func Format(wei *big.Int) string {
	return FormatUnits(wei, Decimals)
}
