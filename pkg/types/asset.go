package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxAssetAmount bounds the magnitude of any asset amount so that sums
// of two valid amounts never overflow int64.
const MaxAssetAmount int64 = (1 << 62) - 1

// Asset is a fixed-point amount tagged with its symbol. The integer
// amount is scaled by the symbol's precision: Asset{100000, {"FOO",3}}
// renders as "100.000 FOO". No floating point anywhere on this path.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// NewAsset builds an asset without validating it.
func NewAsset(amount int64, sym Symbol) Asset {
	return Asset{Amount: amount, Symbol: sym}
}

// Valid reports whether the symbol is well formed and the amount is
// within [-MaxAssetAmount, MaxAssetAmount].
func (a Asset) Valid() bool {
	return a.Symbol.Valid() && a.Amount >= -MaxAssetAmount && a.Amount <= MaxAssetAmount
}

// Positive reports whether the amount is strictly greater than zero.
func (a Asset) Positive() bool {
	return a.Amount > 0
}

// Add returns a+b. Fails on symbol mismatch or overflow past the
// asset amount bound.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("symbol mismatch %s vs %s: %w", a.Symbol, b.Symbol, ErrInvalidArgument)
	}
	sum := a.Amount + b.Amount
	if sum > MaxAssetAmount || sum < -MaxAssetAmount {
		return Asset{}, fmt.Errorf("asset amount overflow: %w", ErrInvalidArgument)
	}
	return Asset{Amount: sum, Symbol: a.Symbol}, nil
}

// Sub returns a-b. Fails on symbol mismatch or overflow.
func (a Asset) Sub(b Asset) (Asset, error) {
	return a.Add(Asset{Amount: -b.Amount, Symbol: b.Symbol})
}

// String renders the asset with the symbol's precision applied,
// e.g. "100.000 FOO" or "-0.500 KRW". Zero precision omits the point.
func (a Asset) String() string {
	amount := a.Amount
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, amount, a.Symbol.Code)
	}
	scale := int64(1)
	for i := uint8(0); i < a.Symbol.Precision; i++ {
		scale *= 10
	}
	return fmt.Sprintf("%s%d.%0*d %s", sign, amount/scale, a.Symbol.Precision, amount%scale, a.Symbol.Code)
}

// ParseAsset parses the string form produced by String, e.g.
// "100.000 FOO". The number of fractional digits fixes the precision.
func ParseAsset(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("invalid asset %q: %w", s, ErrInvalidArgument)
	}
	num, code := fields[0], fields[1]

	neg := false
	if strings.HasPrefix(num, "-") {
		neg = true
		num = num[1:]
	}

	whole, frac := num, ""
	if i := strings.IndexByte(num, '.'); i >= 0 {
		whole, frac = num[:i], num[i+1:]
	}
	if whole == "" || len(frac) > 18 {
		return Asset{}, fmt.Errorf("invalid asset amount %q: %w", s, ErrInvalidArgument)
	}

	var amount int64
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			c := part[i]
			if c < '0' || c > '9' {
				return Asset{}, fmt.Errorf("invalid asset amount %q: %w", s, ErrInvalidArgument)
			}
			amount = amount*10 + int64(c-'0')
			if amount > MaxAssetAmount {
				return Asset{}, fmt.Errorf("asset amount overflow in %q: %w", s, ErrInvalidArgument)
			}
		}
	}
	if neg {
		amount = -amount
	}

	a := Asset{Amount: amount, Symbol: Symbol{Code: code, Precision: uint8(len(frac))}}
	if !a.Valid() {
		return Asset{}, fmt.Errorf("invalid asset %q: %w", s, ErrInvalidArgument)
	}
	return a, nil
}

// MarshalJSON encodes the asset as its string form.
func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes the string form into an asset.
func (a *Asset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Asset{}
		return nil
	}
	parsed, err := ParseAsset(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
