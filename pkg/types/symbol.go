package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxSymbolCodeLen is the maximum length of a symbol code.
const MaxSymbolCodeLen = 7

// Symbol is a typed currency or token-class identifier: a short
// uppercase code plus a fixed-point decimal precision. Two symbols are
// equal only if both fields match; a code reused at a different
// precision is a different symbol and is rejected wherever a supply
// record already pins the precision.
type Symbol struct {
	Code      string
	Precision uint8
}

// NewSymbol builds a symbol without validating it. Use ParseSymbol for
// untrusted input.
func NewSymbol(code string, precision uint8) Symbol {
	return Symbol{Code: code, Precision: precision}
}

// Valid reports whether the code is 1-7 uppercase letters A-Z.
func (s Symbol) Valid() bool {
	if len(s.Code) == 0 || len(s.Code) > MaxSymbolCodeLen {
		return false
	}
	for i := 0; i < len(s.Code); i++ {
		if s.Code[i] < 'A' || s.Code[i] > 'Z' {
			return false
		}
	}
	return true
}

// IsZero returns true for the zero symbol.
func (s Symbol) IsZero() bool {
	return s == Symbol{}
}

// String renders the symbol as "<precision>,<code>", e.g. "3,KRW".
func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// ParseSymbol parses "<precision>,<code>" into a symbol.
func ParseSymbol(str string) (Symbol, error) {
	parts := strings.SplitN(str, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("invalid symbol %q: %w", str, ErrInvalidArgument)
	}
	var precision uint8
	if _, err := fmt.Sscanf(parts[0], "%d", &precision); err != nil {
		return Symbol{}, fmt.Errorf("invalid symbol precision %q: %w", str, ErrInvalidArgument)
	}
	sym := Symbol{Code: parts[1], Precision: precision}
	if !sym.Valid() {
		return Symbol{}, fmt.Errorf("invalid symbol code %q: %w", str, ErrInvalidArgument)
	}
	return sym, nil
}

// MarshalJSON encodes the symbol as its string form.
func (s Symbol) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes the string form into a symbol.
func (s *Symbol) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str == "" {
		*s = Symbol{}
		return nil
	}
	parsed, err := ParseSymbol(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
