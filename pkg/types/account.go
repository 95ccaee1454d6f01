// Package types defines core primitive types for the token ledger.
package types

import (
	"encoding/json"
	"fmt"
)

// MaxAccountNameLen is the maximum length of an account name.
const MaxAccountNameLen = 12

// AccountName identifies a principal on the ledger: a balance owner,
// an allowance spender, an NFT holder, or the contract itself.
type AccountName string

// Valid reports whether the name is well formed: 1-12 characters from
// [a-z1-5.], not starting or ending with a dot.
func (n AccountName) Valid() bool {
	if len(n) == 0 || len(n) > MaxAccountNameLen {
		return false
	}
	if n[0] == '.' || n[len(n)-1] == '.' {
		return false
	}
	for i := 0; i < len(n); i++ {
		c := n[i]
		if c >= 'a' && c <= 'z' {
			continue
		}
		if c >= '1' && c <= '5' {
			continue
		}
		if c == '.' {
			continue
		}
		return false
	}
	return true
}

// IsZero returns true for the empty name.
func (n AccountName) IsZero() bool {
	return n == ""
}

// String returns the raw name.
func (n AccountName) String() string {
	return string(n)
}

// ParseAccountName validates and returns an account name.
func ParseAccountName(s string) (AccountName, error) {
	n := AccountName(s)
	if !n.Valid() {
		return "", fmt.Errorf("invalid account name %q: %w", s, ErrInvalidArgument)
	}
	return n, nil
}

// MarshalJSON encodes the name as a string.
func (n AccountName) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(n))
}

// UnmarshalJSON decodes a string into an account name. Empty is allowed
// (a record with no delegated spender stores the zero name).
func (n *AccountName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*n = ""
		return nil
	}
	parsed, err := ParseAccountName(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
