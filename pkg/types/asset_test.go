package types

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSymbolValid(t *testing.T) {
	cases := []struct {
		sym  Symbol
		want bool
	}{
		{NewSymbol("FOO", 3), true},
		{NewSymbol("KRW", 3), true},
		{NewSymbol("A", 0), true},
		{NewSymbol("ABCDEFG", 0), true},
		{NewSymbol("ABCDEFGH", 0), false}, // too long
		{NewSymbol("", 3), false},
		{NewSymbol("foo", 3), false}, // lowercase
		{NewSymbol("FO0", 3), false}, // digit
	}
	for _, c := range cases {
		if got := c.sym.Valid(); got != c.want {
			t.Errorf("Valid(%v) = %v, want %v", c.sym, got, c.want)
		}
	}
}

func TestSymbolEqualityIncludesPrecision(t *testing.T) {
	if NewSymbol("FOO", 3) == NewSymbol("FOO", 4) {
		t.Error("symbols with different precision must not be equal")
	}
}

func TestAssetString(t *testing.T) {
	cases := []struct {
		asset Asset
		want  string
	}{
		{NewAsset(100000, NewSymbol("FOO", 3)), "100.000 FOO"},
		{NewAsset(-500, NewSymbol("KRW", 3)), "-0.500 KRW"},
		{NewAsset(2, NewSymbol("ART", 0)), "2 ART"},
		{NewAsset(0, NewSymbol("FOO", 3)), "0.000 FOO"},
	}
	for _, c := range cases {
		if got := c.asset.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestParseAsset(t *testing.T) {
	a, err := ParseAsset("100.000 FOO")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Amount != 100000 || a.Symbol != NewSymbol("FOO", 3) {
		t.Errorf("unexpected asset %+v", a)
	}

	neg, err := ParseAsset("-1.5 BAR")
	if err != nil {
		t.Fatalf("parse negative: %v", err)
	}
	if neg.Amount != -15 || neg.Symbol.Precision != 1 {
		t.Errorf("unexpected asset %+v", neg)
	}

	whole, err := ParseAsset("7 ART")
	if err != nil {
		t.Fatalf("parse whole: %v", err)
	}
	if whole.Amount != 7 || whole.Symbol.Precision != 0 {
		t.Errorf("unexpected asset %+v", whole)
	}
}

func TestParseAsset_Invalid(t *testing.T) {
	for _, s := range []string{"", "FOO", "1.0.0 FOO", "1,0 FOO", "abc FOO", "1.0 foo"} {
		if _, err := ParseAsset(s); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("ParseAsset(%q) = %v, want ErrInvalidArgument", s, err)
		}
	}
}

func TestAssetRoundTripJSON(t *testing.T) {
	orig := NewAsset(42500, NewSymbol("KRW", 3))
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got Asset
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != orig {
		t.Errorf("round trip %v != %v", got, orig)
	}
}

func TestAssetAdd(t *testing.T) {
	sym := NewSymbol("FOO", 3)
	sum, err := NewAsset(60000, sym).Add(NewAsset(40000, sym))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Amount != 100000 {
		t.Errorf("sum = %d, want 100000", sum.Amount)
	}
}

func TestAssetAdd_SymbolMismatch(t *testing.T) {
	_, err := NewAsset(1, NewSymbol("FOO", 3)).Add(NewAsset(1, NewSymbol("FOO", 4)))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("precision mismatch: %v, want ErrInvalidArgument", err)
	}
}

func TestAssetAdd_Overflow(t *testing.T) {
	sym := NewSymbol("FOO", 0)
	_, err := NewAsset(MaxAssetAmount, sym).Add(NewAsset(1, sym))
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("overflow: %v, want ErrInvalidArgument", err)
	}
}

func TestAssetSub(t *testing.T) {
	sym := NewSymbol("FOO", 3)
	diff, err := NewAsset(100000, sym).Sub(NewAsset(40000, sym))
	if err != nil {
		t.Fatalf("sub: %v", err)
	}
	if diff.Amount != 60000 {
		t.Errorf("diff = %d, want 60000", diff.Amount)
	}
}

func TestAccountNameValid(t *testing.T) {
	cases := []struct {
		name AccountName
		want bool
	}{
		{"alice", true},
		{"bob2", true},
		{"a.b.c", true},
		{"escrow12345x", true},
		{"", false},
		{"Alice", false},       // uppercase
		{"toolongname13", false}, // 13 chars
		{".alice", false},
		{"alice.", false},
		{"al ice", false},
	}
	for _, c := range cases {
		if got := c.name.Valid(); got != c.want {
			t.Errorf("Valid(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestParseAccountName(t *testing.T) {
	if _, err := ParseAccountName("alice"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
	if _, err := ParseAccountName("BAD"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("invalid name: %v, want ErrInvalidArgument", err)
	}
}
