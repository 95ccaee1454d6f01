// Package config holds the contract rules and per-deployment options.
package config

import (
	"fmt"

	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// =============================================================================
// Contract Rules (immutable)
// These must match across every replica of a contract or state diverges.
// =============================================================================

// MaxMemoBytes is the maximum memo length accepted by any operation.
const MaxMemoBytes = 256

// Settlement currency constants. Auction bids are denominated in this
// fixed pegged currency regardless of the class under auction.
const (
	SettlementCode      = "KRW"
	SettlementPrecision = 3
)

// SettlementSymbol returns the fixed settlement currency symbol.
func SettlementSymbol() types.Symbol {
	return types.NewSymbol(SettlementCode, SettlementPrecision)
}

// AllowancePolicy selects how delegated-spend records are keyed.
type AllowancePolicy int

const (
	// AllowanceSingle keys one record per (owner, symbol) carrying a
	// single spender; approve overwrites and requires the owner's
	// balance to cover the delegated amount.
	AllowanceSingle AllowancePolicy = iota

	// AllowanceMulti keys one record per (owner, spender); approve
	// fails if the delegation already exists.
	AllowanceMulti
)

// String returns the policy name.
func (p AllowancePolicy) String() string {
	switch p {
	case AllowanceSingle:
		return "single"
	case AllowanceMulti:
		return "multi"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Options configures one contract deployment.
type Options struct {
	// Contract is the contract's own account: the minting authority
	// for bootstrap issuance and the escrow principal holding
	// auctioned items and bid funds.
	Contract types.AccountName

	// Policy selects the allowance key layout.
	Policy AllowancePolicy

	// StrictDecrease rejects an allowance decrease that would drive
	// the remaining amount negative. When false the remainder clamps
	// at zero instead. The contract variants this ledger descends
	// from disagree on the behavior, so it is explicit here.
	StrictDecrease bool

	// Settlement is the currency auction bids are denominated in.
	Settlement types.Symbol
}

// DefaultOptions returns the standard deployment: single-spender
// allowances, strict decrease, KRW settlement.
func DefaultOptions(contract types.AccountName) Options {
	return Options{
		Contract:       contract,
		Policy:         AllowanceSingle,
		StrictDecrease: true,
		Settlement:     SettlementSymbol(),
	}
}

// Validate checks the options for internal consistency.
func (o Options) Validate() error {
	if !o.Contract.Valid() {
		return fmt.Errorf("invalid contract account %q: %w", o.Contract, types.ErrInvalidArgument)
	}
	if o.Policy != AllowanceSingle && o.Policy != AllowanceMulti {
		return fmt.Errorf("unknown allowance policy %d: %w", int(o.Policy), types.ErrInvalidArgument)
	}
	if !o.Settlement.Valid() {
		return fmt.Errorf("invalid settlement symbol %q: %w", o.Settlement, types.ErrInvalidArgument)
	}
	return nil
}
