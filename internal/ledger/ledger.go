// Package ledger owns the fungible side of the contract: per-symbol
// supply records and per-owner balance records, plus the debit and
// credit primitives every other component builds on.
//
// A Core instance is bound to one storage view. Operation handlers
// construct it over a staged overlay so every mutation in an operation
// commits together or not at all.
package ledger

import (
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Ledger errors. Each wraps one of the shared error kinds.
var (
	ErrSupplyNotFound = fmt.Errorf("token with symbol does not exist: %w", types.ErrNotFound)
	ErrSupplyExists   = fmt.Errorf("symbol already exists: %w", types.ErrConflict)
	ErrSymbolMismatch = fmt.Errorf("symbol precision mismatch: %w", types.ErrInvalidArgument)
	ErrNotIssuer      = fmt.Errorf("caller is not the minting authority: %w", types.ErrUnauthorized)
	ErrNoBalance      = fmt.Errorf("no balance object found: %w", types.ErrNotFound)
	ErrOverdrawn      = fmt.Errorf("overdrawn balance: %w", types.ErrInsufficientFunds)
	ErrSupplyDrained  = fmt.Errorf("burn exceeds total supply: %w", types.ErrInsufficientFunds)
	ErrBalanceNotZero = fmt.Errorf("cannot close a balance that is not zero: %w", types.ErrPreconditionFailed)
)

// Core is the ledger state-transition core for fungible balances.
type Core struct {
	supplies *SupplyStore
	balances *BalanceStore
}

// New creates a Core over the given storage view.
func New(db storage.DB) *Core {
	return &Core{
		supplies: NewSupplyStore(db),
		balances: NewBalanceStore(db),
	}
}

// Supply returns the supply record for a symbol code.
func (c *Core) Supply(code string) (*SupplyRecord, error) {
	return c.supplies.Get(code)
}

// Balance returns the balance record for (owner, code).
func (c *Core) Balance(owner types.AccountName, code string) (*BalanceRecord, error) {
	return c.balances.Get(owner, code)
}

// CreateSupply registers a new symbol with a zero supply and a fixed
// minting authority. Fails if the symbol code is already registered,
// at any precision.
func (c *Core) CreateSupply(sym types.Symbol, issuer types.AccountName) error {
	exists, err := c.supplies.Has(sym.Code)
	if err != nil {
		return err
	}
	if exists {
		return ErrSupplyExists
	}
	return c.supplies.Put(&SupplyRecord{
		Supply: types.NewAsset(0, sym),
		Issuer: issuer,
	})
}

// Issue mints quantity into existence and credits it to the recipient.
// The actor must be the symbol's minting authority and the quantity's
// symbol must match the supply record exactly, code and precision.
func (c *Core) Issue(actor, to types.AccountName, quantity types.Asset, payer types.AccountName) error {
	sup, err := c.supplies.Get(quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if actor != sup.Issuer {
		return ErrNotIssuer
	}
	if quantity.Symbol != sup.Supply.Symbol {
		return ErrSymbolMismatch
	}
	grown, err := sup.Supply.Add(quantity)
	if err != nil {
		return err
	}
	sup.Supply = grown
	if err := c.supplies.Put(sup); err != nil {
		return err
	}
	return c.Credit(to, quantity, payer)
}

// Burn debits the owner and shrinks the total supply by the same
// quantity. The caller is responsible for authority checks.
func (c *Core) Burn(owner types.AccountName, quantity types.Asset) error {
	sup, err := c.supplies.Get(quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if quantity.Symbol != sup.Supply.Symbol {
		return ErrSymbolMismatch
	}
	if sup.Supply.Amount < quantity.Amount {
		return ErrSupplyDrained
	}
	if err := c.Debit(owner, quantity); err != nil {
		return err
	}
	shrunk, err := sup.Supply.Sub(quantity)
	if err != nil {
		return err
	}
	sup.Supply = shrunk
	return c.supplies.Put(sup)
}

// Transfer debits the source and credits the destination. The payer is
// charged for the destination's record if one is created.
func (c *Core) Transfer(from, to types.AccountName, quantity types.Asset, payer types.AccountName) error {
	sup, err := c.supplies.Get(quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if quantity.Symbol != sup.Supply.Symbol {
		return ErrSymbolMismatch
	}
	if err := c.Debit(from, quantity); err != nil {
		return err
	}
	return c.Credit(to, quantity, payer)
}

// Debit subtracts quantity from the owner's balance. Fails ErrNoBalance
// without a record and ErrOverdrawn when the balance cannot cover it.
// A balance drained to zero keeps its record until the owner closes it.
func (c *Core) Debit(owner types.AccountName, quantity types.Asset) error {
	rec, err := c.balances.Get(owner, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if rec.Balance.Symbol != quantity.Symbol {
		return ErrSymbolMismatch
	}
	if rec.Balance.Amount < quantity.Amount {
		return ErrOverdrawn
	}
	left, err := rec.Balance.Sub(quantity)
	if err != nil {
		return err
	}
	rec.Balance = left
	return c.balances.Put(owner, rec)
}

// Credit adds quantity to the owner's balance, creating the record on
// first credit with the given payer charged for its storage.
func (c *Core) Credit(owner types.AccountName, quantity types.Asset, payer types.AccountName) error {
	rec, err := c.balances.Get(owner, quantity.Symbol.Code)
	if err != nil {
		return c.balances.Put(owner, &BalanceRecord{Balance: quantity, Payer: payer})
	}
	if rec.Balance.Symbol != quantity.Symbol {
		return ErrSymbolMismatch
	}
	grown, err := rec.Balance.Add(quantity)
	if err != nil {
		return err
	}
	rec.Balance = grown
	return c.balances.Put(owner, rec)
}

// OpenBalance creates a zero balance record for (owner, symbol) with
// the payer charged for its storage. Opening an existing record is a
// no-op. The symbol must match the registered supply exactly.
func (c *Core) OpenBalance(owner types.AccountName, sym types.Symbol, payer types.AccountName) error {
	sup, err := c.supplies.Get(sym.Code)
	if err != nil {
		return err
	}
	if sym != sup.Supply.Symbol {
		return ErrSymbolMismatch
	}
	exists, err := c.balances.Has(owner, sym.Code)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.balances.Put(owner, &BalanceRecord{
		Balance: types.NewAsset(0, sym),
		Payer:   payer,
	})
}

// CloseBalance deletes the owner's balance record. The record must
// exist and hold exactly zero.
func (c *Core) CloseBalance(owner types.AccountName, sym types.Symbol) error {
	rec, err := c.balances.Get(owner, sym.Code)
	if err != nil {
		return err
	}
	if rec.Balance.Amount != 0 {
		return ErrBalanceNotZero
	}
	return c.balances.Delete(owner, sym.Code)
}

// TotalBalances sums every balance held under a symbol code. Escrowed
// bid funds sit in the contract's own balance record, so this total
// equals the supply whenever the conservation invariant holds.
func (c *Core) TotalBalances(code string) (int64, error) {
	var total int64
	err := c.balances.ForEach(func(_ types.AccountName, rec *BalanceRecord) error {
		if rec.Balance.Symbol.Code == code {
			total += rec.Balance.Amount
		}
		return nil
	})
	return total, err
}
