// Package allowance owns delegated-spend records: capped, revocable
// grants letting a spender move an owner's funds. Records never exceed
// the owner's live balance for long — every balance-reducing operation
// re-applies the clamp rule through ClampToBalance.
package allowance

import (
	"errors"
	"fmt"

	"github.com/DE-labtory/erc20peggy/config"
	"github.com/DE-labtory/erc20peggy/internal/ledger"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Allowance errors. Each wraps one of the shared error kinds.
var (
	ErrAllowanceNotFound = fmt.Errorf("no allowance in place: %w", types.ErrNotFound)
	ErrAllowanceExists   = fmt.Errorf("spender already exists: %w", types.ErrConflict)
	ErrNotSpender        = fmt.Errorf("wrong delegated spender: %w", types.ErrPreconditionFailed)
	ErrAllowanceExceeded = fmt.Errorf("spender does not have enough allowed amount: %w", types.ErrInsufficientFunds)
	ErrCeilingExceeded   = fmt.Errorf("allowance would exceed owner balance: %w", types.ErrInsufficientFunds)
	ErrDecreaseTooLarge  = fmt.Errorf("decrease exceeds remaining allowance: %w", types.ErrInsufficientFunds)
	ErrSymbolMismatch    = fmt.Errorf("allowance symbol mismatch: %w", types.ErrInvalidArgument)
)

// Manager applies the allowance rules over a storage view.
type Manager struct {
	store          *Store
	ledger         *ledger.Core
	policy         config.AllowancePolicy
	strictDecrease bool
}

// New creates a Manager bound to the same storage view as the ledger
// core it reads balances from.
func New(db storage.DB, core *ledger.Core, opts config.Options) *Manager {
	return &Manager{
		store:          NewStore(db, opts.Policy),
		ledger:         core,
		policy:         opts.Policy,
		strictDecrease: opts.StrictDecrease,
	}
}

// Allowance returns the record for (owner, spender, code), keyed per
// the configured policy.
func (m *Manager) Allowance(owner, spender types.AccountName, code string) (*Record, error) {
	return m.store.Get(owner, spender, code)
}

// Approve sets a delegation to exactly quantity — set, not additive.
// Single policy overwrites any prior grant and requires the owner's
// balance to cover the quantity; multi policy refuses to replace an
// existing grant (revoke by spending it down or decreasing to zero).
func (m *Manager) Approve(owner, spender types.AccountName, quantity types.Asset) error {
	if m.policy == config.AllowanceMulti {
		exists, err := m.store.Has(owner, spender, quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if exists {
			return ErrAllowanceExists
		}
	} else {
		bal, err := m.ledger.Balance(owner, quantity.Symbol.Code)
		if err != nil {
			return err
		}
		if bal.Balance.Amount < quantity.Amount {
			return ErrCeilingExceeded
		}
	}
	return m.store.Put(owner, &Record{Remaining: quantity, Spender: spender})
}

// Increase raises an existing delegation by quantity. The new total
// must not exceed the owner's current balance.
func (m *Manager) Increase(owner, spender types.AccountName, quantity types.Asset) error {
	rec, err := m.find(owner, spender, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if rec.Remaining.Symbol != quantity.Symbol {
		return ErrSymbolMismatch
	}
	bal, err := m.ledger.Balance(owner, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if bal.Balance.Amount < rec.Remaining.Amount+quantity.Amount {
		return ErrCeilingExceeded
	}
	grown, err := rec.Remaining.Add(quantity)
	if err != nil {
		return err
	}
	rec.Remaining = grown
	return m.store.Put(owner, rec)
}

// Decrease lowers an existing delegation by quantity. Strict mode
// rejects a decrease past zero; otherwise the remainder clamps at zero.
func (m *Manager) Decrease(owner, spender types.AccountName, quantity types.Asset) error {
	rec, err := m.find(owner, spender, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if rec.Remaining.Symbol != quantity.Symbol {
		return ErrSymbolMismatch
	}
	if rec.Remaining.Amount < quantity.Amount {
		if m.strictDecrease {
			return ErrDecreaseTooLarge
		}
		rec.Remaining.Amount = 0
		return m.store.Put(owner, rec)
	}
	left, err := rec.Remaining.Sub(quantity)
	if err != nil {
		return err
	}
	rec.Remaining = left
	return m.store.Put(owner, rec)
}

// Spend consumes quantity of the delegation during a transferFrom or
// burnFrom. The record is erased when it reaches exactly zero.
func (m *Manager) Spend(owner, spender types.AccountName, quantity types.Asset) error {
	rec, err := m.find(owner, spender, quantity.Symbol.Code)
	if err != nil {
		return err
	}
	if rec.Remaining.Symbol != quantity.Symbol {
		return ErrSymbolMismatch
	}
	if rec.Remaining.Amount < quantity.Amount {
		return ErrAllowanceExceeded
	}
	if rec.Remaining.Amount == quantity.Amount {
		return m.store.Delete(owner, spender, quantity.Symbol.Code)
	}
	left, err := rec.Remaining.Sub(quantity)
	if err != nil {
		return err
	}
	rec.Remaining = left
	return m.store.Put(owner, rec)
}

// ClampToBalance re-applies the allowance ceiling after the owner's
// balance shrank: any remaining amount above the new balance is cut
// down to it, and grants are erased outright when the balance is zero.
func (m *Manager) ClampToBalance(owner types.AccountName, sym types.Symbol) error {
	balance := int64(0)
	bal, err := m.ledger.Balance(owner, sym.Code)
	if err == nil {
		balance = bal.Balance.Amount
	} else if !errors.Is(err, types.ErrNotFound) {
		return err
	}

	var clamp []*Record
	err = m.store.ForEachOwner(owner, func(rec *Record) error {
		if rec.Remaining.Symbol != sym {
			return nil
		}
		if rec.Remaining.Amount > balance {
			clamp = append(clamp, rec)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, rec := range clamp {
		if balance == 0 {
			if err := m.store.Delete(owner, rec.Spender, sym.Code); err != nil {
				return err
			}
			continue
		}
		rec.Remaining.Amount = balance
		if err := m.store.Put(owner, rec); err != nil {
			return err
		}
	}
	return nil
}

// find fetches the policy-keyed record and, under the single policy,
// verifies the stored spender matches the one named by the caller.
func (m *Manager) find(owner, spender types.AccountName, code string) (*Record, error) {
	rec, err := m.store.Get(owner, spender, code)
	if err != nil {
		return nil, err
	}
	if rec.Spender != spender {
		return nil, ErrNotSpender
	}
	return rec, nil
}
