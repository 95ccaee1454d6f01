// Package nft owns non-fungible token classes and their per-item
// records. An item's existence mirrors one unit of a zero-precision
// fungible balance under the class symbol, so every item mutation is
// paired with the matching ledger debit or credit within the same
// storage view.
package nft

import (
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/ledger"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Registry errors. Each wraps one of the shared error kinds.
var (
	ErrTokenNotFound  = fmt.Errorf("token with symbol does not exist: %w", types.ErrNotFound)
	ErrTokenExists    = fmt.Errorf("token id already exists: %w", types.ErrConflict)
	ErrNotItemOwner   = fmt.Errorf("not the owner of token: %w", types.ErrUnauthorized)
	ErrNotItemSpender = fmt.Errorf("not the token spender: %w", types.ErrPreconditionFailed)
	ErrItemLocked     = fmt.Errorf("token is held in auction escrow: %w", types.ErrPreconditionFailed)
	ErrNotWholeClass  = fmt.Errorf("class symbol must have zero precision: %w", types.ErrInvalidArgument)
	ErrBatchMismatch  = fmt.Errorf("mismatch between amount and token infos: %w", types.ErrInvalidArgument)
)

// ItemSpec names one item in an issuance batch.
type ItemSpec struct {
	ID    uint64
	Name  string
	Value types.Asset
}

// Registry applies the NFT rules over a storage view.
type Registry struct {
	store  *Store
	ledger *ledger.Core
	escrow types.AccountName
}

// New creates a Registry bound to the same storage view as the ledger
// core that tracks class balances. escrow is the contract's own
// account; an item delegated to it is locked under auction.
func New(db storage.DB, core *ledger.Core, escrow types.AccountName) *Registry {
	return &Registry{
		store:  NewStore(db),
		ledger: core,
		escrow: escrow,
	}
}

// Item returns the record for (class code, id).
func (r *Registry) Item(code string, id uint64) (*Item, error) {
	return r.store.Get(code, id)
}

// CountByOwner returns the number of items of a class held by owner.
func (r *Registry) CountByOwner(owner types.AccountName, code string) (int64, error) {
	return r.store.CountByOwner(owner, code)
}

// CreateClass registers a new zero-precision class symbol with a fixed
// issuer. Fails if a supply record already exists for the code.
func (r *Registry) CreateClass(issuer types.AccountName, code string) error {
	sym := types.NewSymbol(code, 0)
	if !sym.Valid() {
		return fmt.Errorf("invalid class symbol %q: %w", code, types.ErrInvalidArgument)
	}
	return r.ledger.CreateSupply(sym, issuer)
}

// IssueBatch mints the listed items to one recipient. The actor must
// be the class issuer, the fungible quantity must equal the batch
// size, and every id must be unused.
func (r *Registry) IssueBatch(actor, to types.AccountName, quantity types.Asset, items []ItemSpec, payer types.AccountName) error {
	if quantity.Symbol.Precision != 0 {
		return ErrNotWholeClass
	}
	if quantity.Amount != int64(len(items)) {
		return ErrBatchMismatch
	}
	code := quantity.Symbol.Code
	seen := make(map[uint64]bool, len(items))
	for _, spec := range items {
		// An id repeated within the batch would overwrite its earlier
		// record while the fungible quantity counts it twice.
		if seen[spec.ID] {
			return ErrTokenExists
		}
		seen[spec.ID] = true
		exists, err := r.store.Has(code, spec.ID)
		if err != nil {
			return err
		}
		if exists {
			return ErrTokenExists
		}
	}
	// Issue checks the minting authority and symbol, grows the supply,
	// and credits the recipient.
	if err := r.ledger.Issue(actor, to, quantity, payer); err != nil {
		return err
	}
	for _, spec := range items {
		item := &Item{
			ID:    spec.ID,
			Owner: to,
			Value: spec.Value,
			Name:  spec.Name,
		}
		if err := r.store.Put(code, item, ""); err != nil {
			return err
		}
	}
	return nil
}

// BurnBatch erases the listed items, all owned by owner, and burns the
// matching fungible quantity.
func (r *Registry) BurnBatch(owner types.AccountName, quantity types.Asset, ids []uint64) error {
	if quantity.Symbol.Precision != 0 {
		return ErrNotWholeClass
	}
	if quantity.Amount != int64(len(ids)) {
		return ErrBatchMismatch
	}
	code := quantity.Symbol.Code
	for _, id := range ids {
		item, err := r.store.Get(code, id)
		if err != nil {
			return err
		}
		if item.Owner != owner {
			return ErrNotItemOwner
		}
		if err := r.store.Delete(code, item); err != nil {
			return err
		}
	}
	return r.ledger.Burn(owner, quantity)
}

// DelegatedBurn erases a single item on behalf of its delegated
// spender and burns one unit from the owner. Returns the owner so the
// caller can notify it.
func (r *Registry) DelegatedBurn(burner types.AccountName, code string, id uint64) (types.AccountName, error) {
	item, err := r.store.Get(code, id)
	if err != nil {
		return "", err
	}
	if item.Spender != burner {
		return "", ErrNotItemSpender
	}
	if err := r.store.Delete(code, item); err != nil {
		return "", err
	}
	unit := types.NewAsset(1, types.NewSymbol(code, 0))
	if err := r.ledger.Burn(item.Owner, unit); err != nil {
		return "", err
	}
	return item.Owner, nil
}

// Send transfers one item from its owner. Refused while the item is
// delegated to the escrow principal, i.e. under active auction.
func (r *Registry) Send(from, to types.AccountName, code string, id uint64, payer types.AccountName) error {
	item, err := r.store.Get(code, id)
	if err != nil {
		return err
	}
	if item.Owner != from {
		return ErrNotItemOwner
	}
	if item.Spender == r.escrow {
		return ErrItemLocked
	}
	return r.handOver(item, code, to, payer)
}

// SendFrom transfers one item on behalf of its delegated spender.
// Returns the previous owner so the caller can notify it.
func (r *Registry) SendFrom(spender, to types.AccountName, code string, id uint64, payer types.AccountName) (types.AccountName, error) {
	item, err := r.store.Get(code, id)
	if err != nil {
		return "", err
	}
	if item.Spender != spender {
		return "", ErrNotItemSpender
	}
	owner := item.Owner
	if err := r.handOver(item, code, to, payer); err != nil {
		return "", err
	}
	return owner, nil
}

// handOver moves the item to the recipient, resets its delegate to the
// recipient, and performs the paired one-unit fungible transfer.
func (r *Registry) handOver(item *Item, code string, to, payer types.AccountName) error {
	prevOwner := item.Owner
	item.Owner = to
	item.Spender = to
	if err := r.store.Put(code, item, prevOwner); err != nil {
		return err
	}
	unit := types.NewAsset(1, types.NewSymbol(code, 0))
	return r.ledger.Transfer(prevOwner, to, unit, payer)
}

// ApproveDelegate sets the item's delegated spender. While the current
// delegate is the escrow principal the item is mid-auction, and only
// the contract itself (acting as that principal) may change it.
func (r *Registry) ApproveDelegate(actor, spender types.AccountName, code string, id uint64) error {
	item, err := r.store.Get(code, id)
	if err != nil {
		return err
	}
	if item.Owner != actor {
		return ErrNotItemOwner
	}
	if item.Spender == r.escrow && actor != r.escrow {
		return ErrItemLocked
	}
	item.Spender = spender
	return r.store.Put(code, item, item.Owner)
}

// SetDelegate overrides the item's delegated spender without any
// authority check. Only the auction engine uses it, to lock an item
// at auction open and release it on a no-sale claim.
func (r *Registry) SetDelegate(code string, id uint64, spender types.AccountName) error {
	item, err := r.store.Get(code, id)
	if err != nil {
		return err
	}
	item.Spender = spender
	return r.store.Put(code, item, item.Owner)
}
