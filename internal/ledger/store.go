package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Key layout:
//
//	s/<CODE>            -> SupplyRecord JSON
//	b/<owner>/<CODE>    -> BalanceRecord JSON
var (
	prefixSupply  = []byte("s/")
	prefixBalance = []byte("b/")
)

// SupplyRecord tracks the total supply and minting authority of one
// symbol. One record per symbol code; the stored symbol pins the
// precision for all later operations.
type SupplyRecord struct {
	Supply types.Asset       `json:"supply"`
	Issuer types.AccountName `json:"issuer"`
}

// BalanceRecord is one owner's balance under one symbol. Payer is the
// principal charged for the record's storage; it is resource
// accounting only and never affects ledger arithmetic.
type BalanceRecord struct {
	Balance types.Asset       `json:"balance"`
	Payer   types.AccountName `json:"payer"`
}

// SupplyStore persists supply records.
type SupplyStore struct {
	db storage.DB
}

// NewSupplyStore creates a supply store over db.
func NewSupplyStore(db storage.DB) *SupplyStore {
	return &SupplyStore{db: db}
}

func supplyKey(code string) []byte {
	return append(append([]byte{}, prefixSupply...), code...)
}

// Get retrieves the supply record for a symbol code.
func (s *SupplyStore) Get(code string) (*SupplyRecord, error) {
	data, err := s.db.Get(supplyKey(code))
	if err != nil {
		return nil, ErrSupplyNotFound
	}
	var rec SupplyRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("supply unmarshal: %w", err)
	}
	return &rec, nil
}

// Has checks whether a supply record exists for a symbol code.
func (s *SupplyStore) Has(code string) (bool, error) {
	return s.db.Has(supplyKey(code))
}

// Put stores the supply record for a symbol code.
func (s *SupplyStore) Put(rec *SupplyRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("supply marshal: %w", err)
	}
	return s.db.Put(supplyKey(rec.Supply.Symbol.Code), data)
}

// ForEach iterates over all supply records.
func (s *SupplyStore) ForEach(fn func(*SupplyRecord) error) error {
	return s.db.ForEach(prefixSupply, func(_, value []byte) error {
		var rec SupplyRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(&rec)
	})
}

// BalanceStore persists balance records.
type BalanceStore struct {
	db storage.DB
}

// NewBalanceStore creates a balance store over db.
func NewBalanceStore(db storage.DB) *BalanceStore {
	return &BalanceStore{db: db}
}

func balanceKey(owner types.AccountName, code string) []byte {
	key := append(append([]byte{}, prefixBalance...), owner...)
	key = append(key, '/')
	return append(key, code...)
}

// Get retrieves a balance record.
func (s *BalanceStore) Get(owner types.AccountName, code string) (*BalanceRecord, error) {
	data, err := s.db.Get(balanceKey(owner, code))
	if err != nil {
		return nil, ErrNoBalance
	}
	var rec BalanceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("balance unmarshal: %w", err)
	}
	return &rec, nil
}

// Has checks whether an owner has a balance record for a symbol code.
func (s *BalanceStore) Has(owner types.AccountName, code string) (bool, error) {
	return s.db.Has(balanceKey(owner, code))
}

// Put stores a balance record for an owner.
func (s *BalanceStore) Put(owner types.AccountName, rec *BalanceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("balance marshal: %w", err)
	}
	return s.db.Put(balanceKey(owner, rec.Balance.Symbol.Code), data)
}

// Delete removes an owner's balance record.
func (s *BalanceStore) Delete(owner types.AccountName, code string) error {
	return s.db.Delete(balanceKey(owner, code))
}

// ForEach iterates over every balance record, any owner, any symbol.
func (s *BalanceStore) ForEach(fn func(owner types.AccountName, rec *BalanceRecord) error) error {
	return s.db.ForEach(prefixBalance, func(key, value []byte) error {
		// Key layout: "b/" + owner + "/" + code.
		rest := key[len(prefixBalance):]
		sep := -1
		for i, c := range rest {
			if c == '/' {
				sep = i
				break
			}
		}
		if sep < 0 {
			return nil // Malformed key, skip.
		}
		var rec BalanceRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(types.AccountName(rest[:sep]), &rec)
	})
}
