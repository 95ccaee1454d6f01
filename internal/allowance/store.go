package allowance

import (
	"encoding/json"
	"fmt"

	"github.com/DE-labtory/erc20peggy/config"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Key layout, by policy:
//
//	single: a/<owner>/<CODE>     -> Record JSON (one spender per symbol)
//	multi:  a/<owner>/<spender>  -> Record JSON (one symbol per spender)
var prefixAllowance = []byte("a/")

// Record is one delegated-spend grant. Remaining carries the symbol;
// Spender is the delegate allowed to move the owner's funds.
type Record struct {
	Remaining types.Asset       `json:"remaining"`
	Spender   types.AccountName `json:"spender"`
}

// Store persists allowance records under the configured key policy.
type Store struct {
	db     storage.DB
	policy config.AllowancePolicy
}

// NewStore creates an allowance store over db.
func NewStore(db storage.DB, policy config.AllowancePolicy) *Store {
	return &Store{db: db, policy: policy}
}

func (s *Store) key(owner, spender types.AccountName, code string) []byte {
	key := append(append([]byte{}, prefixAllowance...), owner...)
	key = append(key, '/')
	if s.policy == config.AllowanceMulti {
		return append(key, spender...)
	}
	return append(key, code...)
}

func ownerPrefix(owner types.AccountName) []byte {
	key := append(append([]byte{}, prefixAllowance...), owner...)
	return append(key, '/')
}

// Get retrieves the record the policy keys for (owner, spender, code).
func (s *Store) Get(owner, spender types.AccountName, code string) (*Record, error) {
	data, err := s.db.Get(s.key(owner, spender, code))
	if err != nil {
		return nil, ErrAllowanceNotFound
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("allowance unmarshal: %w", err)
	}
	return &rec, nil
}

// Has checks whether a record exists under the policy key.
func (s *Store) Has(owner, spender types.AccountName, code string) (bool, error) {
	return s.db.Has(s.key(owner, spender, code))
}

// Put stores a record under the policy key.
func (s *Store) Put(owner types.AccountName, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("allowance marshal: %w", err)
	}
	return s.db.Put(s.key(owner, rec.Spender, rec.Remaining.Symbol.Code), data)
}

// Delete removes the record under the policy key.
func (s *Store) Delete(owner, spender types.AccountName, code string) error {
	return s.db.Delete(s.key(owner, spender, code))
}

// ForEachOwner iterates over every allowance record of one owner.
func (s *Store) ForEachOwner(owner types.AccountName, fn func(*Record) error) error {
	return s.db.ForEach(ownerPrefix(owner), func(_, value []byte) error {
		var rec Record
		if err := json.Unmarshal(value, &rec); err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(&rec)
	})
}
