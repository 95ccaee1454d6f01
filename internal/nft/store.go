package nft

import (
	"encoding/json"
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Key layout:
//
//	n/<CODE>/<id:%016x>           -> Item JSON
//	o/<owner>/<CODE>/<id:%016x>   -> "" (owner index)
var (
	prefixItem  = []byte("n/")
	prefixOwner = []byte("o/")
)

// Item is one non-fungible token: a unique id inside its class symbol's
// namespace, its owner, an optional delegated spender, and the value
// and display name attached at issuance. The owner's fungible balance
// under the class symbol always equals the count of items it owns.
type Item struct {
	ID      uint64            `json:"id"`
	Owner   types.AccountName `json:"owner"`
	Spender types.AccountName `json:"spender,omitempty"`
	Value   types.Asset       `json:"value"`
	Name    string            `json:"name"`
}

// Store persists NFT items with a secondary index by owner.
type Store struct {
	db storage.DB
}

// NewStore creates an item store over db.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func itemKey(code string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%016x", prefixItem, code, id))
}

func ownerKey(owner types.AccountName, code string, id uint64) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%016x", prefixOwner, owner, code, id))
}

// Get retrieves an item by class code and id.
func (s *Store) Get(code string, id uint64) (*Item, error) {
	data, err := s.db.Get(itemKey(code, id))
	if err != nil {
		return nil, ErrTokenNotFound
	}
	var item Item
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("item unmarshal: %w", err)
	}
	return &item, nil
}

// Has checks whether an item exists.
func (s *Store) Has(code string, id uint64) (bool, error) {
	return s.db.Has(itemKey(code, id))
}

// Put stores an item and maintains the owner index. The previous owner
// must be passed so its index entry can be dropped on transfer; pass
// the zero name for a fresh item.
func (s *Store) Put(code string, item *Item, prevOwner types.AccountName) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("item marshal: %w", err)
	}
	if err := s.db.Put(itemKey(code, item.ID), data); err != nil {
		return err
	}
	if !prevOwner.IsZero() && prevOwner != item.Owner {
		if err := s.db.Delete(ownerKey(prevOwner, code, item.ID)); err != nil {
			return err
		}
	}
	return s.db.Put(ownerKey(item.Owner, code, item.ID), nil)
}

// Delete erases an item and its owner index entry.
func (s *Store) Delete(code string, item *Item) error {
	if err := s.db.Delete(itemKey(code, item.ID)); err != nil {
		return err
	}
	return s.db.Delete(ownerKey(item.Owner, code, item.ID))
}

// ForEach iterates over every item of a class.
func (s *Store) ForEach(code string, fn func(*Item) error) error {
	prefix := []byte(fmt.Sprintf("%s%s/", prefixItem, code))
	return s.db.ForEach(prefix, func(_, value []byte) error {
		var item Item
		if err := json.Unmarshal(value, &item); err != nil {
			return nil // Skip corrupt entries.
		}
		return fn(&item)
	})
}

// CountByOwner returns the number of items of a class held by owner,
// via the owner index.
func (s *Store) CountByOwner(owner types.AccountName, code string) (int64, error) {
	prefix := []byte(fmt.Sprintf("%s%s/%s/", prefixOwner, owner, code))
	var count int64
	err := s.db.ForEach(prefix, func(_, _ []byte) error {
		count++
		return nil
	})
	return count, err
}
