package auction

import (
	"encoding/json"
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Record is one live auction. The record exists from open until claim;
// its absence means the item is not under auction.
type Record struct {
	TokenID    uint64            `json:"token_id"`
	HighBidder types.AccountName `json:"high_bidder"`
	HighBid    types.Asset       `json:"high_bid"`
	Deadline   int64             `json:"deadline"` // unix seconds
}

// Store persists auction records keyed by class code and token id.
type Store struct {
	db storage.DB
}

func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

func auctionKey(code string, id uint64) []byte {
	return []byte(fmt.Sprintf("u/%s/%016x", code, id))
}

func (s *Store) Get(code string, id uint64) (*Record, error) {
	data, err := s.db.Get(auctionKey(code, id))
	if err != nil {
		return nil, ErrAuctionNotFound
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("auction unmarshal: %w", err)
	}
	return &rec, nil
}

func (s *Store) Has(code string, id uint64) (bool, error) {
	return s.db.Has(auctionKey(code, id))
}

func (s *Store) Put(code string, rec *Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("auction marshal: %w", err)
	}
	return s.db.Put(auctionKey(code, rec.TokenID), data)
}

func (s *Store) Delete(code string, id uint64) error {
	return s.db.Delete(auctionKey(code, id))
}
