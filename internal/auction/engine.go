// Package auction runs sealed high-bid auctions over single items.
// While an auction is live the item is delegated to the escrow account,
// which also holds the standing high bid in the settlement currency.
package auction

import (
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/ledger"
	"github.com/DE-labtory/erc20peggy/internal/nft"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

var (
	ErrAuctionNotFound = fmt.Errorf("item is not under auction: %w", types.ErrNotFound)
	ErrAuctionExists   = fmt.Errorf("item is already under auction: %w", types.ErrConflict)
	ErrBadDuration     = fmt.Errorf("auction duration must be positive: %w", types.ErrInvalidArgument)
	ErrNotSettlement   = fmt.Errorf("amount is not in the settlement currency: %w", types.ErrInvalidArgument)
	ErrSellerBid       = fmt.Errorf("the seller cannot bid: %w", types.ErrInvalidArgument)
	ErrBidTooLow       = fmt.Errorf("bid must exceed the standing high bid: %w", types.ErrPreconditionFailed)
	ErrAuctionClosed   = fmt.Errorf("the auction deadline has passed: %w", types.ErrPreconditionFailed)
	ErrAuctionLive     = fmt.Errorf("the auction deadline has not passed: %w", types.ErrPreconditionFailed)
	ErrNotParty        = fmt.Errorf("only the seller or the high bidder may claim: %w", types.ErrUnauthorized)
)

// Refund reports funds held in escrow that must be returned to an
// outbid bidder. The caller is responsible for moving the money.
type Refund struct {
	To     types.AccountName
	Amount types.Asset
}

// Outcome reports how a claimed auction ended. When Settled is true
// the caller must pay Price from escrow to Seller and hand TokenID
// over to Winner; the engine has already erased the auction record.
// When false no bid arrived and the item has been released back to
// Seller in place.
type Outcome struct {
	Settled bool
	Code    string
	TokenID uint64
	Seller  types.AccountName
	Winner  types.AccountName
	Price   types.Asset
}

// Engine mediates auction state transitions. It moves bid money
// between bidders and the escrow account but defers the settlement
// transfers, which the contract layer runs under its own authority.
type Engine struct {
	store      *Store
	ledger     *ledger.Core
	items      *nft.Registry
	escrow     types.AccountName
	settlement types.Symbol
}

func New(db storage.DB, core *ledger.Core, items *nft.Registry, escrow types.AccountName, settlement types.Symbol) *Engine {
	return &Engine{
		store:      NewStore(db),
		ledger:     core,
		items:      items,
		escrow:     escrow,
		settlement: settlement,
	}
}

// Auction returns the live record for an item.
func (e *Engine) Auction(code string, id uint64) (*Record, error) {
	return e.store.Get(code, id)
}

// Open starts an auction on one item. Only the item's owner may open;
// the item must not already be under auction. The minimum price seeds
// the standing high bid with the seller as a placeholder bidder, so
// the first real bid must exceed it. The item is delegated to escrow,
// which blocks transfers and re-delegation for the duration.
func (e *Engine) Open(seller types.AccountName, code string, id uint64, minPrice types.Asset, durationSec, now int64) error {
	item, err := e.items.Item(code, id)
	if err != nil {
		return err
	}
	if item.Owner != seller {
		return nft.ErrNotItemOwner
	}
	exists, err := e.store.Has(code, id)
	if err != nil {
		return err
	}
	if exists {
		return ErrAuctionExists
	}
	if durationSec <= 0 {
		return ErrBadDuration
	}
	if minPrice.Symbol != e.settlement {
		return ErrNotSettlement
	}
	if !minPrice.Positive() {
		return fmt.Errorf("minimum price must be positive: %w", types.ErrInvalidArgument)
	}
	if err := e.items.SetDelegate(code, id, e.escrow); err != nil {
		return err
	}
	return e.store.Put(code, &Record{
		TokenID:    id,
		HighBidder: seller,
		HighBid:    minPrice,
		Deadline:   now + durationSec,
	})
}

// Bid places a new high bid. The bid must be in the settlement
// currency and strictly exceed the standing high bid. The bidder's
// funds move into escrow immediately; if a previous real bidder is
// displaced its refund is returned to the caller to pay out.
func (e *Engine) Bid(bidder types.AccountName, code string, id uint64, bid types.Asset, now int64) (*Refund, error) {
	rec, err := e.store.Get(code, id)
	if err != nil {
		return nil, err
	}
	if now >= rec.Deadline {
		return nil, ErrAuctionClosed
	}
	item, err := e.items.Item(code, id)
	if err != nil {
		return nil, err
	}
	if bidder == item.Owner {
		return nil, ErrSellerBid
	}
	if bid.Symbol != e.settlement {
		return nil, ErrNotSettlement
	}
	if bid.Amount <= rec.HighBid.Amount {
		return nil, ErrBidTooLow
	}
	if err := e.ledger.Transfer(bidder, e.escrow, bid, bidder); err != nil {
		return nil, err
	}

	var refund *Refund
	if rec.HighBidder != item.Owner {
		refund = &Refund{To: rec.HighBidder, Amount: rec.HighBid}
	}
	rec.HighBidder = bidder
	rec.HighBid = bid
	if err := e.store.Put(code, rec); err != nil {
		return nil, err
	}
	return refund, nil
}

// Claim closes an auction after its deadline. Either party may claim:
// the seller or the standing high bidder. With no real bid the item is
// released back to the seller; otherwise the settlement is reported in
// the outcome for the contract layer to execute. The record is erased
// either way, so a second claim fails with ErrAuctionNotFound.
func (e *Engine) Claim(requester types.AccountName, code string, id uint64, now int64) (*Outcome, error) {
	rec, err := e.store.Get(code, id)
	if err != nil {
		return nil, err
	}
	if now < rec.Deadline {
		return nil, ErrAuctionLive
	}
	item, err := e.items.Item(code, id)
	if err != nil {
		return nil, err
	}
	seller := item.Owner
	if requester != seller && requester != rec.HighBidder {
		return nil, ErrNotParty
	}
	if err := e.store.Delete(code, id); err != nil {
		return nil, err
	}

	out := &Outcome{
		Code:    code,
		TokenID: id,
		Seller:  seller,
	}
	if rec.HighBidder == seller {
		// No bid arrived. Release the item in place.
		if err := e.items.SetDelegate(code, id, seller); err != nil {
			return nil, err
		}
		return out, nil
	}
	out.Settled = true
	out.Winner = rec.HighBidder
	out.Price = rec.HighBid
	return out, nil
}
