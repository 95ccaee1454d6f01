package contract

import (
	"github.com/google/uuid"

	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Effect is a consequence of a committed command that runs after the
// commit: a notification to an interested account, a bid-result
// report, or a follow-up command the contract issues on its own
// authority.
type Effect interface {
	effect()
}

// Notify tells an account a committed command touched it. The
// counterpart of on-chain recipient notification: recipients learn of
// incoming transfers, owners learn of delegated spends.
type Notify struct {
	Account types.AccountName
	Event   string
	Detail  string
}

func (Notify) effect() {}

// BidResult reports a bidder's standing in an auction. Every accepted
// bid sends one to the new bidder with Standing set; a displaced
// bidder gets one with Standing clear, and the winner one with Won
// set at claim time.
type BidResult struct {
	Account  types.AccountName
	Code     string
	TokenID  uint64
	Standing bool
	Won      bool
	Amount   types.Asset
}

func (BidResult) effect() {}

// Chained is a follow-up command the contract runs under its own
// authority after the triggering command commits. Each chained
// command is applied independently: it validates and commits on its
// own.
type Chained struct {
	Cmd Command
}

func (Chained) effect() {}

// Receipt records one committed command.
type Receipt struct {
	ID      uuid.UUID
	Kind    string
	Effects []Effect
}

func newReceipt(kind string) *Receipt {
	return &Receipt{ID: uuid.New(), Kind: kind}
}

func (r *Receipt) add(e Effect) {
	r.Effects = append(r.Effects, e)
}
