// Package contract is the state-transition core. Every externally
// visible operation enters as a Command; the Engine validates it
// against current state, mutates a staged overlay, and commits the
// whole operation or none of it.
package contract

import (
	"github.com/DE-labtory/erc20peggy/internal/nft"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Command is one authorized operation. Auth names the single account
// whose signature the command requires; any further authority rules
// (issuer checks, spender checks) are enforced against state during
// apply.
type Command interface {
	Kind() string
	Auth() types.AccountName
}

// SignerSet is the set of accounts whose signatures accompanied a
// command. Beyond the required authority it also decides storage
// payers: a recipient that co-signed pays for its own rows.
type SignerSet map[types.AccountName]bool

// NewSignerSet builds a set from the listed accounts.
func NewSignerSet(names ...types.AccountName) SignerSet {
	s := make(SignerSet, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

func (s SignerSet) Has(name types.AccountName) bool { return s[name] }

// AccountOracle answers whether an account exists on the ledger.
// Recipient accounts must exist before value can move to them.
type AccountOracle interface {
	Exists(name types.AccountName) (bool, error)
}

// Clock supplies the time auctions are judged against, in unix
// seconds. Apply reads it once per command.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

// ---------------------------------------------------------------------------
// Fungible commands
// ---------------------------------------------------------------------------

// CreateToken registers a new fungible symbol with a designated
// minting authority. Only the contract account may create symbols.
type CreateToken struct {
	Issuer types.AccountName `json:"issuer"`
	Symbol types.Symbol      `json:"symbol"`

	contract types.AccountName
}

func (c *CreateToken) Kind() string            { return "create" }
func (c *CreateToken) Auth() types.AccountName { return c.contract }

// Issue mints new units of a symbol to one recipient. The issuer must
// match the minting authority registered at create time.
type Issue struct {
	Issuer   types.AccountName `json:"issuer"`
	To       types.AccountName `json:"to"`
	Quantity types.Asset       `json:"quantity"`
	Memo     string            `json:"memo"`
}

func (c *Issue) Kind() string            { return "issue" }
func (c *Issue) Auth() types.AccountName { return c.Issuer }

// Burn destroys units held by the owner and shrinks the supply.
type Burn struct {
	Owner    types.AccountName `json:"owner"`
	Quantity types.Asset       `json:"quantity"`
	Memo     string            `json:"memo"`
}

func (c *Burn) Kind() string            { return "burn" }
func (c *Burn) Auth() types.AccountName { return c.Owner }

// BurnFrom destroys units held by Owner under an allowance granted to
// Spender. The allowance shrinks by the burned amount.
type BurnFrom struct {
	Spender  types.AccountName `json:"spender"`
	Owner    types.AccountName `json:"owner"`
	Quantity types.Asset       `json:"quantity"`
	Memo     string            `json:"memo"`
}

func (c *BurnFrom) Kind() string            { return "burnfrom" }
func (c *BurnFrom) Auth() types.AccountName { return c.Spender }

// Transfer moves units between two distinct accounts.
type Transfer struct {
	From     types.AccountName `json:"from"`
	To       types.AccountName `json:"to"`
	Quantity types.Asset       `json:"quantity"`
	Memo     string            `json:"memo"`
}

func (c *Transfer) Kind() string            { return "transfer" }
func (c *Transfer) Auth() types.AccountName { return c.From }

// TransferFrom moves units out of Owner's balance under an allowance
// granted to Spender.
type TransferFrom struct {
	Spender  types.AccountName `json:"spender"`
	Owner    types.AccountName `json:"owner"`
	To       types.AccountName `json:"to"`
	Quantity types.Asset       `json:"quantity"`
	Memo     string            `json:"memo"`
}

func (c *TransferFrom) Kind() string            { return "transferfrom" }
func (c *TransferFrom) Auth() types.AccountName { return c.Spender }

// Approve sets a spending allowance for Spender over Owner's balance.
type Approve struct {
	Owner    types.AccountName `json:"owner"`
	Spender  types.AccountName `json:"spender"`
	Quantity types.Asset       `json:"quantity"`
}

func (c *Approve) Kind() string            { return "approve" }
func (c *Approve) Auth() types.AccountName { return c.Owner }

// IncreaseAllowance raises an existing allowance.
type IncreaseAllowance struct {
	Owner    types.AccountName `json:"owner"`
	Spender  types.AccountName `json:"spender"`
	Quantity types.Asset       `json:"quantity"`
}

func (c *IncreaseAllowance) Kind() string            { return "incallowance" }
func (c *IncreaseAllowance) Auth() types.AccountName { return c.Owner }

// DecreaseAllowance lowers an existing allowance.
type DecreaseAllowance struct {
	Owner    types.AccountName `json:"owner"`
	Spender  types.AccountName `json:"spender"`
	Quantity types.Asset       `json:"quantity"`
}

func (c *DecreaseAllowance) Kind() string            { return "decallowance" }
func (c *DecreaseAllowance) Auth() types.AccountName { return c.Owner }

// OpenBalance creates a zero balance row for Owner, paid by Payer.
type OpenBalance struct {
	Owner  types.AccountName `json:"owner"`
	Symbol types.Symbol      `json:"symbol"`
	Payer  types.AccountName `json:"payer"`
}

func (c *OpenBalance) Kind() string            { return "open" }
func (c *OpenBalance) Auth() types.AccountName { return c.Payer }

// CloseBalance removes Owner's zero balance row.
type CloseBalance struct {
	Owner  types.AccountName `json:"owner"`
	Symbol types.Symbol      `json:"symbol"`
}

func (c *CloseBalance) Kind() string            { return "close" }
func (c *CloseBalance) Auth() types.AccountName { return c.Owner }

// ---------------------------------------------------------------------------
// Item commands
// ---------------------------------------------------------------------------

// CreateClass registers a zero-precision item class with a designated
// issuer. Only the contract account may create classes.
type CreateClass struct {
	Issuer types.AccountName `json:"issuer"`
	Code   string            `json:"code"`

	contract types.AccountName
}

func (c *CreateClass) Kind() string            { return "createclass" }
func (c *CreateClass) Auth() types.AccountName { return c.contract }

// IssueItems mints a batch of items of one class to one recipient.
// The fungible quantity must equal the batch size.
type IssueItems struct {
	Issuer   types.AccountName `json:"issuer"`
	To       types.AccountName `json:"to"`
	Quantity types.Asset       `json:"quantity"`
	Items    []nft.ItemSpec    `json:"items"`
	Memo     string            `json:"memo"`
}

func (c *IssueItems) Kind() string            { return "issueitems" }
func (c *IssueItems) Auth() types.AccountName { return c.Issuer }

// BurnItems destroys a batch of items all owned by Owner.
type BurnItems struct {
	Owner    types.AccountName `json:"owner"`
	Quantity types.Asset       `json:"quantity"`
	IDs      []uint64          `json:"ids"`
	Memo     string            `json:"memo"`
}

func (c *BurnItems) Kind() string            { return "burnitems" }
func (c *BurnItems) Auth() types.AccountName { return c.Owner }

// BurnItemFrom destroys one item on behalf of its delegated spender.
type BurnItemFrom struct {
	Burner types.AccountName `json:"burner"`
	Code   string            `json:"code"`
	ID     uint64            `json:"id"`
	Memo   string            `json:"memo"`
}

func (c *BurnItemFrom) Kind() string            { return "burnitemfrom" }
func (c *BurnItemFrom) Auth() types.AccountName { return c.Burner }

// Send transfers one item to a new owner.
type Send struct {
	From types.AccountName `json:"from"`
	To   types.AccountName `json:"to"`
	Code string            `json:"code"`
	ID   uint64            `json:"id"`
	Memo string            `json:"memo"`
}

func (c *Send) Kind() string            { return "send" }
func (c *Send) Auth() types.AccountName { return c.From }

// SendFrom transfers one item on behalf of its delegated spender.
type SendFrom struct {
	Spender types.AccountName `json:"spender"`
	To      types.AccountName `json:"to"`
	Code    string            `json:"code"`
	ID      uint64            `json:"id"`
	Memo    string            `json:"memo"`
}

func (c *SendFrom) Kind() string            { return "sendfrom" }
func (c *SendFrom) Auth() types.AccountName { return c.Spender }

// ApproveItem delegates one item to a spender.
type ApproveItem struct {
	Owner   types.AccountName `json:"owner"`
	Spender types.AccountName `json:"spender"`
	Code    string            `json:"code"`
	ID      uint64            `json:"id"`
}

func (c *ApproveItem) Kind() string            { return "approveitem" }
func (c *ApproveItem) Auth() types.AccountName { return c.Owner }

// ---------------------------------------------------------------------------
// Auction commands
// ---------------------------------------------------------------------------

// OpenAuction puts one item up for auction with a minimum price in the
// settlement currency.
type OpenAuction struct {
	Seller      types.AccountName `json:"seller"`
	Code        string            `json:"code"`
	ID          uint64            `json:"id"`
	MinPrice    types.Asset       `json:"min_price"`
	DurationSec int64             `json:"duration_sec"`
}

func (c *OpenAuction) Kind() string            { return "openauction" }
func (c *OpenAuction) Auth() types.AccountName { return c.Seller }

// PlaceBid places a bid on a live auction.
type PlaceBid struct {
	Bidder types.AccountName `json:"bidder"`
	Code   string            `json:"code"`
	ID     uint64            `json:"id"`
	Bid    types.Asset       `json:"bid"`
}

func (c *PlaceBid) Kind() string            { return "placebid" }
func (c *PlaceBid) Auth() types.AccountName { return c.Bidder }

// Claim closes an auction past its deadline and settles or returns
// the item.
type Claim struct {
	Requester types.AccountName `json:"requester"`
	Code      string            `json:"code"`
	ID        uint64            `json:"id"`
}

func (c *Claim) Kind() string            { return "claim" }
func (c *Claim) Auth() types.AccountName { return c.Requester }
