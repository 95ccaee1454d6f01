package contract

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/DE-labtory/erc20peggy/config"
	"github.com/DE-labtory/erc20peggy/internal/allowance"
	"github.com/DE-labtory/erc20peggy/internal/auction"
	"github.com/DE-labtory/erc20peggy/internal/ledger"
	"github.com/DE-labtory/erc20peggy/internal/log"
	"github.com/DE-labtory/erc20peggy/internal/nft"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

var (
	ErrMissingAuth    = fmt.Errorf("command not signed by its required authority: %w", types.ErrUnauthorized)
	ErrMemoTooLong    = fmt.Errorf("memo exceeds the maximum length: %w", types.ErrInvalidArgument)
	ErrBadName        = fmt.Errorf("malformed account name: %w", types.ErrInvalidArgument)
	ErrBadQuantity    = fmt.Errorf("quantity must be a valid positive amount: %w", types.ErrInvalidArgument)
	ErrSelfTransfer   = fmt.Errorf("cannot transfer to self: %w", types.ErrInvalidArgument)
	ErrSelfApprove    = fmt.Errorf("cannot approve self as spender: %w", types.ErrInvalidArgument)
	ErrNoAccount      = fmt.Errorf("account does not exist: %w", types.ErrNotFound)
	ErrUnknownCommand = fmt.Errorf("unknown command: %w", types.ErrInvalidArgument)
)

// Engine applies commands serially against the contract state. Each
// Apply validates the command against current state, runs it on a
// staged overlay, and commits the overlay whole; a failed command
// leaves no trace.
type Engine struct {
	db       storage.DB
	opts     config.Options
	accounts AccountOracle
	clock    Clock
	logger   zerolog.Logger
}

// NewEngine builds an engine over the backing store. The oracle may
// be nil, which disables recipient-existence checks.
func NewEngine(db storage.DB, opts config.Options, accounts AccountOracle, clock Clock) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if clock == nil {
		return nil, fmt.Errorf("nil clock: %w", types.ErrInvalidArgument)
	}
	// Each deployment keeps its tables under its own namespace, so
	// several contract instances can share one database.
	namespaced := storage.NewPrefixDB(db, []byte("c/"+string(opts.Contract)+"/"))
	return &Engine{
		db:       namespaced,
		opts:     opts,
		accounts: accounts,
		clock:    clock,
		logger:   log.Contract,
	}, nil
}

// components are the state machines for one apply, all sharing the
// same staged overlay so a failure discards every partial write.
type components struct {
	core  *ledger.Core
	items *nft.Registry
	allow *allowance.Manager
	auc   *auction.Engine
}

func (e *Engine) newComponents(db storage.DB) *components {
	core := ledger.New(db)
	items := nft.New(db, core, e.opts.Contract)
	return &components{
		core:  core,
		items: items,
		allow: allowance.New(db, core, e.opts),
		auc:   auction.New(db, core, items, e.opts.Contract, e.opts.Settlement),
	}
}

// Apply runs one command under the given signer set. On success the
// state change is committed and the receipt carries any effects:
// notifications to touched accounts, bid results, and chained
// commands for the runner to apply next. On error no state changes.
func (e *Engine) Apply(cmd Command, signers SignerSet) (*Receipt, error) {
	e.stampContract(cmd)

	auth := cmd.Auth()
	if !auth.Valid() {
		return nil, ErrBadName
	}
	if !signers.Has(auth) {
		return nil, ErrMissingAuth
	}

	staged := storage.NewStaged(e.db)
	defer staged.Discard()

	receipt := newReceipt(cmd.Kind())
	if err := e.dispatch(e.newComponents(staged), cmd, signers, receipt); err != nil {
		e.logger.Debug().
			Str("kind", cmd.Kind()).
			Str("auth", string(auth)).
			Err(err).
			Msg("command rejected")
		return nil, err
	}
	if err := staged.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", cmd.Kind(), err)
	}

	e.logger.Info().
		Str("kind", cmd.Kind()).
		Str("auth", string(auth)).
		Str("receipt", receipt.ID.String()).
		Int("effects", len(receipt.Effects)).
		Msg("command applied")
	return receipt, nil
}

// Balance reads owner's committed balance of the symbol code.
func (e *Engine) Balance(owner types.AccountName, code string) (types.Asset, error) {
	rec, err := ledger.New(e.db).Balance(owner, code)
	if err != nil {
		return types.Asset{}, err
	}
	return rec.Balance, nil
}

// Supply reads the committed circulating supply of the symbol code.
func (e *Engine) Supply(code string) (types.Asset, error) {
	rec, err := ledger.New(e.db).Supply(code)
	if err != nil {
		return types.Asset{}, err
	}
	return rec.Supply, nil
}

// Item reads one committed item record.
func (e *Engine) Item(code string, id uint64) (*nft.Item, error) {
	return e.newComponents(e.db).items.Item(code, id)
}

// stampContract fills in the contract account on the commands whose
// authority is the contract itself.
func (e *Engine) stampContract(cmd Command) {
	switch c := cmd.(type) {
	case *CreateToken:
		c.contract = e.opts.Contract
	case *CreateClass:
		c.contract = e.opts.Contract
	}
}

func (e *Engine) dispatch(s *components, cmd Command, signers SignerSet, receipt *Receipt) error {
	switch c := cmd.(type) {
	case *CreateToken:
		return e.applyCreateToken(s, c)
	case *Issue:
		return e.applyIssue(s, c, signers, receipt)
	case *Burn:
		return e.applyBurn(s, c)
	case *BurnFrom:
		return e.applyBurnFrom(s, c, receipt)
	case *Transfer:
		return e.applyTransfer(s, c, signers, receipt)
	case *TransferFrom:
		return e.applyTransferFrom(s, c, signers, receipt)
	case *Approve:
		return e.applyApprove(s, c)
	case *IncreaseAllowance:
		return e.applyIncrease(s, c)
	case *DecreaseAllowance:
		return e.applyDecrease(s, c)
	case *OpenBalance:
		return e.applyOpenBalance(s, c)
	case *CloseBalance:
		return s.core.CloseBalance(c.Owner, c.Symbol)
	case *CreateClass:
		return e.applyCreateClass(s, c)
	case *IssueItems:
		return e.applyIssueItems(s, c, signers, receipt)
	case *BurnItems:
		return e.applyBurnItems(s, c)
	case *BurnItemFrom:
		return e.applyBurnItemFrom(s, c, receipt)
	case *Send:
		return e.applySend(s, c, signers, receipt)
	case *SendFrom:
		return e.applySendFrom(s, c, signers, receipt)
	case *ApproveItem:
		return e.applyApproveItem(s, c)
	case *OpenAuction:
		return s.auc.Open(c.Seller, c.Code, c.ID, c.MinPrice, c.DurationSec, e.clock.Now())
	case *PlaceBid:
		return e.applyPlaceBid(s, c, receipt)
	case *Claim:
		return e.applyClaim(s, c, receipt)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}
}

// requireAccount checks the account exists when an oracle is wired.
func (e *Engine) requireAccount(name types.AccountName) error {
	if !name.Valid() {
		return ErrBadName
	}
	if e.accounts == nil {
		return nil
	}
	ok, err := e.accounts.Exists(name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoAccount, name)
	}
	return nil
}

func checkMemo(memo string) error {
	if len(memo) > config.MaxMemoBytes {
		return ErrMemoTooLong
	}
	return nil
}

func checkQuantity(q types.Asset) error {
	if !q.Valid() || !q.Positive() {
		return ErrBadQuantity
	}
	return nil
}

// payerFor picks who pays storage for the recipient's rows: the
// recipient itself when it co-signed the command, the actor otherwise.
func payerFor(recipient, actor types.AccountName, signers SignerSet) types.AccountName {
	if signers.Has(recipient) {
		return recipient
	}
	return actor
}

func (e *Engine) applyCreateToken(s *components, c *CreateToken) error {
	if !c.Symbol.Valid() {
		return fmt.Errorf("invalid symbol %q: %w", c.Symbol.Code, types.ErrInvalidArgument)
	}
	if err := e.requireAccount(c.Issuer); err != nil {
		return err
	}
	return s.core.CreateSupply(c.Symbol, c.Issuer)
}

func (e *Engine) applyIssue(s *components, c *Issue, signers SignerSet, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if err := e.requireAccount(c.To); err != nil {
		return err
	}
	payer := payerFor(c.To, c.Issuer, signers)
	if err := s.core.Issue(c.Issuer, c.To, c.Quantity, payer); err != nil {
		return err
	}
	if c.To != c.Issuer {
		receipt.add(Notify{Account: c.To, Event: "issue", Detail: c.Quantity.String()})
	}
	return nil
}

func (e *Engine) applyBurn(s *components, c *Burn) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if err := s.core.Burn(c.Owner, c.Quantity); err != nil {
		return err
	}
	return s.allow.ClampToBalance(c.Owner, c.Quantity.Symbol)
}

func (e *Engine) applyBurnFrom(s *components, c *BurnFrom, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if err := s.allow.Spend(c.Owner, c.Spender, c.Quantity); err != nil {
		return err
	}
	if err := s.core.Burn(c.Owner, c.Quantity); err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(c.Owner, c.Quantity.Symbol); err != nil {
		return err
	}
	receipt.add(Notify{Account: c.Owner, Event: "burnfrom", Detail: c.Quantity.String()})
	return nil
}

func (e *Engine) applyTransfer(s *components, c *Transfer, signers SignerSet, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if c.From == c.To {
		return ErrSelfTransfer
	}
	if err := e.requireAccount(c.To); err != nil {
		return err
	}
	payer := payerFor(c.To, c.From, signers)
	if err := s.core.Transfer(c.From, c.To, c.Quantity, payer); err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(c.From, c.Quantity.Symbol); err != nil {
		return err
	}
	receipt.add(Notify{Account: c.To, Event: "transfer", Detail: c.Quantity.String()})
	return nil
}

func (e *Engine) applyTransferFrom(s *components, c *TransferFrom, signers SignerSet, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if c.Owner == c.To {
		return ErrSelfTransfer
	}
	if err := e.requireAccount(c.To); err != nil {
		return err
	}
	if err := s.allow.Spend(c.Owner, c.Spender, c.Quantity); err != nil {
		return err
	}
	payer := payerFor(c.To, c.Spender, signers)
	if err := s.core.Transfer(c.Owner, c.To, c.Quantity, payer); err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(c.Owner, c.Quantity.Symbol); err != nil {
		return err
	}
	receipt.add(Notify{Account: c.Owner, Event: "transferfrom", Detail: c.Quantity.String()})
	receipt.add(Notify{Account: c.To, Event: "transfer", Detail: c.Quantity.String()})
	return nil
}

func (e *Engine) applyApprove(s *components, c *Approve) error {
	if c.Owner == c.Spender {
		return ErrSelfApprove
	}
	if err := e.requireAccount(c.Spender); err != nil {
		return err
	}
	if !c.Quantity.Valid() {
		return ErrBadQuantity
	}
	return s.allow.Approve(c.Owner, c.Spender, c.Quantity)
}

func (e *Engine) applyIncrease(s *components, c *IncreaseAllowance) error {
	if c.Owner == c.Spender {
		return ErrSelfApprove
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	return s.allow.Increase(c.Owner, c.Spender, c.Quantity)
}

func (e *Engine) applyDecrease(s *components, c *DecreaseAllowance) error {
	if c.Owner == c.Spender {
		return ErrSelfApprove
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	return s.allow.Decrease(c.Owner, c.Spender, c.Quantity)
}

func (e *Engine) applyOpenBalance(s *components, c *OpenBalance) error {
	if err := e.requireAccount(c.Owner); err != nil {
		return err
	}
	return s.core.OpenBalance(c.Owner, c.Symbol, c.Payer)
}

func (e *Engine) applyCreateClass(s *components, c *CreateClass) error {
	if err := e.requireAccount(c.Issuer); err != nil {
		return err
	}
	return s.items.CreateClass(c.Issuer, c.Code)
}

func (e *Engine) applyIssueItems(s *components, c *IssueItems, signers SignerSet, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if err := e.requireAccount(c.To); err != nil {
		return err
	}
	payer := payerFor(c.To, c.Issuer, signers)
	if err := s.items.IssueBatch(c.Issuer, c.To, c.Quantity, c.Items, payer); err != nil {
		return err
	}
	if c.To != c.Issuer {
		receipt.add(Notify{Account: c.To, Event: "issueitems", Detail: c.Quantity.String()})
	}
	return nil
}

func (e *Engine) applyBurnItems(s *components, c *BurnItems) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := checkQuantity(c.Quantity); err != nil {
		return err
	}
	if err := s.items.BurnBatch(c.Owner, c.Quantity, c.IDs); err != nil {
		return err
	}
	return s.allow.ClampToBalance(c.Owner, c.Quantity.Symbol)
}

func (e *Engine) applyBurnItemFrom(s *components, c *BurnItemFrom, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	owner, err := s.items.DelegatedBurn(c.Burner, c.Code, c.ID)
	if err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(owner, types.NewSymbol(c.Code, 0)); err != nil {
		return err
	}
	receipt.add(Notify{Account: owner, Event: "burnitemfrom", Detail: c.Code})
	return nil
}

func (e *Engine) applySend(s *components, c *Send, signers SignerSet, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if c.From == c.To {
		return ErrSelfTransfer
	}
	if err := e.requireAccount(c.To); err != nil {
		return err
	}
	payer := payerFor(c.To, c.From, signers)
	if err := s.items.Send(c.From, c.To, c.Code, c.ID, payer); err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(c.From, types.NewSymbol(c.Code, 0)); err != nil {
		return err
	}
	receipt.add(Notify{Account: c.To, Event: "send", Detail: c.Code})
	return nil
}

func (e *Engine) applySendFrom(s *components, c *SendFrom, signers SignerSet, receipt *Receipt) error {
	if err := checkMemo(c.Memo); err != nil {
		return err
	}
	if err := e.requireAccount(c.To); err != nil {
		return err
	}
	payer := payerFor(c.To, c.Spender, signers)
	owner, err := s.items.SendFrom(c.Spender, c.To, c.Code, c.ID, payer)
	if err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(owner, types.NewSymbol(c.Code, 0)); err != nil {
		return err
	}
	receipt.add(Notify{Account: owner, Event: "sendfrom", Detail: c.Code})
	receipt.add(Notify{Account: c.To, Event: "send", Detail: c.Code})
	return nil
}

func (e *Engine) applyApproveItem(s *components, c *ApproveItem) error {
	if c.Owner == c.Spender {
		return ErrSelfApprove
	}
	if err := e.requireAccount(c.Spender); err != nil {
		return err
	}
	return s.items.ApproveDelegate(c.Owner, c.Spender, c.Code, c.ID)
}

func (e *Engine) applyPlaceBid(s *components, c *PlaceBid, receipt *Receipt) error {
	refund, err := s.auc.Bid(c.Bidder, c.Code, c.ID, c.Bid, e.clock.Now())
	if err != nil {
		return err
	}
	if err := s.allow.ClampToBalance(c.Bidder, c.Bid.Symbol); err != nil {
		return err
	}
	receipt.add(BidResult{
		Account:  c.Bidder,
		Code:     c.Code,
		TokenID:  c.ID,
		Standing: true,
		Amount:   c.Bid,
	})
	if refund != nil {
		receipt.add(BidResult{
			Account: refund.To,
			Code:    c.Code,
			TokenID: c.ID,
			Amount:  refund.Amount,
		})
		receipt.add(Chained{Cmd: &Transfer{
			From:     e.opts.Contract,
			To:       refund.To,
			Quantity: refund.Amount,
			Memo:     "outbid refund",
		}})
	}
	return nil
}

func (e *Engine) applyClaim(s *components, c *Claim, receipt *Receipt) error {
	out, err := s.auc.Claim(c.Requester, c.Code, c.ID, e.clock.Now())
	if err != nil {
		return err
	}
	if !out.Settled {
		receipt.add(Notify{Account: out.Seller, Event: "auction closed without bids", Detail: c.Code})
		return nil
	}
	receipt.add(BidResult{
		Account: out.Winner,
		Code:    c.Code,
		TokenID: c.ID,
		Won:     true,
		Amount:  out.Price,
	})
	receipt.add(Notify{Account: out.Seller, Event: "auction settled", Detail: out.Price.String()})
	// The contract pays the seller from escrow and hands the item over
	// as the escrow delegate. Both run as chained commands under the
	// contract's own authority.
	receipt.add(Chained{Cmd: &Transfer{
		From:     e.opts.Contract,
		To:       out.Seller,
		Quantity: out.Price,
		Memo:     "auction settlement",
	}})
	receipt.add(Chained{Cmd: &SendFrom{
		Spender: e.opts.Contract,
		To:      out.Winner,
		Code:    c.Code,
		ID:      c.ID,
		Memo:    "auction item delivery",
	}})
	return nil
}
