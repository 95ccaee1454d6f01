// Package erc20peggy is the embedding surface of the contract. It
// bundles the account registry, the state-transition engine, and the
// effect runner over one database, and re-exports the command and
// effect types an embedder needs to drive them.
package erc20peggy

import (
	"time"

	"github.com/DE-labtory/erc20peggy/config"
	"github.com/DE-labtory/erc20peggy/internal/auth"
	"github.com/DE-labtory/erc20peggy/internal/contract"
	"github.com/DE-labtory/erc20peggy/internal/nft"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

// Commands.
type (
	Command = contract.Command

	CreateToken       = contract.CreateToken
	Issue             = contract.Issue
	Burn              = contract.Burn
	BurnFrom          = contract.BurnFrom
	Transfer          = contract.Transfer
	TransferFrom      = contract.TransferFrom
	Approve           = contract.Approve
	IncreaseAllowance = contract.IncreaseAllowance
	DecreaseAllowance = contract.DecreaseAllowance
	OpenBalance       = contract.OpenBalance
	CloseBalance      = contract.CloseBalance

	CreateClass  = contract.CreateClass
	IssueItems   = contract.IssueItems
	BurnItems    = contract.BurnItems
	BurnItemFrom = contract.BurnItemFrom
	Send         = contract.Send
	SendFrom     = contract.SendFrom
	ApproveItem  = contract.ApproveItem

	OpenAuction = contract.OpenAuction
	PlaceBid    = contract.PlaceBid
	Claim       = contract.Claim
)

// Item records.
type (
	Item     = nft.Item
	ItemSpec = nft.ItemSpec
)

// Receipts and effects.
type (
	Receipt          = contract.Receipt
	Notify           = contract.Notify
	BidResult        = contract.BidResult
	NotificationSink = contract.NotificationSink
	SignerSet        = contract.SignerSet
	Clock            = contract.Clock
	ClockFunc        = contract.ClockFunc
)

// Accounts and signatures.
type (
	Account   = auth.Account
	Signature = auth.Signature
)

// Options configures a deployment. See config.DefaultOptions.
type Options = config.Options

// DB is the backing store contract state lives in.
type DB = storage.DB

// NewMemoryDB returns an in-memory store, for tests and tooling.
func NewMemoryDB() DB { return storage.NewMemory() }

// OpenBadgerDB opens a persistent store at path.
func OpenBadgerDB(path string) (DB, error) {
	db, err := storage.NewBadger(path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

// Contract is one deployed instance: a registry of signing accounts
// shared across deployments, and an engine whose tables live under
// the deployment's own namespace in the database.
type Contract struct {
	Accounts *auth.Registry
	Engine   *contract.Engine
	Runner   *contract.Runner
}

// Open wires a contract instance over db. The registry doubles as the
// engine's account oracle, so value only moves to registered
// accounts. A nil clock uses wall-clock time; a nil sink logs effects
// instead of delivering them.
func Open(db DB, opts Options, clock Clock, sink NotificationSink) (*Contract, error) {
	if clock == nil {
		clock = systemClock{}
	}
	accounts := auth.NewRegistry(db)
	engine, err := contract.NewEngine(db, opts, accounts, clock)
	if err != nil {
		return nil, err
	}
	return &Contract{
		Accounts: accounts,
		Engine:   engine,
		Runner:   contract.NewRunner(engine, sink),
	}, nil
}

// Register adds a signing account to the shared registry.
func (c *Contract) Register(name types.AccountName, publicKey []byte) error {
	return c.Accounts.Register(name, publicKey)
}

// Submit verifies the signatures against the command digest, then
// applies the command and every effect it chains. On success the
// receipts cover the submitted command first, chained settlements
// after.
func (c *Contract) Submit(cmd Command, sigs []Signature) ([]*Receipt, error) {
	signers, err := c.Accounts.VerifiedSigners(cmd, sigs)
	if err != nil {
		return nil, err
	}
	return c.Runner.Run(cmd, signers)
}

// Digest is the hash a signature over cmd must cover.
func Digest(cmd Command) (types.Hash, error) { return auth.Digest(cmd) }

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }
