package types

import "errors"

// Error kinds shared across the ledger. Component packages wrap these
// in named sentinels so callers can match either the specific failure
// or the broad class with errors.Is.
var (
	// ErrUnauthorized means the required authority did not sign the
	// operation, or the actor is not the principal the record names.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidArgument means a malformed symbol or name, a
	// non-positive amount, an oversized memo, or a self-referential
	// transfer.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means a missing balance, allowance, token, auction
	// record, or a nonexistent account.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a duplicate symbol or token id, or an
	// allowance that already exists where single-set semantics apply.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientFunds means a balance, allowance, escrow, or bid
	// too low for the requested amount.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrPreconditionFailed means a wrong auction state, a deadline
	// not yet reached, or a wrong delegated spender.
	ErrPreconditionFailed = errors.New("precondition failed")
)
