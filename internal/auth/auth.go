// Package auth maps on-ledger account names to public keys and turns
// command signatures into verified signer sets.
package auth

import (
	"encoding/json"
	"fmt"

	"github.com/DE-labtory/erc20peggy/internal/contract"
	"github.com/DE-labtory/erc20peggy/internal/log"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/crypto"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

var (
	ErrAccountNotFound = fmt.Errorf("account is not registered: %w", types.ErrNotFound)
	ErrAccountExists   = fmt.Errorf("account is already registered: %w", types.ErrConflict)
	ErrBadSignature    = fmt.Errorf("signature does not verify: %w", types.ErrUnauthorized)
)

// Account binds a name to the compressed public key that signs for it.
type Account struct {
	Name      types.AccountName `json:"name"`
	PublicKey []byte            `json:"public_key"`
}

// Signature is one account's signature over a command digest.
type Signature struct {
	Account types.AccountName `json:"account"`
	Sig     []byte            `json:"sig"`
}

// Registry stores account records. It implements the account oracle
// the contract engine consults before crediting a recipient.
type Registry struct {
	db storage.DB
}

func NewRegistry(db storage.DB) *Registry {
	return &Registry{db: db}
}

func accountKey(name types.AccountName) []byte {
	return []byte("acct/" + string(name))
}

// Register binds a fresh account name to a public key.
func (r *Registry) Register(name types.AccountName, publicKey []byte) error {
	if !name.Valid() {
		return fmt.Errorf("invalid account name %q: %w", name, types.ErrInvalidArgument)
	}
	exists, err := r.db.Has(accountKey(name))
	if err != nil {
		return err
	}
	if exists {
		return ErrAccountExists
	}
	data, err := json.Marshal(&Account{Name: name, PublicKey: publicKey})
	if err != nil {
		return fmt.Errorf("account marshal: %w", err)
	}
	if err := r.db.Put(accountKey(name), data); err != nil {
		return err
	}
	log.Auth.Info().
		Str("account", string(name)).
		Str("key", crypto.KeyFingerprint(publicKey).String()).
		Msg("account registered")
	return nil
}

// Account returns the record for a name.
func (r *Registry) Account(name types.AccountName) (*Account, error) {
	data, err := r.db.Get(accountKey(name))
	if err != nil {
		return nil, ErrAccountNotFound
	}
	var acct Account
	if err := json.Unmarshal(data, &acct); err != nil {
		return nil, fmt.Errorf("account unmarshal: %w", err)
	}
	return &acct, nil
}

// Exists reports whether the account is registered.
func (r *Registry) Exists(name types.AccountName) (bool, error) {
	return r.db.Has(accountKey(name))
}

// Digest computes the signing digest of a command: its kind and its
// canonical JSON encoding.
func Digest(cmd contract.Command) (types.Hash, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return types.Hash{}, fmt.Errorf("command marshal: %w", err)
	}
	data := make([]byte, 0, len(cmd.Kind())+1+len(body))
	data = append(data, cmd.Kind()...)
	data = append(data, 0)
	data = append(data, body...)
	return crypto.Hash(data), nil
}

// VerifiedSigners checks every signature against the command digest
// and the signer's registered key, returning the resulting signer set.
// One bad or unregistered signature rejects the whole command.
func (r *Registry) VerifiedSigners(cmd contract.Command, sigs []Signature) (contract.SignerSet, error) {
	digest, err := Digest(cmd)
	if err != nil {
		return nil, err
	}
	signers := make(contract.SignerSet, len(sigs))
	for _, s := range sigs {
		acct, err := r.Account(s.Account)
		if err != nil {
			return nil, err
		}
		if !crypto.VerifySignature(digest[:], s.Sig, acct.PublicKey) {
			return nil, fmt.Errorf("%w: %s", ErrBadSignature, s.Account)
		}
		signers[s.Account] = true
	}
	return signers, nil
}
