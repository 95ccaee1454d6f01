package auth

import (
	"errors"
	"testing"

	"github.com/DE-labtory/erc20peggy/internal/contract"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/crypto"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

func newKey(t *testing.T) *crypto.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestRegister(t *testing.T) {
	r := NewRegistry(storage.NewMemory())
	key := newKey(t)

	if err := r.Register("alice", key.PublicKey()); err != nil {
		t.Fatalf("register: %v", err)
	}
	ok, err := r.Exists("alice")
	if err != nil || !ok {
		t.Errorf("Exists(alice) = %v, %v, want true", ok, err)
	}
	ok, _ = r.Exists("bob")
	if ok {
		t.Errorf("Exists(bob) = true for unregistered account")
	}

	if err := r.Register("alice", key.PublicKey()); !errors.Is(err, types.ErrConflict) {
		t.Errorf("double register = %v, want ErrConflict", err)
	}
	if err := r.Register("UPPER", key.PublicKey()); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("bad name = %v, want ErrInvalidArgument", err)
	}
}

func TestVerifiedSigners(t *testing.T) {
	r := NewRegistry(storage.NewMemory())
	aliceKey := newKey(t)
	bobKey := newKey(t)
	if err := r.Register("alice", aliceKey.PublicKey()); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := r.Register("bob", bobKey.PublicKey()); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	cmd := &contract.Transfer{
		From:     "alice",
		To:       "bob",
		Quantity: types.NewAsset(1000, types.NewSymbol("FOO", 3)),
	}
	digest, err := Digest(cmd)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	aliceSig, err := aliceKey.Sign(digest.Bytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	bobSig, err := bobKey.Sign(digest.Bytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	signers, err := r.VerifiedSigners(cmd, []Signature{
		{Account: "alice", Sig: aliceSig},
		{Account: "bob", Sig: bobSig},
	})
	if err != nil {
		t.Fatalf("verified signers: %v", err)
	}
	if !signers.Has("alice") || !signers.Has("bob") {
		t.Errorf("signers = %v, want alice and bob", signers)
	}
}

func TestVerifiedSigners_RejectsForgery(t *testing.T) {
	r := NewRegistry(storage.NewMemory())
	aliceKey := newKey(t)
	mallory := newKey(t)
	if err := r.Register("alice", aliceKey.PublicKey()); err != nil {
		t.Fatalf("register: %v", err)
	}

	cmd := &contract.Transfer{
		From:     "alice",
		To:       "mallory",
		Quantity: types.NewAsset(1000, types.NewSymbol("FOO", 3)),
	}
	digest, _ := Digest(cmd)
	forged, err := mallory.Sign(digest.Bytes())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	_, err = r.VerifiedSigners(cmd, []Signature{{Account: "alice", Sig: forged}})
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("forged signature = %v, want ErrUnauthorized", err)
	}

	_, err = r.VerifiedSigners(cmd, []Signature{{Account: "ghost", Sig: forged}})
	if !errors.Is(err, types.ErrNotFound) {
		t.Errorf("unregistered signer = %v, want ErrNotFound", err)
	}
}

func TestDigest_DistinguishesCommands(t *testing.T) {
	a := &contract.Transfer{From: "alice", To: "bob",
		Quantity: types.NewAsset(1000, types.NewSymbol("FOO", 3))}
	b := &contract.Transfer{From: "alice", To: "bob",
		Quantity: types.NewAsset(1001, types.NewSymbol("FOO", 3))}

	da, err := Digest(a)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	db, err := Digest(b)
	if err != nil {
		t.Fatalf("digest: %v", err)
	}
	if da == db {
		t.Errorf("distinct commands share a digest")
	}
}
