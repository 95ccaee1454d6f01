package nft

import (
	"errors"
	"testing"

	"github.com/DE-labtory/erc20peggy/internal/ledger"
	"github.com/DE-labtory/erc20peggy/internal/storage"
	"github.com/DE-labtory/erc20peggy/pkg/types"
)

var (
	art = types.NewSymbol("ART", 0)
	krw = types.NewSymbol("KRW", 3)

	contract = types.AccountName("amft")
	issuerX  = types.AccountName("issuerx")
	alice    = types.AccountName("alice")
	bob      = types.AccountName("bob")
	carol    = types.AccountName("carol")
)

func arts(amount int64) types.Asset {
	return types.NewAsset(amount, art)
}

// setup creates an ART class and issues items 1 and 2 to alice.
func setup(t *testing.T) (*Registry, *ledger.Core) {
	t.Helper()
	db := storage.NewMemory()
	core := ledger.New(db)
	r := New(db, core, contract)
	if err := r.CreateClass(issuerX, "ART"); err != nil {
		t.Fatalf("create class: %v", err)
	}
	items := []ItemSpec{
		{ID: 1, Name: "first", Value: types.NewAsset(10000, krw)},
		{ID: 2, Name: "second", Value: types.NewAsset(20000, krw)},
	}
	if err := r.IssueBatch(issuerX, alice, arts(2), items, issuerX); err != nil {
		t.Fatalf("issue batch: %v", err)
	}
	return r, core
}

func TestCreateClass_Duplicate(t *testing.T) {
	r, _ := setup(t)
	err := r.CreateClass(alice, "ART")
	if !errors.Is(err, types.ErrConflict) {
		t.Errorf("duplicate class = %v, want ErrConflict", err)
	}
}

func TestCreateClass_BadCode(t *testing.T) {
	db := storage.NewMemory()
	r := New(db, ledger.New(db), contract)
	err := r.CreateClass(issuerX, "art")
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("lowercase class code = %v, want ErrInvalidArgument", err)
	}
}

func TestIssueBatch(t *testing.T) {
	r, core := setup(t)

	for _, id := range []uint64{1, 2} {
		item, err := r.Item("ART", id)
		if err != nil {
			t.Fatalf("item %d: %v", id, err)
		}
		if item.Owner != alice {
			t.Errorf("item %d owner = %q, want alice", id, item.Owner)
		}
	}

	// The fungible balance mirrors the item count.
	bal, err := core.Balance(alice, "ART")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.Balance.Amount != 2 {
		t.Errorf("ART balance = %d, want 2", bal.Balance.Amount)
	}
	count, _ := r.CountByOwner(alice, "ART")
	if count != 2 {
		t.Errorf("owner index count = %d, want 2", count)
	}
}

func TestIssueBatch_SizeMismatch(t *testing.T) {
	r, _ := setup(t)
	err := r.IssueBatch(issuerX, alice, arts(2), []ItemSpec{{ID: 9}}, issuerX)
	if !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("size mismatch = %v, want ErrInvalidArgument", err)
	}
}

func TestIssueBatch_DuplicateID(t *testing.T) {
	r, _ := setup(t)
	err := r.IssueBatch(issuerX, bob, arts(1), []ItemSpec{{ID: 1}}, issuerX)
	if !errors.Is(err, types.ErrConflict) {
		t.Errorf("duplicate id = %v, want ErrConflict", err)
	}
}

func TestIssueBatch_RepeatedIDWithinBatch(t *testing.T) {
	r, core := setup(t)

	items := []ItemSpec{{ID: 7, Name: "a"}, {ID: 7, Name: "b"}}
	err := r.IssueBatch(issuerX, bob, arts(2), items, issuerX)
	if !errors.Is(err, types.ErrConflict) {
		t.Fatalf("repeated id in batch = %v, want ErrConflict", err)
	}

	// Nothing was minted: no record for the id, no balance for bob,
	// supply still covers exactly the live items.
	if _, err := r.Item("ART", 7); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("item 7 after rejected batch = %v, want ErrNotFound", err)
	}
	if _, err := core.Balance(bob, "ART"); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("bob got an ART balance from a rejected batch")
	}
	sup, _ := core.Supply("ART")
	if sup.Supply.Amount != 2 {
		t.Errorf("ART supply = %d, want 2", sup.Supply.Amount)
	}
}

func TestIssueBatch_NotIssuer(t *testing.T) {
	r, _ := setup(t)
	err := r.IssueBatch(alice, alice, arts(1), []ItemSpec{{ID: 9}}, alice)
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("issue by non-issuer = %v, want ErrUnauthorized", err)
	}
}

func TestBurnBatch(t *testing.T) {
	r, core := setup(t)

	if err := r.BurnBatch(alice, arts(2), []uint64{1, 2}); err != nil {
		t.Fatalf("burn batch: %v", err)
	}
	if _, err := r.Item("ART", 1); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("item 1 after burn = %v, want ErrNotFound", err)
	}
	bal, _ := core.Balance(alice, "ART")
	if bal.Balance.Amount != 0 {
		t.Errorf("ART balance = %d, want 0", bal.Balance.Amount)
	}
	sup, _ := core.Supply("ART")
	if sup.Supply.Amount != 0 {
		t.Errorf("ART supply = %d, want 0", sup.Supply.Amount)
	}
}

func TestBurnBatch_NotOwner(t *testing.T) {
	r, _ := setup(t)
	err := r.BurnBatch(bob, arts(1), []uint64{1})
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("burn by non-owner = %v, want ErrUnauthorized", err)
	}
}

func TestDelegatedBurn(t *testing.T) {
	r, core := setup(t)
	if err := r.ApproveDelegate(alice, bob, "ART", 1); err != nil {
		t.Fatalf("approve delegate: %v", err)
	}

	owner, err := r.DelegatedBurn(bob, "ART", 1)
	if err != nil {
		t.Fatalf("delegated burn: %v", err)
	}
	if owner != alice {
		t.Errorf("reported owner = %q, want alice", owner)
	}
	bal, _ := core.Balance(alice, "ART")
	if bal.Balance.Amount != 1 {
		t.Errorf("ART balance = %d, want 1", bal.Balance.Amount)
	}
}

func TestDelegatedBurn_WrongSpender(t *testing.T) {
	r, _ := setup(t)
	_, err := r.DelegatedBurn(bob, "ART", 1)
	if !errors.Is(err, types.ErrPreconditionFailed) {
		t.Errorf("burn without delegation = %v, want ErrPreconditionFailed", err)
	}
}

func TestSend(t *testing.T) {
	r, core := setup(t)

	if err := r.Send(alice, bob, "ART", 1, alice); err != nil {
		t.Fatalf("send: %v", err)
	}
	item, _ := r.Item("ART", 1)
	if item.Owner != bob || item.Spender != bob {
		t.Errorf("item after send = %+v, want owner/spender bob", item)
	}

	a, _ := core.Balance(alice, "ART")
	b, _ := core.Balance(bob, "ART")
	if a.Balance.Amount != 1 || b.Balance.Amount != 1 {
		t.Errorf("balances = %d/%d, want 1/1", a.Balance.Amount, b.Balance.Amount)
	}
	ca, _ := r.CountByOwner(alice, "ART")
	cb, _ := r.CountByOwner(bob, "ART")
	if ca != 1 || cb != 1 {
		t.Errorf("owner counts = %d/%d, want 1/1", ca, cb)
	}
}

func TestSend_NotOwner(t *testing.T) {
	r, _ := setup(t)
	err := r.Send(bob, carol, "ART", 1, bob)
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("send by non-owner = %v, want ErrUnauthorized", err)
	}
}

func TestSend_LockedInEscrow(t *testing.T) {
	r, _ := setup(t)
	if err := r.SetDelegate("ART", 1, contract); err != nil {
		t.Fatalf("lock item: %v", err)
	}

	err := r.Send(alice, bob, "ART", 1, alice)
	if !errors.Is(err, types.ErrPreconditionFailed) {
		t.Errorf("send of locked item = %v, want ErrPreconditionFailed", err)
	}
}

func TestSendFrom(t *testing.T) {
	r, _ := setup(t)
	r.ApproveDelegate(alice, bob, "ART", 1)

	owner, err := r.SendFrom(bob, carol, "ART", 1, bob)
	if err != nil {
		t.Fatalf("send from: %v", err)
	}
	if owner != alice {
		t.Errorf("previous owner = %q, want alice", owner)
	}
	item, _ := r.Item("ART", 1)
	if item.Owner != carol || item.Spender != carol {
		t.Errorf("item after sendfrom = %+v, want owner/spender carol", item)
	}
}

func TestSendFrom_WrongSpender(t *testing.T) {
	r, _ := setup(t)
	r.ApproveDelegate(alice, bob, "ART", 1)

	_, err := r.SendFrom(carol, bob, "ART", 1, carol)
	if !errors.Is(err, types.ErrPreconditionFailed) {
		t.Errorf("sendfrom by wrong spender = %v, want ErrPreconditionFailed", err)
	}
}

func TestApproveDelegate_LockedInEscrow(t *testing.T) {
	r, _ := setup(t)
	r.SetDelegate("ART", 1, contract)

	err := r.ApproveDelegate(alice, bob, "ART", 1)
	if !errors.Is(err, types.ErrPreconditionFailed) {
		t.Errorf("re-delegating locked item = %v, want ErrPreconditionFailed", err)
	}
}

func TestUniqueness_OneLiveRecordPerID(t *testing.T) {
	r, _ := setup(t)
	r.Send(alice, bob, "ART", 1, alice)

	// After a transfer there is still exactly one record for id 1 and
	// the balances mirror the index counts.
	var seen int
	r.store.ForEach("ART", func(item *Item) error {
		if item.ID == 1 {
			seen++
		}
		return nil
	})
	if seen != 1 {
		t.Errorf("found %d records for id 1, want 1", seen)
	}
}
