package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestStaged_ReadsThroughToBase(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("k"), []byte("base"))

	st := NewStaged(base)
	val, err := st.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(val, []byte("base")) {
		t.Errorf("Get() = %q, want %q", val, "base")
	}
}

func TestStaged_WritesInvisibleUntilCommit(t *testing.T) {
	base := NewMemory()
	st := NewStaged(base)

	st.Put([]byte("k"), []byte("staged"))

	if ok, _ := base.Has([]byte("k")); ok {
		t.Error("staged write reached base before Commit()")
	}
	if ok, _ := st.Has([]byte("k")); !ok {
		t.Error("staged write not visible through overlay")
	}

	if err := st.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if ok, _ := base.Has([]byte("k")); !ok {
		t.Error("write missing from base after Commit()")
	}
	if st.Dirty() {
		t.Error("overlay should be clean after Commit()")
	}
}

func TestStaged_DeleteShadowsBase(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("k"), []byte("v"))

	st := NewStaged(base)
	st.Delete([]byte("k"))

	if _, err := st.Get([]byte("k")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after staged delete = %v, want ErrNotFound", err)
	}
	if ok, _ := base.Has([]byte("k")); !ok {
		t.Error("delete reached base before Commit()")
	}

	if err := st.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if ok, _ := base.Has([]byte("k")); ok {
		t.Error("key still in base after committed delete")
	}
}

func TestStaged_DiscardDropsEverything(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("keep"), []byte("v"))

	st := NewStaged(base)
	st.Put([]byte("new"), []byte("v"))
	st.Delete([]byte("keep"))
	st.Discard()

	if st.Dirty() {
		t.Error("overlay should be clean after Discard()")
	}
	if ok, _ := base.Has([]byte("keep")); !ok {
		t.Error("discarded delete must not reach base")
	}
	if ok, _ := base.Has([]byte("new")); ok {
		t.Error("discarded write must not reach base")
	}
}

func TestStaged_ForEachMerges(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("t/a"), []byte("1"))
	base.Put([]byte("t/b"), []byte("2"))
	base.Put([]byte("t/c"), []byte("3"))

	st := NewStaged(base)
	st.Put([]byte("t/b"), []byte("2-staged")) // shadowed write
	st.Put([]byte("t/d"), []byte("4"))        // new key
	st.Delete([]byte("t/c"))                  // staged delete

	seen := map[string]string{}
	err := st.ForEach([]byte("t/"), func(key, value []byte) error {
		seen[string(key)] = string(value)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error: %v", err)
	}

	want := map[string]string{"t/a": "1", "t/b": "2-staged", "t/d": "4"}
	if len(seen) != len(want) {
		t.Fatalf("ForEach() saw %v, want %v", seen, want)
	}
	for k, v := range want {
		if seen[k] != v {
			t.Errorf("ForEach()[%q] = %q, want %q", k, seen[k], v)
		}
	}
}

func TestStaged_PutAfterDelete(t *testing.T) {
	base := NewMemory()
	base.Put([]byte("k"), []byte("old"))

	st := NewStaged(base)
	st.Delete([]byte("k"))
	st.Put([]byte("k"), []byte("new"))

	val, err := st.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if !bytes.Equal(val, []byte("new")) {
		t.Errorf("Get() = %q, want %q", val, "new")
	}

	if err := st.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	got, _ := base.Get([]byte("k"))
	if !bytes.Equal(got, []byte("new")) {
		t.Errorf("base value = %q, want %q", got, "new")
	}
}
