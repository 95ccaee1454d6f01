package storage

import (
	"bytes"
	"testing"
)

func TestPrefixDB_Isolation(t *testing.T) {
	base := NewMemory()
	a := NewPrefixDB(base, []byte("amft/"))
	b := NewPrefixDB(base, []byte("peg/"))

	a.Put([]byte("k"), []byte("from-a"))
	b.Put([]byte("k"), []byte("from-b"))

	va, err := a.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	vb, err := b.Get([]byte("k"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if bytes.Equal(va, vb) {
		t.Error("namespaces should not collide")
	}
}

func TestPrefixDB_ForEachStripsPrefix(t *testing.T) {
	base := NewMemory()
	p := NewPrefixDB(base, []byte("amft/"))
	p.Put([]byte("b/alice/FOO"), []byte("1"))
	p.Put([]byte("b/bob/FOO"), []byte("2"))
	base.Put([]byte("other/b/x"), []byte("3"))

	var keys []string
	err := p.ForEach([]byte("b/"), func(key, _ []byte) error {
		keys = append(keys, string(key))
		return nil
	})
	if err != nil {
		t.Fatalf("ForEach() error: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("ForEach() saw %d keys, want 2: %v", len(keys), keys)
	}
	for _, k := range keys {
		if k != "b/alice/FOO" && k != "b/bob/FOO" {
			t.Errorf("unexpected logical key %q", k)
		}
	}
}

func TestPrefixDB_DeleteAll(t *testing.T) {
	base := NewMemory()
	p := NewPrefixDB(base, []byte("amft/"))
	p.Put([]byte("a"), []byte("1"))
	p.Put([]byte("b"), []byte("2"))
	base.Put([]byte("peg/keep"), []byte("3"))

	if err := p.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll() error: %v", err)
	}
	if ok, _ := p.Has([]byte("a")); ok {
		t.Error("key survived DeleteAll()")
	}
	if ok, _ := base.Has([]byte("peg/keep")); !ok {
		t.Error("DeleteAll() leaked into another namespace")
	}
}

func TestPrefixDB_BatchCommits(t *testing.T) {
	base := NewMemory()
	p := NewPrefixDB(base, []byte("amft/"))

	batch := p.NewBatch()
	batch.Put([]byte("k"), []byte("v"))
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	if ok, _ := base.Has([]byte("amft/k")); !ok {
		t.Error("batch write should land under the namespace prefix")
	}
}
