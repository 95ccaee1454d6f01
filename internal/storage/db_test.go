package storage

import (
	"bytes"
	"errors"
	"testing"
)

// testDB runs the shared test suite against a DB implementation.
func testDB(t *testing.T, db DB) {
	t.Helper()

	t.Run("PutAndGet", func(t *testing.T) {
		if err := db.Put([]byte("key1"), []byte("value1")); err != nil {
			t.Fatalf("Put() error: %v", err)
		}
		val, err := db.Get([]byte("key1"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("value1")) {
			t.Errorf("Get() = %q, want %q", val, "value1")
		}
	})

	t.Run("GetNonexistent", func(t *testing.T) {
		_, err := db.Get([]byte("nonexistent"))
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("Get() for missing key = %v, want ErrNotFound", err)
		}
	})

	t.Run("Has", func(t *testing.T) {
		db.Put([]byte("exists"), []byte("yes"))

		ok, err := db.Has([]byte("exists"))
		if err != nil {
			t.Fatalf("Has() error: %v", err)
		}
		if !ok {
			t.Error("Has() = false for existing key")
		}

		ok, err = db.Has([]byte("missing"))
		if err != nil {
			t.Fatalf("Has() error: %v", err)
		}
		if ok {
			t.Error("Has() = true for missing key")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		db.Put([]byte("ow"), []byte("first"))
		db.Put([]byte("ow"), []byte("second"))

		val, err := db.Get([]byte("ow"))
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if !bytes.Equal(val, []byte("second")) {
			t.Errorf("Get() = %q, want %q", val, "second")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db.Put([]byte("doomed"), []byte("bye"))
		if err := db.Delete([]byte("doomed")); err != nil {
			t.Fatalf("Delete() error: %v", err)
		}
		ok, _ := db.Has([]byte("doomed"))
		if ok {
			t.Error("key still present after Delete()")
		}
	})

	t.Run("ForEachPrefix", func(t *testing.T) {
		db.Put([]byte("p/a"), []byte("1"))
		db.Put([]byte("p/b"), []byte("2"))
		db.Put([]byte("q/c"), []byte("3"))

		seen := map[string]string{}
		err := db.ForEach([]byte("p/"), func(key, value []byte) error {
			seen[string(key)] = string(value)
			return nil
		})
		if err != nil {
			t.Fatalf("ForEach() error: %v", err)
		}
		if len(seen) != 2 || seen["p/a"] != "1" || seen["p/b"] != "2" {
			t.Errorf("ForEach() saw %v, want p/a and p/b only", seen)
		}
	})
}

func TestMemoryDB(t *testing.T) {
	testDB(t, NewMemory())
}

func TestBadgerDB(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer db.Close()
	testDB(t, db)
}

func TestMemoryBatch(t *testing.T) {
	db := NewMemory()
	db.Put([]byte("stale"), []byte("x"))

	batch := db.NewBatch()
	batch.Put([]byte("a"), []byte("1"))
	batch.Delete([]byte("stale"))

	// Nothing visible before commit.
	if ok, _ := db.Has([]byte("a")); ok {
		t.Error("batch write visible before Commit()")
	}

	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}
	if ok, _ := db.Has([]byte("a")); !ok {
		t.Error("batch write missing after Commit()")
	}
	if ok, _ := db.Has([]byte("stale")); ok {
		t.Error("batch delete not applied after Commit()")
	}
}

func TestBadgerBatch(t *testing.T) {
	db, err := NewBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	defer db.Close()

	batch := db.NewBatch()
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	if err := batch.Commit(); err != nil {
		t.Fatalf("Commit() error: %v", err)
	}

	for _, k := range []string{"a", "b"} {
		if ok, _ := db.Has([]byte(k)); !ok {
			t.Errorf("key %q missing after batch commit", k)
		}
	}
}
