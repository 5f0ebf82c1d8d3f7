package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var ctx = context.Background()

// TestMigrationsIdempotent runs Open twice on the same database and verifies
// the schema_version count stays correct (migration not re-applied).
func TestMigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open failed: %v", err)
	}
	v1, err := s1.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	s1.Close()

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	v2, err := s2.AppliedMigrations()
	if err != nil {
		t.Fatalf("AppliedMigrations: %v", err)
	}
	if len(v1) == 0 || len(v1) != len(v2) {
		t.Errorf("migration count changed: %d -> %d", len(v1), len(v2))
	}
}

func TestGetMissingKey(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(ctx, "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)

	if err := s.Put(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, "k", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}

	got, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != `{"a":2}` {
		t.Errorf("value = %s, want {\"a\":2}", got)
	}

	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete error = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, "k"); err != nil {
		t.Errorf("deleting absent key: %v", err)
	}
}

func TestUpdateCreatesAndModifies(t *testing.T) {
	s := openTestStore(t)

	err := s.Update(ctx, "doc", func(cur []byte, exists bool) ([]byte, error) {
		if exists {
			t.Errorf("exists = true for a fresh key")
		}
		return []byte("v1"), nil
	})
	if err != nil {
		t.Fatalf("Update create: %v", err)
	}

	err = s.Update(ctx, "doc", func(cur []byte, exists bool) ([]byte, error) {
		if !exists || string(cur) != "v1" {
			t.Errorf("got (%q, %v), want (v1, true)", cur, exists)
		}
		return append(cur, '+'), nil
	})
	if err != nil {
		t.Fatalf("Update modify: %v", err)
	}

	got, _ := s.Get(ctx, "doc")
	if string(got) != "v1+" {
		t.Errorf("value = %q, want v1+", got)
	}
}

func TestUpdateAbortLeavesValue(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(ctx, "doc", []byte("keep")); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.Update(ctx, "doc", func(cur []byte, exists bool) ([]byte, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want boom", err)
	}

	got, _ := s.Get(ctx, "doc")
	if string(got) != "keep" {
		t.Errorf("value = %q, want keep", got)
	}
}

func TestUpdateSerializesWriters(t *testing.T) {
	s := openTestStore(t)
	if err := s.Put(ctx, "n", []byte("")); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Update(ctx, "n", func(cur []byte, _ bool) ([]byte, error) {
				return append(cur, 'x'), nil
			})
			if err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "n")
	if len(got) != 20 {
		t.Errorf("len = %d, want 20 (lost updates)", len(got))
	}
}

func TestKeys(t *testing.T) {
	s := openTestStore(t)
	s.Put(ctx, "a", []byte("123"))
	s.Put(ctx, "b", []byte("1"))

	entries, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	sizes := map[string]int{}
	for _, e := range entries {
		sizes[e.Key] = e.Size
		if e.UpdatedAt.IsZero() {
			t.Errorf("entry %s has zero UpdatedAt", e.Key)
		}
	}
	if sizes["a"] != 3 || sizes["b"] != 1 {
		t.Errorf("sizes = %v", sizes)
	}
}
