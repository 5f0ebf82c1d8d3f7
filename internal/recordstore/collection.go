package recordstore

import (
	"context"
	"fmt"
	"time"

	"github.com/softrh/softrh/internal/hr"
)

// RecordPtr is satisfied by pointers to the top-level record types.
type RecordPtr[T any] interface {
	*T
	Base() *hr.Record
}

// Collection is one top-level array of the document.
type Collection[T any, P RecordPtr[T]] struct {
	s        *Store
	name     string
	items    func(*document) *[]T
	defaults func(P, time.Time) error
}

// Name is the collection's key in the document.
func (c *Collection[T, P]) Name() string { return c.name }

func find[T any, P RecordPtr[T]](items []T, id string) int {
	for i := range items {
		if P(&items[i]).Base().ID == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T, P]) notFound(id string) error {
	return fmt.Errorf("%w: %s %q", ErrNotFound, c.name, id)
}

// List returns the collection in storage order. It is never nil.
func (c *Collection[T, P]) List(ctx context.Context) ([]T, error) {
	d, err := c.s.load(ctx)
	if err != nil {
		return nil, err
	}
	items := *c.items(d)
	out := make([]T, len(items))
	copy(out, items)
	return out, nil
}

func (c *Collection[T, P]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	d, err := c.s.load(ctx)
	if err != nil {
		return zero, err
	}
	items := *c.items(d)
	i := find[T, P](items, id)
	if i < 0 {
		return zero, c.notFound(id)
	}
	return items[i], nil
}

// Add stores rec under a fresh id. Caller-supplied id and timestamps are
// replaced; type defaults fill fields left empty.
func (c *Collection[T, P]) Add(ctx context.Context, rec T) (T, error) {
	return c.AddChecked(ctx, rec, nil)
}

// AddChecked is Add with a precondition evaluated against the current
// collection inside the same write. A non-nil error from check aborts.
func (c *Collection[T, P]) AddChecked(ctx context.Context, rec T, check func(existing []T) error) (T, error) {
	var zero T
	id, err := newID()
	if err != nil {
		return zero, fmt.Errorf("%w: %w", ErrPersist, err)
	}

	var added T
	err = c.s.mutate(ctx, func(d *document, now time.Time) error {
		items := c.items(d)
		if check != nil {
			if err := check(*items); err != nil {
				return err
			}
		}
		r := rec
		base := P(&r).Base()
		base.ID = id
		base.CreatedAt = now
		base.UpdatedAt = now
		if c.defaults != nil {
			if err := c.defaults(P(&r), now); err != nil {
				return err
			}
		}
		*items = append(*items, r)
		added = r
		return nil
	})
	if err != nil {
		return zero, err
	}
	c.s.notify(ctx, Change{Collection: c.name, Action: ActionCreate, ID: id, At: P(&added).Base().CreatedAt})
	return added, nil
}

// Update shallow-merges p over the record. Fields absent from p are kept;
// nested values present in p replace the old ones wholesale. "id" and
// "dataCriacao" in p are ignored. Type defaults run again on the merged
// record, so nested entries brought in by p get their ids.
func (c *Collection[T, P]) Update(ctx context.Context, id string, p Patch) (T, error) {
	return c.modify(ctx, id, func(cur T) (T, error) {
		return applyPatch(cur, p, "id", "dataCriacao", "dataAtualizacao")
	})
}

// Modify runs fn on the stored record inside one write and persists the
// result. An error from fn aborts without writing.
func (c *Collection[T, P]) Modify(ctx context.Context, id string, fn func(P) error) (T, error) {
	return c.modify(ctx, id, func(cur T) (T, error) {
		if err := fn(P(&cur)); err != nil {
			return cur, err
		}
		return cur, nil
	})
}

func (c *Collection[T, P]) modify(ctx context.Context, id string, fn func(T) (T, error)) (T, error) {
	var zero, updated T
	err := c.s.mutate(ctx, func(d *document, now time.Time) error {
		items := *c.items(d)
		i := find[T, P](items, id)
		if i < 0 {
			return c.notFound(id)
		}
		orig := *P(&items[i]).Base()
		next, err := fn(items[i])
		if err != nil {
			return err
		}
		base := P(&next).Base()
		base.ID = orig.ID
		base.CreatedAt = orig.CreatedAt
		base.UpdatedAt = now
		if c.defaults != nil {
			if err := c.defaults(P(&next), now); err != nil {
				return err
			}
		}
		items[i] = next
		updated = next
		return nil
	})
	if err != nil {
		return zero, err
	}
	c.s.notify(ctx, Change{Collection: c.name, Action: ActionUpdate, ID: id, At: P(&updated).Base().UpdatedAt})
	return updated, nil
}

// Delete removes the record. Records in other collections that reference
// it are left alone.
func (c *Collection[T, P]) Delete(ctx context.Context, id string) error {
	return c.DeleteChecked(ctx, id, nil)
}

// DeleteChecked is Delete with a precondition on the stored record.
func (c *Collection[T, P]) DeleteChecked(ctx context.Context, id string, check func(T) error) error {
	var at time.Time
	err := c.s.mutate(ctx, func(d *document, now time.Time) error {
		items := c.items(d)
		i := find[T, P](*items, id)
		if i < 0 {
			return c.notFound(id)
		}
		if check != nil {
			if err := check((*items)[i]); err != nil {
				return err
			}
		}
		*items = append((*items)[:i], (*items)[i+1:]...)
		at = now
		return nil
	})
	if err != nil {
		return err
	}
	c.s.notify(ctx, Change{Collection: c.name, Action: ActionDelete, ID: id, At: at})
	return nil
}
