package recordstore

import (
	"context"
	"time"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionImport Action = "import"
	ActionReset  Action = "reset"
)

// Change describes one committed write. ID is empty for document-wide
// actions.
type Change struct {
	Collection string    `json:"collection"`
	Action     Action    `json:"action"`
	ID         string    `json:"id,omitempty"`
	At         time.Time `json:"at"`
}

// Listener is told about every committed write. Errors are logged and do not
// affect the write.
type Listener interface {
	OnChange(ctx context.Context, c Change) error
}

type ListenerFunc func(ctx context.Context, c Change) error

func (f ListenerFunc) OnChange(ctx context.Context, c Change) error { return f(ctx, c) }

// Subscribe adds l to the listeners of s.
func (s *Store) Subscribe(l Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, l)
}

func (s *Store) notify(ctx context.Context, c Change) {
	s.lmu.RLock()
	ls := make([]Listener, len(s.listeners))
	copy(ls, s.listeners)
	s.lmu.RUnlock()

	for _, l := range ls {
		if err := l.OnChange(ctx, c); err != nil {
			s.log.Warn("change listener failed",
				"collection", c.Collection, "action", c.Action, "id", c.ID, "error", err)
		}
	}
}
