package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/softrh/softrh/internal/dashboard"
	"github.com/softrh/softrh/internal/recordstore"
)

// Snapshotter produces the dashboard state sent to live clients.
type Snapshotter interface {
	Snapshot(ctx context.Context) (dashboard.Snapshot, error)
}

// Message is the frame written to dashboard WebSocket clients.
type Message struct {
	Type   string              `json:"type"`
	Change *recordstore.Change `json:"change,omitempty"`
	Data   dashboard.Snapshot  `json:"data"`
}

// Feed is a recordstore.Listener that pushes a fresh snapshot to the hub
// after every change.
type Feed struct {
	hub  *Hub
	snap Snapshotter
}

func NewFeed(hub *Hub, snap Snapshotter) *Feed {
	return &Feed{hub: hub, snap: snap}
}

// Frame encodes the current snapshot, tagged with c when non-nil.
func (f *Feed) Frame(ctx context.Context, c *recordstore.Change) ([]byte, error) {
	s, err := f.snap.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("building snapshot: %w", err)
	}
	return json.Marshal(Message{Type: "dashboard", Change: c, Data: s})
}

func (f *Feed) OnChange(ctx context.Context, c recordstore.Change) error {
	if f.hub.Clients() == 0 {
		return nil
	}
	b, err := f.Frame(ctx, &c)
	if err != nil {
		return err
	}
	f.hub.Broadcast(b)
	return nil
}
