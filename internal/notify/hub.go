// Package notify fans committed record changes out to live dashboard
// clients, a message broker and e-mail.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Client is one connected dashboard consumer. The hub closes Send when the
// client is dropped.
type Client struct {
	ID   string
	Send chan []byte
}

type registration struct {
	c    *Client
	done chan struct{}
}

// Hub owns the client set. Only the Run goroutine touches it.
type Hub struct {
	clients  map[string]*Client
	register chan registration
	unreg    chan *Client
	sendAll  chan []byte

	log      *slog.Logger
	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	nextID atomic.Uint64
	count  atomic.Int64
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		clients:  make(map[string]*Client),
		register: make(chan registration),
		unreg:    make(chan *Client),
		sendAll:  make(chan []byte, 64),
		log:      log.With("cmp", "ws.hub"),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
}

func (h *Hub) newID() string {
	return fmt.Sprintf("c%d", h.nextID.Add(1))
}

func (h *Hub) drop(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	delete(h.clients, c.ID)
	h.count.Store(int64(len(h.clients)))
	close(c.Send)
}

// Run serves registrations and broadcasts until Stop.
func (h *Hub) Run() {
	h.log.Debug("hub started")
	defer close(h.stopped)

	for {
		select {
		case r := <-h.register:
			h.clients[r.c.ID] = r.c
			h.count.Store(int64(len(h.clients)))
			close(r.done)
			h.log.Info("client registered", "id", r.c.ID, "total", len(h.clients))

		case c := <-h.unreg:
			if c == nil {
				continue
			}
			h.drop(c)
			h.log.Info("client unregistered", "id", c.ID, "total", len(h.clients))

		case msg := <-h.sendAll:
			for _, c := range h.clients {
				select {
				case c.Send <- msg:
				default:
					// slow client: drop it rather than block the hub
					h.log.Warn("dropping slow client", "id", c.ID)
					h.drop(c)
				}
			}

		case <-h.stop:
			for _, c := range h.clients {
				h.drop(c)
			}
			h.log.Debug("hub stopped")
			return
		}
	}
}

// Stop ends Run and closes every client. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.stopped
}

// Register blocks until the hub has accepted c, or the hub stops. A client
// without an ID is given one.
func (h *Hub) Register(c *Client) {
	if c.ID == "" {
		c.ID = h.newID()
	}
	r := registration{c: c, done: make(chan struct{})}
	select {
	case h.register <- r:
		<-r.done
	case <-h.stopped:
		close(c.Send)
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unreg <- c:
	case <-h.stopped:
	}
}

// Broadcast queues b for every client. When the queue is full the message
// is dropped; the next change carries a fresh snapshot anyway.
func (h *Hub) Broadcast(b []byte) bool {
	select {
	case h.sendAll <- b:
		return true
	default:
		h.log.Warn("broadcast queue full, dropping message")
		return false
	}
}

// Clients reports how many clients are connected.
func (h *Hub) Clients() int { return int(h.count.Load()) }
