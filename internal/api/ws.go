package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/softrh/softrh/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// the listener is loopback only
	CheckOrigin: func(r *http.Request) bool { return true },
}

// serveWS streams dashboard snapshots. The client gets the current state
// first and a new frame after every committed change.
func (h *handler) serveWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil || h.feed == nil {
		httpError(w, http.StatusServiceUnavailable, errAPI, "live dashboard feed is not running")
		return
	}
	first, err := h.feed.Frame(r.Context(), nil)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws upgrade failed", "error", err)
		return
	}

	client := &notify.Client{Send: make(chan []byte, 256)}
	client.Send <- first
	h.hub.Register(client)
	h.log.Info("ws client connected", "id", client.ID)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer func() {
			ticker.Stop()
			_ = conn.Close()
		}()
		for {
			select {
			case msg, ok := <-client.Send:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if !ok {
					_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	go func() {
		defer func() {
			h.hub.Unregister(client)
			_ = conn.Close()
			h.log.Info("ws client disconnected", "id", client.ID)
		}()
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
