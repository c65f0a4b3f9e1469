package web

import (
	"io"
	"net/http"
	"sync"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"golang.org/x/net/websocket"
)

// Represents a websocket connection from a client
type WSCONN struct {
	WS   *websocket.Conn
	Stop chan bool
	once sync.Once
}

func newWSCONN(ws *websocket.Conn) *WSCONN {
	return &WSCONN{WS: ws, Stop: make(chan bool)}
}

func (t *WSCONN) IsClosed() bool {
	select {
	case <-t.Stop:
		return true
	default:
		return false
	}
}

func (t *WSCONN) Close() {
	t.once.Do(func() {
		close(t.Stop)
	})
}

// Handle incoming websocket connections for sequencer state updates
func (t *api) getUpdateSocket(w http.ResponseWriter, r *http.Request) {
	initialPayload := func() any {
		status, err := t.nm.Status(r.Context(), t.config.Interface)
		change := dogewifi.Change{ID: "internal", Type: "bootstrap", Update: status}
		if err != nil {
			change.Error = err.Error()
		}
		return change
	}
	t.ws.GetWSHandler(initialPayload).ServeHTTP(w, r)
}

// drain discards client frames until the client goes away.
func drain(conn *WSCONN) {
	io.Copy(io.Discard, conn.WS)
	conn.Close()
}
