package web

import (
	"context"
	"time"

	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/websocket"
)

const relayBacklog = 64

type WSRelay struct {
	log   logrus.FieldLogger
	socks []*WSCONN
	relay chan dogewifi.Change
	newWs chan *WSCONN
}

func NewWSRelay(log logrus.FieldLogger) *WSRelay {
	return &WSRelay{
		log:   log.WithField("component", "ws"),
		socks: []*WSCONN{},                              // all current connections
		relay: make(chan dogewifi.Change, relayBacklog), // Changes to broadcast
		newWs: make(chan *WSCONN),                       // new WSCONNs
	}
}

// Relay queues a change for broadcast. Changes are dropped rather than
// stalling a connection attempt when nobody keeps up.
func (t *WSRelay) Relay(c dogewifi.Change) {
	select {
	case t.relay <- c:
	default:
		t.log.WithField("type", c.Type).Warn("Websocket relay full, dropping change")
	}
}

func (t *WSRelay) Run(started, stopped chan bool, stop chan context.Context) error {
	cleanupTime := 10 * time.Second
	cleanup := time.NewTimer(cleanupTime)
	go func() {
		started <- true
	mainloop:
		for {
			select {
			case <-stop:
				break mainloop
			case ws := <-t.newWs:
				t.addSock(ws)
			case v := <-t.relay:
				t.broadcast(v)
			case <-cleanup.C:
				t.cleanupSocks()
				cleanup.Reset(cleanupTime)
			}
		}

		cleanup.Stop()
		for _, sock := range t.socks {
			sock.Close()
		}
		stopped <- true
	}()
	return nil
}

func (t *WSRelay) cleanupSocks() {
	remaining := []*WSCONN{}
	for _, s := range t.socks {
		if s.IsClosed() {
			continue
		}
		remaining = append(remaining, s)
	}
	t.socks = remaining
}

func (t *WSRelay) broadcast(v any) {
	for _, ws := range t.socks {
		if ws.IsClosed() {
			continue
		}
		err := websocket.JSON.Send(ws.WS, v)
		if err != nil {
			ws.Close()
		}
	}
}

func (t *WSRelay) addSock(ws *WSCONN) {
	t.socks = append(t.socks, ws)
}

func (t *WSRelay) GetWSHandler(initialPayloader func() any) *websocket.Server {
	config := &websocket.Config{
		Origin: nil,
	}
	h := websocket.Server{
		Handler: func(ws *websocket.Conn) {
			conn := newWSCONN(ws)

			err := websocket.JSON.Send(ws, initialPayloader())
			if err != nil {
				t.log.WithError(err).Debug("failed to send initial payload")
				return
			}

			t.newWs <- conn
			go drain(conn)
			<-conn.Stop // hold the connection until stopper closes
		},
		Config: *config,
	}
	return &h
}
