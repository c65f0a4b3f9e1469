package web

import (
	"context"
	"net/http"
	"path/filepath"

	"github.com/coreos/go-systemd/v22/journal"
	dogewifi "github.com/dogeorg/dogewifi/pkg"
	"github.com/dogeorg/dogewifi/pkg/logging"
	"golang.org/x/net/websocket"
)

const logBacklog = 50

// getLogSocket streams the daemon's own log to one client, from the
// journal when it is in use and from the JSON log file otherwise.
func (t *api) getLogSocket(w http.ResponseWriter, r *http.Request) {
	// a failed handshake never reaches Handler
	ctx, cancel := context.WithCancel(t.ctx)
	defer cancel()

	lines, err := t.followLog(ctx)
	if err != nil {
		t.sendError(w, err)
		return
	}

	h := websocket.Server{
		Handler: func(ws *websocket.Conn) {
			conn := newWSCONN(ws)
			go drain(conn)

		out:
			for {
				select {
				case <-conn.Stop:
					break out
				case line, ok := <-lines:
					if !ok {
						break out
					}
					if err := websocket.JSON.Send(ws, line); err != nil {
						t.log.WithError(err).Debug("Error sending log line, closing websocket")
						break out
					}
				}
			}
			conn.Close()
		},
		Config: websocket.Config{Origin: nil},
	}
	h.ServeHTTP(w, r)
}

func (t *api) followLog(ctx context.Context) (<-chan string, error) {
	if t.config.Log.Journal && journal.Enabled() {
		return logging.FollowJournal(ctx, dogewifi.AppName, logBacklog)
	}
	return logging.FollowFile(ctx, filepath.Join(t.config.Log.LogDir, dogewifi.AppName+".log"))
}
