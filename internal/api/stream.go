package api

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/undercurrent/internal/session"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Clients only send control frames.
	maxMessageSize = 512
)

// handleStream upgrades to a websocket and pushes every saved update of one
// session, starting with a snapshot of its current state.
func (s *Server) handleStream(upgrader websocket.Upgrader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		state, err := s.Sessions.Get(id)
		if err != nil {
			writeError(w, err)
			return
		}

		current := atomic.AddInt32(&s.streams, 1)
		if current > maxStreams {
			atomic.AddInt32(&s.streams, -1)
			http.Error(w, "too many streams", http.StatusServiceUnavailable)
			return
		}
		defer atomic.AddInt32(&s.streams, -1)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("websocket upgrade failed", "session", id, "error", err)
			return
		}
		defer conn.Close()

		feed := s.Sessions.Feed()
		subID, ch := feed.Subscribe(id)
		defer feed.Unsubscribe(id, subID)

		slog.Info("stream client connected", "session", id, "sub_id", subID)

		closed := make(chan struct{})
		go readPump(conn, closed)

		snapshot := session.Update{
			SessionID: id,
			Turn:      state.Turn,
			Day:       viewOf(state).Day,
			Phase:     state.Phase,
			Family:    state.Family,
			Decision:  state.CurrentDecision,
			Ending:    state.Ending,
		}
		if err := writeUpdate(conn, snapshot); err != nil {
			return
		}

		ping := time.NewTicker(pingPeriod)
		defer ping.Stop()

		for {
			select {
			case u, ok := <-ch:
				if !ok {
					conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(writeWait))
					return
				}
				if err := writeUpdate(conn, u); err != nil {
					return
				}
			case <-ping.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-closed:
				slog.Info("stream client disconnected", "session", id, "sub_id", subID)
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

// readPump drains the connection so pongs and close frames are processed.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("stream read error", "error", err)
			}
			return
		}
	}
}

func writeUpdate(conn *websocket.Conn, u session.Update) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}
