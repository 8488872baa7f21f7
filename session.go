package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Session is one connected player: a transport handle plus a weak reference
// to whichever room currently holds it. The room owns membership; the
// session only remembers where it is for lookups.
type Session struct {
	id   int
	name string
	sub  *subscriber
	room *Room
}

// ID returns the session's numeric id, which doubles as the player id on the
// wire.
func (s *Session) ID() int { return s.id }

// Name returns the current display name.
func (s *Session) Name() string { return s.name }

// WriteMessage sends a direct response to this session. It shares the
// subscriber's write mutex with hub broadcasts, so responses and broadcasts
// never race on the connection.
func (s *Session) WriteMessage(data []byte) error {
	return s.sub.writeMessage(data)
}

// subscriber serializes writes to one websocket connection. Broadcast fanout
// happens off the simulation path, so each write takes the per-connection
// mutex and a deadline rather than blocking a tick.
type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newSubscriber(conn *websocket.Conn) *subscriber {
	return &subscriber{conn: conn}
}

func (s *subscriber) writeMessage(data []byte) error {
	if s == nil || s.conn == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *subscriber) close() {
	if s == nil || s.conn == nil {
		return
	}
	s.conn.Close()
}

func defaultSessionName(id int) string {
	return fmt.Sprintf("Player%d", id)
}
