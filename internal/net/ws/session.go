package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// session serializes writes to a single websocket connection.
type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func newSession(conn *websocket.Conn) *session {
	return &session{conn: conn}
}

// writeMessage sends one text frame under the write deadline.
func (s *session) writeMessage(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *session) close() {
	s.conn.Close()
}
