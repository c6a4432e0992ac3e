package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/avvvet/deckvault-services/internal/comm"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

var ErrUnknownSocket = errors.New("unknown socket")

// client serializes writes; gorilla connections allow one concurrent writer.
type client struct {
	conn    *websocket.Conn
	ownerID int64
	mu      sync.Mutex
}

func (c *client) writeJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

// handle socket message from web clients
func (s *Ws) SocketMessage(socketId string, message *comm.Envelope) {
	switch message.Type {
	case comm.TypePing:
		if err := s.Send(socketId, &comm.Envelope{Type: comm.TypePong, SocketId: socketId}); err != nil {
			log.Warnf("pong to %s failed: %v", socketId, err)
		}
	default:
		log.Warnf("unknown event received: %s", message.Type)
	}
}

func (s *Ws) StoreConnection(socketId string, ownerID int64, conn *websocket.Conn) {
	s.connMap.Store(socketId, &client{conn: conn, ownerID: ownerID})
}

func (s *Ws) GetConnection(socketId string) (*websocket.Conn, bool) {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return nil, false
	}
	return c.(*client).conn, true
}

// OwnerSockets lists the open sockets of one owner.
func (s *Ws) OwnerSockets(ownerID int64) []string {
	var sockets []string
	s.connMap.Range(func(key, value interface{}) bool {
		if value.(*client).ownerID == ownerID {
			sockets = append(sockets, key.(string))
		}
		return true // continue iterating
	})
	return sockets
}

func (s *Ws) Send(socketId string, v interface{}) error {
	c, ok := s.connMap.Load(socketId)
	if !ok {
		return ErrUnknownSocket
	}
	return c.(*client).writeJSON(v)
}

// SendRaw writes an already encoded envelope.
func (s *Ws) SendRaw(socketId string, raw []byte) error {
	return s.Send(socketId, json.RawMessage(raw))
}

func (s *Ws) HandleDisconnect(socketId string) {
	s.connMap.Delete(socketId)
}

func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}
