package ws

import (
	"sync"

	"go.uber.org/zap"
)

// Conn is the transport handle the registry fans events out to.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Connection ties one live socket to a session token. Process-local and
// ephemeral.
type Connection struct {
	Token  string
	UserID string
	Conn   Conn
}

// Registry is the authoritative mapping from user id and session token to
// live connections. A single mutex guards all mutation and iteration so a
// fan-out never observes a half-registered entry. Connection churn is not
// the bottleneck here.
type Registry struct {
	mu          sync.Mutex
	connections []*Connection
	log         *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{log: log}
}

// Register adds a connection. Multiple connections per user are allowed:
// an existing entry for the same user is kept and a new one is added.
// Empty token or user id is a no-op; the caller must close the socket.
func (r *Registry) Register(token, userID string, conn Conn) *Connection {
	if token == "" || userID == "" {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entry := &Connection{Token: token, UserID: userID, Conn: conn}
	r.connections = append(r.connections, entry)
	r.log.Debug("connection registered", zap.String("userId", userID), zap.Int("total", len(r.connections)))
	return entry
}

// Unregister removes the entry whose handle matches and reports the owning
// user id plus whether that was the user's last live connection. No-op for
// unknown handles.
func (r *Registry) Unregister(conn Conn) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(conn)
}

func (r *Registry) removeLocked(conn Conn) (string, bool) {
	for i, entry := range r.connections {
		if entry.Conn == conn {
			r.connections = append(r.connections[:i], r.connections[i+1:]...)
			remaining := 0
			for _, other := range r.connections {
				if other.UserID == entry.UserID {
					remaining++
				}
			}
			r.log.Debug("connection unregistered", zap.String("userId", entry.UserID), zap.Int("remaining", remaining))
			return entry.UserID, remaining == 0
		}
	}
	return "", false
}

func (r *Registry) FindByUser(userID string) []*Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	found := []*Connection{}
	for _, entry := range r.connections {
		if entry.UserID == userID {
			found = append(found, entry)
		}
	}
	return found
}

func (r *Registry) FindByToken(token string) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, entry := range r.connections {
		if entry.Token == token {
			return entry
		}
	}
	return nil
}

func (r *Registry) CountByUser(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, entry := range r.connections {
		if entry.UserID == userID {
			count++
		}
	}
	return count
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.connections)
}

// Send writes one payload to one connection under the registry lock, so
// concurrent fan-outs never interleave writes on a socket. A failed write
// evicts the connection.
func (r *Registry) Send(conn *Connection, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := conn.Conn.WriteJSON(payload); err != nil {
		r.removeLocked(conn.Conn)
		return err
	}
	return nil
}

// SendToUser delivers the payload to every live connection of the user.
// Dead sockets are evicted without aborting delivery to the rest.
func (r *Registry) SendToUser(userID string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dead []Conn
	for _, entry := range r.connections {
		if entry.UserID != userID {
			continue
		}
		if err := entry.Conn.WriteJSON(payload); err != nil {
			r.log.Debug("dropping dead connection", zap.String("userId", entry.UserID), zap.Error(err))
			dead = append(dead, entry.Conn)
		}
	}
	for _, conn := range dead {
		r.removeLocked(conn)
	}
}

// Broadcast delivers the payload to every live connection.
func (r *Registry) Broadcast(payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var dead []Conn
	for _, entry := range r.connections {
		if err := entry.Conn.WriteJSON(payload); err != nil {
			r.log.Debug("dropping dead connection", zap.String("userId", entry.UserID), zap.Error(err))
			dead = append(dead, entry.Conn)
		}
	}
	for _, conn := range dead {
		r.removeLocked(conn)
	}
}
