package ws

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeConn records written payloads; a non-nil failErr makes every write
// fail, simulating a dead socket.
type fakeConn struct {
	mu       sync.Mutex
	payloads []interface{}
	failErr  error
	closed   bool
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failErr != nil {
		return c.failErr
	}
	c.payloads = append(c.payloads, v)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) sent() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]interface{}{}, c.payloads...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestRegistryMultiDevice(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	first := &fakeConn{}
	second := &fakeConn{}

	registry.Register("token-1", "alice", first)
	registry.Register("token-2", "alice", second)

	assert.Equal(t, 2, registry.CountByUser("alice"))
	assert.Len(t, registry.FindByUser("alice"), 2)

	userID, last := registry.Unregister(first)
	assert.Equal(t, "alice", userID)
	assert.False(t, last)

	userID, last = registry.Unregister(second)
	assert.Equal(t, "alice", userID)
	assert.True(t, last)
	assert.Zero(t, registry.Len())
}

func TestRegistryRejectsEmptyIdentity(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	assert.Nil(t, registry.Register("", "alice", &fakeConn{}))
	assert.Nil(t, registry.Register("token-1", "", &fakeConn{}))
	assert.Zero(t, registry.Len())
}

func TestRegistryUnregisterUnknown(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	userID, last := registry.Unregister(&fakeConn{})
	assert.Empty(t, userID)
	assert.False(t, last)
}

func TestRegistryFindByToken(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	conn := &fakeConn{}
	registry.Register("token-1", "alice", conn)

	found := registry.FindByToken("token-1")
	require.NotNil(t, found)
	assert.Equal(t, "alice", found.UserID)

	assert.Nil(t, registry.FindByToken("missing"))
}

func TestRegistrySendToUserEvictsDead(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	alive := &fakeConn{}
	dead := &fakeConn{failErr: errors.New("broken pipe")}

	registry.Register("token-1", "alice", alive)
	registry.Register("token-2", "alice", dead)
	registry.Register("token-3", "bob", &fakeConn{})

	registry.SendToUser("alice", "ping")

	assert.Len(t, alive.sent(), 1)
	assert.Equal(t, 1, registry.CountByUser("alice"))
	assert.Equal(t, 2, registry.Len())
}

func TestRegistryBroadcast(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	first := &fakeConn{}
	second := &fakeConn{}
	registry.Register("token-1", "alice", first)
	registry.Register("token-2", "bob", second)

	registry.Broadcast("ping")

	assert.Len(t, first.sent(), 1)
	assert.Len(t, second.sent(), 1)
}

func TestRegistrySendEvictsOnError(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	dead := &fakeConn{failErr: errors.New("broken pipe")}
	entry := registry.Register("token-1", "alice", dead)

	err := registry.Send(entry, "ping")
	assert.Error(t, err)
	assert.Zero(t, registry.Len())
}

func TestRegistryConcurrentAccess(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			conn := &fakeConn{}
			registry.Register("token", "alice", conn)
			registry.SendToUser("alice", i)
			registry.Broadcast(i)
			registry.Unregister(conn)
		}(i)
	}
	wg.Wait()

	assert.Zero(t, registry.Len())
}
