package registry

import (
	"sync"

	"github.com/DoyleJ11/imposter-backend/internal/protocol"
)

// Conn is the transient handle for one websocket. The ws handler drains
// Outbox from a writer goroutine and watches Done to learn the registry
// replaced or released the connection.
type Conn struct {
	playerID string

	outbox chan protocol.Event
	done   chan struct{}
	once   sync.Once
}

func NewConn(buffer int) *Conn {
	return &Conn{
		outbox: make(chan protocol.Event, buffer),
		done:   make(chan struct{}),
	}
}

func (c *Conn) Outbox() <-chan protocol.Event { return c.outbox }
func (c *Conn) Done() <-chan struct{}         { return c.done }

// PlayerID is the identity this connection authenticated as, empty before
// Authenticate.
func (c *Conn) PlayerID() string { return c.playerID }

// Send queues an event without blocking. It reports false when the
// connection is closed or its buffer is full; the caller decides whether
// that is worth logging.
func (c *Conn) Send(evt protocol.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.outbox <- evt:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.once.Do(func() { close(c.done) })
}
