// Package registry maps durable player identities to their current live
// connection. It is the only structure touched from every room's handling
// path, so it is internally synchronized; rooms and sessions never are.
package registry

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/protocol"
)

var ErrBadClaim = errors.New("malformed identity claim")

const maxNameLength = 32

// Claim is what the identity bridge (Telegram or guest login) supplies.
type Claim struct {
	UserID   string
	Username string
	Avatar   string
	Guest    bool
}

// Player is a durable identity record. It outlives any one connection and
// is shared by reference with room rosters, which read it without holding
// the registry lock, so the record is immutable after creation: the
// first-auth profile sticks for the identity's lifetime.
type Player struct {
	ID       string
	Username string
	Avatar   string
	Guest    bool
}

// Registry owns the identity->connection map and the per-player eviction
// timers that implement the disconnect grace period.
type Registry struct {
	mu      sync.Mutex
	players map[string]*Player
	conns   map[string]*Conn
	timers  map[string]*time.Timer

	grace   time.Duration
	onEvict func(playerID string)
	log     *zap.Logger
}

func New(grace time.Duration, log *zap.Logger) *Registry {
	return &Registry{
		players: make(map[string]*Player),
		conns:   make(map[string]*Conn),
		timers:  make(map[string]*time.Timer),
		grace:   grace,
		log:     log,
	}
}

// SetEvictionHandler wires the callback invoked when a grace period expires
// without a reconnect. Must be called before any connection attaches.
func (r *Registry) SetEvictionHandler(fn func(playerID string)) {
	r.onEvict = fn
}

// Authenticate binds a connection to the claimed identity. An existing
// identity gets its connection replaced and any pending eviction cancelled;
// reconnected reports both cases so the caller can replay room state. The
// replay matters even when the old connection was still live: the client
// may have lost its state without the server noticing the drop.
func (r *Registry) Authenticate(conn *Conn, claim Claim) (p *Player, reconnected bool, err error) {
	name := strings.TrimSpace(claim.Username)
	if name == "" || len(name) > maxNameLength {
		return nil, false, ErrBadClaim
	}
	id := strings.TrimSpace(claim.UserID)
	if id == "" {
		if !claim.Guest {
			return nil, false, ErrBadClaim
		}
		id = uuid.NewString()
	}

	r.mu.Lock()
	player, exists := r.players[id]
	if exists {
		// Reconnect or takeover: the old connection is replaced, never
		// merged. The identity record keeps its seat and its profile.
		if old := r.conns[id]; old != nil && old != conn {
			old.close()
		}
		if timer, ok := r.timers[id]; ok {
			timer.Stop()
			delete(r.timers, id)
		}
		reconnected = true
	} else {
		player = &Player{ID: id, Username: name, Avatar: claim.Avatar, Guest: claim.Guest}
		r.players[id] = player
	}
	r.conns[id] = conn
	conn.playerID = id
	r.mu.Unlock()

	r.broadcastOnlineCount()
	return player, reconnected, nil
}

// Detach clears the identity's connection and arms the eviction timer. A
// stale detach from an already-replaced connection is ignored, so a quick
// reconnect never loses its seat to the old socket's close.
func (r *Registry) Detach(playerID string, conn *Conn) {
	r.mu.Lock()
	if r.conns[playerID] != conn {
		r.mu.Unlock()
		return
	}
	delete(r.conns, playerID)
	conn.close()
	if timer, ok := r.timers[playerID]; ok {
		timer.Stop()
	}
	r.timers[playerID] = time.AfterFunc(r.grace, func() { r.expire(playerID) })
	r.mu.Unlock()

	r.log.Debug("connection detached", zap.String("player", playerID), zap.Duration("grace", r.grace))
	r.broadcastOnlineCount()
}

func (r *Registry) expire(playerID string) {
	r.mu.Lock()
	if _, connected := r.conns[playerID]; connected {
		// Reconnected while the timer was firing.
		r.mu.Unlock()
		return
	}
	if _, ok := r.timers[playerID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.timers, playerID)
	delete(r.players, playerID)
	r.mu.Unlock()

	r.log.Info("player evicted after grace period", zap.String("player", playerID))
	if r.onEvict != nil {
		r.onEvict(playerID)
	}
}

// Resolve returns the identity's live connection, if any.
func (r *Registry) Resolve(playerID string) (*Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[playerID]
	return c, ok
}

// Send delivers an event to one player, silently skipping absent
// connections: an offline roster member is never an error.
func (r *Registry) Send(playerID string, evt protocol.Event) {
	if conn, ok := r.Resolve(playerID); ok {
		if !conn.Send(evt) {
			r.log.Warn("dropping event for slow client",
				zap.String("player", playerID), zap.String("event", evt.Type))
		}
	}
}

// OnlineCount is the number of identities with a live connection.
func (r *Registry) OnlineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

func (r *Registry) broadcastOnlineCount() {
	r.mu.Lock()
	count := len(r.conns)
	targets := make([]*Conn, 0, count)
	for _, c := range r.conns {
		targets = append(targets, c)
	}
	r.mu.Unlock()

	evt := protocol.NewEvent(protocol.EventOnlineCount, protocol.OnlineCountPayload{Count: count})
	for _, c := range targets {
		c.Send(evt)
	}
}
