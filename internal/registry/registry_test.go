package registry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/imposter-backend/internal/protocol"
)

func recvEvent(t *testing.T, c *Conn, within time.Duration) protocol.Event {
	t.Helper()
	select {
	case evt := <-c.Outbox():
		return evt
	case <-time.After(within):
		t.Fatalf("timed out waiting for event")
		return protocol.Event{} // unreachable
	}
}

func drainType(t *testing.T, c *Conn, eventType string, within time.Duration) protocol.Event {
	t.Helper()
	deadline := time.After(within)
	for {
		select {
		case evt := <-c.Outbox():
			if evt.Type == eventType {
				return evt
			}
		case <-deadline:
			t.Fatalf("no %q event within %v", eventType, within)
		}
	}
}

func TestAuthenticate_NewIdentity(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))
	conn := NewConn(8)

	p, reconnected, err := r.Authenticate(conn, Claim{UserID: "42", Username: "kerem", Avatar: "a.png"})
	require.NoError(t, err)
	assert.False(t, reconnected)
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "kerem", p.Username)

	got, ok := r.Resolve("42")
	require.True(t, ok)
	assert.Same(t, conn, got)

	evt := recvEvent(t, conn, time.Second)
	assert.Equal(t, protocol.EventOnlineCount, evt.Type)
	assert.Equal(t, protocol.OnlineCountPayload{Count: 1}, evt.Payload)
}

func TestAuthenticate_GuestGetsGeneratedID(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))

	p, _, err := r.Authenticate(NewConn(8), Claim{Username: "guest one", Guest: true})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.True(t, p.Guest)
}

func TestAuthenticate_RejectsMalformedClaims(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))

	cases := []Claim{
		{UserID: "1", Username: ""},
		{UserID: "1", Username: "   "},
		{UserID: "1", Username: "this display name is far longer than thirty two characters"},
		{UserID: "", Username: "x", Guest: false},
	}
	for _, claim := range cases {
		_, _, err := r.Authenticate(NewConn(1), claim)
		assert.ErrorIs(t, err, ErrBadClaim, "claim %+v", claim)
	}
}

func TestAuthenticate_LiveReplacementIsReconnect(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))

	old := NewConn(8)
	_, _, err := r.Authenticate(old, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)

	// The client comes back before the server ever saw the old socket die:
	// still a reconnect, so the caller replays room state.
	fresh := NewConn(8)
	_, reconnected, err := r.Authenticate(fresh, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)
	assert.True(t, reconnected)

	select {
	case <-old.Done():
	default:
		t.Fatal("replaced connection was not closed")
	}
	got, ok := r.Resolve("42")
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestAuthenticate_ProfileFixedAtFirstAuth(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))

	p1, _, err := r.Authenticate(NewConn(8), Claim{UserID: "42", Username: "kerem", Avatar: "a.png"})
	require.NoError(t, err)

	// Room actors read the shared record without the registry lock, so a
	// later claim must not rewrite it.
	p2, _, err := r.Authenticate(NewConn(8), Claim{UserID: "42", Username: "someone else", Avatar: "b.png"})
	require.NoError(t, err)
	assert.Same(t, p1, p2)
	assert.Equal(t, "kerem", p2.Username)
	assert.Equal(t, "a.png", p2.Avatar)
}

func TestDetach_ArmsEvictionAndReattachCancels(t *testing.T) {
	r := New(40*time.Millisecond, zaptest.NewLogger(t))
	evicted := make(chan string, 1)
	r.SetEvictionHandler(func(id string) { evicted <- id })

	conn := NewConn(8)
	_, _, err := r.Authenticate(conn, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)

	r.Detach("42", conn)
	_, ok := r.Resolve("42")
	assert.False(t, ok)

	// Reattach within the grace period: eviction must not fire.
	conn2 := NewConn(8)
	_, reconnected, err := r.Authenticate(conn2, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)
	assert.True(t, reconnected)

	select {
	case id := <-evicted:
		t.Fatalf("player %s evicted despite reconnect", id)
	case <-time.After(120 * time.Millisecond):
	}
}

func TestDetach_EvictsAfterGracePeriod(t *testing.T) {
	r := New(30*time.Millisecond, zaptest.NewLogger(t))
	evicted := make(chan string, 1)
	r.SetEvictionHandler(func(id string) { evicted <- id })

	conn := NewConn(8)
	_, _, err := r.Authenticate(conn, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)
	r.Detach("42", conn)

	select {
	case id := <-evicted:
		assert.Equal(t, "42", id)
	case <-time.After(time.Second):
		t.Fatal("eviction never fired")
	}

	// Identity record is gone; a fresh auth is a brand new player.
	_, reconnected, err := r.Authenticate(NewConn(8), Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)
	assert.False(t, reconnected)
}

func TestDetach_StaleConnectionIgnored(t *testing.T) {
	r := New(20*time.Millisecond, zaptest.NewLogger(t))
	evicted := make(chan string, 1)
	r.SetEvictionHandler(func(id string) { evicted <- id })

	old := NewConn(8)
	_, _, err := r.Authenticate(old, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)

	// Reconnect replaces the connection, then the old socket closes late.
	fresh := NewConn(8)
	_, _, err = r.Authenticate(fresh, Claim{UserID: "42", Username: "kerem"})
	require.NoError(t, err)
	r.Detach("42", old)

	got, ok := r.Resolve("42")
	require.True(t, ok, "stale detach must not unbind the fresh connection")
	assert.Same(t, fresh, got)

	select {
	case <-evicted:
		t.Fatal("stale detach armed an eviction timer")
	case <-time.After(80 * time.Millisecond):
	}
}

func TestSend_SkipsAbsentConnections(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))
	// Never attached: must not panic or error.
	r.Send("nobody", protocol.NewEvent(protocol.EventChatMessage, nil))
}

func TestOnlineCount_BroadcastOnDetach(t *testing.T) {
	r := New(time.Minute, zaptest.NewLogger(t))

	c1 := NewConn(8)
	c2 := NewConn(8)
	_, _, err := r.Authenticate(c1, Claim{UserID: "1", Username: "a"})
	require.NoError(t, err)
	_, _, err = r.Authenticate(c2, Claim{UserID: "2", Username: "b"})
	require.NoError(t, err)

	r.Detach("2", c2)
	evt := drainType(t, c1, protocol.EventOnlineCount, time.Second)
	last := evt
	for {
		select {
		case e := <-c1.Outbox():
			if e.Type == protocol.EventOnlineCount {
				last = e
			}
			continue
		default:
		}
		break
	}
	assert.Equal(t, protocol.OnlineCountPayload{Count: 1}, last.Payload)
	assert.Equal(t, 1, r.OnlineCount())
}
