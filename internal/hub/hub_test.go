package hub

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/imposter-backend/internal/game"
	"github.com/DoyleJ11/imposter-backend/internal/protocol"
	"github.com/DoyleJ11/imposter-backend/internal/registry"
	"github.com/DoyleJ11/imposter-backend/internal/room"
)

func newTestHub(t *testing.T) (*Hub, *registry.Registry) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	reg := registry.New(time.Minute, zaptest.NewLogger(t))
	return NewHub(ctx, Config{Registry: reg, Logger: zaptest.NewLogger(t)}), reg
}

func attach(t *testing.T, reg *registry.Registry, id string) *registry.Player {
	t.Helper()
	p, _, err := reg.Authenticate(registry.NewConn(64), registry.Claim{UserID: id, Username: id})
	require.NoError(t, err)
	return p
}

func createRoom(t *testing.T, h *Hub, host *registry.Player, settings game.Settings) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- CreateRoom{Host: host, Name: "test", Settings: settings, Reply: reply}
	select {
	case rm := <-reply:
		require.NotNil(t, rm)
		return rm
	case <-time.After(time.Second):
		t.Fatal("create_room: no reply")
		return nil
	}
}

func getRoom(t *testing.T, h *Hub, code string) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoom{Code: code, Reply: reply}
	select {
	case rm := <-reply:
		return rm
	case <-time.After(time.Second):
		t.Fatal("get_room: no reply")
		return nil
	}
}

func getRoomByPlayer(t *testing.T, h *Hub, playerID string) *room.Room {
	t.Helper()
	reply := make(chan *room.Room, 1)
	h.Inbox() <- GetRoomByPlayer{PlayerID: playerID, Reply: reply}
	select {
	case rm := <-reply:
		return rm
	case <-time.After(time.Second):
		t.Fatal("get_room_by_player: no reply")
		return nil
	}
}

func listRooms(t *testing.T, h *Hub) []protocol.RoomSummary {
	t.Helper()
	reply := make(chan []protocol.RoomSummary, 1)
	h.Inbox() <- ListRooms{Reply: reply}
	select {
	case list := <-reply:
		return list
	case <-time.After(time.Second):
		t.Fatal("get_rooms: no reply")
		return nil
	}
}

func defaultSettings() game.Settings {
	return game.Settings{
		MaxPlayers:        6,
		ImposterCount:     1,
		TaskCount:         3,
		EmergencyMeetings: 1,
		DiscussionTime:    30,
		VotingTime:        30,
	}
}

func TestHub_CreateAndLookupRoom(t *testing.T) {
	h, reg := newTestHub(t)
	host := attach(t, reg, "host")

	rm := createRoom(t, h, host, defaultSettings())
	assert.Len(t, rm.Code(), codeLength)
	for _, c := range rm.Code() {
		assert.Contains(t, codeCharset, string(c))
	}

	assert.Same(t, rm, getRoom(t, h, rm.Code()))
	assert.Nil(t, getRoom(t, h, "NOSUCH"))
	assert.Same(t, rm, getRoomByPlayer(t, h, "host"), "creator is seated immediately")
	assert.Nil(t, getRoomByPlayer(t, h, "stranger"))
}

func TestHub_CreatedRoomsHaveDistinctCodes(t *testing.T) {
	h, reg := newTestHub(t)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		host := attach(t, reg, "host-"+strings.Repeat("x", i+1))
		rm := createRoom(t, h, host, defaultSettings())
		assert.False(t, seen[rm.Code()], "duplicate code %s", rm.Code())
		seen[rm.Code()] = true
	}
}

func TestHub_ListRoomsTracksSummaries(t *testing.T) {
	h, reg := newTestHub(t)
	host := attach(t, reg, "host")
	rm := createRoom(t, h, host, defaultSettings())

	// The room pushes its first summary from its own goroutine.
	require.Eventually(t, func() bool {
		for _, s := range listRooms(t, h) {
			if s.Code == rm.Code() {
				return s.CurrentPlayers == 1 && s.MaxPlayers == 6
			}
		}
		return false
	}, 2*time.Second, 10*time.Millisecond)

	// The last member leaving releases the room and clears the listing.
	rm.Inbox() <- room.Leave{PlayerID: "host"}
	require.Eventually(t, func() bool {
		return len(listRooms(t, h)) == 0 && getRoom(t, h, rm.Code()) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_EvictPlayerFreesSeat(t *testing.T) {
	h, reg := newTestHub(t)
	host := attach(t, reg, "host")
	rm := createRoom(t, h, host, defaultSettings())

	h.Inbox() <- EvictPlayer{PlayerID: "host"}

	require.Eventually(t, func() bool {
		return getRoomByPlayer(t, h, "host") == nil && getRoom(t, h, rm.Code()) == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHub_EvictUnknownPlayerIsNoop(t *testing.T) {
	h, _ := newTestHub(t)
	h.Inbox() <- EvictPlayer{PlayerID: "ghost"}
	assert.Empty(t, listRooms(t, h))
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code, err := generateCode()
		require.NoError(t, err)
		assert.Len(t, code, codeLength)
		for _, c := range code {
			assert.Contains(t, codeCharset, string(c))
		}
	}
}
