package room

import (
	"encoding/json"
	"errors"

	"github.com/DoyleJ11/imposter-backend/internal/game"
	"github.com/DoyleJ11/imposter-backend/internal/protocol"
	"github.com/DoyleJ11/imposter-backend/internal/registry"
)

var ErrRoomFull = errors.New("room is full")
var ErrWrongPassword = errors.New("wrong password")
var ErrGameAlreadyStarted = errors.New("game already started")

// Msg is the closed set of messages a room actor accepts. Everything that
// touches room or session state goes through the inbox, including the
// timer callbacks, so per-room mutations are serialized by construction.
type Msg interface{ isRoomMsg() }

type Join struct {
	Player   *registry.Player
	Password string
	Reply    chan error
}

// Rejoin replays the current room (and game) snapshot to a player whose
// connection dropped and came back within the grace period.
type Rejoin struct {
	PlayerID string
}

type Leave struct {
	PlayerID string
	Evicted  bool
}

type SetReady struct {
	PlayerID string
	Ready    bool
}

type Start struct {
	PlayerID string
}

type Move struct {
	PlayerID string
	Position json.RawMessage
	Rotation json.RawMessage
}

type Chat struct {
	PlayerID string
	Message  string
}

type CompleteTask struct {
	PlayerID string
	TaskID   string
}

type Kill struct {
	PlayerID string
	TargetID string
	Location string
}

type ReportBody struct {
	PlayerID string
	BodyID   string
}

type CallEmergency struct {
	PlayerID string
}

type CastVote struct {
	PlayerID string
	TargetID string
}

type Sabotage struct {
	PlayerID     string
	SabotageType string
}

type Shutdown struct{}

// GetView reflects internal state without data races; test-only.
type GetView struct {
	Reply chan View
}

type View struct {
	Code         string
	State        Lifecycle
	Host         string
	Roster       []string
	Ready        map[string]bool
	SessionState game.State
	Roles        map[string]game.Role
}

// Timer fires are posted back into the inbox tagged with the generation
// that armed them; a stale fire after an early transition is dropped.
type startFired struct{ gen int }
type meetingFired struct{ gen int }

func (Join) isRoomMsg()          {}
func (Rejoin) isRoomMsg()        {}
func (Leave) isRoomMsg()         {}
func (SetReady) isRoomMsg()      {}
func (Start) isRoomMsg()         {}
func (Move) isRoomMsg()          {}
func (Chat) isRoomMsg()          {}
func (CompleteTask) isRoomMsg()  {}
func (Kill) isRoomMsg()          {}
func (ReportBody) isRoomMsg()    {}
func (CallEmergency) isRoomMsg() {}
func (CastVote) isRoomMsg()      {}
func (Sabotage) isRoomMsg()      {}
func (Shutdown) isRoomMsg()      {}
func (GetView) isRoomMsg()       {}
func (startFired) isRoomMsg()    {}
func (meetingFired) isRoomMsg()  {}

// Directory is the hub surface a room needs: membership bookkeeping,
// browse-list summaries, and release on empty or ended rooms.
type Directory interface {
	RoomUpdated(code string, summary protocol.RoomSummary)
	MemberJoined(code, playerID string)
	MemberLeft(code, playerID string)
	ReleaseRoom(code string)
}
