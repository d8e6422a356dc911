// Package protocol defines the wire format shared by the websocket layer
// and the room/hub actors: one JSON envelope per frame, a closed set of
// client intent types and server event types, and the payload structs for
// each of them.
package protocol

import "encoding/json"

// Envelope is the outer frame for every message in either direction.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a server->client message before marshalling. The writer
// goroutine owns turning it into an Envelope.
type Event struct {
	Type    string
	Payload any
}

func NewEvent(eventType string, payload any) Event {
	return Event{Type: eventType, Payload: payload}
}

// MarshalEnvelope flattens an Event into the single-frame wire form.
func MarshalEnvelope(evt Event) ([]byte, error) {
	var raw json.RawMessage
	if evt.Payload != nil {
		b, err := json.Marshal(evt.Payload)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Envelope{Type: evt.Type, Payload: raw})
}

// Client -> server intent types.
const (
	IntentAuth            = "auth"
	IntentGetRooms        = "get_rooms"
	IntentCreateRoom      = "create_room"
	IntentJoinRoom        = "join_room"
	IntentLeaveRoom       = "leave_room"
	IntentSetReady        = "set_ready"
	IntentStartGame       = "start_game"
	IntentMovePlayer      = "move_player"
	IntentCompleteTask    = "complete_task"
	IntentKillPlayer      = "kill_player"
	IntentReportBody      = "report_body"
	IntentCallEmergency   = "call_emergency"
	IntentCastVote        = "cast_vote"
	IntentChatMessage     = "chat_message"
	IntentTriggerSabotage = "trigger_sabotage"
	IntentLeaveGame       = "leave_game"
)

// Server -> client event types.
const (
	EventAuthSuccess       = "auth_success"
	EventRoomList          = "room_list"
	EventRoomCreated       = "room_created"
	EventRoomJoined        = "room_joined"
	EventRoomUpdated       = "room_updated"
	EventPlayerJoined      = "player_joined"
	EventPlayerLeft        = "player_left"
	EventPlayerReady       = "player_ready"
	EventGameStarting      = "game_starting"
	EventGameStarted       = "game_started"
	EventRoleAssigned      = "role_assigned"
	EventPlayerMoved       = "player_moved"
	EventPlayerKilled      = "player_killed"
	EventBodyReported      = "body_reported"
	EventEmergencyCalled   = "emergency_called"
	EventMeetingStarted    = "meeting_started"
	EventChatMessage       = "chat_message"
	EventVoteCast          = "vote_cast"
	EventVotingEnded       = "voting_ended"
	EventPlayerEjected     = "player_ejected"
	EventTaskCompleted     = "task_completed"
	EventSabotageTriggered = "sabotage_triggered"
	EventGameEnded         = "game_ended"
	EventOnlineCount       = "online_count"
	EventError             = "error"
)

// Stable error codes carried by EventError payloads.
const (
	CodeInvalidPayload      = "invalid_payload"
	CodeInvalidSettings     = "invalid_settings"
	CodeRoomNotFound        = "room_not_found"
	CodeRoomFull            = "room_full"
	CodeWrongPassword       = "wrong_password"
	CodeGameAlreadyStarted  = "game_already_started"
	CodeNotHost             = "not_host"
	CodeNotAllReady         = "not_all_ready"
	CodeBelowMinimumPlayers = "below_minimum_players"
	CodeNotImposter         = "not_imposter"
	CodeNotAlive            = "not_alive"
	CodeWrongState          = "wrong_state"
	CodeInvalidTarget       = "invalid_target"
	CodeMeetingsExhausted   = "meetings_exhausted"
	CodeNotInRoom           = "not_in_room"
	CodeNotAuthenticated    = "not_authenticated"
	CodeInternal            = "internal_error"
)

func ErrorEvent(code, message string) Event {
	return NewEvent(EventError, ErrorPayload{Code: code, Message: message})
}
