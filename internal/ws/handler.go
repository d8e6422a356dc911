// Package ws bridges websocket connections to the registry and the room
// actors: it accepts the socket, runs the auth handshake, decodes intent
// envelopes, and forwards them to whichever actor owns the state.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DoyleJ11/imposter-backend/internal/game"
	"github.com/DoyleJ11/imposter-backend/internal/hub"
	"github.com/DoyleJ11/imposter-backend/internal/protocol"
	"github.com/DoyleJ11/imposter-backend/internal/registry"
	"github.com/DoyleJ11/imposter-backend/internal/room"
)

const writeTimeout = 3 * time.Second
const maxChatLength = 500

type Deps struct {
	Hub      *hub.Hub
	Registry *registry.Registry
	Limits   game.Limits
	Logger   *zap.Logger
}

func Handler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sock, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer sock.Close(websocket.StatusNormalClosure, "bye")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		conn := registry.NewConn(32)
		s := &session{
			deps: deps,
			conn: conn,
			sock: sock,
			ctx:  ctx,
			log:  deps.Logger,
		}

		// Writer goroutine: drains the outbox the actors fan events into.
		go s.writeLoop()
		// The registry closes Done when this connection is replaced by a
		// reconnect; stop reading so the old socket winds down.
		go func() {
			select {
			case <-conn.Done():
				cancel()
			case <-ctx.Done():
			}
		}()

		s.readLoop()

		if s.player != nil {
			deps.Registry.Detach(s.player.ID, conn)
		}
	}
}

type session struct {
	deps Deps
	conn *registry.Conn
	sock *websocket.Conn
	ctx  context.Context
	log  *zap.Logger

	player *registry.Player
}

func (s *session) writeLoop() {
	for {
		select {
		case <-s.ctx.Done():
			return
		case evt := <-s.conn.Outbox():
			payload, err := protocol.MarshalEnvelope(evt)
			if err != nil {
				s.log.Error("marshalling event", zap.String("event", evt.Type), zap.Error(err))
				continue
			}
			ctx, cancel := context.WithTimeout(s.ctx, writeTimeout)
			_ = s.sock.Write(ctx, websocket.MessageText, payload)
			cancel()
		}
	}
}

func (s *session) readLoop() {
	for {
		_, data, err := s.sock.Read(s.ctx)
		if err != nil {
			// Clean close, going-away, and plain drops all take the same
			// path: the grace-period supervisor owns what happens next.
			return
		}

		var env protocol.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			s.conn.Send(protocol.ErrorEvent(protocol.CodeInvalidPayload, "malformed envelope"))
			continue
		}
		s.dispatch(env)
	}
}

func (s *session) dispatch(env protocol.Envelope) {
	if s.player == nil && env.Type != protocol.IntentAuth {
		s.conn.Send(protocol.ErrorEvent(protocol.CodeNotAuthenticated, "authenticate first"))
		return
	}

	switch env.Type {
	case protocol.IntentAuth:
		s.handleAuth(env.Payload)
	case protocol.IntentGetRooms:
		s.handleGetRooms()
	case protocol.IntentCreateRoom:
		s.handleCreateRoom(env.Payload)
	case protocol.IntentJoinRoom:
		s.handleJoinRoom(env.Payload)
	case protocol.IntentLeaveRoom, protocol.IntentLeaveGame:
		if rm := s.currentRoom(); rm != nil {
			rm.Inbox() <- room.Leave{PlayerID: s.player.ID}
		}
	case protocol.IntentSetReady:
		var p protocol.SetReadyPayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.SetReady{PlayerID: s.player.ID, Ready: p.Ready})
		}
	case protocol.IntentStartGame:
		s.toRoom(room.Start{PlayerID: s.player.ID})
	case protocol.IntentMovePlayer:
		var p protocol.MovePayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.Move{PlayerID: s.player.ID, Position: p.Position, Rotation: p.Rotation})
		}
	case protocol.IntentCompleteTask:
		var p protocol.CompleteTaskPayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.CompleteTask{PlayerID: s.player.ID, TaskID: p.TaskID})
		}
	case protocol.IntentKillPlayer:
		var p protocol.KillPayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.Kill{PlayerID: s.player.ID, TargetID: p.TargetID, Location: p.Location})
		}
	case protocol.IntentReportBody:
		var p protocol.ReportBodyPayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.ReportBody{PlayerID: s.player.ID, BodyID: p.BodyID})
		}
	case protocol.IntentCallEmergency:
		s.toRoom(room.CallEmergency{PlayerID: s.player.ID})
	case protocol.IntentCastVote:
		var p protocol.CastVotePayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.CastVote{PlayerID: s.player.ID, TargetID: p.TargetID})
		}
	case protocol.IntentChatMessage:
		var p protocol.ChatPayload
		if !s.decode(env.Payload, &p) {
			return
		}
		if p.Message == "" || len(p.Message) > maxChatLength {
			s.conn.Send(protocol.ErrorEvent(protocol.CodeInvalidPayload, "message empty or too long"))
			return
		}
		s.toRoom(room.Chat{PlayerID: s.player.ID, Message: p.Message})
	case protocol.IntentTriggerSabotage:
		var p protocol.SabotagePayload
		if s.decode(env.Payload, &p) {
			s.toRoom(room.Sabotage{PlayerID: s.player.ID, SabotageType: p.SabotageType})
		}
	default:
		s.conn.Send(protocol.ErrorEvent(protocol.CodeInvalidPayload, "unknown message type"))
	}
}

func (s *session) handleAuth(raw json.RawMessage) {
	var p protocol.AuthPayload
	if !s.decode(raw, &p) {
		return
	}
	player, reconnected, err := s.deps.Registry.Authenticate(s.conn, registry.Claim{
		UserID:   p.UserID,
		Username: p.Username,
		Avatar:   p.Avatar,
		Guest:    p.IsGuest,
	})
	if err != nil {
		// Rejected with an explicit event, never a dropped connection.
		s.conn.Send(protocol.ErrorEvent(protocol.CodeInvalidPayload, "invalid identity claim"))
		return
	}
	s.player = player
	s.log = s.deps.Logger.With(zap.String("player", player.ID))
	s.conn.Send(protocol.NewEvent(protocol.EventAuthSuccess, protocol.AuthSuccessPayload{PlayerID: player.ID}))

	if reconnected {
		if rm := s.currentRoom(); rm != nil {
			rm.Inbox() <- room.Rejoin{PlayerID: player.ID}
		}
	}
}

func (s *session) handleGetRooms() {
	reply := make(chan []protocol.RoomSummary, 1)
	s.deps.Hub.Inbox() <- hub.ListRooms{Reply: reply}
	s.conn.Send(protocol.NewEvent(protocol.EventRoomList, protocol.RoomListPayload{Rooms: <-reply}))
}

func (s *session) handleCreateRoom(raw json.RawMessage) {
	var p protocol.CreateRoomPayload
	if !s.decode(raw, &p) {
		return
	}
	settings := game.Settings{
		MaxPlayers:        p.MaxPlayers,
		ImposterCount:     p.ImposterCount,
		PoliceCount:       p.PoliceCount,
		TaskCount:         p.TaskCount,
		EmergencyMeetings: p.EmergencyMeetings,
		DiscussionTime:    p.DiscussionTime,
		VotingTime:        p.VotingTime,
	}
	if err := settings.Validate(s.deps.Limits); err != nil {
		s.conn.Send(protocol.ErrorEvent(protocol.CodeInvalidSettings, err.Error()))
		return
	}

	var hash []byte
	if p.Password != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			s.conn.Send(protocol.ErrorEvent(protocol.CodeInternal, "could not create room"))
			return
		}
		hash = h
	}

	// One seat per identity: leave any current room first.
	if rm := s.currentRoom(); rm != nil {
		rm.Inbox() <- room.Leave{PlayerID: s.player.ID}
	}

	reply := make(chan *room.Room, 1)
	s.deps.Hub.Inbox() <- hub.CreateRoom{
		Host:         s.player,
		Name:         p.Name,
		PasswordHash: hash,
		Settings:     settings,
		Reply:        reply,
	}
	if <-reply == nil {
		s.conn.Send(protocol.ErrorEvent(protocol.CodeInternal, "could not create room"))
	}
}

func (s *session) handleJoinRoom(raw json.RawMessage) {
	var p protocol.JoinRoomPayload
	if !s.decode(raw, &p) {
		return
	}
	reply := make(chan *room.Room, 1)
	s.deps.Hub.Inbox() <- hub.GetRoom{Code: p.RoomCode, Reply: reply}
	rm := <-reply
	if rm == nil {
		s.conn.Send(protocol.ErrorEvent(protocol.CodeRoomNotFound, "room not found"))
		return
	}

	if current := s.currentRoom(); current != nil && current != rm {
		current.Inbox() <- room.Leave{PlayerID: s.player.ID}
	}

	errReply := make(chan error, 1)
	rm.Inbox() <- room.Join{Player: s.player, Password: p.Password, Reply: errReply}
	switch err := <-errReply; err {
	case nil:
	case room.ErrRoomFull:
		s.conn.Send(protocol.ErrorEvent(protocol.CodeRoomFull, "room is full"))
	case room.ErrWrongPassword:
		s.conn.Send(protocol.ErrorEvent(protocol.CodeWrongPassword, "wrong password"))
	case room.ErrGameAlreadyStarted:
		s.conn.Send(protocol.ErrorEvent(protocol.CodeGameAlreadyStarted, "game already started"))
	default:
		s.conn.Send(protocol.ErrorEvent(protocol.CodeInternal, err.Error()))
	}
}

// toRoom forwards an intent to the player's current room, or reports that
// they have none.
func (s *session) toRoom(msg room.Msg) {
	rm := s.currentRoom()
	if rm == nil {
		s.conn.Send(protocol.ErrorEvent(protocol.CodeNotInRoom, "not in a room"))
		return
	}
	rm.Inbox() <- msg
}

func (s *session) currentRoom() *room.Room {
	reply := make(chan *room.Room, 1)
	s.deps.Hub.Inbox() <- hub.GetRoomByPlayer{PlayerID: s.player.ID, Reply: reply}
	return <-reply
}

func (s *session) decode(raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		s.conn.Send(protocol.ErrorEvent(protocol.CodeInvalidPayload, "malformed payload"))
		return false
	}
	return true
}
