// Package hub implements the room directory: one actor goroutine owning
// the code->room map, room-code generation, browse-list summaries, and the
// player->room membership index the eviction path needs.
package hub

import (
	"context"
	"crypto/rand"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/imposter-backend/internal/game"
	"github.com/DoyleJ11/imposter-backend/internal/protocol"
	"github.com/DoyleJ11/imposter-backend/internal/registry"
	"github.com/DoyleJ11/imposter-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Host         *registry.Player
	Name         string
	PasswordHash []byte
	Settings     game.Settings
	Reply        chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

// GetRoomByPlayer resolves the room a player is currently seated in, nil
// when they hold no seat.
type GetRoomByPlayer struct {
	PlayerID string
	Reply    chan *room.Room
}

type ListRooms struct {
	Reply chan []protocol.RoomSummary
}

// EvictPlayer is posted when a disconnect grace period expires; the player
// loses whatever seat they hold.
type EvictPlayer struct {
	PlayerID string
}

type ShutdownHub struct{}

// Internal messages posted by rooms through the Directory interface.
type roomUpdated struct {
	code    string
	summary protocol.RoomSummary
}
type memberJoined struct{ code, playerID string }
type memberLeft struct{ code, playerID string }
type releaseRoom struct{ code string }

func (CreateRoom) isHubMsg()      {}
func (GetRoom) isHubMsg()         {}
func (GetRoomByPlayer) isHubMsg() {}
func (ListRooms) isHubMsg()       {}
func (EvictPlayer) isHubMsg()     {}
func (ShutdownHub) isHubMsg()     {}
func (roomUpdated) isHubMsg()     {}
func (memberJoined) isHubMsg()    {}
func (memberLeft) isHubMsg()      {}
func (releaseRoom) isHubMsg()     {}

type Config struct {
	Registry       *registry.Registry
	Logger         *zap.Logger
	StartCountdown time.Duration
}

type Hub struct {
	inbox     chan HubMsg
	rooms     map[string]*room.Room
	summaries map[string]protocol.RoomSummary
	members   map[string]string // playerID -> room code

	reg            *registry.Registry
	log            *zap.Logger
	startCountdown time.Duration

	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:          make(chan HubMsg, 64),
		rooms:          make(map[string]*room.Room),
		summaries:      make(map[string]protocol.RoomSummary),
		members:        make(map[string]string),
		reg:            cfg.Registry,
		log:            cfg.Logger,
		startCountdown: cfg.StartCountdown,
		ctx:            ctx,
		cancel:         cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Directory implementation. Rooms call these from their own goroutines, so
// they only post messages back into the hub's inbox.

func (h *Hub) RoomUpdated(code string, summary protocol.RoomSummary) {
	h.post(roomUpdated{code: code, summary: summary})
}

func (h *Hub) MemberJoined(code, playerID string) {
	h.post(memberJoined{code: code, playerID: playerID})
}

func (h *Hub) MemberLeft(code, playerID string) {
	h.post(memberLeft{code: code, playerID: playerID})
}

func (h *Hub) ReleaseRoom(code string) {
	h.post(releaseRoom{code: code})
}

func (h *Hub) post(m HubMsg) {
	select {
	case h.inbox <- m:
	case <-h.ctx.Done():
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				msg.Reply <- h.createRoom(msg)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // may be nil

			case GetRoomByPlayer:
				var rm *room.Room
				if code, ok := h.members[msg.PlayerID]; ok {
					rm = h.rooms[code]
				}
				msg.Reply <- rm

			case ListRooms:
				list := make([]protocol.RoomSummary, 0, len(h.summaries))
				for _, s := range h.summaries {
					if s.State == string(room.StateWaiting) {
						list = append(list, s)
					}
				}
				msg.Reply <- list

			case EvictPlayer:
				if code, ok := h.members[msg.PlayerID]; ok {
					if rm := h.rooms[code]; rm != nil {
						rm.Inbox() <- room.Leave{PlayerID: msg.PlayerID, Evicted: true}
					}
				}

			case roomUpdated:
				if _, ok := h.rooms[msg.code]; ok {
					h.summaries[msg.code] = msg.summary
				}

			case memberJoined:
				h.members[msg.playerID] = msg.code

			case memberLeft:
				if h.members[msg.playerID] == msg.code {
					delete(h.members, msg.playerID)
				}

			case releaseRoom:
				h.release(msg.code)

			case ShutdownHub:
				h.shutdown()
				h.cancel()
				return
			}
		}
	}
}

func (h *Hub) createRoom(msg CreateRoom) *room.Room {
	code, err := h.uniqueCode()
	if err != nil {
		h.log.Error("room code generation failed", zap.Error(err))
		return nil
	}

	rm := room.NewRoom(h.ctx, room.Config{
		Code:           code,
		Name:           msg.Name,
		PasswordHash:   msg.PasswordHash,
		Settings:       msg.Settings,
		Host:           msg.Host,
		Registry:       h.reg,
		Directory:      h,
		Logger:         h.log,
		StartCountdown: h.startCountdown,
	})
	h.rooms[code] = rm
	h.members[msg.Host.ID] = code
	h.log.Info("room created", zap.String("room", code), zap.String("host", msg.Host.ID))
	return rm
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
const codeLength = 6

func generateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[n.Int64()]
	}
	return string(code), nil
}

func (h *Hub) uniqueCode() (string, error) {
	for {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		if _, taken := h.rooms[code]; !taken {
			return code, nil
		}
		h.log.Debug("room code collision, regenerating", zap.String("room", code))
	}
}

func (h *Hub) release(code string) {
	rm, ok := h.rooms[code]
	if !ok {
		return
	}
	delete(h.rooms, code)
	delete(h.summaries, code)
	for playerID, c := range h.members {
		if c == code {
			delete(h.members, playerID)
		}
	}
	rm.Inbox() <- room.Shutdown{}
	h.log.Info("room released", zap.String("room", code))
}

func (h *Hub) shutdown() {
	for code, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
		delete(h.rooms, code)
	}
	clear(h.summaries)
	clear(h.members)
}
