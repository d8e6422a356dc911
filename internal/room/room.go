// Package room implements the per-room actor that owns a Room, its
// optional GameSession, and the session's optional Meeting. One goroutine
// per room serves the inbox; nothing else reads or writes room state.
package room

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/DoyleJ11/imposter-backend/internal/game"
	"github.com/DoyleJ11/imposter-backend/internal/protocol"
	"github.com/DoyleJ11/imposter-backend/internal/registry"
)

// Lifecycle is the room-level state; the in-game playing/meeting split
// lives on the session.
type Lifecycle string

const (
	StateWaiting  Lifecycle = "waiting"
	StateStarting Lifecycle = "starting"
	StatePlaying  Lifecycle = "playing"
	StateEnded    Lifecycle = "ended"
)

type Config struct {
	Code         string
	Name         string
	PasswordHash []byte
	Settings     game.Settings
	Host         *registry.Player

	Registry  *registry.Registry
	Directory Directory
	Logger    *zap.Logger

	// StartCountdown is the game_starting delay; zero starts immediately.
	StartCountdown time.Duration
	// Rand seeds role assignment; nil gets a time-seeded source.
	Rand *rand.Rand
}

type Room struct {
	inbox  chan Msg
	ctx    context.Context
	cancel context.CancelFunc
	log    *zap.Logger

	reg *registry.Registry
	dir Directory

	code         string
	name         string
	passwordHash []byte
	settings     game.Settings

	host   string
	roster []*registry.Player
	ready  map[string]bool

	state   Lifecycle
	session *game.Session

	startCountdown time.Duration
	rng            *rand.Rand

	// timerGen invalidates in-flight timer fires on any early transition.
	timerGen     int
	startTimer   *time.Timer
	meetingTimer *time.Timer
}

func NewRoom(parent context.Context, cfg Config) *Room {
	ctx, cancel := context.WithCancel(parent)
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := &Room{
		inbox:  make(chan Msg, 64),
		ctx:    ctx,
		cancel: cancel,
		log:    cfg.Logger.With(zap.String("room", cfg.Code)),

		reg: cfg.Registry,
		dir: cfg.Directory,

		code:         cfg.Code,
		name:         cfg.Name,
		passwordHash: cfg.PasswordHash,
		settings:     cfg.Settings,

		host:   cfg.Host.ID,
		roster: []*registry.Player{cfg.Host},
		ready:  make(map[string]bool),

		state:          StateWaiting,
		startCountdown: cfg.StartCountdown,
		rng:            rng,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }
func (r *Room) Code() string      { return r.code }

func (r *Room) loop() {
	// The creator becomes the sole roster member and learns the code here.
	r.reg.Send(r.host, protocol.NewEvent(protocol.EventRoomCreated, protocol.RoomPayload{Room: r.roomState()}))
	r.dir.RoomUpdated(r.code, r.summary())

	for {
		select {
		case <-r.ctx.Done():
			r.stopTimers()
			return
		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- r.handleJoin(msg)
			case Rejoin:
				r.handleRejoin(msg.PlayerID)
			case Leave:
				r.handleLeave(msg.PlayerID, msg.Evicted)
			case SetReady:
				r.handleSetReady(msg)
			case Start:
				r.handleStart(msg.PlayerID)
			case startFired:
				r.handleStartFired(msg.gen)
			case Move:
				r.handleMove(msg)
			case Chat:
				r.handleChat(msg)
			case CompleteTask:
				r.handleCompleteTask(msg)
			case Kill:
				r.handleKill(msg)
			case ReportBody:
				r.handleReportBody(msg)
			case CallEmergency:
				r.handleCallEmergency(msg)
			case CastVote:
				r.handleCastVote(msg)
			case meetingFired:
				r.handleMeetingFired(msg.gen)
			case Sabotage:
				r.handleSabotage(msg)
			case GetView:
				msg.Reply <- r.view()
			case Shutdown:
				r.stopTimers()
				r.cancel()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) error {
	if r.state != StateWaiting {
		return ErrGameAlreadyStarted
	}
	if len(r.roster) >= r.settings.MaxPlayers {
		return ErrRoomFull
	}
	if len(r.passwordHash) > 0 {
		if bcrypt.CompareHashAndPassword(r.passwordHash, []byte(msg.Password)) != nil {
			return ErrWrongPassword
		}
	}
	if r.member(msg.Player.ID) != nil {
		// Already seated; treat as a replay rather than a duplicate seat.
		r.handleRejoin(msg.Player.ID)
		return nil
	}

	r.roster = append(r.roster, msg.Player)
	r.dir.MemberJoined(r.code, msg.Player.ID)

	r.reg.Send(msg.Player.ID, protocol.NewEvent(protocol.EventRoomJoined, protocol.RoomPayload{Room: r.roomState()}))
	r.broadcast(protocol.NewEvent(protocol.EventRoomUpdated, protocol.RoomPayload{Room: r.roomState()}), msg.Player.ID)
	r.broadcast(protocol.NewEvent(protocol.EventPlayerJoined, protocol.PlayerJoinedPayload{
		PlayerID: msg.Player.ID,
		Username: msg.Player.Username,
	}), msg.Player.ID)
	r.dir.RoomUpdated(r.code, r.summary())
	return nil
}

func (r *Room) handleRejoin(playerID string) {
	p := r.member(playerID)
	if p == nil {
		return
	}
	r.reg.Send(playerID, protocol.NewEvent(protocol.EventRoomJoined, protocol.RoomPayload{Room: r.roomState()}))
	if r.session != nil && !r.session.Ended() {
		// Current-state snapshot only; missed kills and chat are gone.
		r.reg.Send(playerID, protocol.NewEvent(protocol.EventGameStarted, r.gameStartedPayload(playerID)))
	}
	r.log.Debug("state replayed after reconnect", zap.String("player", playerID))
}

func (r *Room) handleLeave(playerID string, evicted bool) {
	p := r.member(playerID)
	if p == nil {
		return
	}
	for i, member := range r.roster {
		if member.ID == playerID {
			r.roster = append(r.roster[:i], r.roster[i+1:]...)
			break
		}
	}
	delete(r.ready, playerID)
	r.dir.MemberLeft(r.code, playerID)
	if evicted {
		r.log.Info("seat evicted after grace period", zap.String("player", playerID))
	}

	if len(r.roster) == 0 {
		r.stopTimers()
		r.dir.ReleaseRoom(r.code)
		return
	}

	// Host hand-off to the earliest remaining member.
	if r.host == playerID {
		r.host = r.roster[0].ID
	}

	r.broadcast(protocol.NewEvent(protocol.EventRoomUpdated, protocol.RoomPayload{Room: r.roomState()}), "")
	r.broadcast(protocol.NewEvent(protocol.EventPlayerLeft, protocol.PlayerLeftPayload{PlayerID: playerID}), "")
	r.dir.RoomUpdated(r.code, r.summary())

	if r.session != nil && !r.session.Ended() {
		r.session.RemovePlayer(playerID)
		r.checkWin()
	}
}

func (r *Room) handleSetReady(msg SetReady) {
	if r.member(msg.PlayerID) == nil || r.state != StateWaiting {
		return
	}
	r.ready[msg.PlayerID] = msg.Ready
	r.broadcast(protocol.NewEvent(protocol.EventPlayerReady, protocol.PlayerReadyPayload{
		PlayerID: msg.PlayerID,
		Ready:    msg.Ready,
	}), "")
	r.broadcast(protocol.NewEvent(protocol.EventRoomUpdated, protocol.RoomPayload{Room: r.roomState()}), "")
}

func (r *Room) handleStart(playerID string) {
	if playerID != r.host {
		r.sendErr(playerID, protocol.CodeNotHost, "only the host can start the game")
		return
	}
	if r.state != StateWaiting {
		r.sendErr(playerID, protocol.CodeWrongState, "game already starting or started")
		return
	}
	if len(r.roster) < r.settings.MinimumRoster() {
		r.sendErr(playerID, protocol.CodeBelowMinimumPlayers, "not enough players for these settings")
		return
	}
	for _, p := range r.roster {
		if p.ID != r.host && !r.ready[p.ID] {
			r.sendErr(playerID, protocol.CodeNotAllReady, "all players must be ready")
			return
		}
	}

	r.state = StateStarting
	countdown := int(r.startCountdown / time.Second)
	r.broadcast(protocol.NewEvent(protocol.EventGameStarting, protocol.GameStartingPayload{Countdown: countdown}), "")
	r.dir.RoomUpdated(r.code, r.summary())

	r.timerGen++
	gen := r.timerGen
	r.startTimer = time.AfterFunc(r.startCountdown, func() {
		select {
		case r.inbox <- startFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) handleStartFired(gen int) {
	if gen != r.timerGen || r.state != StateStarting {
		return
	}
	// The roster may have shrunk during the countdown; re-validate before
	// roles are dealt or the assignment invariant breaks.
	if len(r.roster) < r.settings.MinimumRoster() {
		r.state = StateWaiting
		r.broadcast(protocol.ErrorEvent(protocol.CodeBelowMinimumPlayers, "not enough players left to start"), "")
		r.broadcast(protocol.NewEvent(protocol.EventRoomUpdated, protocol.RoomPayload{Room: r.roomState()}), "")
		r.dir.RoomUpdated(r.code, r.summary())
		return
	}

	rosterIDs := make([]string, len(r.roster))
	for i, p := range r.roster {
		rosterIDs[i] = p.ID
	}
	roles := game.AssignRoles(r.rng, rosterIDs, r.settings)
	r.session = game.NewSession(rosterIDs, roles, r.settings)
	r.state = StatePlaying
	r.dir.RoomUpdated(r.code, r.summary())
	r.log.Info("game started", zap.Int("players", len(rosterIDs)))

	// game_started is per-recipient (own role and tasks only); the full
	// role map never crosses the wire.
	for _, p := range r.roster {
		r.reg.Send(p.ID, protocol.NewEvent(protocol.EventGameStarted, r.gameStartedPayload(p.ID)))
		role, _ := r.session.RoleOf(p.ID)
		r.reg.Send(p.ID, protocol.NewEvent(protocol.EventRoleAssigned, protocol.RoleAssignedPayload{Role: string(role)}))
	}
	r.checkWin()
}

func (r *Room) handleMove(msg Move) {
	if r.member(msg.PlayerID) == nil || r.session == nil {
		return
	}
	r.broadcast(protocol.NewEvent(protocol.EventPlayerMoved, protocol.PlayerMovedPayload{
		PlayerID: msg.PlayerID,
		Position: msg.Position,
		Rotation: msg.Rotation,
	}), msg.PlayerID)
}

func (r *Room) handleChat(msg Chat) {
	p := r.member(msg.PlayerID)
	if p == nil {
		return
	}
	r.broadcast(protocol.NewEvent(protocol.EventChatMessage, protocol.ChatMessagePayload{
		PlayerID: p.ID,
		Username: p.Username,
		Message:  msg.Message,
	}), "")
}

func (r *Room) handleCompleteTask(msg CompleteTask) {
	if r.session == nil {
		r.sendErr(msg.PlayerID, protocol.CodeWrongState, "no game in progress")
		return
	}
	if !r.session.CompleteTask(msg.PlayerID, msg.TaskID) {
		// Lenient by contract: dead players and bogus ids are no-ops.
		r.log.Debug("ignored task completion",
			zap.String("player", msg.PlayerID), zap.String("task", msg.TaskID))
		return
	}
	done, total := r.session.TaskProgress()
	r.broadcast(protocol.NewEvent(protocol.EventTaskCompleted, protocol.TaskCompletedPayload{
		PlayerID:       msg.PlayerID,
		TaskID:         msg.TaskID,
		TotalCompleted: done,
		TotalTasks:     total,
	}), "")
	r.checkWin()
}

func (r *Room) handleKill(msg Kill) {
	if r.session == nil {
		r.sendErr(msg.PlayerID, protocol.CodeWrongState, "no game in progress")
		return
	}
	if err := r.session.Kill(msg.PlayerID, msg.TargetID, msg.Location); err != nil {
		r.sendGameErr(msg.PlayerID, err)
		return
	}
	r.broadcast(protocol.NewEvent(protocol.EventPlayerKilled, protocol.PlayerKilledPayload{
		KillerID: msg.PlayerID,
		VictimID: msg.TargetID,
	}), "")
	r.checkWin()
}

func (r *Room) handleReportBody(msg ReportBody) {
	if r.session == nil {
		r.sendErr(msg.PlayerID, protocol.CodeWrongState, "no game in progress")
		return
	}
	meeting, err := r.session.ReportBody(msg.PlayerID, msg.BodyID)
	if err != nil {
		r.sendGameErr(msg.PlayerID, err)
		return
	}
	r.broadcast(protocol.NewEvent(protocol.EventBodyReported, protocol.BodyReportedPayload{
		ReporterID: msg.PlayerID,
		BodyID:     msg.BodyID,
	}), "")
	r.openMeeting(meeting)
}

func (r *Room) handleCallEmergency(msg CallEmergency) {
	if r.session == nil {
		r.sendErr(msg.PlayerID, protocol.CodeWrongState, "no game in progress")
		return
	}
	meeting, err := r.session.CallEmergency(msg.PlayerID)
	if err != nil {
		r.sendGameErr(msg.PlayerID, err)
		return
	}
	r.broadcast(protocol.NewEvent(protocol.EventEmergencyCalled, protocol.EmergencyCalledPayload{
		CallerID: msg.PlayerID,
	}), "")
	r.openMeeting(meeting)
}

func (r *Room) openMeeting(m *game.Meeting) {
	r.broadcast(protocol.NewEvent(protocol.EventMeetingStarted, r.meetingPayload(m)), "")

	window := time.Duration(r.settings.DiscussionTime+r.settings.VotingTime) * time.Second
	r.timerGen++
	gen := r.timerGen
	r.meetingTimer = time.AfterFunc(window, func() {
		select {
		case r.inbox <- meetingFired{gen: gen}:
		case <-r.ctx.Done():
		}
	})
}

func (r *Room) handleCastVote(msg CastVote) {
	if r.session == nil {
		r.sendErr(msg.PlayerID, protocol.CodeWrongState, "no game in progress")
		return
	}
	if err := r.session.CastVote(msg.PlayerID, msg.TargetID); err != nil {
		r.sendGameErr(msg.PlayerID, err)
		return
	}
	// Ballot contents stay secret until the tally.
	r.broadcast(protocol.NewEvent(protocol.EventVoteCast, protocol.VoteCastPayload{VoterID: msg.PlayerID}), "")
}

func (r *Room) handleMeetingFired(gen int) {
	if gen != r.timerGen || r.session == nil || r.session.Ended() {
		return
	}
	res, err := r.session.EndMeeting()
	if err != nil {
		return
	}

	payload := protocol.VotingEndedPayload{}
	if res.Ejected != "" {
		if p := r.member(res.Ejected); p != nil {
			payload.Ejected = &protocol.EjectedPlayer{ID: p.ID, Username: p.Username, Avatar: p.Avatar}
		} else {
			payload.Ejected = &protocol.EjectedPlayer{ID: res.Ejected}
		}
		payload.WasImposter = res.EjectedRole == game.RoleImposter
	}
	r.broadcast(protocol.NewEvent(protocol.EventVotingEnded, payload), "")
	if res.Ejected != "" {
		r.broadcast(protocol.NewEvent(protocol.EventPlayerEjected, protocol.PlayerEjectedPayload{
			PlayerID:    res.Ejected,
			Role:        string(res.EjectedRole),
			WasImposter: res.EjectedRole == game.RoleImposter,
		}), "")
	}
	r.checkWin()
}

func (r *Room) handleSabotage(msg Sabotage) {
	if r.session == nil {
		r.sendErr(msg.PlayerID, protocol.CodeWrongState, "no game in progress")
		return
	}
	role, ok := r.session.RoleOf(msg.PlayerID)
	if !ok || !role.CanKill() {
		r.sendErr(msg.PlayerID, protocol.CodeNotImposter, "only imposters can sabotage")
		return
	}
	if !r.session.Alive(msg.PlayerID) {
		r.sendErr(msg.PlayerID, protocol.CodeNotAlive, "dead players cannot sabotage")
		return
	}
	r.broadcast(protocol.NewEvent(protocol.EventSabotageTriggered, protocol.SabotageTriggeredPayload{
		SabotageType: msg.SabotageType,
		PlayerID:     msg.PlayerID,
	}), "")
}

// checkWin runs after every kill, ejection, task completion, and mid-game
// leave. The first satisfied condition ends the game exactly once.
func (r *Room) checkWin() {
	if r.session == nil || r.session.Ended() {
		return
	}
	outcome, over := r.session.EvaluateWin()
	if !over {
		return
	}
	r.session.End(outcome)
	r.state = StateEnded
	r.stopTimers()

	winners := make([]protocol.WinnerPlayer, 0)
	for _, id := range r.session.WinnerIDs() {
		role, _ := r.session.RoleOf(id)
		w := protocol.WinnerPlayer{ID: id, Role: string(role)}
		if p := r.member(id); p != nil {
			w.Username = p.Username
			w.Avatar = p.Avatar
		}
		winners = append(winners, w)
	}
	r.broadcast(protocol.NewEvent(protocol.EventGameEnded, protocol.GameEndedPayload{
		Winner:  outcome.Winner,
		Reason:  outcome.Reason,
		Winners: winners,
	}), "")
	r.log.Info("game ended", zap.String("winner", outcome.Winner))
	r.dir.ReleaseRoom(r.code)
}

func (r *Room) stopTimers() {
	r.timerGen++
	if r.startTimer != nil {
		r.startTimer.Stop()
		r.startTimer = nil
	}
	if r.meetingTimer != nil {
		r.meetingTimer.Stop()
		r.meetingTimer = nil
	}
}

func (r *Room) member(playerID string) *registry.Player {
	for _, p := range r.roster {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (r *Room) broadcast(evt protocol.Event, exclude string) {
	for _, p := range r.roster {
		if p.ID == exclude {
			continue
		}
		r.reg.Send(p.ID, evt)
	}
}

func (r *Room) sendErr(playerID, code, message string) {
	r.reg.Send(playerID, protocol.ErrorEvent(code, message))
}

func (r *Room) sendGameErr(playerID string, err error) {
	code := protocol.CodeInternal
	switch {
	case errors.Is(err, game.ErrWrongState):
		code = protocol.CodeWrongState
	case errors.Is(err, game.ErrNotImposter):
		code = protocol.CodeNotImposter
	case errors.Is(err, game.ErrNotAlive):
		code = protocol.CodeNotAlive
	case errors.Is(err, game.ErrInvalidTarget):
		code = protocol.CodeInvalidTarget
	case errors.Is(err, game.ErrMeetingsExhausted):
		code = protocol.CodeMeetingsExhausted
	}
	r.sendErr(playerID, code, err.Error())
}

func (r *Room) view() View {
	v := View{
		Code:   r.code,
		State:  r.state,
		Host:   r.host,
		Roster: make([]string, len(r.roster)),
		Ready:  make(map[string]bool, len(r.ready)),
	}
	for i, p := range r.roster {
		v.Roster[i] = p.ID
	}
	for id, ok := range r.ready {
		v.Ready[id] = ok
	}
	if r.session != nil {
		v.SessionState = r.session.State()
		v.Roles = make(map[string]game.Role)
		for _, id := range v.Roster {
			if role, ok := r.session.RoleOf(id); ok {
				v.Roles[id] = role
			}
		}
	}
	return v
}
