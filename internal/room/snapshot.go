package room

import (
	"github.com/DoyleJ11/imposter-backend/internal/game"
	"github.com/DoyleJ11/imposter-backend/internal/protocol"
)

func (r *Room) wireSettings() protocol.RoomSettings {
	return protocol.RoomSettings{
		MaxPlayers:        r.settings.MaxPlayers,
		ImposterCount:     r.settings.ImposterCount,
		PoliceCount:       r.settings.PoliceCount,
		TaskCount:         r.settings.TaskCount,
		EmergencyMeetings: r.settings.EmergencyMeetings,
		DiscussionTime:    r.settings.DiscussionTime,
		VotingTime:        r.settings.VotingTime,
	}
}

func (r *Room) roomState() protocol.RoomState {
	players := make([]protocol.RoomPlayer, len(r.roster))
	for i, p := range r.roster {
		players[i] = protocol.RoomPlayer{
			ID:       p.ID,
			Username: p.Username,
			Avatar:   p.Avatar,
			Ready:    r.ready[p.ID],
			IsHost:   p.ID == r.host,
		}
	}
	return protocol.RoomState{
		Code:           r.code,
		Name:           r.name,
		Host:           r.host,
		CurrentPlayers: len(r.roster),
		MaxPlayers:     r.settings.MaxPlayers,
		HasPassword:    len(r.passwordHash) > 0,
		Settings:       r.wireSettings(),
		Players:        players,
		State:          string(r.state),
	}
}

func (r *Room) summary() protocol.RoomSummary {
	return protocol.RoomSummary{
		Code:           r.code,
		Name:           r.name,
		CurrentPlayers: len(r.roster),
		MaxPlayers:     r.settings.MaxPlayers,
		HasPassword:    len(r.passwordHash) > 0,
		ImposterCount:  r.settings.ImposterCount,
		PoliceCount:    r.settings.PoliceCount,
		TaskCount:      r.settings.TaskCount,
		State:          string(r.state),
	}
}

// gameStartedPayload is scoped to one recipient: their role, their task
// list, and the public player roster with colors.
func (r *Room) gameStartedPayload(playerID string) protocol.GameStartedPayload {
	role, _ := r.session.RoleOf(playerID)

	var tasks []protocol.TaskInfo
	if role != game.RoleImposter {
		for _, t := range game.GenerateTasks(r.settings.TaskCount) {
			tasks = append(tasks, protocol.TaskInfo{
				ID:        t.ID,
				Type:      t.Type,
				Completed: r.session.TaskDone(playerID, t.ID),
			})
		}
	}

	players := make([]protocol.GamePlayer, len(r.roster))
	for i, p := range r.roster {
		players[i] = protocol.GamePlayer{
			ID:       p.ID,
			Username: p.Username,
			Avatar:   p.Avatar,
			Color:    game.PlayerColor(i),
		}
	}

	return protocol.GameStartedPayload{
		Role:              string(role),
		Tasks:             tasks,
		EmergencyMeetings: r.settings.EmergencyMeetings,
		Players:           players,
	}
}

func (r *Room) meetingPayload(m *game.Meeting) protocol.MeetingStartedPayload {
	players := make([]protocol.MeetingPlayer, len(r.roster))
	for i, p := range r.roster {
		players[i] = protocol.MeetingPlayer{
			ID:       p.ID,
			Username: p.Username,
			Avatar:   p.Avatar,
			IsDead:   !r.session.Alive(p.ID),
		}
	}

	payload := protocol.MeetingStartedPayload{
		Reason:         string(m.Reason),
		DiscussionTime: r.settings.DiscussionTime,
		VotingTime:     r.settings.VotingTime,
		BodyID:         m.BodyID,
		Players:        players,
	}
	if caller := r.member(m.Caller); caller != nil {
		payload.Caller = caller.Username
		if m.Reason == game.MeetingBodyReport {
			payload.Reporter = caller.Username
		}
	}
	return payload
}
