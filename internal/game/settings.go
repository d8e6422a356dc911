package game

import "fmt"

// Settings are the per-room game parameters chosen at room creation.
// Times are in seconds, matching the wire format.
type Settings struct {
	MaxPlayers        int
	ImposterCount     int
	PoliceCount       int
	TaskCount         int
	EmergencyMeetings int
	DiscussionTime    int
	VotingTime        int
}

// Limits are the server-wide bounds settings are validated against.
type Limits struct {
	MinPlayers        int
	MaxPlayers        int
	MaxImposters      int
	MaxPolice         int
	MinTasks          int
	MaxTasks          int
	MaxEmergencies    int
	MinDiscussionTime int
	MaxDiscussionTime int
	MinVotingTime     int
	MaxVotingTime     int
}

func DefaultLimits() Limits {
	return Limits{
		MinPlayers:        4,
		MaxPlayers:        10,
		MaxImposters:      3,
		MaxPolice:         2,
		MinTasks:          1,
		MaxTasks:          8,
		MaxEmergencies:    5,
		MinDiscussionTime: 10,
		MaxDiscussionTime: 120,
		MinVotingTime:     10,
		MaxVotingTime:     120,
	}
}

// Validate checks the settings against the configured bounds. Every rule is
// checked up front; nothing downstream re-validates.
func (s Settings) Validate(l Limits) error {
	if s.MaxPlayers < l.MinPlayers || s.MaxPlayers > l.MaxPlayers {
		return fmt.Errorf("%w: maxPlayers %d not in [%d,%d]", ErrInvalidSettings, s.MaxPlayers, l.MinPlayers, l.MaxPlayers)
	}
	if s.ImposterCount < 1 || s.ImposterCount > l.MaxImposters {
		return fmt.Errorf("%w: imposterCount %d not in [1,%d]", ErrInvalidSettings, s.ImposterCount, l.MaxImposters)
	}
	if s.PoliceCount < 0 || s.PoliceCount > l.MaxPolice {
		return fmt.Errorf("%w: policeCount %d not in [0,%d]", ErrInvalidSettings, s.PoliceCount, l.MaxPolice)
	}
	// At least one crewmate slot must remain at full capacity.
	if s.ImposterCount+s.PoliceCount >= s.MaxPlayers {
		return fmt.Errorf("%w: imposters+police (%d) must be below capacity %d", ErrInvalidSettings, s.ImposterCount+s.PoliceCount, s.MaxPlayers)
	}
	if s.TaskCount < l.MinTasks || s.TaskCount > l.MaxTasks {
		return fmt.Errorf("%w: taskCount %d not in [%d,%d]", ErrInvalidSettings, s.TaskCount, l.MinTasks, l.MaxTasks)
	}
	if s.EmergencyMeetings < 0 || s.EmergencyMeetings > l.MaxEmergencies {
		return fmt.Errorf("%w: emergencyMeetings %d not in [0,%d]", ErrInvalidSettings, s.EmergencyMeetings, l.MaxEmergencies)
	}
	if s.DiscussionTime < l.MinDiscussionTime || s.DiscussionTime > l.MaxDiscussionTime {
		return fmt.Errorf("%w: discussionTime %d not in [%d,%d]", ErrInvalidSettings, s.DiscussionTime, l.MinDiscussionTime, l.MaxDiscussionTime)
	}
	if s.VotingTime < l.MinVotingTime || s.VotingTime > l.MaxVotingTime {
		return fmt.Errorf("%w: votingTime %d not in [%d,%d]", ErrInvalidSettings, s.VotingTime, l.MinVotingTime, l.MaxVotingTime)
	}
	return nil
}

// MinimumRoster is the smallest roster a game can start with under these
// settings: every special role filled, at least one crewmate, and strictly
// more non-imposters than imposters so the game is not decided on start.
func (s Settings) MinimumRoster() int {
	min := s.ImposterCount + s.PoliceCount + 1
	if parity := 2*s.ImposterCount + 1; parity > min {
		min = parity
	}
	return min
}
