package game

type MeetingReason string

const (
	MeetingBodyReport MeetingReason = "body"
	MeetingEmergency  MeetingReason = "emergency"
)

// Meeting is the voting interlude owned by a session. Ballots map voter to
// target id, with "" standing for an explicit skip. A voter's ballot is
// overwritable until the meeting closes.
type Meeting struct {
	Reason  MeetingReason
	Caller  string
	BodyID  string
	ballots map[string]string
}

func (m *Meeting) BallotCount() int { return len(m.ballots) }

// ReportBody opens a body-report meeting. Body reports are unlimited; they
// do not consume the emergency allowance.
func (s *Session) ReportBody(reporter, bodyID string) (*Meeting, error) {
	if s.state != StatePlaying {
		return nil, ErrWrongState
	}
	if !s.alive[reporter] {
		return nil, ErrNotAlive
	}
	if _, ok := s.bodies[bodyID]; !ok {
		return nil, ErrInvalidTarget
	}
	return s.openMeeting(MeetingBodyReport, reporter, bodyID), nil
}

// CallEmergency opens an emergency meeting, consuming one unit of the
// room's emergency allowance.
func (s *Session) CallEmergency(caller string) (*Meeting, error) {
	if s.state != StatePlaying {
		return nil, ErrWrongState
	}
	if !s.alive[caller] {
		return nil, ErrNotAlive
	}
	if s.emergenciesUsed >= s.settings.EmergencyMeetings {
		return nil, ErrMeetingsExhausted
	}
	s.emergenciesUsed++
	return s.openMeeting(MeetingEmergency, caller, ""), nil
}

func (s *Session) openMeeting(reason MeetingReason, caller, bodyID string) *Meeting {
	// Bodies are cleaned up when everyone gathers; stale reports after the
	// meeting are invalid targets.
	s.bodies = make(map[string]string)
	s.meeting = &Meeting{
		Reason:  reason,
		Caller:  caller,
		BodyID:  bodyID,
		ballots: make(map[string]string),
	}
	s.state = StateMeeting
	return s.meeting
}

// CastVote records or replaces the voter's ballot. An empty target is a
// skip; anything else must be an alive player.
func (s *Session) CastVote(voter, target string) error {
	if s.state != StateMeeting || s.meeting == nil {
		return ErrWrongState
	}
	if !s.alive[voter] {
		return ErrNotAlive
	}
	if target != "" && !s.alive[target] {
		return ErrInvalidTarget
	}
	s.meeting.ballots[voter] = target
	return nil
}

// TallyResult is the outcome of a closed meeting. Ejected is empty when
// the vote tied or nobody voted.
type TallyResult struct {
	Ejected     string
	EjectedRole Role
}

// EndMeeting tallies ballots, ejects the strict-plurality target if there
// is one, and returns the session to Playing. A tie for the maximum, or
// zero non-skip ballots, ejects nobody.
func (s *Session) EndMeeting() (TallyResult, error) {
	if s.state != StateMeeting || s.meeting == nil {
		return TallyResult{}, ErrWrongState
	}

	counts := make(map[string]int)
	for _, target := range s.meeting.ballots {
		if target != "" {
			counts[target]++
		}
	}

	var ejected string
	maxVotes := 0
	tie := false
	for target, n := range counts {
		switch {
		case n > maxVotes:
			maxVotes = n
			ejected = target
			tie = false
		case n == maxVotes:
			tie = true
		}
	}

	s.meeting = nil
	s.state = StatePlaying

	if tie || ejected == "" {
		return TallyResult{}, nil
	}
	delete(s.alive, ejected)
	return TallyResult{Ejected: ejected, EjectedRole: s.roles[ejected]}, nil
}
