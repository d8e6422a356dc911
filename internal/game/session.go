package game

// Session is the authoritative state for one started game. It is pure
// bookkeeping: no I/O, no timers, no locks. The owning room actor is the
// only caller, so single-threaded access is guaranteed by construction.
type Session struct {
	roster   []string
	roles    map[string]Role
	alive    map[string]bool
	bodies   map[string]string // victim id -> discovery location token
	taskSets map[string]map[string]bool

	totalTasks     int
	completedTasks int

	emergenciesUsed int
	settings        Settings

	state   State
	meeting *Meeting
	outcome *Outcome
}

type State string

const (
	StatePlaying State = "playing"
	StateMeeting State = "meeting"
	StateEnded   State = "ended"
)

type Outcome struct {
	Winner string
	Reason string
}

const (
	WinnerImposters = "imposters"
	WinnerCrewmates = "crewmates"
)

// NewSession starts a game for the given roster and fixed role map. The
// role map domain must equal the roster; it never changes afterwards.
func NewSession(roster []string, roles map[string]Role, s Settings) *Session {
	alive := make(map[string]bool, len(roster))
	taskSets := make(map[string]map[string]bool)
	total := 0
	for _, id := range roster {
		alive[id] = true
		if roles[id] == RoleImposter {
			continue
		}
		set := make(map[string]bool, s.TaskCount)
		for _, t := range GenerateTasks(s.TaskCount) {
			set[t.ID] = false
		}
		taskSets[id] = set
		total += s.TaskCount
	}

	return &Session{
		roster:   append([]string(nil), roster...),
		roles:    roles,
		alive:    alive,
		bodies:   make(map[string]string),
		taskSets: taskSets,

		totalTasks: total,
		settings:   s,
		state:      StatePlaying,
	}
}

func (s *Session) State() State      { return s.state }
func (s *Session) Ended() bool       { return s.state == StateEnded }
func (s *Session) Meeting() *Meeting { return s.meeting }

func (s *Session) RoleOf(id string) (Role, bool) {
	r, ok := s.roles[id]
	return r, ok
}

func (s *Session) Alive(id string) bool { return s.alive[id] }

func (s *Session) AliveCounts() (imposters, others int) {
	for id := range s.alive {
		if s.roles[id] == RoleImposter {
			imposters++
		} else {
			others++
		}
	}
	return imposters, others
}

func (s *Session) TaskProgress() (completed, total int) {
	return s.completedTasks, s.totalTasks
}

// TaskDone reports whether the player has completed the given task.
func (s *Session) TaskDone(player, taskID string) bool {
	return s.taskSets[player][taskID]
}

func (s *Session) EmergenciesLeft() int {
	return s.settings.EmergencyMeetings - s.emergenciesUsed
}

// CompleteTask marks a task done for the player. Per the lenient task
// contract it never errors: unknown players, dead players, imposters,
// unknown ids, and repeats are all no-ops. The bool reports whether the
// counter moved.
func (s *Session) CompleteTask(player, taskID string) bool {
	if s.state != StatePlaying || !s.alive[player] {
		return false
	}
	set, ok := s.taskSets[player]
	if !ok {
		return false
	}
	done, ok := set[taskID]
	if !ok || done {
		return false
	}
	set[taskID] = true
	s.completedTasks++
	return true
}

// Kill moves the victim from the alive-set into the body registry.
func (s *Session) Kill(killer, victim, location string) error {
	if s.state != StatePlaying {
		return ErrWrongState
	}
	role, ok := s.roles[killer]
	if !ok || !role.CanKill() {
		return ErrNotImposter
	}
	if !s.alive[killer] {
		return ErrNotAlive
	}
	if !s.alive[victim] {
		return ErrInvalidTarget
	}
	delete(s.alive, victim)
	s.bodies[victim] = location
	return nil
}

// RemovePlayer drops an identity from the alive-set, for mid-game leaves
// and grace-period evictions. The role map is left untouched. Ballots cast
// by or against the departed player are discarded so a tally can never
// eject someone who already left.
func (s *Session) RemovePlayer(id string) {
	delete(s.alive, id)
	delete(s.bodies, id)
	if s.meeting != nil {
		delete(s.meeting.ballots, id)
		for voter, target := range s.meeting.ballots {
			if target == id {
				delete(s.meeting.ballots, voter)
			}
		}
	}
}

// EvaluateWin checks the win conditions in their fixed order: imposter
// parity first, then imposter elimination, then task completion. Parity
// before tasks means a task finished in the same tick as a losing kill
// cannot rescue the crew. It does not mutate; callers decide to End.
func (s *Session) EvaluateWin() (Outcome, bool) {
	if s.state == StateEnded {
		return Outcome{}, false
	}
	imposters, others := s.AliveCounts()
	switch {
	case imposters >= others:
		return Outcome{Winner: WinnerImposters, Reason: "Imposters reached the crew count!"}, true
	case imposters == 0:
		return Outcome{Winner: WinnerCrewmates, Reason: "All imposters were eliminated!"}, true
	case s.completedTasks >= s.totalTasks:
		return Outcome{Winner: WinnerCrewmates, Reason: "All tasks were completed!"}, true
	}
	return Outcome{}, false
}

// End transitions to the terminal state. Idempotent: a second call keeps
// the first outcome.
func (s *Session) End(o Outcome) {
	if s.state == StateEnded {
		return
	}
	s.state = StateEnded
	s.meeting = nil
	s.outcome = &o
}

func (s *Session) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// WinnerIDs lists, in roster order, every identity whose role matches the
// winning side.
func (s *Session) WinnerIDs() []string {
	if s.outcome == nil {
		return nil
	}
	var ids []string
	for _, id := range s.roster {
		imposter := s.roles[id] == RoleImposter
		if (s.outcome.Winner == WinnerImposters) == imposter {
			ids = append(ids, id)
		}
	}
	return ids
}
