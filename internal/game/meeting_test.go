package game

import (
	"errors"
	"testing"
)

func meetingSession(t *testing.T, roster []string, nImposters int) *Session {
	t.Helper()
	s := fixedSession(roster, nImposters, Settings{TaskCount: 1, EmergencyMeetings: 3})
	if _, err := s.CallEmergency(roster[len(roster)-1]); err != nil {
		t.Fatalf("opening meeting: %v", err)
	}
	return s
}

func TestMeeting_VoteValidation(t *testing.T) {
	roster := []string{"imp", "c1", "c2", "c3"}

	cases := []struct {
		name    string
		setup   func(*Session)
		voter   string
		target  string
		wantErr error
	}{
		{"alive voter alive target", nil, "c1", "imp", nil},
		{"skip is always a legal target", nil, "c1", "", nil},
		{"dead voter", func(s *Session) { s.RemovePlayer("c1") }, "c1", "imp", ErrNotAlive},
		{"unknown voter", nil, "ghost", "imp", ErrNotAlive},
		{"dead target", func(s *Session) { s.RemovePlayer("c2") }, "c1", "c2", ErrInvalidTarget},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := meetingSession(t, roster, 1)
			if tc.setup != nil {
				tc.setup(s)
			}
			err := s.CastVote(tc.voter, tc.target)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err=%v want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMeeting_VoteOutsideMeetingRejected(t *testing.T) {
	s := fixedSession([]string{"imp", "c1", "c2"}, 1, Settings{TaskCount: 1})
	if err := s.CastVote("c1", "imp"); !errors.Is(err, ErrWrongState) {
		t.Fatalf("err=%v, want wrong state", err)
	}
}

func TestMeeting_SecondBallotReplacesFirst(t *testing.T) {
	roster := []string{"imp", "c1", "c2", "c3"}
	s := meetingSession(t, roster, 1)

	// c1 first votes imp, then changes to c2. c3 votes c2. If the first
	// ballot were additive, imp and c2 would tie; replacement makes c2
	// the strict plurality.
	mustVote := func(voter, target string) {
		t.Helper()
		if err := s.CastVote(voter, target); err != nil {
			t.Fatalf("vote %s->%s: %v", voter, target, err)
		}
	}
	mustVote("c1", "imp")
	mustVote("c1", "c2")
	mustVote("c3", "c2")
	mustVote("imp", "")

	if got := s.Meeting().BallotCount(); got != 3 {
		t.Fatalf("ballots=%d, want 3 (replacement, not addition)", got)
	}

	res, err := s.EndMeeting()
	if err != nil {
		t.Fatal(err)
	}
	if res.Ejected != "c2" {
		t.Fatalf("ejected=%q, want c2", res.Ejected)
	}
	if res.EjectedRole != RoleCrewmate {
		t.Fatalf("ejected role=%q", res.EjectedRole)
	}
	if s.Alive("c2") {
		t.Fatal("ejected player still alive")
	}
	if s.State() != StatePlaying {
		t.Fatalf("state=%v, want playing after tally", s.State())
	}
}

func TestMeeting_Tally(t *testing.T) {
	roster := []string{"imp", "c1", "c2", "c3"}

	cases := []struct {
		name    string
		votes   map[string]string
		ejected string
	}{
		{"strict plurality ejects", map[string]string{"c1": "imp", "c2": "imp", "imp": "c1"}, "imp"},
		{"all distinct targets tie", map[string]string{"imp": "c1", "c1": "c2", "c2": "c3", "c3": "imp"}, ""},
		{"two-way tie", map[string]string{"c1": "imp", "c2": "c3", "c3": "c2", "imp": "c1"}, ""},
		{"zero ballots", map[string]string{}, ""},
		{"all skips", map[string]string{"c1": "", "c2": "", "c3": ""}, ""},
		{"skips do not dilute plurality", map[string]string{"c1": "imp", "c2": "", "c3": ""}, "imp"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := meetingSession(t, roster, 1)
			for voter, target := range tc.votes {
				if err := s.CastVote(voter, target); err != nil {
					t.Fatalf("vote %s->%s: %v", voter, target, err)
				}
			}
			res, err := s.EndMeeting()
			if err != nil {
				t.Fatal(err)
			}
			if res.Ejected != tc.ejected {
				t.Fatalf("ejected=%q, want %q", res.Ejected, tc.ejected)
			}
		})
	}
}

func TestMeeting_BallotsOnDepartedTargetDiscarded(t *testing.T) {
	roster := []string{"imp", "c1", "c2", "c3"}
	s := meetingSession(t, roster, 1)

	mustVote := func(voter, target string) {
		t.Helper()
		if err := s.CastVote(voter, target); err != nil {
			t.Fatalf("vote %s->%s: %v", voter, target, err)
		}
	}
	mustVote("c1", "c3")
	mustVote("c2", "c3")
	mustVote("c3", "imp")

	// c3 leaves mid-meeting: the votes against them and their own ballot
	// all go; the tally must not eject someone who is gone.
	s.RemovePlayer("c3")
	if got := s.Meeting().BallotCount(); got != 0 {
		t.Fatalf("ballots=%d, want 0 after departure", got)
	}

	res, err := s.EndMeeting()
	if err != nil {
		t.Fatal(err)
	}
	if res.Ejected != "" {
		t.Fatalf("ejected=%q, want nobody", res.Ejected)
	}
}

func TestMeeting_EndMeetingTwiceRejected(t *testing.T) {
	s := meetingSession(t, []string{"imp", "c1", "c2", "c3"}, 1)
	if _, err := s.EndMeeting(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.EndMeeting(); !errors.Is(err, ErrWrongState) {
		t.Fatalf("second tally: err=%v, want wrong state", err)
	}
}
