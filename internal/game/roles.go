package game

import "math/rand"

type Role string

const (
	RoleImposter Role = "imposter"
	RolePolice   Role = "police"
	RoleCrewmate Role = "crewmate"
)

// CanKill reports whether the role is allowed to use the kill action.
func (r Role) CanKill() bool { return r == RoleImposter }

// AssignRoles shuffles the roster and slices it into roles: the first
// ImposterCount shuffled players become imposters, the next PoliceCount
// police, the rest crewmates. The rng is injected so tests can seed it;
// rand.Shuffle is an unbiased Fisher-Yates.
//
// The caller must have validated the settings; this panics rather than
// guessing if there are more special roles than players.
func AssignRoles(rng *rand.Rand, roster []string, s Settings) map[string]Role {
	if s.ImposterCount+s.PoliceCount >= len(roster) {
		panic("game: role counts exceed roster")
	}

	shuffled := make([]string, len(roster))
	copy(shuffled, roster)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	roles := make(map[string]Role, len(shuffled))
	for i, id := range shuffled {
		switch {
		case i < s.ImposterCount:
			roles[id] = RoleImposter
		case i < s.ImposterCount+s.PoliceCount:
			roles[id] = RolePolice
		default:
			roles[id] = RoleCrewmate
		}
	}
	return roles
}
