package protocol

import "encoding/json"

// Client -> server payloads.

type AuthPayload struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	IsGuest  bool   `json:"isGuest"`
}

type CreateRoomPayload struct {
	Name              string `json:"name"`
	Password          string `json:"password"`
	MaxPlayers        int    `json:"maxPlayers"`
	ImposterCount     int    `json:"imposterCount"`
	PoliceCount       int    `json:"policeCount"`
	TaskCount         int    `json:"taskCount"`
	EmergencyMeetings int    `json:"emergencyMeetings"`
	DiscussionTime    int    `json:"discussionTime"`
	VotingTime        int    `json:"votingTime"`
}

type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Password string `json:"password"`
}

type SetReadyPayload struct {
	Ready bool `json:"ready"`
}

type MovePayload struct {
	Position json.RawMessage `json:"position"`
	Rotation json.RawMessage `json:"rotation"`
}

type CompleteTaskPayload struct {
	TaskID string `json:"taskId"`
}

type KillPayload struct {
	TargetID string `json:"targetId"`
	Location string `json:"location"`
}

type ReportBodyPayload struct {
	BodyID string `json:"bodyId"`
}

// CastVotePayload with an empty TargetID is a skip.
type CastVotePayload struct {
	TargetID string `json:"targetId"`
}

type ChatPayload struct {
	Message string `json:"message"`
}

type SabotagePayload struct {
	SabotageType string `json:"sabotageType"`
}

// Server -> client payloads.

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuthSuccessPayload struct {
	PlayerID string `json:"playerId"`
}

type OnlineCountPayload struct {
	Count int `json:"count"`
}

type RoomSettings struct {
	MaxPlayers        int `json:"maxPlayers"`
	ImposterCount     int `json:"imposterCount"`
	PoliceCount       int `json:"policeCount"`
	TaskCount         int `json:"taskCount"`
	EmergencyMeetings int `json:"emergencyMeetings"`
	DiscussionTime    int `json:"discussionTime"`
	VotingTime        int `json:"votingTime"`
}

type RoomPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Ready    bool   `json:"ready"`
	IsHost   bool   `json:"isHost"`
}

// RoomState is the full snapshot sent on create/join/update and on
// grace-period replays.
type RoomState struct {
	Code           string       `json:"code"`
	Name           string       `json:"name"`
	Host           string       `json:"host"`
	CurrentPlayers int          `json:"currentPlayers"`
	MaxPlayers     int          `json:"maxPlayers"`
	HasPassword    bool         `json:"hasPassword"`
	Settings       RoomSettings `json:"settings"`
	Players        []RoomPlayer `json:"players"`
	State          string       `json:"state"`
}

type RoomPayload struct {
	Room RoomState `json:"room"`
}

type RoomSummary struct {
	Code           string `json:"code"`
	Name           string `json:"name"`
	CurrentPlayers int    `json:"currentPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
	HasPassword    bool   `json:"hasPassword"`
	ImposterCount  int    `json:"imposterCount"`
	PoliceCount    int    `json:"policeCount"`
	TaskCount      int    `json:"taskCount"`
	State          string `json:"state"`
}

type RoomListPayload struct {
	Rooms []RoomSummary `json:"rooms"`
}

type PlayerJoinedPayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
}

type PlayerLeftPayload struct {
	PlayerID string `json:"playerId"`
}

type PlayerReadyPayload struct {
	PlayerID string `json:"playerId"`
	Ready    bool   `json:"ready"`
}

type GameStartingPayload struct {
	Countdown int `json:"countdown"`
}

type TaskInfo struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Completed bool   `json:"completed"`
}

type GamePlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Color    string `json:"color"`
}

// GameStartedPayload is per-recipient: Role and Tasks describe the
// receiving player only.
type GameStartedPayload struct {
	Role              string       `json:"role"`
	Tasks             []TaskInfo   `json:"tasks"`
	EmergencyMeetings int          `json:"emergencyMeetings"`
	Players           []GamePlayer `json:"players"`
}

type RoleAssignedPayload struct {
	Role string `json:"role"`
}

type PlayerMovedPayload struct {
	PlayerID string          `json:"playerId"`
	Position json.RawMessage `json:"position"`
	Rotation json.RawMessage `json:"rotation"`
}

type PlayerKilledPayload struct {
	KillerID string `json:"killerId"`
	VictimID string `json:"victimId"`
}

type BodyReportedPayload struct {
	ReporterID string `json:"reporterId"`
	BodyID     string `json:"bodyId"`
}

type EmergencyCalledPayload struct {
	CallerID string `json:"callerId"`
}

type MeetingPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	IsDead   bool   `json:"isDead"`
}

type MeetingStartedPayload struct {
	Reason         string          `json:"type"`
	Caller         string          `json:"caller"`
	Reporter       string          `json:"reporter,omitempty"`
	BodyID         string          `json:"bodyId,omitempty"`
	DiscussionTime int             `json:"discussionTime"`
	VotingTime     int             `json:"votingTime"`
	Players        []MeetingPlayer `json:"players"`
}

type ChatMessagePayload struct {
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

type VoteCastPayload struct {
	VoterID string `json:"voterId"`
}

type EjectedPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

type VotingEndedPayload struct {
	Ejected     *EjectedPlayer `json:"ejected"`
	WasImposter bool           `json:"wasImposter,omitempty"`
}

type PlayerEjectedPayload struct {
	PlayerID    string `json:"playerId"`
	Role        string `json:"role"`
	WasImposter bool   `json:"wasImposter"`
}

type TaskCompletedPayload struct {
	PlayerID       string `json:"playerId"`
	TaskID         string `json:"taskId"`
	TotalCompleted int    `json:"totalCompleted"`
	TotalTasks     int    `json:"totalTasks"`
}

type SabotageTriggeredPayload struct {
	SabotageType string `json:"type"`
	PlayerID     string `json:"playerId"`
}

type WinnerPlayer struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
	Role     string `json:"role"`
}

type GameEndedPayload struct {
	Winner  string         `json:"winner"`
	Reason  string         `json:"reason"`
	Winners []WinnerPlayer `json:"winners"`
}
