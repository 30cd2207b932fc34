package engine

const (
	DefaultMinTeams = 2
	DefaultMaxSquad = 25
)

// NewState builds the lobby-phase state for a fresh room. The player pool is
// cloned into both Pool (kept pristine for Reset) and Queue.
func NewState(hostID string, players []Player, rules Rules) State {
	if rules.MinTeams <= 0 {
		rules.MinTeams = DefaultMinTeams
	}
	if rules.MaxSquad <= 0 {
		rules.MaxSquad = DefaultMaxSquad
	}
	return State{
		Status: StatusLobby,
		HostID: hostID,
		Rules:  rules,
		Teams:  map[string]*Team{},
		Pool:   clonePlayers(players),
		Queue:  clonePlayers(players),
	}
}

// CurrentPlayer returns the player open for bidding, if any. The current
// player is always the queue head while the room is active or paused.
func (s State) CurrentPlayer() (Player, bool) {
	if s.Status != StatusActive && s.Status != StatusPaused {
		return Player{}, false
	}
	if len(s.Queue) == 0 {
		return Player{}, false
	}
	return s.Queue[0], true
}

// Clone returns a deep copy that is safe to read outside the goroutine that
// owns the live state: the Teams map, each Team, and every player slice are
// copied, so later sales cannot tear a snapshot already handed out.
func (s State) Clone() State {
	out := s
	out.Teams = make(map[string]*Team, len(s.Teams))
	for id, team := range s.Teams {
		t := *team
		t.Squad = append([]string(nil), team.Squad...)
		out.Teams[id] = &t
	}
	out.Pool = clonePlayers(s.Pool)
	out.Queue = clonePlayers(s.Queue)
	out.Sold = clonePlayers(s.Sold)
	out.Unsold = clonePlayers(s.Unsold)
	return out
}

func clonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
