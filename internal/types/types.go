package types

import "github.com/kmehta7/player-auction-backend/internal/engine"

// ClientMessage is one inbound ws frame. Type selects the variant:
// "Bid" (amount), "RightToMatch", "StartAuction", "Pause", "Resume",
// "Skip", "Reset", "Heartbeat". Anything else is rejected at the boundary.
type ClientMessage struct {
	Type   string `json:"type"`
	Amount int64  `json:"amount,omitempty"`
}

// ServerMessage is one outbound ws frame:
// "StateSnapshot" carries Version+State, "Result" answers the sender's last
// command, "Error" reports a frame that never reached the engine.
type ServerMessage struct {
	Type    string        `json:"type"`
	Version int           `json:"version,omitempty"`
	State   *engine.State `json:"state,omitempty"`
	OK      bool          `json:"ok,omitempty"`
	Code    string        `json:"code,omitempty"` // machine-readable reason
	Error   string        `json:"error,omitempty"`
}
