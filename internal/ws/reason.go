package ws

import (
	"errors"

	"github.com/kmehta7/player-auction-backend/internal/engine"
)

var reasonCodes = map[error]string{
	engine.ErrWrongPhase:         "wrong_phase",
	engine.ErrNotHost:            "not_host",
	engine.ErrNoActivePlayer:     "no_active_player",
	engine.ErrBidTooLow:          "bid_too_low",
	engine.ErrSelfOutbid:         "self_outbid",
	engine.ErrInsufficientBudget: "insufficient_budget",
	engine.ErrSquadFull:          "squad_full",
	engine.ErrUnknownTeam:        "unknown_team",
	engine.ErrTeamExists:         "team_exists",
	engine.ErrNotEnoughTeams:     "not_enough_teams",
	engine.ErrEmptyQueue:         "empty_queue",
	engine.ErrRTMNotEligible:     "rtm_not_eligible",
	engine.ErrRTMConsumed:        "rtm_consumed",
}

// ReasonCode maps an engine rejection to its wire code.
func ReasonCode(err error) string {
	for sentinel, code := range reasonCodes {
		if errors.Is(err, sentinel) {
			return code
		}
	}
	return "rejected"
}
