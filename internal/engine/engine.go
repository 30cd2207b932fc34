package engine

import (
	"errors"
	"fmt"
)

var ErrWrongPhase = errors.New("wrong phase")
var ErrNotHost = errors.New("host-only command")
var ErrNoActivePlayer = errors.New("no active player")
var ErrBidTooLow = errors.New("bid too low")
var ErrSelfOutbid = errors.New("cannot outbid own bid")
var ErrInsufficientBudget = errors.New("insufficient budget")
var ErrSquadFull = errors.New("squad full")
var ErrUnknownTeam = errors.New("unknown team")
var ErrTeamExists = errors.New("team already registered")
var ErrNotEnoughTeams = errors.New("not enough teams")
var ErrEmptyQueue = errors.New("no players to auction")
var ErrRTMNotEligible = errors.New("right-to-match not eligible")
var ErrRTMConsumed = errors.New("right-to-match already used")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Apply validates cmd against s and, on success, returns the emitted events
// and the next state. On failure the returned state is s, untouched: every
// variant validates fully before its first mutation, so a rejection can never
// leave a partial write behind.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {

	case CmdAddTeam:
		if s.Status != StatusLobby {
			return nil, s, ErrWrongPhase
		}
		if cmd.TeamName == "" {
			return nil, s, ErrUnknownTeam
		}
		for _, t := range s.Teams {
			if t.Name == cmd.TeamName {
				return nil, s, ErrTeamExists
			}
		}
		newState := s
		id := fmt.Sprintf("T%d", len(s.Teams)+1)
		newState.Teams[id] = &Team{
			ID:            id,
			Name:          cmd.TeamName,
			OwnerID:       cmd.Actor,
			OwnerName:     cmd.OwnerName,
			Budget:        s.Rules.InitialBudget,
			InitialBudget: s.Rules.InitialBudget,
			RTMAvailable:  true,
		}
		return []Event{{Type: EvtTeamAdded, TeamID: id}}, newState, nil

	case CmdStartAuction:
		if cmd.Actor != s.HostID {
			return nil, s, ErrNotHost
		}
		if s.Status != StatusLobby {
			return nil, s, ErrWrongPhase
		}
		if len(s.Teams) < s.Rules.MinTeams {
			return nil, s, ErrNotEnoughTeams
		}
		if len(s.Queue) == 0 {
			return nil, s, ErrEmptyQueue
		}
		newState := s
		newState.Status = StatusActive
		events := []Event{
			{Type: EvtAuctionStarted},
			{Type: EvtPlayerOffered, PlayerID: s.Queue[0].ID},
		}
		return events, newState, nil

	case CmdPlaceBid:
		if s.Status != StatusActive {
			return nil, s, ErrWrongPhase
		}
		if len(s.Queue) == 0 {
			return nil, s, ErrNoActivePlayer
		}
		team, ok := s.Teams[cmd.TeamID]
		if !ok {
			return nil, s, ErrUnknownTeam
		}
		player := s.Queue[0]
		if cmd.Amount <= s.CurrentBid || cmd.Amount < player.BasePrice {
			return nil, s, ErrBidTooLow
		}
		if cmd.TeamID == s.CurrentBidder {
			return nil, s, ErrSelfOutbid
		}
		if team.Budget < cmd.Amount {
			return nil, s, ErrInsufficientBudget
		}
		if len(team.Squad) >= s.Rules.MaxSquad {
			return nil, s, ErrSquadFull
		}
		newState := s
		newState.CurrentBid = cmd.Amount
		newState.CurrentBidder = cmd.TeamID
		newState.BidCount++
		ev := []Event{{Type: EvtBidPlaced, TeamID: cmd.TeamID, PlayerID: player.ID, Amount: cmd.Amount}}
		return ev, newState, nil

	case CmdRightToMatch:
		if s.Status != StatusActive {
			return nil, s, ErrWrongPhase
		}
		if len(s.Queue) == 0 {
			return nil, s, ErrNoActivePlayer
		}
		team, ok := s.Teams[cmd.TeamID]
		if !ok {
			return nil, s, ErrUnknownTeam
		}
		player := s.Queue[0]
		if player.PriorTeam != cmd.TeamID {
			return nil, s, ErrRTMNotEligible
		}
		// RTM matches an existing rival bid; with no bid, or our own bid
		// standing, there is nothing to match.
		if s.CurrentBidder == "" || s.CurrentBidder == cmd.TeamID {
			return nil, s, ErrRTMNotEligible
		}
		if !team.RTMAvailable {
			return nil, s, ErrRTMConsumed
		}
		if team.Budget < s.CurrentBid {
			return nil, s, ErrInsufficientBudget
		}
		if len(team.Squad) >= s.Rules.MaxSquad {
			return nil, s, ErrSquadFull
		}
		newState := s
		price := s.CurrentBid
		events := []Event{
			{Type: EvtRTMUsed, TeamID: cmd.TeamID, PlayerID: player.ID, Amount: price},
		}
		team.RTMAvailable = false
		// The outbid team was never debited; its reservation simply lapses.
		events = append(events, sellCurrent(&newState, cmd.TeamID, price)...)
		return events, newState, nil

	case CmdResolveExpiry:
		if s.Status != StatusActive {
			return nil, s, ErrWrongPhase
		}
		if len(s.Queue) == 0 {
			return nil, s, ErrNoActivePlayer
		}
		newState := s
		var events []Event
		if s.CurrentBidder != "" {
			events = sellCurrent(&newState, s.CurrentBidder, s.CurrentBid)
		} else {
			events = passCurrent(&newState)
		}
		return events, newState, nil

	case CmdSkip:
		if cmd.Actor != s.HostID {
			return nil, s, ErrNotHost
		}
		if s.Status != StatusActive {
			return nil, s, ErrWrongPhase
		}
		if len(s.Queue) == 0 {
			return nil, s, ErrNoActivePlayer
		}
		newState := s
		return passCurrent(&newState), newState, nil

	case CmdPause:
		if cmd.Actor != s.HostID {
			return nil, s, ErrNotHost
		}
		if s.Status != StatusActive {
			return nil, s, ErrWrongPhase
		}
		newState := s
		newState.Status = StatusPaused
		return []Event{{Type: EvtAuctionPaused}}, newState, nil

	case CmdResume:
		if cmd.Actor != s.HostID {
			return nil, s, ErrNotHost
		}
		if s.Status != StatusPaused {
			return nil, s, ErrWrongPhase
		}
		newState := s
		newState.Status = StatusActive
		return []Event{{Type: EvtAuctionResumed}}, newState, nil

	case CmdReset:
		if cmd.Actor != s.HostID {
			return nil, s, ErrNotHost
		}
		if s.Status == StatusLobby {
			return nil, s, ErrWrongPhase
		}
		newState := resetState(s)
		return []Event{{Type: EvtAuctionReset}}, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// sellCurrent moves the queue head to the sold list as bought by teamID at
// price, debits the buyer, and advances. Callers have already validated
// affordability and squad room.
func sellCurrent(s *State, teamID string, price int64) []Event {
	player := s.Queue[0]
	player.SoldPrice = price
	player.SoldTo = teamID

	team := s.Teams[teamID]
	team.Budget -= price
	team.Squad = append(team.Squad, player.ID)

	s.Sold = append(s.Sold, player)
	events := []Event{{Type: EvtPlayerSold, TeamID: teamID, PlayerID: player.ID, Amount: price}}
	return append(events, advance(s)...)
}

// passCurrent moves the queue head to the unsold list and advances.
func passCurrent(s *State) []Event {
	player := s.Queue[0]
	s.Unsold = append(s.Unsold, player)
	events := []Event{{Type: EvtPlayerUnsold, PlayerID: player.ID}}
	return append(events, advance(s)...)
}

// advance pops the queue head, clears the transient bid fields, and either
// offers the next player or completes the auction.
func advance(s *State) []Event {
	s.Queue = s.Queue[1:]
	s.CurrentBid = 0
	s.CurrentBidder = ""

	if len(s.Queue) == 0 {
		s.Status = StatusCompleted
		return []Event{{Type: EvtAuctionCompleted}}
	}
	return []Event{{Type: EvtPlayerOffered, PlayerID: s.Queue[0].ID}}
}

func resetState(s State) State {
	newState := s
	newState.Status = StatusLobby
	newState.Queue = clonePlayers(s.Pool)
	newState.Sold = nil
	newState.Unsold = nil
	newState.CurrentBid = 0
	newState.CurrentBidder = ""
	newState.BidCount = 0
	for _, t := range newState.Teams {
		t.Budget = t.InitialBudget
		t.Squad = nil
		t.RTMAvailable = true
	}
	return newState
}
