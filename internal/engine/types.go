package engine

type Status string

const (
	StatusLobby     Status = "lobby"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Player is one auction item. A player lives in exactly one of the
// pending queue, the sold list, or the unsold list.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	BasePrice int64  `json:"base_price"`
	PriorTeam string `json:"prior_team,omitempty"` // team id; enables right-to-match
	SoldPrice int64  `json:"sold_price,omitempty"` // set once, on sale
	SoldTo    string `json:"sold_to,omitempty"`
}

type Team struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	OwnerID       string   `json:"owner_id"`
	OwnerName     string   `json:"owner_name"`
	Budget        int64    `json:"budget"`
	InitialBudget int64    `json:"initial_budget"`
	Squad         []string `json:"squad"` // player ids, in purchase order
	RTMAvailable  bool     `json:"rtm_available"`
}

type Rules struct {
	MinTeams      int   `json:"min_teams"`
	MaxSquad      int   `json:"max_squad"`
	InitialBudget int64 `json:"initial_budget"`
	TimerSec      int   `json:"timer_sec"`
}

// State is the authoritative auction state for one room. The current
// player, while one exists, is always the head of Queue.
type State struct {
	Status        Status           `json:"status"`
	HostID        string           `json:"host_id"`
	Rules         Rules            `json:"rules"`
	Teams         map[string]*Team `json:"teams"`
	Pool          []Player         `json:"-"` // initial pool, original order; never mutated
	Queue         []Player         `json:"queue"`
	Sold          []Player         `json:"sold"`
	Unsold        []Player         `json:"unsold"`
	CurrentBid    int64            `json:"current_bid"`
	CurrentBidder string           `json:"current_bidder,omitempty"`
	BidCount      int              `json:"bid_count"`
}

type CommandType string

const (
	CmdAddTeam       CommandType = "AddTeam"
	CmdStartAuction  CommandType = "StartAuction"
	CmdPlaceBid      CommandType = "PlaceBid"
	CmdRightToMatch  CommandType = "RightToMatch"
	CmdResolveExpiry CommandType = "ResolveExpiry"
	CmdSkip          CommandType = "Skip"
	CmdPause         CommandType = "Pause"
	CmdResume        CommandType = "Resume"
	CmdReset         CommandType = "Reset"
)

// Command is the single tagged-variant input to Apply. Actor is the
// participant id of the sender, used for host-only checks and team
// registration; TeamID/Amount are only read by the variants that need them.
type Command struct {
	Type      CommandType
	Actor     string
	TeamID    string
	TeamName  string
	OwnerName string
	Amount    int64
}

type EventType string

const (
	EvtTeamAdded        EventType = "TeamAdded"
	EvtAuctionStarted   EventType = "AuctionStarted"
	EvtBidPlaced        EventType = "BidPlaced"
	EvtRTMUsed          EventType = "RTMUsed"
	EvtPlayerSold       EventType = "PlayerSold"
	EvtPlayerUnsold     EventType = "PlayerUnsold"
	EvtPlayerOffered    EventType = "PlayerOffered"
	EvtAuctionPaused    EventType = "AuctionPaused"
	EvtAuctionResumed   EventType = "AuctionResumed"
	EvtAuctionReset     EventType = "AuctionReset"
	EvtAuctionCompleted EventType = "AuctionCompleted"
)

type Event struct {
	Type     EventType
	TeamID   string
	PlayerID string
	Amount   int64
}
