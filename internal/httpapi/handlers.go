package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmehta7/player-auction-backend/internal/config"
	"github.com/kmehta7/player-auction-backend/internal/engine"
	"github.com/kmehta7/player-auction-backend/internal/hub"
	"github.com/kmehta7/player-auction-backend/internal/room"
	"github.com/kmehta7/player-auction-backend/internal/session"
)

type API struct {
	hub      *hub.Hub
	sessions *session.Manager
	cfg      config.Config
	log      *zap.Logger
}

func NewAPI(h *hub.Hub, sessions *session.Manager, cfg config.Config, log *zap.Logger) *API {
	if log == nil {
		log = zap.NewNop()
	}
	return &API{hub: h, sessions: sessions, cfg: cfg, log: log}
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

type playerReq struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	BasePrice int64  `json:"base_price"`
	PriorTeam string `json:"prior_team,omitempty"`
}

type createRoomReq struct {
	HostName      string      `json:"host_name"`
	MinTeams      int         `json:"min_teams,omitempty"`
	MaxSquad      int         `json:"max_squad,omitempty"`
	InitialBudget int64       `json:"initial_budget,omitempty"`
	TimerSec      int         `json:"timer_sec,omitempty"`
	Players       []playerReq `json:"players"`
}

// CreateRoom allocates a unique code, seeds the room actor with the player
// pool, and issues the host's session in one shot.
func (a *API) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
		return
	}
	if req.HostName == "" {
		writeError(w, http.StatusBadRequest, "validation", "host_name is required")
		return
	}
	if len(req.Players) == 0 {
		writeError(w, http.StatusBadRequest, "validation", "players pool is required")
		return
	}

	rules := engine.Rules{
		MinTeams:      req.MinTeams,
		MaxSquad:      req.MaxSquad,
		InitialBudget: req.InitialBudget,
		TimerSec:      req.TimerSec,
	}
	if rules.MinTeams <= 0 {
		rules.MinTeams = a.cfg.MinTeams
	}
	if rules.MaxSquad <= 0 {
		rules.MaxSquad = a.cfg.MaxSquad
	}
	if rules.InitialBudget <= 0 {
		rules.InitialBudget = a.cfg.InitialBudget
	}
	if rules.TimerSec <= 0 {
		rules.TimerSec = a.cfg.TimerSec
	}

	players := make([]engine.Player, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, engine.Player{
			ID:        p.ID,
			Name:      p.Name,
			Role:      p.Role,
			BasePrice: p.BasePrice,
			PriorTeam: p.PriorTeam,
		})
	}

	// The hub decides whether a code is free; checking first and creating
	// after would race with concurrent creates. Created=false means the
	// code was already taken, so generate another.
	hostID := uuid.NewString()
	state := engine.NewState(hostID, players, rules)
	var code string
	for {
		c, err := GenerateCode()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal", "failed to generate code")
			return
		}
		reply := make(chan hub.CreateResult, 1)
		a.hub.Inbox() <- hub.CreateRoom{Code: c, State: state, Reply: reply}
		if res := <-reply; res.Created {
			code = c
			break
		}
		a.log.Warn("room code collision, regenerating", zap.String("code", c))
	}

	sess := a.sessions.CreateWithParticipant(code, req.HostName, hostID)

	writeJSON(w, http.StatusCreated, map[string]any{
		"code":           code,
		"token":          sess.Token,
		"participant_id": sess.ParticipantID,
	})
}

type roomSummary struct {
	Code     string        `json:"code"`
	Status   engine.Status `json:"status"`
	NumTeams int           `json:"num_teams"`
	QueueLen int           `json:"queue_len"`
	SoldLen  int           `json:"sold_len"`
	Clients  int           `json:"clients"`
}

func (a *API) ListRooms(w http.ResponseWriter, r *http.Request) {
	filter := engine.Status(r.URL.Query().Get("status"))

	reply := make(chan []*room.Room, 1)
	a.hub.Inbox() <- hub.ListRooms{Reply: reply}
	rooms := <-reply

	out := []roomSummary{}
	for _, rm := range rooms {
		vr := make(chan room.View, 1)
		rm.Inbox() <- room.GetState{Reply: vr}
		v := <-vr
		if filter != "" && v.State.Status != filter {
			continue
		}
		out = append(out, roomSummary{
			Code:     rm.Code(),
			Status:   v.State.Status,
			NumTeams: len(v.State.Teams),
			QueueLen: len(v.State.Queue),
			SoldLen:  len(v.State.Sold),
			Clients:  v.NumClients,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) JoinRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "validation", "name is required")
		return
	}

	reply := make(chan *room.Room, 1)
	a.hub.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	if <-reply == nil {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}

	sess := a.sessions.Create(code, req.Name)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":          sess.Token,
		"participant_id": sess.ParticipantID,
	})
}

// RegisterTeam claims a team seat in the lobby and binds it to the caller's
// session, so later bids need no team field on the wire.
func (a *API) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req struct {
		Token    string `json:"token"`
		TeamName string `json:"team_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.TeamName == "" {
		writeError(w, http.StatusBadRequest, "validation", "team_name is required")
		return
	}

	sess, err := a.sessions.Validate(req.Token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "auth", "invalid session")
		return
	}
	if sess.RoomCode != code {
		writeError(w, http.StatusForbidden, "auth", "session belongs to another room")
		return
	}

	reply := make(chan *room.Room, 1)
	a.hub.Inbox() <- hub.GetRoom{Code: code, Reply: reply}
	rm := <-reply
	if rm == nil {
		writeError(w, http.StatusNotFound, "not_found", "room not found")
		return
	}

	res := make(chan room.Result, 1)
	rm.Inbox() <- room.FromClient{
		Cmd: engine.Command{
			Type:      engine.CmdAddTeam,
			Actor:     sess.ParticipantID,
			TeamName:  req.TeamName,
			OwnerName: sess.Name,
		},
		Reply: res,
	}
	verdict := <-res
	if verdict.Err != nil {
		writeError(w, http.StatusConflict, "conflict", verdict.Err.Error())
		return
	}

	vr := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: vr}
	v := <-vr
	for id, t := range v.State.Teams {
		if t.Name == req.TeamName {
			_ = a.sessions.BindTeam(req.Token, id)
			writeJSON(w, http.StatusCreated, map[string]any{"team_id": id})
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "internal", "team not visible after registration")
}

func (a *API) Reconnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "validation", "token is required")
		return
	}

	sess, err := a.sessions.Reconnect(req.Token)
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown session token")
		return
	}

	reply := make(chan *room.Room, 1)
	a.hub.Inbox() <- hub.GetRoom{Code: sess.RoomCode, Reply: reply}
	rm := <-reply
	if rm == nil {
		// Room may outlive sessions, not the other way round.
		writeError(w, http.StatusNotFound, "not_found", "room no longer exists")
		return
	}

	vr := make(chan room.View, 1)
	rm.Inbox() <- room.GetState{Reply: vr}
	v := <-vr
	writeJSON(w, http.StatusOK, map[string]any{
		"session": sess,
		"version": v.Version,
		"state":   v.State,
	})
}

func (a *API) Heartbeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
		return
	}
	if err := a.sessions.Heartbeat(req.Token); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown session token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) Leave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "malformed body")
		return
	}
	if err := a.sessions.Invalidate(req.Token); err != nil {
		writeError(w, http.StatusNotFound, "not_found", "unknown session token")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, map[string]string{"code": code, "error": msg})
}
