package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kmehta7/player-auction-backend/internal/engine"
	"github.com/kmehta7/player-auction-backend/internal/hub"
	"github.com/kmehta7/player-auction-backend/internal/room"
	"github.com/kmehta7/player-auction-backend/internal/session"
	"github.com/kmehta7/player-auction-backend/internal/types"
)

// Handler upgrades an authenticated session to a live room connection:
// snapshots stream out, commands stream in, and every command is answered
// with a Result frame carrying a machine-readable reason on rejection.
func Handler(h *hub.Hub, sessions *session.Manager, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		sess, err := sessions.Validate(token)
		if err != nil {
			http.Error(w, "invalid session", http.StatusUnauthorized)
			return
		}

		reply := make(chan *room.Room, 1)
		h.Inbox() <- hub.GetRoom{Code: sess.RoomCode, Reply: reply}
		rm := <-reply
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// One session can hold several connections (tabs); each gets its
		// own client id so Leave never unregisters a sibling.
		clientID := uuid.NewString()
		out := make(chan room.Snapshot, 8)

		log.Debug("client connected",
			zap.String("room", sess.RoomCode),
			zap.String("participant", sess.ParticipantID))

		rm.Inbox() <- room.Join{ClientID: clientID, Outbox: out}
		defer func() { rm.Inbox() <- room.Leave{ClientID: clientID} }()

		_ = sessions.Heartbeat(token)

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for snap := range out {
				msg := types.ServerMessage{Type: "StateSnapshot", Version: snap.Version, State: &snap.State}
				payload, _ := json.Marshal(msg)
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Connection gone; session stays (disconnected != left).
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				writeFrame(r.Context(), conn, types.ServerMessage{Type: "Error", Code: "bad_json", Error: "bad json"})
				continue
			}

			if cm.Type == "Heartbeat" {
				_ = sessions.Heartbeat(token)
				continue
			}

			// Re-resolve the session per frame so a team bound after the
			// socket opened is picked up.
			sess, err = sessions.Validate(token)
			if err != nil {
				writeFrame(r.Context(), conn, types.ServerMessage{Type: "Error", Code: "auth", Error: "session no longer valid"})
				return
			}

			cmd, ok := toCommand(cm, sess)
			if !ok {
				writeFrame(r.Context(), conn, types.ServerMessage{Type: "Error", Code: "unknown_type", Error: "unknown type"})
				continue
			}

			res := make(chan room.Result, 1)
			rm.Inbox() <- room.FromClient{Cmd: cmd, Reply: res}
			select {
			case verdict := <-res:
				if verdict.Err != nil {
					writeFrame(r.Context(), conn, types.ServerMessage{
						Type:  "Result",
						OK:    false,
						Code:  ReasonCode(verdict.Err),
						Error: verdict.Err.Error(),
					})
					continue
				}
				writeFrame(r.Context(), conn, types.ServerMessage{Type: "Result", OK: true, Version: verdict.Version})
			case <-r.Context().Done():
				return
			}
		}
	}
}

func toCommand(m types.ClientMessage, sess session.Session) (engine.Command, bool) {
	switch m.Type {
	case "Bid":
		return engine.Command{Type: engine.CmdPlaceBid, Actor: sess.ParticipantID, TeamID: sess.TeamID, Amount: m.Amount}, true
	case "RightToMatch":
		return engine.Command{Type: engine.CmdRightToMatch, Actor: sess.ParticipantID, TeamID: sess.TeamID}, true
	case "StartAuction":
		return engine.Command{Type: engine.CmdStartAuction, Actor: sess.ParticipantID}, true
	case "Pause":
		return engine.Command{Type: engine.CmdPause, Actor: sess.ParticipantID}, true
	case "Resume":
		return engine.Command{Type: engine.CmdResume, Actor: sess.ParticipantID}, true
	case "Skip":
		return engine.Command{Type: engine.CmdSkip, Actor: sess.ParticipantID}, true
	case "Reset":
		return engine.Command{Type: engine.CmdReset, Actor: sess.ParticipantID}, true
	default:
		return engine.Command{}, false
	}
}

func writeFrame(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) {
	payload, _ := json.Marshal(msg)
	wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_ = conn.Write(wctx, websocket.MessageText, payload)
}
