package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kmehta7/player-auction-backend/internal/ws"
)

func SetupRoutes(a *API) http.Handler {
	r := chi.NewRouter()

	r.Post("/rooms", a.CreateRoom)
	r.Get("/rooms", a.ListRooms)
	r.Post("/rooms/{code}/join", a.JoinRoom)
	r.Post("/rooms/{code}/teams", a.RegisterTeam)

	r.Post("/session/heartbeat", a.Heartbeat)
	r.Post("/session/reconnect", a.Reconnect)
	r.Post("/session/leave", a.Leave)

	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(a.hub, a.sessions, a.log))
	return r
}
