package hub

import (
	"context"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kmehta7/player-auction-backend/internal/engine"
	"github.com/kmehta7/player-auction-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	State engine.State
	Reply chan CreateResult
}

// CreateResult reports whether this CreateRoom actually made the room.
// Created=false means the code was already taken; callers wanting a fresh
// room retry with a new code instead of silently sharing someone else's.
type CreateResult struct {
	Room    *room.Room
	Created bool
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	State engine.State // only used if creation happens
	Reply chan *room.Room
}

type RemoveRoom struct {
	Code string
}

type ListRooms struct {
	Reply chan []*room.Room
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

// Hub is the room registry: one actor mapping codes to live room actors.
// Rooms it creates inherit its clock, finalizer, and logger.
type Hub struct {
	inbox    chan HubMsg
	rooms    map[string]*room.Room
	clock    clockwork.Clock
	finalize room.FinalizeFunc
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, clock clockwork.Clock, finalize room.FinalizeFunc, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    make(map[string]*room.Room),
		clock:    clock,
		finalize: finalize,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- CreateResult{Room: rm}
					break
				}
				rm := room.New(h.ctx, msg.Code, msg.State, h.clock, h.finalize, h.log)
				h.rooms[msg.Code] = rm
				h.log.Info("room created", zap.String("room", msg.Code))
				msg.Reply <- CreateResult{Room: rm, Created: true}

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case EnsureRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- rm
					break
				}
				rm := room.New(h.ctx, msg.Code, msg.State, h.clock, h.finalize, h.log)
				h.rooms[msg.Code] = rm
				msg.Reply <- rm

			case ListRooms:
				out := make([]*room.Room, 0, len(h.rooms))
				for _, rm := range h.rooms {
					out = append(out, rm)
				}
				msg.Reply <- out

			case RemoveRoom:
				delete(h.rooms, msg.Code)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Inbox() <- room.Shutdown{}
	}
	clear(h.rooms)
	h.cancel()
}
