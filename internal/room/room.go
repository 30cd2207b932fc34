package room

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kmehta7/player-auction-backend/internal/engine"
)

type Msg interface{ isRoomMsg() }

// FromClient carries one engine command into the room. Reply, when non-nil,
// receives the per-sender verdict; accepted commands additionally reach every
// client through the snapshot broadcast.
type FromClient struct {
	Cmd   engine.Command
	Reply chan Result
}

func (FromClient) isRoomMsg() {}

type Join struct {
	ClientID string
	Outbox   chan Snapshot // where this client wants to receive snapshots
}

func (Join) isRoomMsg() {}

type Leave struct{ ClientID string }

func (Leave) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

// PrimeTimer arms the turn timer for the current player without waiting for
// a bid. Used after resume-from-crash style re-entry and by tests.
type PrimeTimer struct{}

func (PrimeTimer) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// timerFired is internal: the expiry of timer generation Gen. Fires from an
// older generation are stale (a bid rearmed the timer first) and are dropped.
type timerFired struct{ Gen uint64 }

func (timerFired) isRoomMsg() {}

type Result struct {
	Version int
	Err     error
}

type Snapshot struct {
	Version int
	State   engine.State
}

type View struct {
	Version    int
	NumClients int
	State      engine.State
}

// FinalizeFunc runs once when the room completes. It is invoked off the room
// goroutine so a slow persistence path can never stall bidding.
type FinalizeFunc func(code string, state engine.State)

type Room struct {
	code      string
	inbox     chan Msg
	state     engine.State
	version   int
	clients   map[string]chan Snapshot
	clock     clockwork.Clock
	timer     clockwork.Timer
	timerGen  uint64
	finalized bool
	finalize  FinalizeFunc
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(parent context.Context, code string, initial engine.State, clock clockwork.Clock, finalize FinalizeFunc, log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	if log == nil {
		log = zap.NewNop()
	}
	if finalize == nil {
		finalize = func(string, engine.State) {}
	}

	r := &Room{
		code:     code,
		inbox:    make(chan Msg, 64), // small buffer
		state:    initial,
		clients:  make(map[string]chan Snapshot),
		clock:    clock,
		finalize: finalize,
		log:      log.With(zap.String("room", code)),
		ctx:      ctx,
		cancel:   cancel,
	}

	go r.loop()
	return r
}

// Inbox exposes the message channel for the ws layer and tests.
func (r *Room) Inbox() chan<- Msg { return r.inbox }

func (r *Room) Code() string { return r.code }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				// Register client + send current snapshot immediately
				r.clients[msg.ClientID] = msg.Outbox
				msg.Outbox <- Snapshot{Version: r.version, State: r.state.Clone()}

			case Leave:
				// The room is the sole closer of client channels; closing
				// here lets the ws writer goroutine exit on disconnect.
				if ch, ok := r.clients[msg.ClientID]; ok {
					close(ch)
					delete(r.clients, msg.ClientID)
				}

			case FromClient:
				r.apply(msg.Cmd, msg.Reply)

			case PrimeTimer:
				r.armTimer()

			case timerFired:
				if msg.Gen != r.timerGen {
					break // stale fire, a bid rearmed the timer first
				}
				r.apply(engine.Command{Type: engine.CmdResolveExpiry}, nil)

			case GetState:
				// reflect internal state without data races
				msg.Reply <- View{
					Version:    r.version,
					NumClients: len(r.clients),
					State:      r.state.Clone(),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// apply runs one command through the engine. An accepted command bumps the
// version, drives the timer off the emitted events, and broadcasts; a
// rejected one answers the sender only.
func (r *Room) apply(cmd engine.Command, reply chan Result) {
	events, newState, err := engine.Apply(r.state, cmd)
	if err != nil {
		r.log.Debug("command rejected",
			zap.String("type", string(cmd.Type)),
			zap.Error(err))
		if reply != nil {
			reply <- Result{Version: r.version, Err: err}
		}
		return
	}

	r.state = newState
	r.version++
	r.handleEvents(events)
	if reply != nil {
		reply <- Result{Version: r.version}
	}
	// One clone per mutation: every client marshals the same detached copy
	// while the live state stays private to this goroutine.
	r.broadcast(Snapshot{Version: r.version, State: r.state.Clone()})
}

func (r *Room) handleEvents(events []engine.Event) {
	for _, ev := range events {
		switch ev.Type {
		case engine.EvtPlayerOffered, engine.EvtBidPlaced, engine.EvtAuctionResumed:
			// Resume restarts at full duration rather than the remaining
			// time at pause; same rearm path as a fresh offer.
			r.armTimer()

		case engine.EvtAuctionPaused:
			r.stopTimer()

		case engine.EvtAuctionReset:
			r.stopTimer()
			r.finalized = false

		case engine.EvtAuctionCompleted:
			r.stopTimer()
			if !r.finalized {
				r.finalized = true
				// Decoupled from the bidding path; retries are the
				// finalizer's problem, never the room's. The finalizer gets
				// its own copy in case the room is reset while it runs.
				go r.finalize(r.code, r.state.Clone())
			}
		}
	}
}

// armTimer cancels any pending expiry and schedules a fresh one at the full
// turn duration. The generation counter makes an already-fired stale timer
// harmless: its message carries an old Gen and is ignored.
func (r *Room) armTimer() {
	r.stopTimer()
	r.timerGen++
	gen := r.timerGen

	d := time.Duration(r.state.Rules.TimerSec) * time.Second
	t := r.clock.NewTimer(d)
	r.timer = t

	go func() {
		select {
		case <-t.Chan():
			select {
			case r.inbox <- timerFired{Gen: gen}:
			case <-r.ctx.Done():
			}
		case <-r.ctx.Done():
		}
	}()
}

func (r *Room) stopTimer() {
	if r.timer == nil {
		return
	}
	if !r.timer.Stop() {
		// Already fired; the generation check discards the late message.
		select {
		case <-r.timer.Chan():
		default:
		}
	}
	r.timer = nil
}

func (r *Room) shutdown() {
	r.stopTimer()
	for id, ch := range r.clients {
		close(ch) // Tell client no more snapshots
		delete(r.clients, id)
	}
	r.cancel()
}

func (r *Room) broadcast(snap Snapshot) {
	for id, ch := range r.clients {
		select {
		case ch <- snap:
			// ok
		default:
			// Client is slow/full - drop them.
			close(ch)
			delete(r.clients, id)
		}
	}
}
