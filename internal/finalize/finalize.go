package finalize

import (
	"context"
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/kmehta7/player-auction-backend/internal/engine"
	"github.com/kmehta7/player-auction-backend/internal/store"
)

// Standing is one team's final placement.
type Standing struct {
	TeamID     string
	Rank       int
	Rating     float64
	Spend      int64
	BudgetLeft int64
}

// Finalizer turns a completed room's state into one immutable closed-auction
// record plus per-owner lifetime stats. Finalize is idempotent per room: the
// store reports whether the record was freshly created, and stats are only
// touched on first creation.
type Finalizer struct {
	store store.Store
	clock clockwork.Clock
	log   *zap.Logger
}

func New(st store.Store, clock clockwork.Clock, log *zap.Logger) *Finalizer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Finalizer{store: st, clock: clock, log: log}
}

// Run adapts Finalize to the room's fire-and-forget hook, retrying so a
// transient persistence failure never surfaces into the (already completed)
// room.
func (f *Finalizer) Run(code string, s engine.State) {
	ctx := context.Background()
	for attempt := 1; ; attempt++ {
		err := f.Finalize(ctx, code, s)
		if err == nil {
			return
		}
		f.log.Error("finalize failed",
			zap.String("room", code),
			zap.Int("attempt", attempt),
			zap.Error(err))
		if attempt >= 3 {
			return
		}
		f.clock.Sleep(time.Duration(attempt) * time.Second)
	}
}

func (f *Finalizer) Finalize(ctx context.Context, code string, s engine.State) error {
	standings := Standings(s)

	res := store.Result{
		Room: store.RoomRecord{
			Code:        code,
			Status:      string(engine.StatusCompleted),
			HostID:      s.HostID,
			CompletedAt: f.clock.Now(),
		},
	}
	for _, p := range s.Sold {
		buyer := s.Teams[p.SoldTo]
		res.Purchases = append(res.Purchases, store.PlayerPurchase{
			RoomCode:   code,
			PlayerID:   p.ID,
			PlayerName: p.Name,
			TeamID:     p.SoldTo,
			BasePrice:  p.BasePrice,
			SoldPrice:  p.SoldPrice,
			BuyerName:  buyer.OwnerName,
		})
	}
	for _, st := range standings {
		team := s.Teams[st.TeamID]
		res.Entries = append(res.Entries, store.LeaderboardEntry{
			RoomCode:   code,
			TeamID:     st.TeamID,
			TeamName:   team.Name,
			OwnerID:    team.OwnerID,
			OwnerName:  team.OwnerName,
			Rank:       st.Rank,
			Rating:     st.Rating,
			Spend:      st.Spend,
			BudgetLeft: st.BudgetLeft,
		})
	}

	created, err := f.store.SaveResult(ctx, res)
	if err != nil {
		return err
	}
	if !created {
		// A reset-and-replayed room can complete twice; the first record
		// stands and the rerun is dropped on the floor, loudly.
		f.log.Warn("room already finalized, discarding rerun result",
			zap.String("room", code))
		return nil
	}

	for _, st := range standings {
		team := s.Teams[st.TeamID]
		if err := f.updateStats(ctx, code, team, st); err != nil {
			return err
		}
	}
	f.log.Info("room finalized", zap.String("room", code), zap.Int("teams", len(standings)))
	return nil
}

func (f *Finalizer) updateStats(ctx context.Context, code string, team *engine.Team, st Standing) error {
	stats, ok, err := f.store.GetUserStats(ctx, team.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		stats = store.UserStats{ParticipantID: team.OwnerID}
	}
	stats.Name = team.OwnerName
	stats.AvgRating = (stats.AvgRating*float64(stats.AuctionsPlayed) + st.Rating) / float64(stats.AuctionsPlayed+1)
	stats.AuctionsPlayed++
	if st.Rank == 1 {
		stats.Wins++
	}
	if st.Rank <= 3 {
		stats.TopThree++
	}
	if st.Rating > stats.BestRating {
		stats.BestRating = st.Rating
		stats.BestTeamName = team.Name
	}
	stats.RecentRooms = append([]string{code}, stats.RecentRooms...)
	if len(stats.RecentRooms) > 10 {
		stats.RecentRooms = stats.RecentRooms[:10]
	}
	return f.store.PutUserStats(ctx, stats)
}

// Standings rates and ranks every team. The order is a strict total order:
// rating descending, ties broken by the smaller team id.
func Standings(s engine.State) []Standing {
	out := make([]Standing, 0, len(s.Teams))
	for id, team := range s.Teams {
		out = append(out, Standing{
			TeamID:     id,
			Rating:     Rating(s, team),
			Spend:      team.InitialBudget - team.Budget,
			BudgetLeft: team.Budget,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Rating != out[j].Rating {
			return out[i].Rating > out[j].Rating
		}
		return out[i].TeamID < out[j].TeamID
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Rating scores a final squad out of 100: role balance weighted 60, spend
// efficiency weighted 40. Policy, not a correctness invariant.
func Rating(s engine.State, team *engine.Team) float64 {
	if len(team.Squad) == 0 {
		return 0
	}

	roles := make(map[string]bool)
	var baseSum int64
	for _, p := range s.Sold {
		if p.SoldTo != team.ID {
			continue
		}
		roles[p.Role] = true
		baseSum += p.BasePrice
	}
	roleBalance := float64(len(roles)) / float64(len(team.Squad))

	spend := team.InitialBudget - team.Budget
	efficiency := 1.0
	if spend > 0 {
		efficiency = float64(baseSum) / float64(spend)
		if efficiency > 1 {
			efficiency = 1
		}
	}
	return roleBalance*60 + efficiency*40
}
