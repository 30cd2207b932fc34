package finalize

import (
	"context"
	"fmt"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kmehta7/player-auction-backend/internal/engine"
	"github.com/kmehta7/player-auction-backend/internal/store"
)

// completedState plays a three-player auction to completion: T1 buys two
// players in distinct roles for 55 total near base price, T2 overpays 30
// for one base-10 player and rates below T1.
func completedState(t *testing.T) engine.State {
	t.Helper()
	players := []engine.Player{
		{ID: "p1", Name: "Asher", Role: "batter", BasePrice: 20},
		{ID: "p2", Name: "Reyes", Role: "bowler", BasePrice: 10},
		{ID: "p3", Name: "Okafor", Role: "keeper", BasePrice: 15},
	}
	s := engine.NewState("host", players, engine.Rules{MinTeams: 2, MaxSquad: 25, InitialBudget: 100, TimerSec: 30})

	script := []engine.Command{
		{Type: engine.CmdAddTeam, Actor: "owner-1", TeamName: "Strikers", OwnerName: "Priya"},
		{Type: engine.CmdAddTeam, Actor: "owner-2", TeamName: "Royals", OwnerName: "Sam"},
		{Type: engine.CmdStartAuction, Actor: "host"},
		{Type: engine.CmdPlaceBid, TeamID: "T1", Amount: 40},
		{Type: engine.CmdResolveExpiry},
		{Type: engine.CmdPlaceBid, TeamID: "T2", Amount: 30},
		{Type: engine.CmdResolveExpiry},
		{Type: engine.CmdPlaceBid, TeamID: "T1", Amount: 15},
		{Type: engine.CmdResolveExpiry},
	}
	for _, cmd := range script {
		_, next, err := engine.Apply(s, cmd)
		require.NoError(t, err, "Apply(%s)", cmd.Type)
		s = next
	}
	require.Equal(t, engine.StatusCompleted, s.Status)
	return s
}

func newFinalizer() (*Finalizer, *store.Memory) {
	mem := store.NewMemory()
	return New(mem, clockwork.NewFakeClock(), nil), mem
}

func TestFinalize_PersistsClosedRecord(t *testing.T) {
	f, mem := newFinalizer()
	s := completedState(t)

	require.NoError(t, f.Finalize(context.Background(), "AB12CD", s))

	res, ok := mem.Result("AB12CD")
	require.True(t, ok)
	assert.Equal(t, "completed", res.Room.Status)
	assert.Len(t, res.Purchases, 3)
	assert.Len(t, res.Entries, 2)

	// Two distinct roles at base-ish prices beat one: T1 ranks first.
	assert.Equal(t, "T1", res.Entries[0].TeamID)
	assert.Equal(t, 1, res.Entries[0].Rank)
	assert.Equal(t, int64(55), res.Entries[0].Spend)
	assert.Equal(t, int64(45), res.Entries[0].BudgetLeft)
}

func TestFinalize_Idempotent(t *testing.T) {
	f, mem := newFinalizer()
	s := completedState(t)
	ctx := context.Background()

	require.NoError(t, f.Finalize(ctx, "AB12CD", s))
	require.NoError(t, f.Finalize(ctx, "AB12CD", s))

	res, _ := mem.Result("AB12CD")
	assert.Len(t, res.Entries, 2, "one leaderboard entry per team, not two")

	stats, ok, err := mem.GetUserStats(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, stats.AuctionsPlayed, "stats must not double-count")
	assert.Equal(t, 1, stats.Wins)
}

func TestFinalize_RerunWarnsLoudly(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	mem := store.NewMemory()
	f := New(mem, clockwork.NewFakeClock(), zap.New(core))
	s := completedState(t)
	ctx := context.Background()

	require.NoError(t, f.Finalize(ctx, "AB12CD", s))
	assert.Zero(t, logs.Len(), "first finalize must not warn")

	// A reset-and-replayed room completes a second time; the rerun is
	// discarded, and the discard must be visible in the logs.
	require.NoError(t, f.Finalize(ctx, "AB12CD", s))
	entries := logs.FilterMessage("room already finalized, discarding rerun result").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "AB12CD", entries[0].ContextMap()["room"])
}

func TestFinalize_UserStatsAccumulate(t *testing.T) {
	f, mem := newFinalizer()
	s := completedState(t)
	ctx := context.Background()

	require.NoError(t, f.Finalize(ctx, "ROOM01", s))
	require.NoError(t, f.Finalize(ctx, "ROOM02", s))

	stats, ok, err := mem.GetUserStats(ctx, "owner-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, stats.AuctionsPlayed)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 2, stats.TopThree)
	assert.Equal(t, "Strikers", stats.BestTeamName)
	assert.InDelta(t, stats.BestRating, stats.AvgRating, 0.001, "same rating every room")
	assert.Equal(t, []string{"ROOM02", "ROOM01"}, stats.RecentRooms, "newest first")

	runnerUp, ok, err := mem.GetUserStats(ctx, "owner-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 0, runnerUp.Wins)
	assert.Equal(t, 2, runnerUp.TopThree)
}

func TestFinalize_RecentRoomsCappedAtTen(t *testing.T) {
	f, mem := newFinalizer()
	s := completedState(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		require.NoError(t, f.Finalize(ctx, fmt.Sprintf("ROOM%02d", i), s))
	}

	stats, _, err := mem.GetUserStats(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, stats.RecentRooms, 10)
	assert.Equal(t, "ROOM11", stats.RecentRooms[0])
}

func TestStandings_StrictTotalOrder(t *testing.T) {
	// Two teams that never bought anything rate 0-0; the smaller team id
	// must rank first, deterministically.
	s := engine.NewState("host", []engine.Player{{ID: "p1", Name: "A", Role: "batter", BasePrice: 10}},
		engine.Rules{MinTeams: 2, InitialBudget: 100, TimerSec: 30})
	for _, cmd := range []engine.Command{
		{Type: engine.CmdAddTeam, Actor: "o1", TeamName: "Alpha"},
		{Type: engine.CmdAddTeam, Actor: "o2", TeamName: "Beta"},
		{Type: engine.CmdStartAuction, Actor: "host"},
		{Type: engine.CmdResolveExpiry},
	} {
		_, next, err := engine.Apply(s, cmd)
		require.NoError(t, err)
		s = next
	}

	standings := Standings(s)
	require.Len(t, standings, 2)
	assert.Equal(t, "T1", standings[0].TeamID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, "T2", standings[1].TeamID)
	assert.Equal(t, 2, standings[1].Rank)
}

func TestRating_EmptySquadIsZero(t *testing.T) {
	team := &engine.Team{ID: "T1", InitialBudget: 100, Budget: 100}
	assert.Zero(t, Rating(engine.State{}, team))
}
