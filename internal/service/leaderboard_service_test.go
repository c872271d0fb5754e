package service

import (
	"context"
	"testing"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(raceNo string, rank int, totalMs int64) race.LeaderboardEntry {
	return race.LeaderboardEntry{Rank: rank, RaceNo: raceNo, TotalMs: totalMs, CompletedCount: race.SectorCount}
}

func raceNos(entries []race.LeaderboardEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.RaceNo
	}
	return out
}

func TestMergeLeaderboard(t *testing.T) {
	rows := []race.LeaderboardEntry{
		entry("F00001", 1, 1000),
		entry("F00002", 2, 2000),
		entry("F00003", 2, 2000),
		entry("F00004", 4, 4000),
	}

	tests := []struct {
		name    string
		current *race.LeaderboardEntry
		window  int
		want    []string
	}{
		{"no current caps window", nil, 3, []string{"F00001", "F00002", "F00003"}},
		{"live inserted by time", &race.LeaderboardEntry{RaceNo: "F00009", TotalMs: 1500, Live: true}, 3,
			[]string{"F00001", "F00009", "F00002"}},
		{"live ties go after finished", &race.LeaderboardEntry{RaceNo: "F00009", TotalMs: 2000, Live: true}, 4,
			[]string{"F00001", "F00002", "F00003", "F00009"}},
		{"slow live takes last slot", &race.LeaderboardEntry{RaceNo: "F00009", TotalMs: 9000, Live: true}, 3,
			[]string{"F00001", "F00002", "F00009"}},
		{"finished in window marked in place", &race.LeaderboardEntry{RaceNo: "F00002", Rank: 2, TotalMs: 2000, IsCurrent: true}, 3,
			[]string{"F00001", "F00002", "F00003"}},
		{"finished outside window", &race.LeaderboardEntry{RaceNo: "F00004", Rank: 4, TotalMs: 4000, IsCurrent: true}, 2,
			[]string{"F00001", "F00004"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merged := MergeLeaderboard(rows, tt.current, tt.window)
			assert.Equal(t, tt.want, raceNos(merged))
			if tt.current != nil {
				found := false
				for _, e := range merged {
					if e.RaceNo == tt.current.RaceNo {
						found = true
						assert.Equal(t, tt.current.IsCurrent, e.IsCurrent)
					}
				}
				assert.True(t, found)
			}
		})
	}

	// The input is left alone
	assert.Equal(t, []string{"F00001", "F00002", "F00003", "F00004"}, raceNos(rows))
}

func TestLeaderboard_Get(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	fast := env.register(t, "fast")
	slow := env.register(t, "slow")
	slower := env.register(t, "slower")
	slowest := env.register(t, "slowest")
	live := env.register(t, "live")
	idle := env.register(t, "idle")

	env.runRace(t, fast.RaceNo, time.Minute)
	env.runRace(t, slow.RaceNo, 2*time.Minute)
	env.runRace(t, slower.RaceNo, 3*time.Minute)
	env.runRace(t, slowest.RaceNo, 4*time.Minute)

	board, err := env.leaderboard.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{fast.RaceNo, slow.RaceNo, slower.RaceNo}, raceNos(board.Entries))
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Nil(t, board.Current)

	// Live participant 7 minutes in sits between 6 and 12 minute finishers
	env.start(t, live.RaceNo, 1)
	env.clock.Advance(7 * time.Minute)
	board, err = env.leaderboard.Get(ctx, live.RaceNo)
	require.NoError(t, err)
	require.NotNil(t, board.Current)
	assert.True(t, board.Current.Live)
	assert.Equal(t, 2, board.Current.Rank)
	assert.Equal(t, (7 * time.Minute).Milliseconds(), board.Current.TotalMs)
	assert.Equal(t, []string{fast.RaceNo, live.RaceNo, slow.RaceNo}, raceNos(board.Entries))

	// Finished participant outside the window is shown with its rank
	board, err = env.leaderboard.Get(ctx, slowest.RaceNo)
	require.NoError(t, err)
	require.NotNil(t, board.Current)
	assert.Equal(t, 4, board.Current.Rank)
	assert.False(t, board.Current.Live)
	assert.Equal(t, []string{fast.RaceNo, slow.RaceNo, slowest.RaceNo}, raceNos(board.Entries))

	// Not started and unknown race numbers have no current entry
	board, err = env.leaderboard.Get(ctx, idle.RaceNo)
	require.NoError(t, err)
	assert.Nil(t, board.Current)
	board, err = env.leaderboard.Get(ctx, "F09999")
	require.NoError(t, err)
	assert.Nil(t, board.Current)
}

func TestLeaderboard_CacheAside(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "ada")

	board, err := env.leaderboard.Get(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
	_, cached := env.cache.rows[3]
	assert.True(t, cached)

	// Finishing clears the snapshot so the next read sees the new row
	env.runRace(t, reg.RaceNo, time.Minute)
	_, cached = env.cache.rows[3]
	assert.False(t, cached)

	board, err = env.leaderboard.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{reg.RaceNo}, raceNos(board.Entries))
}

func TestLeaderboard_FinishDuringReadIsNotCached(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "ada")

	// The race finishes after the view was read but before the rows are stored
	env.cache.beforeSet = func() {
		env.cache.beforeSet = nil
		env.runRace(t, reg.RaceNo, time.Minute)
	}

	board, err := env.leaderboard.Get(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, board.Entries)
	_, cached := env.cache.rows[3]
	assert.False(t, cached)

	board, err = env.leaderboard.Get(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{reg.RaceNo}, raceNos(board.Entries))
	_, cached = env.cache.rows[3]
	assert.True(t, cached)
}
