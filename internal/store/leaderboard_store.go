package store

import (
	"context"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/jmoiron/sqlx"
)

// LeaderboardStore reads the leaderboard view. Ranking and tie handling are
// done by the view, never here.
type LeaderboardStore struct {
	db *sqlx.DB
}

const (
	leaderboardColumns   = "rank, race_no, bib, name, nationality, total_ms, completed_count"
	topLeaderboardQuery  = "SELECT " + leaderboardColumns + " FROM leaderboard ORDER BY rank ASC, bib ASC LIMIT ?"
	leaderboardRankQuery = "SELECT " + leaderboardColumns + " FROM leaderboard WHERE race_no = ?"
	countFasterQuery     = "SELECT COUNT(*) FROM leaderboard WHERE total_ms < ?"
)

func NewLeaderboardStore(db *sqlx.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) Top(ctx context.Context, limit int) ([]race.LeaderboardEntry, error) {
	entries := []race.LeaderboardEntry{}
	err := s.db.SelectContext(ctx, &entries, s.db.Rebind(topLeaderboardQuery), limit)
	return entries, err
}

func (s *LeaderboardStore) Rank(ctx context.Context, raceNo string) (*race.LeaderboardEntry, error) {
	var entry race.LeaderboardEntry
	if err := s.db.GetContext(ctx, &entry, s.db.Rebind(leaderboardRankQuery), raceNo); err != nil {
		return nil, err
	}
	return &entry, nil
}

// CountFaster counts finished participants with a total strictly below
// totalMs, so a running clock ranks at CountFaster+1.
func (s *LeaderboardStore) CountFaster(ctx context.Context, totalMs int64) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(countFasterQuery), totalMs)
	return n, err
}
