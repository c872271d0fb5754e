package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
)

const DefaultLeaderboardWindow = 8

type LeaderboardService struct {
	participants *store.ParticipantStore
	leaderboard  *store.LeaderboardStore
	cache        LeaderboardCache
	window       int
	now          func() time.Time
}

func NewLeaderboardService(stores Stores, cache LeaderboardCache, window int) *LeaderboardService {
	if window <= 0 {
		window = DefaultLeaderboardWindow
	}
	return &LeaderboardService{
		participants: stores.Participants,
		leaderboard:  stores.Leaderboard,
		cache:        cache,
		window:       window,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type Leaderboard struct {
	Status  string                  `json:"status"`
	Entries []race.LeaderboardEntry `json:"leaderboard"`
	Current *race.LeaderboardEntry  `json:"current,omitempty"`
}

// Get returns the top of the leaderboard. When raceNo names a participant
// who has started, that participant is merged into the window.
func (s *LeaderboardService) Get(ctx context.Context, raceNo string) (*Leaderboard, error) {
	rows, err := s.top(ctx)
	if err != nil {
		return nil, err
	}

	var current *race.LeaderboardEntry
	if strings.TrimSpace(raceNo) != "" {
		current, err = s.currentEntry(ctx, raceNo)
		if err != nil {
			return nil, err
		}
	}

	return &Leaderboard{
		Status:  "ok",
		Entries: MergeLeaderboard(rows, current, s.window),
		Current: current,
	}, nil
}

func (s *LeaderboardService) top(ctx context.Context) ([]race.LeaderboardEntry, error) {
	var (
		generation int64
		cacheable  bool
	)
	if s.cache != nil {
		rows, ok, err := s.cache.Get(ctx, s.window)
		if err != nil {
			slog.Warn("leaderboard cache read failed", "error", err)
		} else if ok {
			return rows, nil
		}

		// Taken before the view is read so a finish in between is noticed
		generation, err = s.cache.Generation(ctx)
		if err != nil {
			slog.Warn("leaderboard cache generation read failed", "error", err)
		} else {
			cacheable = true
		}
	}

	rows, err := s.leaderboard.Top(ctx, s.window)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	if cacheable {
		stored, err := s.cache.Set(ctx, generation, s.window, rows)
		if err != nil {
			slog.Warn("leaderboard cache write failed", "error", err)
		} else if !stored {
			slog.Debug("leaderboard changed while reading, snapshot not cached")
		}
	}
	return rows, nil
}

// currentEntry builds the caller's own row. Unknown race numbers and
// participants who have not started yet have none.
func (s *LeaderboardService) currentEntry(ctx context.Context, raceNo string) (*race.LeaderboardEntry, error) {
	canonical, _, err := race.ParseRaceNo(raceNo)
	if err != nil {
		return nil, nil
	}

	p, err := s.participants.GetByRaceNo(ctx, canonical)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	if p.HasFinished() {
		entry, err := s.leaderboard.Rank(ctx, p.RaceNo)
		if err != nil {
			return nil, fmt.Errorf("failed to rank participant: %w", err)
		}
		entry.IsCurrent = true
		return entry, nil
	}

	if !p.HasStarted() {
		return nil, nil
	}

	elapsed := s.now().Sub(*p.StartedAt).Milliseconds()
	faster, err := s.leaderboard.CountFaster(ctx, elapsed)
	if err != nil {
		return nil, fmt.Errorf("failed to rank participant: %w", err)
	}

	return &race.LeaderboardEntry{
		Rank:           faster + 1,
		RaceNo:         p.RaceNo,
		Bib:            p.Bib,
		Name:           p.Name,
		Nationality:    p.Nationality,
		TotalMs:        elapsed,
		CompletedCount: p.CompletedCount,
		IsCurrent:      true,
		Live:           true,
	}, nil
}

// MergeLeaderboard places current among the ranked rows and caps the
// result to window entries. A current entry already in rows is replaced in
// place; otherwise it is inserted by total time. The current entry is never
// cut off: if it falls outside the window it takes the last slot.
func MergeLeaderboard(rows []race.LeaderboardEntry, current *race.LeaderboardEntry, window int) []race.LeaderboardEntry {
	merged := make([]race.LeaderboardEntry, len(rows), len(rows)+1)
	copy(merged, rows)

	pos := -1
	if current != nil {
		for i := range merged {
			if merged[i].RaceNo == current.RaceNo {
				merged[i] = *current
				pos = i
				break
			}
		}
		if pos < 0 {
			// Finished rows with an equal time stay ahead of the current entry
			pos = sort.Search(len(merged), func(i int) bool {
				return merged[i].TotalMs > current.TotalMs
			})
			merged = append(merged, race.LeaderboardEntry{})
			copy(merged[pos+1:], merged[pos:])
			merged[pos] = *current
		}
	}

	if window <= 0 || len(merged) <= window {
		return merged
	}
	if pos >= window {
		return append(merged[:window-1:window-1], merged[pos])
	}
	return merged[:window]
}
