package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
	"github.com/jmoiron/sqlx"
)

// Stores bundles the stores shared by the services.
type Stores struct {
	Participants *store.ParticipantStore
	Stations     *store.StationStore
	Checkpoints  *store.CheckpointStore
	Leaderboard  *store.LeaderboardStore
	Purchases    *store.PurchaseStore
}

func NewStores(db *sqlx.DB) Stores {
	return Stores{
		Participants: store.NewParticipantStore(db),
		Stations:     store.NewStationStore(db),
		Checkpoints:  store.NewCheckpointStore(db),
		Leaderboard:  store.NewLeaderboardStore(db),
		Purchases:    store.NewPurchaseStore(db),
	}
}

// RaceNotifier receives progress events after they are committed.
type RaceNotifier interface {
	Publish(event race.Event)
}

// LeaderboardCache holds ranked rows read from the leaderboard view.
type LeaderboardCache interface {
	Get(ctx context.Context, limit int) ([]race.LeaderboardEntry, bool, error)
	// Generation changes on every Invalidate.
	Generation(ctx context.Context) (int64, error)
	// Set stores rows read after Generation returned generation. It stores
	// nothing and reports false when the cache was invalidated since.
	Set(ctx context.Context, generation int64, limit int, entries []race.LeaderboardEntry) (bool, error)
	Invalidate(ctx context.Context) error
}

// orNotFound swaps sql.ErrNoRows for the domain error callers switch on.
func orNotFound(err error, notFound error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	return err
}

// participantForRaceNo resolves a loosely typed race number inside a
// transaction.
func participantForRaceNo(ctx context.Context, tx *sqlx.Tx, participants *store.ParticipantStore, raceNo string) (*race.Participant, error) {
	canonical, _, err := race.ParseRaceNo(raceNo)
	if err != nil {
		return nil, err
	}
	p, err := participants.GetByRaceNoTx(ctx, tx, canonical)
	if err != nil {
		return nil, orNotFound(err, race.ErrParticipantNotFound)
	}
	return p, nil
}
