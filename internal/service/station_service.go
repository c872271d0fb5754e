package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type StationService struct {
	db       *sqlx.DB
	stations *store.StationStore
}

func NewStationService(db *sqlx.DB, stores Stores) *StationService {
	return &StationService{db: db, stations: stores.Stations}
}

// Sync writes the configured access codes to the stations table, one per
// sector in order. Names are optional; missing ones default to "Sector N".
func (s *StationService) Sync(ctx context.Context, codes, names []string) ([]race.Station, error) {
	if len(codes) != race.SectorCount {
		return nil, fmt.Errorf("expected %d station codes, got %d", race.SectorCount, len(codes))
	}

	seen := make(map[string]bool, len(codes))
	stations := make([]race.Station, 0, len(codes))
	for i, raw := range codes {
		code := race.NormalizeAccessCode(raw)
		if code == "" {
			return nil, fmt.Errorf("station code %d is empty", i+1)
		}
		if seen[code] {
			return nil, fmt.Errorf("station code %q is used twice", code)
		}
		seen[code] = true

		name := fmt.Sprintf("Sector %d", i+1)
		if i < len(names) && names[i] != "" {
			name = names[i]
		}
		stations = append(stations, race.Station{
			ID:         uuid.New(),
			OrderIndex: i + 1,
			Name:       name,
			AccessCode: code,
		})
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := s.stations.UpsertAllTx(ctx, tx, stations); err != nil {
		return nil, fmt.Errorf("failed to upsert stations: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	synced, err := s.stations.List(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("stations synced", "count", len(synced))
	return synced, nil
}
