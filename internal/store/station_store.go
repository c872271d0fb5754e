package store

import (
	"context"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/jmoiron/sqlx"
)

type StationStore struct {
	db *sqlx.DB
}

const (
	stationColumns              = "id, order_index, name, access_code"
	getStationByAccessCodeQuery = "SELECT " + stationColumns + " FROM stations WHERE access_code = ?"
	getStationByOrderIndexQuery = "SELECT " + stationColumns + " FROM stations WHERE order_index = ?"
	listStationsQuery           = "SELECT " + stationColumns + " FROM stations ORDER BY order_index ASC"
	releaseStationCodesQuery    = "UPDATE stations SET access_code = CAST(id AS TEXT)"
	upsertStationQuery          = `
		INSERT INTO stations (id, order_index, name, access_code)
		VALUES (:id, :order_index, :name, :access_code)
		ON CONFLICT (order_index) DO UPDATE SET
			name = excluded.name,
			access_code = excluded.access_code
	`
)

func NewStationStore(db *sqlx.DB) *StationStore {
	return &StationStore{db: db}
}

func (s *StationStore) get(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*race.Station, error) {
	var station race.Station
	if err := sqlx.GetContext(ctx, q, &station, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return &station, nil
}

func (s *StationStore) GetByAccessCodeTx(ctx context.Context, tx *sqlx.Tx, code string) (*race.Station, error) {
	return s.get(ctx, tx, getStationByAccessCodeQuery, race.NormalizeAccessCode(code))
}

func (s *StationStore) GetByOrderIndexTx(ctx context.Context, tx *sqlx.Tx, orderIndex int) (*race.Station, error) {
	return s.get(ctx, tx, getStationByOrderIndexQuery, orderIndex)
}

func (s *StationStore) List(ctx context.Context) ([]race.Station, error) {
	var stations []race.Station
	err := s.db.SelectContext(ctx, &stations, listStationsQuery)
	return stations, err
}

// UpsertAllTx replaces the station table's codes with the given set. Codes
// are released first so two stations can swap codes in a single sync
// without tripping the unique index.
func (s *StationStore) UpsertAllTx(ctx context.Context, tx *sqlx.Tx, stations []race.Station) error {
	if len(stations) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, releaseStationCodesQuery); err != nil {
		return err
	}
	for i := range stations {
		if _, err := tx.NamedExecContext(ctx, upsertStationQuery, &stations[i]); err != nil {
			return err
		}
	}
	return nil
}
