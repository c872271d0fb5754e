package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CheckpointStore struct {
	db *sqlx.DB
}

const (
	sectorCheckpointSelect = `
		SELECT c.id, c.participant_id, c.station_id, c.started_at, c.completed_at, c.split_ms, c.split_flagged,
			s.order_index, s.access_code
		FROM checkpoints c
		JOIN stations s ON s.id = c.station_id
	`
	listSectorCheckpointsQuery = sectorCheckpointSelect + " WHERE c.participant_id = ? ORDER BY s.order_index ASC"
	getSectorCheckpointQuery   = sectorCheckpointSelect + " WHERE c.participant_id = ? AND c.station_id = ?"
	createCheckpointQuery      = `
		INSERT INTO checkpoints (id, participant_id, station_id, started_at, completed_at, split_ms, split_flagged)
		VALUES (:id, :participant_id, :station_id, :started_at, :completed_at, :split_ms, :split_flagged)
	`
	completeCheckpointQuery = `
		UPDATE checkpoints SET completed_at = ?, split_ms = ?, split_flagged = ?
		WHERE id = ? AND completed_at IS NULL
	`
	updateSplitQuery    = "UPDATE checkpoints SET split_ms = ?, split_flagged = ? WHERE id = ?"
	countCompletedQuery = "SELECT COUNT(*) FROM checkpoints WHERE participant_id = ? AND completed_at IS NOT NULL"
)

func NewCheckpointStore(db *sqlx.DB) *CheckpointStore {
	return &CheckpointStore{db: db}
}

func (s *CheckpointStore) list(ctx context.Context, q sqlx.QueryerContext, participantID uuid.UUID) ([]race.SectorCheckpoint, error) {
	var checkpoints []race.SectorCheckpoint
	err := sqlx.SelectContext(ctx, q, &checkpoints, s.db.Rebind(listSectorCheckpointsQuery), participantID)
	return checkpoints, err
}

// ListForParticipant returns every checkpoint of a participant in sector
// order, joined with its station.
func (s *CheckpointStore) ListForParticipant(ctx context.Context, participantID uuid.UUID) ([]race.SectorCheckpoint, error) {
	return s.list(ctx, s.db, participantID)
}

func (s *CheckpointStore) ListForParticipantTx(ctx context.Context, tx *sqlx.Tx, participantID uuid.UUID) ([]race.SectorCheckpoint, error) {
	return s.list(ctx, tx, participantID)
}

func (s *CheckpointStore) GetTx(ctx context.Context, tx *sqlx.Tx, participantID, stationID uuid.UUID) (*race.SectorCheckpoint, error) {
	var checkpoint race.SectorCheckpoint
	err := tx.GetContext(ctx, &checkpoint, s.db.Rebind(getSectorCheckpointQuery), participantID, stationID)
	if err != nil {
		return nil, err
	}
	return &checkpoint, nil
}

func (s *CheckpointStore) CreateTx(ctx context.Context, tx *sqlx.Tx, checkpoint *race.Checkpoint) error {
	_, err := tx.NamedExecContext(ctx, createCheckpointQuery, checkpoint)
	return err
}

// CompleteTx closes an active checkpoint. It reports false when the
// checkpoint was already completed.
func (s *CheckpointStore) CompleteTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time, splitMs int64, flagged bool) (bool, error) {
	res, err := tx.ExecContext(ctx, s.db.Rebind(completeCheckpointQuery), at, splitMs, flagged, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *CheckpointStore) UpdateSplitTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, splitMs int64, flagged bool) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(updateSplitQuery), splitMs, flagged, id)
	return err
}

func (s *CheckpointStore) CountCompletedTx(ctx context.Context, tx *sqlx.Tx, participantID uuid.UUID) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, s.db.Rebind(countCompletedQuery), participantID)
	return count, err
}
