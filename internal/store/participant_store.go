package store

import (
	"context"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ParticipantStore struct {
	db *sqlx.DB
}

const participantColumns = `id, race_no, bib, name, email, phone, nationality, source,
	started_at, finished_at, total_ms, completed_count,
	points, has_merch, has_app, bag_given, bag_given_at, created_at`

const (
	getParticipantByRaceNoQuery       = "SELECT " + participantColumns + " FROM participants WHERE race_no = ?"
	getParticipantByRaceNoAndBibQuery = "SELECT " + participantColumns + " FROM participants WHERE race_no = ? AND bib = ?"
	getParticipantByEmailQuery        = "SELECT " + participantColumns + " FROM participants WHERE email = ? ORDER BY bib ASC LIMIT 1"
	getParticipantByPhoneQuery        = "SELECT " + participantColumns + " FROM participants WHERE phone = ? ORDER BY bib ASC LIMIT 1"
	getParticipantTimesQuery          = `
		SELECT participant_id, race_no, total_ms, completed_count, split_sum_ms
		FROM participant_times
		WHERE participant_id = ?
	`
	createParticipantQuery = `
		INSERT INTO participants (id, race_no, bib, name, email, phone, nationality, source, created_at)
		VALUES (:id, :race_no, :bib, :name, :email, :phone, :nationality, :source, :created_at)
	`
	nextBibQuery            = "SELECT COALESCE(MAX(bib), 0) + 1 FROM participants"
	markStartedQuery        = "UPDATE participants SET started_at = ? WHERE id = ? AND started_at IS NULL"
	incrementCompletedQuery = "UPDATE participants SET completed_count = completed_count + 1 WHERE id = ?"
	markFinishedQuery       = "UPDATE participants SET finished_at = ?, total_ms = ? WHERE id = ?"
	markBagGivenQuery       = "UPDATE participants SET bag_given = ?, bag_given_at = ? WHERE id = ? AND bag_given = ?"
	setMerchQuery           = "UPDATE participants SET has_merch = ? WHERE id = ?"
	setAppQuery             = "UPDATE participants SET has_app = ? WHERE id = ?"
	incrementPointsQuery    = "UPDATE participants SET points = points + ? WHERE id = ?"
	createPointEventQuery   = `
		INSERT INTO point_events (id, participant_id, delta, reason, created_at)
		VALUES (:id, :participant_id, :delta, :reason, :created_at)
	`
)

func NewParticipantStore(db *sqlx.DB) *ParticipantStore {
	return &ParticipantStore{db: db}
}

func (s *ParticipantStore) get(ctx context.Context, q sqlx.QueryerContext, query string, args ...any) (*race.Participant, error) {
	var p race.Participant
	if err := sqlx.GetContext(ctx, q, &p, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ParticipantStore) GetByRaceNo(ctx context.Context, raceNo string) (*race.Participant, error) {
	return s.get(ctx, s.db, getParticipantByRaceNoQuery, raceNo)
}

func (s *ParticipantStore) GetByRaceNoTx(ctx context.Context, tx *sqlx.Tx, raceNo string) (*race.Participant, error) {
	return s.get(ctx, tx, getParticipantByRaceNoQuery, raceNo)
}

func (s *ParticipantStore) GetByRaceNoAndBib(ctx context.Context, raceNo string, bib int) (*race.Participant, error) {
	return s.get(ctx, s.db, getParticipantByRaceNoAndBibQuery, raceNo, bib)
}

func (s *ParticipantStore) GetByEmailTx(ctx context.Context, tx *sqlx.Tx, email string) (*race.Participant, error) {
	return s.get(ctx, tx, getParticipantByEmailQuery, email)
}

func (s *ParticipantStore) GetByPhoneTx(ctx context.Context, tx *sqlx.Tx, phone string) (*race.Participant, error) {
	return s.get(ctx, tx, getParticipantByPhoneQuery, phone)
}

// GetTimes reads the participant_times view, which recounts completed
// checkpoints instead of trusting the cached counter.
func (s *ParticipantStore) GetTimes(ctx context.Context, participantID uuid.UUID) (*race.ParticipantTimes, error) {
	var times race.ParticipantTimes
	err := s.db.GetContext(ctx, &times, s.db.Rebind(getParticipantTimesQuery), participantID)
	if err != nil {
		return nil, err
	}
	return &times, nil
}

func (s *ParticipantStore) NextBibTx(ctx context.Context, tx *sqlx.Tx) (int, error) {
	var bib int
	err := tx.GetContext(ctx, &bib, nextBibQuery)
	return bib, err
}

func (s *ParticipantStore) CreateTx(ctx context.Context, tx *sqlx.Tx, p *race.Participant) error {
	_, err := tx.NamedExecContext(ctx, createParticipantQuery, p)
	return err
}

// MarkStartedTx starts the race clock. A clock that is already running is
// left untouched.
func (s *ParticipantStore) MarkStartedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(markStartedQuery), at, id)
	return err
}

func (s *ParticipantStore) IncrementCompletedCountTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(incrementCompletedQuery), id)
	return err
}

func (s *ParticipantStore) MarkFinishedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time, totalMs int64) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(markFinishedQuery), at, totalMs, id)
	return err
}

// MarkBagGivenTx reports false when the bag was already handed out.
func (s *ParticipantStore) MarkBagGivenTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, s.db.Rebind(markBagGivenQuery), true, at, id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *ParticipantStore) SetMerchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(setMerchQuery), true, id)
	return err
}

func (s *ParticipantStore) SetAppTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, s.db.Rebind(setAppQuery), true, id)
	return err
}

// IncrementPointsTx adds delta to the points counter and records the change
// in the point_events ledger.
func (s *ParticipantStore) IncrementPointsTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, delta int, reason string, at time.Time) error {
	if _, err := tx.ExecContext(ctx, s.db.Rebind(incrementPointsQuery), delta, id); err != nil {
		return err
	}
	event := race.PointEvent{
		ID:            uuid.New(),
		ParticipantID: id,
		Delta:         delta,
		Reason:        reason,
		CreatedAt:     at,
	}
	_, err := tx.NamedExecContext(ctx, createPointEventQuery, event)
	return err
}

func (s *ParticipantStore) GetPointEvents(ctx context.Context, participantID uuid.UUID) ([]race.PointEvent, error) {
	var events []race.PointEvent
	err := s.db.SelectContext(ctx, &events, s.db.Rebind(
		"SELECT id, participant_id, delta, reason, created_at FROM point_events WHERE participant_id = ? ORDER BY created_at ASC"), participantID)
	return events, err
}
