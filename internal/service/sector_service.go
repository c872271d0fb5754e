package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/db"
	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// SectorService moves participants through the six sectors. Every operation
// runs its reads and writes in one transaction; the unique indexes on
// checkpoints catch whatever two racing requests still get past it.
type SectorService struct {
	db           *sqlx.DB
	participants *store.ParticipantStore
	stations     *store.StationStore
	checkpoints  *store.CheckpointStore

	splitTolerance time.Duration
	notifier       RaceNotifier
	cache          LeaderboardCache
	now            func() time.Time
}

type SectorOptions struct {
	// Client splits further than this from the server clock are flagged.
	// Zero disables the check.
	SplitTolerance time.Duration
	Notifier       RaceNotifier
	Cache          LeaderboardCache
}

func NewSectorService(db *sqlx.DB, stores Stores, opts SectorOptions) *SectorService {
	return &SectorService{
		db:             db,
		participants:   stores.Participants,
		stations:       stores.Stations,
		checkpoints:    stores.Checkpoints,
		splitTolerance: opts.SplitTolerance,
		notifier:       opts.Notifier,
		cache:          opts.Cache,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

type StartSectorInput struct {
	RaceNo     string `json:"race_no" validate:"required"`
	AccessCode string `json:"access_code" validate:"required"`
}

type SectorStart struct {
	Status       string    `json:"status"`
	RaceNo       string    `json:"race_no"`
	Sector       int       `json:"sector"`
	ActiveSector int       `json:"active_sector"`
	StartedAt    time.Time `json:"started_at"`
	Resumed      bool      `json:"resumed"`
}

type FinishSectorInput struct {
	RaceNo     string `json:"race_no" validate:"required"`
	AccessCode string `json:"access_code" validate:"required"`
	SplitMs    *int64 `json:"split_ms" validate:"required,gte=0"`
}

type SaveSplitInput struct {
	RaceNo  string `json:"race_no" validate:"required"`
	Sector  int    `json:"sector" validate:"required,gte=1,lte=6"`
	SplitMs *int64 `json:"split_ms" validate:"required,gte=0"`
}

const (
	SectorStatusOK       = "ok"
	SectorStatusFinished = "finished"
	SectorStatusSaved    = "saved"
)

type SectorFinish struct {
	Status         string `json:"status"`
	RaceNo         string `json:"race_no"`
	Sector         int    `json:"sector"`
	SplitMs        int64  `json:"split_ms"`
	SplitFlagged   bool   `json:"split_flagged,omitempty"`
	CompletedCount int    `json:"completed_count"`
	TotalMs        *int64 `json:"total_ms,omitempty"`
}

func (f *SectorFinish) RaceFinished() bool {
	return f.Status == SectorStatusFinished
}

// StartSector opens a sector for a participant. The checks run in a fixed
// order and the first failure wins.
func (s *SectorService) StartSector(ctx context.Context, in StartSectorInput) (*SectorStart, error) {
	if err := race.Validate(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := participantForRaceNo(ctx, tx, s.participants, in.RaceNo)
	if err != nil {
		return nil, err
	}

	station, err := s.stations.GetByAccessCodeTx(ctx, tx, in.AccessCode)
	if err != nil {
		return nil, orNotFound(err, race.ErrStationNotFound)
	}

	checkpoints, err := s.checkpoints.ListForParticipantTx(ctx, tx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	progress := race.SummarizeProgress(checkpoints)

	for _, cp := range checkpoints {
		if cp.StationID == station.ID && !cp.IsActive() {
			return nil, &race.SequenceError{Kind: race.SequenceAlreadyCompleted, Sector: station.OrderIndex}
		}
	}

	if progress.Active != nil {
		if progress.Active.StationID != station.ID {
			return nil, &race.SequenceError{Kind: race.SequenceActiveElsewhere, Sector: progress.Active.OrderIndex}
		}
		// Re-entering the running sector keeps the original start time
		return &SectorStart{
			Status:       SectorStatusOK,
			RaceNo:       p.RaceNo,
			Sector:       station.OrderIndex,
			ActiveSector: station.OrderIndex,
			StartedAt:    progress.Active.StartedAt,
			Resumed:      true,
		}, nil
	}

	expected := progress.ExpectedSector()
	if station.OrderIndex != expected {
		return nil, &race.SequenceError{Kind: race.SequenceOutOfOrder, Sector: expected}
	}

	now := s.now()
	if expected == 1 && len(checkpoints) == 0 {
		if err := s.participants.MarkStartedTx(ctx, tx, p.ID, now); err != nil {
			return nil, fmt.Errorf("failed to start race clock: %w", err)
		}
	}

	checkpoint := &race.Checkpoint{
		ID:            uuid.New(),
		ParticipantID: p.ID,
		StationID:     station.ID,
		StartedAt:     now,
	}
	if err := s.checkpoints.CreateTx(ctx, tx, checkpoint); err != nil {
		if db.IsUniqueViolation(err) {
			// Lost a race against a concurrent start for the same participant
			return nil, &race.SequenceError{Kind: race.SequenceAlreadyStarted, Sector: expected}
		}
		return nil, fmt.Errorf("failed to create checkpoint: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("sector started", "race_no", p.RaceNo, "sector", station.OrderIndex)
	s.publish(race.Event{Type: race.EventSectorStarted, RaceNo: p.RaceNo, Name: p.Name, Sector: station.OrderIndex})

	return &SectorStart{
		Status:       SectorStatusOK,
		RaceNo:       p.RaceNo,
		Sector:       station.OrderIndex,
		ActiveSector: station.OrderIndex,
		StartedAt:    now,
	}, nil
}

// FinishSector closes the participant's active checkpoint at the station and
// finishes the race when it was the last sector.
func (s *SectorService) FinishSector(ctx context.Context, in FinishSectorInput) (*SectorFinish, error) {
	if err := race.Validate(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := participantForRaceNo(ctx, tx, s.participants, in.RaceNo)
	if err != nil {
		return nil, err
	}
	if !p.HasStarted() {
		return nil, race.ErrRaceNotStarted
	}
	if p.HasFinished() {
		return nil, race.ErrRaceFinished
	}

	station, err := s.stations.GetByAccessCodeTx(ctx, tx, in.AccessCode)
	if err != nil {
		return nil, orNotFound(err, race.ErrStationNotFound)
	}

	checkpoint, err := s.checkpoints.GetTx(ctx, tx, p.ID, station.ID)
	if err != nil {
		return nil, orNotFound(err, noActiveCheckpoint(station.OrderIndex))
	}
	if !checkpoint.IsActive() {
		return nil, noActiveCheckpoint(station.OrderIndex)
	}

	result, err := s.completeTx(ctx, tx, p, checkpoint, *in.SplitMs)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	s.afterComplete(ctx, p, result)
	return result, nil
}

// SaveSplit stores a split for a sector. An active sector is completed the
// same way FinishSector does it; a completed one only gets its split
// overwritten. It never creates a checkpoint.
func (s *SectorService) SaveSplit(ctx context.Context, in SaveSplitInput) (*SectorFinish, error) {
	if err := race.Validate(in); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := participantForRaceNo(ctx, tx, s.participants, in.RaceNo)
	if err != nil {
		return nil, err
	}

	station, err := s.stations.GetByOrderIndexTx(ctx, tx, in.Sector)
	if err != nil {
		return nil, orNotFound(err, race.ErrStationNotFound)
	}

	checkpoint, err := s.checkpoints.GetTx(ctx, tx, p.ID, station.ID)
	if err != nil {
		return nil, orNotFound(err, noActiveCheckpoint(station.OrderIndex))
	}

	if checkpoint.IsActive() {
		if p.HasFinished() {
			return nil, race.ErrRaceFinished
		}
		result, err := s.completeTx(ctx, tx, p, checkpoint, *in.SplitMs)
		if err != nil {
			return nil, err
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		s.afterComplete(ctx, p, result)
		return result, nil
	}

	serverElapsed := checkpoint.CompletedAt.Sub(checkpoint.StartedAt)
	flagged := s.splitFlagged(p.RaceNo, station.OrderIndex, *in.SplitMs, serverElapsed)
	if err := s.checkpoints.UpdateSplitTx(ctx, tx, checkpoint.ID, *in.SplitMs, flagged); err != nil {
		return nil, fmt.Errorf("failed to save split: %w", err)
	}

	completed, err := s.checkpoints.CountCompletedTx(ctx, tx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count checkpoints: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &SectorFinish{
		Status:         SectorStatusSaved,
		RaceNo:         p.RaceNo,
		Sector:         station.OrderIndex,
		SplitMs:        *in.SplitMs,
		SplitFlagged:   flagged,
		CompletedCount: completed,
		TotalMs:        p.TotalMs,
	}, nil
}

func (s *SectorService) completeTx(ctx context.Context, tx *sqlx.Tx, p *race.Participant, checkpoint *race.SectorCheckpoint, splitMs int64) (*SectorFinish, error) {
	now := s.now()
	flagged := s.splitFlagged(p.RaceNo, checkpoint.OrderIndex, splitMs, now.Sub(checkpoint.StartedAt))

	ok, err := s.checkpoints.CompleteTx(ctx, tx, checkpoint.ID, now, splitMs, flagged)
	if err != nil {
		return nil, fmt.Errorf("failed to complete checkpoint: %w", err)
	}
	if !ok {
		return nil, noActiveCheckpoint(checkpoint.OrderIndex)
	}

	if err := s.participants.IncrementCompletedCountTx(ctx, tx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to update completed count: %w", err)
	}

	// The cached counter can drift; the checkpoints table decides
	completed, err := s.checkpoints.CountCompletedTx(ctx, tx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count checkpoints: %w", err)
	}

	result := &SectorFinish{
		Status:         SectorStatusOK,
		RaceNo:         p.RaceNo,
		Sector:         checkpoint.OrderIndex,
		SplitMs:        splitMs,
		SplitFlagged:   flagged,
		CompletedCount: completed,
	}

	if completed >= race.SectorCount {
		totalMs := now.Sub(*p.StartedAt).Milliseconds()
		if err := s.participants.MarkFinishedTx(ctx, tx, p.ID, now, totalMs); err != nil {
			return nil, fmt.Errorf("failed to finish race: %w", err)
		}
		result.Status = SectorStatusFinished
		result.TotalMs = &totalMs
	}

	return result, nil
}

func (s *SectorService) afterComplete(ctx context.Context, p *race.Participant, result *SectorFinish) {
	if !result.RaceFinished() {
		slog.Info("sector finished", "race_no", p.RaceNo, "sector", result.Sector, "split_ms", result.SplitMs)
		s.publish(race.Event{Type: race.EventSectorFinished, RaceNo: p.RaceNo, Name: p.Name, Sector: result.Sector})
		return
	}

	slog.Info("race finished", "race_no", p.RaceNo, "total_ms", *result.TotalMs)
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			slog.Warn("failed to invalidate leaderboard cache", "error", err)
		}
	}
	s.publish(race.Event{Type: race.EventRaceFinished, RaceNo: p.RaceNo, Name: p.Name, Sector: result.Sector, TotalMs: result.TotalMs})
}

// splitFlagged compares the client stopwatch with the server clock. The
// client value is still stored as given.
func (s *SectorService) splitFlagged(raceNo string, sector int, splitMs int64, serverElapsed time.Duration) bool {
	if s.splitTolerance <= 0 {
		return false
	}
	diff := time.Duration(splitMs)*time.Millisecond - serverElapsed
	if diff < 0 {
		diff = -diff
	}
	if diff <= s.splitTolerance {
		return false
	}
	slog.Warn("client split disagrees with server clock",
		"race_no", raceNo,
		"sector", sector,
		"split_ms", splitMs,
		"server_ms", serverElapsed.Milliseconds(),
	)
	return true
}

func noActiveCheckpoint(sector int) error {
	return fmt.Errorf("%w for sector %d", race.ErrCheckpointNotFound, sector)
}

func (s *SectorService) publish(event race.Event) {
	if s.notifier != nil {
		s.notifier.Publish(event)
	}
}
