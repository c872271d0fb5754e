package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
)

// StatusService answers the read-only questions the participant screens ask.
type StatusService struct {
	participants *store.ParticipantStore
	checkpoints  *store.CheckpointStore
}

func NewStatusService(stores Stores) *StatusService {
	return &StatusService{
		participants: stores.Participants,
		checkpoints:  stores.Checkpoints,
	}
}

// ResolveStatus decides which screen a participant belongs on. A bib of 0 is
// taken from the race number. Unknown participants yield StateNotFound, not
// an error.
func (s *StatusService) ResolveStatus(ctx context.Context, raceNo string, bib int) (*race.Status, error) {
	canonical, parsedBib, err := race.ParseRaceNo(raceNo)
	if err != nil {
		return &race.Status{State: race.StateNotFound}, nil
	}
	if bib == 0 {
		bib = parsedBib
	}

	p, err := s.participants.GetByRaceNoAndBib(ctx, canonical, bib)
	if errors.Is(err, sql.ErrNoRows) {
		return &race.Status{State: race.StateNotFound, RaceNo: canonical}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	times, err := s.participants.GetTimes(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participant times: %w", err)
	}

	if p.HasFinished() || times.CompletedCount >= race.SectorCount {
		return &race.Status{
			State:          race.StateFinished,
			RaceNo:         p.RaceNo,
			TotalMs:        p.TotalMs,
			CompletedCount: times.CompletedCount,
		}, nil
	}

	checkpoints, err := s.checkpoints.ListForParticipant(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	progress := race.SummarizeProgress(checkpoints)

	if active := progress.Active; active != nil {
		startedAt := active.StartedAt
		return &race.Status{
			State:          race.StateStopwatch,
			RaceNo:         p.RaceNo,
			ActiveSector:   active.OrderIndex,
			AccessCode:     active.AccessCode,
			StartedAt:      &startedAt,
			CompletedCount: progress.Completed,
		}, nil
	}

	return &race.Status{
		State:          race.StateEnter,
		RaceNo:         p.RaceNo,
		NextSector:     progress.LastCompleted + 1,
		CompletedCount: progress.Completed,
	}, nil
}

// CheckRace reports whether a race number belongs to a registered
// participant.
func (s *StatusService) CheckRace(ctx context.Context, raceNo string) (bool, error) {
	_, err := s.PlayerInfo(ctx, raceNo)
	if errors.Is(err, race.ErrParticipantNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *StatusService) PlayerInfo(ctx context.Context, raceNo string) (*race.Participant, error) {
	canonical, _, err := race.ParseRaceNo(raceNo)
	if err != nil {
		return nil, err
	}
	p, err := s.participants.GetByRaceNo(ctx, canonical)
	if err != nil {
		return nil, orNotFound(err, race.ErrParticipantNotFound)
	}
	return p, nil
}
