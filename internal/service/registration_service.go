package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/db"
	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
	"github.com/AdamBeresnev/innerdrive/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Concurrent registrations can pick the same MAX(bib)+1.
const maxBibAttempts = 3

type RegistrationService struct {
	db           *sqlx.DB
	participants *store.ParticipantStore
	now          func() time.Time
}

func NewRegistrationService(db *sqlx.DB, stores Stores) *RegistrationService {
	return &RegistrationService{
		db:           db,
		participants: stores.Participants,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Email       string      `json:"email" validate:"required_without=Phone,omitempty,email"`
	Phone       string      `json:"phone" validate:"required_without=Email,omitempty,min=6,max=20"`
	Nationality string      `json:"nationality" validate:"max=100"`
	Source      race.Source `json:"-"`
}

type Registration struct {
	Status  string `json:"status"`
	RaceNo  string `json:"race_no"`
	Bib     int    `json:"bib"`
	Name    string `json:"name"`
	Created bool   `json:"created"`
}

// Register returns the participant matching the email or phone, or creates
// one with the next free race number.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*Registration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = utils.NormalizeEmail(in.Email)
	in.Phone = utils.NormalizePhone(in.Phone)
	in.Nationality = strings.TrimSpace(in.Nationality)
	if in.Source == "" {
		in.Source = race.SourceDefault
	}

	if err := race.Validate(in); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= maxBibAttempts; attempt++ {
		reg, err := s.register(ctx, in)
		if err == nil {
			return reg, nil
		}
		if !db.IsUniqueViolation(err) {
			return nil, err
		}
		slog.Warn("race number taken, retrying", "attempt", attempt)
		lastErr = err
	}
	return nil, fmt.Errorf("failed to allocate race number: %w", lastErr)
}

func (s *RegistrationService) register(ctx context.Context, in RegisterInput) (*Registration, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	existing, err := s.findExisting(ctx, tx, in.Email, in.Phone)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &Registration{
			Status:  "ok",
			RaceNo:  existing.RaceNo,
			Bib:     existing.Bib,
			Name:    existing.Name,
			Created: false,
		}, nil
	}

	bib, err := s.participants.NextBibTx(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate bib: %w", err)
	}

	p := &race.Participant{
		ID:          uuid.New(),
		RaceNo:      race.FormatRaceNo(bib),
		Bib:         bib,
		Name:        in.Name,
		Email:       utils.StringOrNil(in.Email),
		Phone:       utils.StringOrNil(in.Phone),
		Nationality: utils.StringOrNil(in.Nationality),
		Source:      in.Source,
		CreatedAt:   s.now(),
	}
	if err := s.participants.CreateTx(ctx, tx, p); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("participant registered", "race_no", p.RaceNo, "source", p.Source)
	return &Registration{
		Status:  "ok",
		RaceNo:  p.RaceNo,
		Bib:     p.Bib,
		Name:    p.Name,
		Created: true,
	}, nil
}

func (s *RegistrationService) findExisting(ctx context.Context, tx *sqlx.Tx, email, phone string) (*race.Participant, error) {
	if email != "" {
		p, err := s.participants.GetByEmailTx(ctx, tx, email)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up email: %w", err)
		}
	}
	if phone != "" {
		p, err := s.participants.GetByPhoneTx(ctx, tx, phone)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed to look up phone: %w", err)
		}
	}
	return nil, nil
}
