package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/AdamBeresnev/innerdrive/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// DeskService backs the race office: bag hand-out, merchandise sales and
// points.
type DeskService struct {
	db           *sqlx.DB
	participants *store.ParticipantStore
	purchases    *store.PurchaseStore

	appPoints          int
	merchPointsPerUnit int
	now                func() time.Time
}

type DeskOptions struct {
	AppPoints          int
	MerchPointsPerUnit int
}

func NewDeskService(db *sqlx.DB, stores Stores, opts DeskOptions) *DeskService {
	return &DeskService{
		db:                 db,
		participants:       stores.Participants,
		purchases:          stores.Purchases,
		appPoints:          opts.AppPoints,
		merchPointsPerUnit: opts.MerchPointsPerUnit,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

type BagStatus struct {
	Status     string     `json:"status"`
	RaceNo     string     `json:"race_no"`
	BagGiven   bool       `json:"bag_given"`
	BagGivenAt *time.Time `json:"bag_given_at,omitempty"`
	HasMerch   bool       `json:"has_merch"`
	HasApp     bool       `json:"has_app"`
	Finished   bool       `json:"finished"`
}

func newBagStatus(p *race.Participant) *BagStatus {
	return &BagStatus{
		Status:     "ok",
		RaceNo:     p.RaceNo,
		BagGiven:   p.BagGiven,
		BagGivenAt: p.BagGivenAt,
		HasMerch:   p.HasMerch,
		HasApp:     p.HasApp,
		Finished:   p.HasFinished(),
	}
}

func (s *DeskService) BagStatus(ctx context.Context, raceNo string) (*BagStatus, error) {
	canonical, _, err := race.ParseRaceNo(raceNo)
	if err != nil {
		return nil, err
	}
	p, err := s.participants.GetByRaceNo(ctx, canonical)
	if err != nil {
		return nil, orNotFound(err, race.ErrParticipantNotFound)
	}
	return newBagStatus(p), nil
}

func (s *DeskService) MarkBagGiven(ctx context.Context, raceNo string) (*BagStatus, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := participantForRaceNo(ctx, tx, s.participants, raceNo)
	if err != nil {
		return nil, err
	}
	if p.BagGiven {
		return nil, race.ErrBagAlreadyGiven
	}

	now := s.now()
	marked, err := s.participants.MarkBagGivenTx(ctx, tx, p.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to mark bag given: %w", err)
	}
	if !marked {
		// Another desk got there between the read and the update
		return nil, race.ErrBagAlreadyGiven
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	p.BagGiven = true
	p.BagGivenAt = &now
	slog.Info("bag given", "race_no", p.RaceNo)
	return newBagStatus(p), nil
}

type PurchaseItem struct {
	SKU         string `json:"sku" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gt=0,max=100"`
	AmountCents int64  `json:"amount_cents" validate:"gte=0,max=1000000"`
}

type PurchaseInput struct {
	RaceNo string         `json:"race_no" validate:"required"`
	Items  []PurchaseItem `json:"items" validate:"required,min=1,max=50,dive"`
}

type PurchaseResult struct {
	Status        string `json:"status"`
	RaceNo        string `json:"race_no"`
	TotalCents    int64  `json:"total_cents"`
	PointsAwarded int    `json:"points_awarded"`
	Points        int    `json:"points"`
}

// RecordPurchase stores the sold items, sets the merch badge and awards
// points for every full currency unit spent.
func (s *DeskService) RecordPurchase(ctx context.Context, in PurchaseInput) (*PurchaseResult, error) {
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

	now := s.now()
	purchases := make([]race.Purchase, 0, len(in.Items))
	var totalCents int64
	for _, item := range in.Items {
		purchase := race.Purchase{
			ID:            uuid.New(),
			ParticipantID: p.ID,
			SKU:           item.SKU,
			Quantity:      item.Quantity,
			AmountCents:   item.AmountCents,
			CreatedAt:     now,
		}
		totalCents += purchase.TotalCents()
		purchases = append(purchases, purchase)
	}

	if err := s.purchases.CreateTx(ctx, tx, purchases); err != nil {
		return nil, fmt.Errorf("failed to record purchases: %w", err)
	}
	if err := s.participants.SetMerchTx(ctx, tx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to set merch badge: %w", err)
	}

	awarded := int(totalCents/100) * s.merchPointsPerUnit
	if awarded > 0 {
		if err := s.participants.IncrementPointsTx(ctx, tx, p.ID, awarded, race.PointsReasonMerch, now); err != nil {
			return nil, fmt.Errorf("failed to award points: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("purchase recorded", "race_no", p.RaceNo, "items", len(purchases), "total_cents", totalCents, "points", awarded)
	return &PurchaseResult{
		Status:        "ok",
		RaceNo:        p.RaceNo,
		TotalCents:    totalCents,
		PointsAwarded: awarded,
		Points:        p.Points + awarded,
	}, nil
}

const (
	PointsStatusAwarded        = "awarded"
	PointsStatusAlreadyAwarded = "already_awarded"
)

type PointsResult struct {
	Status        string `json:"status"`
	RaceNo        string `json:"race_no"`
	PointsAwarded int    `json:"points_awarded"`
	Points        int    `json:"points"`
}

// AwardAppPoints sets the app badge and awards the install bonus. It only
// ever pays out once per participant.
func (s *DeskService) AwardAppPoints(ctx context.Context, raceNo string) (*PointsResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	p, err := participantForRaceNo(ctx, tx, s.participants, raceNo)
	if err != nil {
		return nil, err
	}
	if p.HasApp {
		return &PointsResult{Status: PointsStatusAlreadyAwarded, RaceNo: p.RaceNo, Points: p.Points}, nil
	}

	if err := s.participants.SetAppTx(ctx, tx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to set app badge: %w", err)
	}
	if s.appPoints > 0 {
		if err := s.participants.IncrementPointsTx(ctx, tx, p.ID, s.appPoints, race.PointsReasonApp, s.now()); err != nil {
			return nil, fmt.Errorf("failed to award points: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &PointsResult{
		Status:        PointsStatusAwarded,
		RaceNo:        p.RaceNo,
		PointsAwarded: s.appPoints,
		Points:        p.Points + s.appPoints,
	}, nil
}

type AddPointsInput struct {
	RaceNo string `json:"race_no" validate:"required"`
	Delta  int    `json:"delta" validate:"ne=0"`
	Reason string `json:"reason"`
}

func (s *DeskService) AddPoints(ctx context.Context, in AddPointsInput) (*PointsResult, error) {
	if err := race.Validate(in); err != nil {
		return nil, err
	}
	reason := in.Reason
	if reason == "" {
		reason = race.PointsReasonManual
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
	if err := s.participants.IncrementPointsTx(ctx, tx, p.ID, in.Delta, reason, s.now()); err != nil {
		return nil, fmt.Errorf("failed to update points: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("points updated", "race_no", p.RaceNo, "delta", in.Delta, "reason", reason)
	return &PointsResult{
		Status:        PointsStatusAwarded,
		RaceNo:        p.RaceNo,
		PointsAwarded: in.Delta,
		Points:        p.Points + in.Delta,
	}, nil
}
