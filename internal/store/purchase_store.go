package store

import (
	"context"

	"github.com/AdamBeresnev/innerdrive/internal/race"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type PurchaseStore struct {
	db *sqlx.DB
}

const (
	createPurchasesQuery = `
		INSERT INTO purchases (id, participant_id, sku, quantity, amount_cents, created_at)
		VALUES (:id, :participant_id, :sku, :quantity, :amount_cents, :created_at)
	`
	listPurchasesQuery = `
		SELECT id, participant_id, sku, quantity, amount_cents, created_at
		FROM purchases WHERE participant_id = ? ORDER BY created_at ASC, sku ASC
	`
)

func NewPurchaseStore(db *sqlx.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

func (s *PurchaseStore) CreateTx(ctx context.Context, tx *sqlx.Tx, purchases []race.Purchase) error {
	if len(purchases) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createPurchasesQuery, purchases)
	return err
}

func (s *PurchaseStore) ListForParticipant(ctx context.Context, participantID uuid.UUID) ([]race.Purchase, error) {
	var purchases []race.Purchase
	err := s.db.SelectContext(ctx, &purchases, s.db.Rebind(listPurchasesQuery), participantID)
	return purchases, err
}
