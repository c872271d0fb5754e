package race

import (
	"time"

	"github.com/google/uuid"
)

type Purchase struct {
	ID            uuid.UUID `db:"id" json:"-"`
	ParticipantID uuid.UUID `db:"participant_id" json:"-"`
	SKU           string    `db:"sku" json:"sku"`
	Quantity      int       `db:"quantity" json:"quantity"`
	AmountCents   int64     `db:"amount_cents" json:"amount_cents"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

func (p Purchase) TotalCents() int64 {
	return p.AmountCents * int64(p.Quantity)
}

// PointEvent is one entry of the points ledger kept next to the counter.
type PointEvent struct {
	ID            uuid.UUID `db:"id"`
	ParticipantID uuid.UUID `db:"participant_id"`
	Delta         int       `db:"delta"`
	Reason        string    `db:"reason"`
	CreatedAt     time.Time `db:"created_at"`
}

const (
	PointsReasonMerch  = "merch_purchase"
	PointsReasonApp    = "app_install"
	PointsReasonManual = "manual"
)
