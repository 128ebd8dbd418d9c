package custody

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentChannel is how money reached the office
type PaymentChannel string

const (
	ChannelCash     PaymentChannel = "CASH"
	ChannelTransfer PaymentChannel = "TRANSFER"
	ChannelCheque   PaymentChannel = "CHEQUE"
	ChannelCard     PaymentChannel = "CARD"
	ChannelOther    PaymentChannel = "OTHER"
	// ChannelRetention marks amounts covered by a withholding certificate
	ChannelRetention PaymentChannel = "RETENTION"
)

// IsValid checks if the channel is accepted for a cash-type payment
func (c PaymentChannel) IsValid() bool {
	switch c {
	case ChannelCash, ChannelTransfer, ChannelCheque, ChannelCard, ChannelOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentChannel
func (c PaymentChannel) String() string {
	return string(c)
}

// PaymentEvent is one append-only ledger entry. A void is itself a PaymentEvent
// carrying the negated amount of the event it cancels.
type PaymentEvent struct {
	ID           uuid.UUID       `json:"id"`
	DocumentID   uuid.UUID       `json:"document_id"`
	Amount       decimal.Decimal `json:"amount"`
	Channel      PaymentChannel  `json:"channel"`
	IsRetention  bool            `json:"is_retention"`
	Reference    string          `json:"reference,omitempty"`
	// IssuerTaxID is the withholding agent of a retention
	IssuerTaxID  string          `json:"issuer_tax_id,omitempty"`
	VoidsEventID *uuid.UUID      `json:"voids_event_id,omitempty"`
	Note         string          `json:"note,omitempty"`
	ActorID      string          `json:"actor_id"`
	ActorName    string          `json:"actor_name,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// IsVoid returns true if the event cancels another event
func (e PaymentEvent) IsVoid() bool {
	return e.VoidsEventID != nil
}

func newPaymentEvent(documentID uuid.UUID, actor Actor, amount decimal.Decimal, channel PaymentChannel, at time.Time) PaymentEvent {
	return PaymentEvent{
		ID:         uuid.New(),
		DocumentID: documentID,
		Amount:     amount,
		Channel:    channel,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		OccurredAt: at,
	}
}
