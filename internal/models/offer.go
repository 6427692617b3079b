package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
)

func ValidOfferStatus(s OfferStatus) bool {
	switch s {
	case OfferPending, OfferAccepted, OfferRejected:
		return true
	default:
		return false
	}
}

type OfferAction string

const (
	ActionAccept OfferAction = "accept"
	ActionReject OfferAction = "reject"
)

func ValidOfferAction(a OfferAction) bool {
	switch a {
	case ActionAccept, ActionReject:
		return true
	default:
		return false
	}
}

// Offer is a supplier's counter-proposal against an open request.
// Acceptance requires both the offer to be pending and the parent
// request to still be open; the parent is closed in the same
// transaction, so at most one offer per request ever reaches accepted.
type Offer struct {
	Id         string          `json:"id"`
	RequestId  string          `json:"requestId"`
	SupplierId string          `json:"supplierId"`
	Proposed   decimal.Decimal `json:"proposed"`
	Status     OfferStatus     `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
}
