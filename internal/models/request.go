package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestAccepted  RequestStatus = "accepted"
	RequestDeclined  RequestStatus = "declined"
	RequestCancelled RequestStatus = "cancelled"
)

func ValidRequestStatus(s RequestStatus) bool {
	switch s {
	case RequestOpen, RequestAccepted, RequestDeclined, RequestCancelled:
		return true
	default:
		return false
	}
}

// ValidRequestOutcome reports whether s is a terminal status an open
// request may be closed into.
func ValidRequestOutcome(s RequestStatus) bool {
	switch s {
	case RequestAccepted, RequestDeclined, RequestCancelled:
		return true
	default:
		return false
	}
}

// RequestPost is a customer's posted purchase intent. Status only ever
// moves open -> {accepted, declined, cancelled} and is terminal after.
type RequestPost struct {
	Id          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	OfferPrice  decimal.Decimal `json:"offerPrice"`
	Quantity    int             `json:"quantity"`
	Status      RequestStatus   `json:"status"`
	CustomerId  string          `json:"customerId"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// RequestChanges carries the optional per-field edits an open request
// accepts; nil fields are left untouched.
type RequestChanges struct {
	Title       *string
	Description *string
	OfferPrice  *decimal.Decimal
	Quantity    *int
}
