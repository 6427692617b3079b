package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPlaced    OrderStatus = "placed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderPlaced, OrderDelivered, OrderCancelled:
		return true
	default:
		return false
	}
}

type OrderAction string

const (
	ActionDeliver OrderAction = "deliver"
	ActionCancel  OrderAction = "cancel"
)

func ValidOrderAction(a OrderAction) bool {
	switch a {
	case ActionDeliver, ActionCancel:
		return true
	default:
		return false
	}
}

// Order is created exactly once per accepted offer. TotalPrice and
// Quantity are snapshots taken at creation and never change afterwards.
type Order struct {
	Id         string          `json:"id"`
	RequestId  string          `json:"requestId"`
	OfferId    string          `json:"offerId"`
	CustomerId string          `json:"customerId"`
	SupplierId string          `json:"supplierId"`
	Status     OrderStatus     `json:"status"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Quantity   int             `json:"quantity"`
	CreatedAt  time.Time       `json:"createdAt"`
}
