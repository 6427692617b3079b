package controller

import (
	"encoding/json"
	"fmt"

	"market/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Request DTOs are validated with go-playground struct tags; enum
// fields with custom domains are checked against the models helpers
// after the tag pass.
var validate = validator.New()

// New user request

type NewUserReq struct {
	Username string          `json:"username" validate:"required,max=100"`
	Role     models.UserRole `json:"role" validate:"required"`
	Name     string          `json:"name" validate:"required,max=100"`
	Email    string          `json:"email" validate:"required,email"`
}

func ParseNewUserReq(data []byte) (*NewUserReq, error) {
	r := &NewUserReq{}

	err := json.Unmarshal(data, r)
	if err != nil {
		return nil, err
	}

	if err = validate.Struct(r); err != nil {
		return nil, err
	}
	if !models.ValidUserRole(r.Role) {
		return nil, fmt.Errorf("invalid user role supplied: %s, should be one of: %s, %s, %s", string(r.Role), models.RoleCustomer, models.RoleSupplier, models.RoleAdmin)
	}

	return r, nil
}

// New product request

type NewProductReq struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category" validate:"required,max=100"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	SupplierId  string          `json:"supplierId" validate:"required,uuid"`
}

func ParseNewProductReq(data []byte) (*NewProductReq, error) {
	r := &NewProductReq{}

	err := json.Unmarshal(data, r)
	if err != nil {
		return nil, err
	}

	if err = validate.Struct(r); err != nil {
		return nil, err
	}
	if r.Price.IsNegative() {
		return nil, fmt.Errorf("negative price supplied: %s", r.Price)
	}

	return r, nil
}

// New request post request

type NewRequestReq struct {
	Title       string          `json:"title" validate:"required,max=100"`
	Description string          `json:"description" validate:"max=500"`
	Category    string          `json:"category" validate:"required,max=100"`
	OfferPrice  decimal.Decimal `json:"offerPrice" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=0"`
	CustomerId  string          `json:"customerId" validate:"required,uuid"`
}

func ParseNewRequestReq(data []byte) (*NewRequestReq, error) {
	r := &NewRequestReq{}

	err := json.Unmarshal(data, r)
	if err != nil {
		return nil, err
	}

	if err = validate.Struct(r); err != nil {
		return nil, err
	}
	if r.OfferPrice.IsNegative() {
		return nil, fmt.Errorf("negative offer price supplied: %s", r.OfferPrice)
	}

	return r, nil
}

// Edit request post request; absent fields stay untouched.

type EditRequestReq struct {
	Title       *string          `json:"title" validate:"omitempty,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=500"`
	OfferPrice  *decimal.Decimal `json:"offerPrice"`
	Quantity    *int             `json:"quantity" validate:"omitempty,min=1"`
}

func ParseEditRequestReq(data []byte) (*EditRequestReq, error) {
	r := &EditRequestReq{}

	err := json.Unmarshal(data, r)
	if err != nil {
		return nil, err
	}

	if err = validate.Struct(r); err != nil {
		return nil, err
	}
	if r.OfferPrice != nil && r.OfferPrice.IsNegative() {
		return nil, fmt.Errorf("negative offer price supplied: %s", r.OfferPrice)
	}

	return r, nil
}

// New offer request

type NewOfferReq struct {
	RequestId  string          `json:"requestId" validate:"required,uuid"`
	SupplierId string          `json:"supplierId" validate:"required,uuid"`
	Proposed   decimal.Decimal `json:"proposed" validate:"required"`
}

func ParseNewOfferReq(data []byte) (*NewOfferReq, error) {
	r := &NewOfferReq{}

	err := json.Unmarshal(data, r)
	if err != nil {
		return nil, err
	}

	if err = validate.Struct(r); err != nil {
		return nil, err
	}
	if r.Proposed.IsNegative() {
		return nil, fmt.Errorf("negative proposed price supplied: %s", r.Proposed)
	}

	return r, nil
}

// Take request at asking price

type TakeRequestReq struct {
	RequestId  string `json:"requestId" validate:"required,uuid"`
	SupplierId string `json:"supplierId" validate:"required,uuid"`
}

func ParseTakeRequestReq(data []byte) (*TakeRequestReq, error) {
	r := &TakeRequestReq{}

	err := json.Unmarshal(data, r)
	if err != nil {
		return nil, err
	}

	if err = validate.Struct(r); err != nil {
		return nil, err
	}

	return r, nil
}
