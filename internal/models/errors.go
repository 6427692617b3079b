package models

import "errors"

var (
	ErrInvalidUser       = errors.New("provided user does not exist")
	ErrEmailTaken        = errors.New("another user is already registered with this email")
	ErrNotAuthorized     = errors.New("provided user does not own the resource or lacks the role for this action")
	ErrNoRequest         = errors.New("requested request post does not exist")
	ErrNoOffer           = errors.New("requested offer does not exist")
	ErrNoOrder           = errors.New("requested order does not exist")
	ErrInvalidTransition = errors.New("resource status does not permit the requested transition")
	ErrCategoryMismatch  = errors.New("supplier does not carry the request's category")
	ErrOfferResolved     = errors.New("offer is already accepted or rejected")
	ErrTxFailed          = errors.New("store transaction failed, operation may be retried")
)
