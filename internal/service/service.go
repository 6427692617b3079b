package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"market/internal/models"
	"market/internal/repository"

	"github.com/shopspring/decimal"
)

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

//// Users

func (s *Service) AddUser(ctx context.Context, user models.User) (models.User, error) {
	// one account per email
	_, taken, err := s.repo.UserByEmail(ctx, user.Email)
	if err != nil {
		return user, fmt.Errorf("service.Service.AddUser: %w", err)
	}
	if taken {
		return user, fmt.Errorf("service.Service.AddUser: %w", models.ErrEmailTaken)
	}

	user, err = s.repo.AddUser(ctx, user)
	if err != nil {
		return user, fmt.Errorf("service.Service.AddUser: %w", err)
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, userId string) (models.User, error) {
	user, err := s.userByUUID(ctx, userId)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.GetUser: %w", err)
	}
	return user, nil
}

//// Products

func (s *Service) AddProduct(ctx context.Context, product models.Product) (models.Product, error) {
	// only suppliers list products
	_, err := s.userWithRole(ctx, product.SupplierId, models.RoleSupplier)
	if err != nil {
		return models.Product{}, fmt.Errorf("service.Service.AddProduct: %w", err)
	}

	product, err = s.repo.AddProduct(ctx, product)
	if err != nil {
		return models.Product{}, fmt.Errorf("service.Service.AddProduct: %w", err)
	}

	return product, nil
}

func (s *Service) GetSupplierProducts(ctx context.Context, supplierId string) ([]models.Product, error) {
	_, err := s.userByUUID(ctx, supplierId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetSupplierProducts: %w", err)
	}

	products, err := s.repo.GetSupplierProducts(ctx, supplierId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetSupplierProducts: %w", err)
	}

	return products, nil
}

//// Requests

func (s *Service) AddRequest(ctx context.Context, req models.RequestPost) (models.RequestPost, error) {
	// only customers post requests
	_, err := s.userWithRole(ctx, req.CustomerId, models.RoleCustomer)
	if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.AddRequest: %w", err)
	}

	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	req, err = s.repo.AddRequest(ctx, req)
	if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.AddRequest: %w", err)
	}

	return req, nil
}

func (s *Service) GetRequests(ctx context.Context, limit, offset int) ([]models.RequestPost, error) {
	requests, err := s.repo.GetRequests(ctx, limit, offset, "", "", nil)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetRequests: %w", err)
	}
	return requests, nil
}

func (s *Service) GetRequest(ctx context.Context, requestId string) (models.RequestPost, error) {
	req, err := s.repo.GetRequestByUUID(ctx, requestId, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RequestPost{}, fmt.Errorf("service.Service.GetRequest: %w", models.ErrNoRequest)
	} else if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.GetRequest: %w", err)
	}
	return req, nil
}

// OpenRequestsForSupplier is the supplier's feed: open requests whose
// category falls inside the supplier's catalog index.
func (s *Service) OpenRequestsForSupplier(ctx context.Context, supplierId string, limit, offset int) ([]models.RequestPost, error) {
	_, err := s.userWithRole(ctx, supplierId, models.RoleSupplier)
	if err != nil {
		return nil, fmt.Errorf("service.Service.OpenRequestsForSupplier: %w", err)
	}

	categories, err := s.repo.SupplierCategories(ctx, supplierId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.OpenRequestsForSupplier: %w", err)
	}
	if len(categories) == 0 {
		return nil, nil
	}

	list := make([]string, 0, len(categories))
	for category := range categories {
		list = append(list, category)
	}

	requests, err := s.repo.GetRequests(ctx, limit, offset, "", models.RequestOpen, list)
	if err != nil {
		return nil, fmt.Errorf("service.Service.OpenRequestsForSupplier: %w", err)
	}

	return requests, nil
}

// EditRequest applies per-field edits to an open request. Each field
// is copied explicitly; unknown fields never reach the store.
func (s *Service) EditRequest(ctx context.Context, requestId, customerId string, changes models.RequestChanges) (models.RequestPost, error) {
	// check if user exists
	_, err := s.userByUUID(ctx, customerId)
	if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.EditRequest: %w", err)
	}

	// get request
	req, err := s.repo.GetRequestByUUID(ctx, requestId, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RequestPost{}, fmt.Errorf("service.Service.EditRequest: %w", models.ErrNoRequest)
	} else if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.EditRequest: %w", err)
	}

	// only the owning customer edits a request
	if req.CustomerId != customerId {
		return models.RequestPost{}, fmt.Errorf("service.Service.EditRequest: %w", models.ErrNotAuthorized)
	}

	// closed requests are immutable
	if req.Status != models.RequestOpen {
		return models.RequestPost{}, fmt.Errorf("service.Service.EditRequest: %w", models.ErrInvalidTransition)
	}

	if changes.Title != nil {
		req.Title = *changes.Title
	}
	if changes.Description != nil {
		req.Description = *changes.Description
	}
	if changes.OfferPrice != nil {
		req.OfferPrice = *changes.OfferPrice
	}
	if changes.Quantity != nil && *changes.Quantity > 0 {
		req.Quantity = *changes.Quantity
	}

	err = s.repo.UpdateRequestFields(ctx, req)
	if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.EditRequest: %w", err)
	}

	return req, nil
}

// CloseRequest transitions an open request into a terminal outcome.
// A second close of the same request fails with ErrInvalidTransition
// rather than silently succeeding.
func (s *Service) CloseRequest(ctx context.Context, requestId, customerId string, outcome models.RequestStatus) (models.RequestPost, error) {
	// check if user exists
	_, err := s.userByUUID(ctx, customerId)
	if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.CloseRequest: %w", err)
	}

	// get request
	req, err := s.repo.GetRequestByUUID(ctx, requestId, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RequestPost{}, fmt.Errorf("service.Service.CloseRequest: %w", models.ErrNoRequest)
	} else if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.CloseRequest: %w", err)
	}

	// only the owning customer closes a request
	if req.CustomerId != customerId {
		return models.RequestPost{}, fmt.Errorf("service.Service.CloseRequest: %w", models.ErrNotAuthorized)
	}

	err = s.repo.CloseRequest(ctx, requestId, outcome)
	if err != nil {
		return models.RequestPost{}, fmt.Errorf("service.Service.CloseRequest: %w", err)
	}

	req.Status = outcome
	return req, nil
}

//// Offers

func (s *Service) SubmitOffer(ctx context.Context, requestId, supplierId string, proposed decimal.Decimal) (models.Offer, error) {
	offer, err := s.submitOffer(ctx, requestId, supplierId, &proposed)
	if err != nil {
		return models.Offer{}, fmt.Errorf("service.Service.SubmitOffer: %w", err)
	}
	return offer, nil
}

// TakeRequest submits an offer at the request's posted asking price.
func (s *Service) TakeRequest(ctx context.Context, requestId, supplierId string) (models.Offer, error) {
	offer, err := s.submitOffer(ctx, requestId, supplierId, nil)
	if err != nil {
		return models.Offer{}, fmt.Errorf("service.Service.TakeRequest: %w", err)
	}
	return offer, nil
}

func (s *Service) submitOffer(ctx context.Context, requestId, supplierId string, proposed *decimal.Decimal) (models.Offer, error) {
	// only suppliers make offers
	_, err := s.userWithRole(ctx, supplierId, models.RoleSupplier)
	if err != nil {
		return models.Offer{}, err
	}

	// get request
	req, err := s.repo.GetRequestByUUID(ctx, requestId, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, models.ErrNoRequest
	} else if err != nil {
		return models.Offer{}, err
	}

	// offers are only taken while the request is open
	if req.Status != models.RequestOpen {
		return models.Offer{}, models.ErrInvalidTransition
	}

	// the supplier's catalog must carry the request's category
	categories, err := s.repo.SupplierCategories(ctx, supplierId)
	if err != nil {
		return models.Offer{}, err
	}
	if !categories[req.Category] {
		return models.Offer{}, models.ErrCategoryMismatch
	}

	price := req.OfferPrice
	if proposed != nil {
		price = *proposed
	}

	offer, err := s.repo.AddOffer(ctx, models.Offer{
		RequestId:  req.Id,
		SupplierId: supplierId,
		Proposed:   price,
	})
	if err != nil {
		return models.Offer{}, err
	}

	return offer, nil
}

func (s *Service) GetRequestOffers(ctx context.Context, requestId string, limit, offset int) ([]models.Offer, error) {
	// check if request exists
	_, err := s.repo.GetRequestByUUID(ctx, requestId, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("service.Service.GetRequestOffers: %w", models.ErrNoRequest)
	} else if err != nil {
		return nil, fmt.Errorf("service.Service.GetRequestOffers: %w", err)
	}

	offers, err := s.repo.GetOffers(ctx, limit, offset, requestId, "")
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetRequestOffers: %w", err)
	}

	return offers, nil
}

func (s *Service) GetSupplierOffers(ctx context.Context, supplierId string, limit, offset int) ([]models.Offer, error) {
	_, err := s.userByUUID(ctx, supplierId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetSupplierOffers: %w", err)
	}

	offers, err := s.repo.GetOffers(ctx, limit, offset, "", supplierId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetSupplierOffers: %w", err)
	}

	return offers, nil
}

// RespondToOffer is the customer's verdict on a pending offer. On
// reject the updated offer is returned and the request stays open. On
// accept the returned order is non-nil and the request is closed in
// the same transaction that accepted the offer, so no sibling offer on
// the request can ever be accepted afterwards.
func (s *Service) RespondToOffer(ctx context.Context, offerId, customerId string, action models.OfferAction) (models.Offer, *models.Order, error) {
	// check if user exists
	_, err := s.userByUUID(ctx, customerId)
	if err != nil {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", err)
	}

	// find offer
	offer, err := s.repo.GetOfferByUUID(ctx, offerId)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", models.ErrNoOffer)
	} else if err != nil {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", err)
	}

	// find parent request
	req, err := s.repo.GetRequestByUUID(ctx, offer.RequestId, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", models.ErrNoRequest)
	} else if err != nil {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", err)
	}

	// only the customer owning the request responds to its offers
	if req.CustomerId != customerId {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", models.ErrNotAuthorized)
	}

	// check offer's status; the store re-checks under the transaction,
	// this is the fast path for offers already resolved
	if offer.Status != models.OfferPending {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", models.ErrOfferResolved)
	}

	if action == models.ActionReject {
		err = s.repo.RejectOffer(ctx, offer.Id)
		if err != nil {
			return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", err)
		}
		offer.Status = models.OfferRejected
		return offer, nil, nil
	}

	order, err := s.repo.AcceptOffer(ctx, offer)
	if err != nil {
		return models.Offer{}, nil, fmt.Errorf("service.Service.RespondToOffer: %w", err)
	}

	offer.Status = models.OfferAccepted
	return offer, &order, nil
}

//// Orders

// AdvanceOrder applies the single role-gated transition an order
// admits: the owning customer may cancel a placed order, the owning
// supplier may mark it delivered. Everything else is refused.
func (s *Service) AdvanceOrder(ctx context.Context, orderId, userId string, action models.OrderAction) (models.Order, error) {
	// check if user exists
	user, err := s.userByUUID(ctx, userId)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.AdvanceOrder: %w", err)
	}

	// find order
	order, err := s.repo.GetOrderByUUID(ctx, orderId)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, fmt.Errorf("service.Service.AdvanceOrder: %w", models.ErrNoOrder)
	} else if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.AdvanceOrder: %w", err)
	}

	var status models.OrderStatus
	switch {
	case action == models.ActionCancel && user.Role == models.RoleCustomer && order.CustomerId == userId:
		status = models.OrderCancelled
	case action == models.ActionDeliver && user.Role == models.RoleSupplier && order.SupplierId == userId:
		status = models.OrderDelivered
	default:
		return models.Order{}, fmt.Errorf("service.Service.AdvanceOrder: %w", models.ErrNotAuthorized)
	}

	err = s.repo.AdvanceOrder(ctx, order.Id, status)
	if err != nil {
		return models.Order{}, fmt.Errorf("service.Service.AdvanceOrder: %w", err)
	}

	order.Status = status
	return order, nil
}

func (s *Service) GetActiveOrders(ctx context.Context, userId string, limit, offset int) ([]models.Order, error) {
	_, err := s.userByUUID(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetActiveOrders: %w", err)
	}

	orders, err := s.repo.GetActiveOrders(ctx, limit, offset, userId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetActiveOrders: %w", err)
	}

	return orders, nil
}

func (s *Service) GetOrderHistory(ctx context.Context, userId string, limit, offset int) ([]models.Order, error) {
	_, err := s.userByUUID(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetOrderHistory: %w", err)
	}

	orders, err := s.repo.GetOrderHistory(ctx, limit, offset, userId)
	if err != nil {
		return nil, fmt.Errorf("service.Service.GetOrderHistory: %w", err)
	}

	return orders, nil
}

//// Service

func (s *Service) userByUUID(ctx context.Context, userId string) (models.User, error) {
	user, ok, err := s.repo.UserByUUID(ctx, userId)
	if err != nil {
		return models.User{}, fmt.Errorf("service.Service.userByUUID: %w", err)
	}
	if !ok {
		return models.User{}, fmt.Errorf("service.Service.userByUUID: %w: %s", models.ErrInvalidUser, userId)
	}
	return user, nil
}

// userWithRole is the capability check shared by every role-gated
// operation: the user must exist and hold the given role.
func (s *Service) userWithRole(ctx context.Context, userId string, role models.UserRole) (models.User, error) {
	user, err := s.userByUUID(ctx, userId)
	if err != nil {
		return models.User{}, err
	}
	if user.Role != role {
		return models.User{}, fmt.Errorf("service.Service.userWithRole: user %s is not a %s: %w", userId, role, models.ErrNotAuthorized)
	}
	return user, nil
}
