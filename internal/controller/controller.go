package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"market/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Service interface {
	AddUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, userId string) (models.User, error)

	AddProduct(ctx context.Context, product models.Product) (models.Product, error)
	GetSupplierProducts(ctx context.Context, supplierId string) ([]models.Product, error)

	AddRequest(ctx context.Context, req models.RequestPost) (models.RequestPost, error)
	GetRequests(ctx context.Context, limit, offset int) ([]models.RequestPost, error)
	GetRequest(ctx context.Context, requestId string) (models.RequestPost, error)
	OpenRequestsForSupplier(ctx context.Context, supplierId string, limit, offset int) ([]models.RequestPost, error)
	EditRequest(ctx context.Context, requestId, customerId string, changes models.RequestChanges) (models.RequestPost, error)
	CloseRequest(ctx context.Context, requestId, customerId string, outcome models.RequestStatus) (models.RequestPost, error)

	SubmitOffer(ctx context.Context, requestId, supplierId string, proposed decimal.Decimal) (models.Offer, error)
	TakeRequest(ctx context.Context, requestId, supplierId string) (models.Offer, error)
	GetRequestOffers(ctx context.Context, requestId string, limit, offset int) ([]models.Offer, error)
	GetSupplierOffers(ctx context.Context, supplierId string, limit, offset int) ([]models.Offer, error)
	RespondToOffer(ctx context.Context, offerId, customerId string, action models.OfferAction) (models.Offer, *models.Order, error)

	AdvanceOrder(ctx context.Context, orderId, userId string, action models.OrderAction) (models.Order, error)
	GetActiveOrders(ctx context.Context, userId string, limit, offset int) ([]models.Order, error)
	GetOrderHistory(ctx context.Context, userId string, limit, offset int) ([]models.Order, error)
}

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GET /api/ping
func (c *Controller) Ping(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "ok")
}

//// Users

// POST /api/users/new
func (c *Controller) NewUser(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewUserReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := c.service.AddUser(r.Context(), models.User{
		Username: req.Username,
		Role:     req.Role,
		Name:     req.Name,
		Email:    req.Email,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, user)
}

// GET /api/users/{userId}
func (c *Controller) GetUser(w http.ResponseWriter, r *http.Request) {
	userId, ok := c.getPathUUID(w, r, "userId")
	if !ok {
		return
	}

	user, err := c.service.GetUser(r.Context(), userId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, user)
}

//// Products

// POST /api/products/new
func (c *Controller) NewProduct(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewProductReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := c.service.AddProduct(r.Context(), models.Product{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price,
		SupplierId:  req.SupplierId,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, product)
}

// GET /api/products/supplier/{supplierId}
func (c *Controller) SupplierProducts(w http.ResponseWriter, r *http.Request) {
	supplierId, ok := c.getPathUUID(w, r, "supplierId")
	if !ok {
		return
	}

	products, err := c.service.GetSupplierProducts(r.Context(), supplierId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, products)
}

//// Requests

// POST /api/requests/new
func (c *Controller) NewRequest(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewRequestReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := c.service.AddRequest(r.Context(), models.RequestPost{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		OfferPrice:  req.OfferPrice,
		Quantity:    req.Quantity,
		CustomerId:  req.CustomerId,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

// GET /api/requests
func (c *Controller) GetRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	requests, err := c.service.GetRequests(r.Context(), limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, requests)
}

// GET /api/requests/{requestId}
func (c *Controller) GetRequest(w http.ResponseWriter, r *http.Request) {
	requestId, ok := c.getPathUUID(w, r, "requestId")
	if !ok {
		return
	}

	request, err := c.service.GetRequest(r.Context(), requestId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

// GET /api/requests/open/{supplierId}
func (c *Controller) OpenRequests(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	supplierId, ok := c.getPathUUID(w, r, "supplierId")
	if !ok {
		return
	}

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	requests, err := c.service.OpenRequestsForSupplier(r.Context(), supplierId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, requests)
}

// PATCH /api/requests/{requestId}/edit
func (c *Controller) EditRequest(w http.ResponseWriter, r *http.Request) {
	requestId, ok := c.getPathUUID(w, r, "requestId")
	if !ok {
		return
	}

	customerId, ok := c.getQueryUUID(w, r, "userId")
	if !ok {
		return
	}

	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseEditRequestReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := c.service.EditRequest(r.Context(), requestId, customerId, models.RequestChanges{
		Title:       req.Title,
		Description: req.Description,
		OfferPrice:  req.OfferPrice,
		Quantity:    req.Quantity,
	})
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

// PUT /api/requests/{requestId}/close
func (c *Controller) CloseRequest(w http.ResponseWriter, r *http.Request) {
	requestId, ok := c.getPathUUID(w, r, "requestId")
	if !ok {
		return
	}

	customerId, ok := c.getQueryUUID(w, r, "userId")
	if !ok {
		return
	}

	outcome := models.RequestStatus(r.URL.Query().Get("outcome"))
	if !models.ValidRequestOutcome(outcome) {
		c.errorResponse(w, http.StatusBadRequest, "empty or invalid outcome supplied, should be one of: accepted, declined, cancelled")
		return
	}

	request, err := c.service.CloseRequest(r.Context(), requestId, customerId, outcome)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, request)
}

//// Offers

// POST /api/offers/new
func (c *Controller) NewOffer(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseNewOfferReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := c.service.SubmitOffer(r.Context(), req.RequestId, req.SupplierId, req.Proposed)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, offer)
}

// POST /api/offers/take
func (c *Controller) TakeRequest(w http.ResponseWriter, r *http.Request) {
	data, err := c.readBody(r.Body)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not read request body")
		return
	}

	req, err := ParseTakeRequestReq(data)
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	offer, err := c.service.TakeRequest(r.Context(), req.RequestId, req.SupplierId)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, offer)
}

// GET /api/offers/request/{requestId}
func (c *Controller) RequestOffers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	requestId, ok := c.getPathUUID(w, r, "requestId")
	if !ok {
		return
	}

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	offers, err := c.service.GetRequestOffers(r.Context(), requestId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, offers)
}

// GET /api/offers/my
func (c *Controller) MyOffers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	supplierId, ok := c.getQueryUUID(w, r, "supplierId")
	if !ok {
		return
	}

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	offers, err := c.service.GetSupplierOffers(r.Context(), supplierId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, offers)
}

// PUT /api/offers/{offerId}/respond
//
// Responds 200 with the order on accept and with the updated offer on
// reject.
func (c *Controller) RespondToOffer(w http.ResponseWriter, r *http.Request) {
	offerId, ok := c.getPathUUID(w, r, "offerId")
	if !ok {
		return
	}

	customerId, ok := c.getQueryUUID(w, r, "userId")
	if !ok {
		return
	}

	action := models.OfferAction(r.URL.Query().Get("action"))
	if !models.ValidOfferAction(action) {
		c.errorResponse(w, http.StatusBadRequest, "empty or invalid action supplied, should be one of: accept, reject")
		return
	}

	offer, order, err := c.service.RespondToOffer(r.Context(), offerId, customerId, action)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	if order != nil {
		c.marshalResponse(w, order)
		return
	}
	c.marshalResponse(w, offer)
}

//// Orders

// PUT /api/orders/{orderId}/advance
func (c *Controller) AdvanceOrder(w http.ResponseWriter, r *http.Request) {
	orderId, ok := c.getPathUUID(w, r, "orderId")
	if !ok {
		return
	}

	userId, ok := c.getQueryUUID(w, r, "userId")
	if !ok {
		return
	}

	action := models.OrderAction(r.URL.Query().Get("action"))
	if !models.ValidOrderAction(action) {
		c.errorResponse(w, http.StatusBadRequest, "empty or invalid action supplied, should be one of: deliver, cancel")
		return
	}

	order, err := c.service.AdvanceOrder(r.Context(), orderId, userId, action)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, order)
}

// GET /api/orders/active
func (c *Controller) ActiveOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userId, ok := c.getQueryUUID(w, r, "userId")
	if !ok {
		return
	}

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	orders, err := c.service.GetActiveOrders(r.Context(), userId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, orders)
}

// GET /api/orders/history
func (c *Controller) OrderHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userId, ok := c.getQueryUUID(w, r, "userId")
	if !ok {
		return
	}

	limit, err := c.getQueryInt(query, "limit")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'limit' query parameter: "+query.Get("limit"))
		return
	}

	offset, err := c.getQueryInt(query, "offset")
	if err != nil {
		c.errorResponse(w, http.StatusBadRequest, "invalid value of 'offset' query parameter: "+query.Get("offset"))
		return
	}

	orders, err := c.service.GetOrderHistory(r.Context(), userId, limit, offset)
	if err != nil {
		c.serviceErrorResponse(w, err)
		return
	}

	c.marshalResponse(w, orders)
}

// Service

type ErrorResponse struct {
	Reason string `json:"reason"`
}

func (c *Controller) getQueryInt(query url.Values, key string) (int, error) {
	strs, ok := query[key]
	if ok && len(strs) > 0 {
		return strconv.Atoi(strs[0])
	}
	return 0, nil
}

func (c *Controller) getPathUUID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := r.PathValue(key)
	if _, err := uuid.Parse(id); err != nil {
		c.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("empty or malformed '%s' supplied: %s", key, id))
		return "", false
	}
	return id, true
}

func (c *Controller) getQueryUUID(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id := r.URL.Query().Get(key)
	if _, err := uuid.Parse(id); err != nil {
		c.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("empty or malformed '%s' query parameter supplied: %s", key, id))
		return "", false
	}
	return id, true
}

func (c *Controller) errorResponse(w http.ResponseWriter, status int, text string) {
	w.WriteHeader(status)

	data, err := json.Marshal(ErrorResponse{Reason: text})
	if err != nil {
		log.Printf("controller.Controller.errorResponse: %s", err)
		return
	}

	_, err = w.Write(data)
	if err != nil {
		log.Printf("controller.Controller.errorResponse: %s", err)
		return
	}
}

func (c *Controller) serviceErrorResponse(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidUser):
		c.errorResponse(w, http.StatusUnauthorized, "user does not exist")
	case errors.Is(err, models.ErrEmailTaken):
		c.errorResponse(w, http.StatusConflict, "another user is already registered with this email")
	case errors.Is(err, models.ErrNotAuthorized):
		c.errorResponse(w, http.StatusForbidden, "user does not own the resource or lacks the role for requested action")
	case errors.Is(err, models.ErrNoRequest):
		c.errorResponse(w, http.StatusNotFound, "requested request post does not exist")
	case errors.Is(err, models.ErrNoOffer):
		c.errorResponse(w, http.StatusNotFound, "requested offer does not exist")
	case errors.Is(err, models.ErrNoOrder):
		c.errorResponse(w, http.StatusNotFound, "requested order does not exist")
	case errors.Is(err, models.ErrCategoryMismatch):
		c.errorResponse(w, http.StatusForbidden, "supplier does not carry the request's category")
	case errors.Is(err, models.ErrOfferResolved):
		c.errorResponse(w, http.StatusForbidden, "offer is already accepted or rejected")
	case errors.Is(err, models.ErrInvalidTransition):
		c.errorResponse(w, http.StatusForbidden, "resource status does not permit the requested transition")
	case errors.Is(err, models.ErrTxFailed):
		c.errorResponse(w, http.StatusInternalServerError, "store transaction failed, request may be retried")
	default:
		log.Println("controller:", err)
		c.errorResponse(w, http.StatusInternalServerError, "internal server error: "+err.Error())
	}
}

func (c *Controller) marshalResponse(w http.ResponseWriter, data any) {
	d, err := json.Marshal(data)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not marshal response data")
		return
	}

	_, err = w.Write(d)
	if err != nil {
		c.errorResponse(w, http.StatusInternalServerError, "could not write response data")
		return
	}
}

func (c *Controller) readBody(src io.ReadCloser) ([]byte, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	src.Close()
	return data, nil
}
