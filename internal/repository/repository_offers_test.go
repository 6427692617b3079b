package repository

import (
	"context"
	"errors"
	"testing"

	"market/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

func TestAddGetOffers(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	s1 := AddTestUser(t, repo, models.RoleSupplier)
	s2 := AddTestUser(t, repo, models.RoleSupplier)
	req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(5000, -2))

	ctx := context.Background()

	o1 := AddTestOffer(t, repo, req.Id, s1.Id, decimal.New(5000, -2))
	o2 := AddTestOffer(t, repo, req.Id, s2.Id, decimal.New(4500, -2))

	if o1.Status != models.OfferPending {
		t.Errorf("Expected new offer status 'pending', got '%s'", o1.Status)
	}

	offers, err := repo.GetOffers(ctx, 0, 0, req.Id, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(offers) != 2 {
		t.Fatalf("Expected 2 offers for request, got %d", len(offers))
	}
	// creation order
	if offers[0].Id != o1.Id || offers[1].Id != o2.Id {
		t.Errorf("Offers returned out of creation order")
	}

	mine, err := repo.GetOffers(ctx, 0, 0, "", s2.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 1 || mine[0].Id != o2.Id {
		t.Errorf("Expected supplier filter to return offer '%s', got %+v", o2.Id, mine)
	}

	got, err := repo.GetOfferByUUID(ctx, o2.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.RequestId != req.Id || !got.Proposed.Equal(o2.Proposed) {
		t.Errorf("Fetched offer does not match inserted one: %+v vs %+v", got, o2)
	}
}

func TestRejectOffer(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	supplier := AddTestUser(t, repo, models.RoleSupplier)
	req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(5000, -2))
	offer := AddTestOffer(t, repo, req.Id, supplier.Id, decimal.New(4500, -2))

	ctx := context.Background()

	err := repo.RejectOffer(ctx, offer.Id)
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetOfferByUUID(ctx, offer.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.OfferRejected {
		t.Errorf("Expected status 'rejected', got '%s'", got.Status)
	}

	err = repo.RejectOffer(ctx, offer.Id)
	if !errors.Is(err, models.ErrOfferResolved) {
		t.Errorf("Expected ErrOfferResolved on second reject, got %v", err)
	}

	// rejection leaves the request open
	reqAfter, err := repo.GetRequestByUUID(ctx, req.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reqAfter.Status != models.RequestOpen {
		t.Errorf("Rejecting an offer changed the request status to '%s'", reqAfter.Status)
	}
}

func TestAcceptOffer(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	s1 := AddTestUser(t, repo, models.RoleSupplier)
	s2 := AddTestUser(t, repo, models.RoleSupplier)
	req := AddTestRequest(t, repo, customer.Id, "tools", 3, decimal.New(5000, -2))

	o1 := AddTestOffer(t, repo, req.Id, s1.Id, decimal.New(5000, -2))
	o2 := AddTestOffer(t, repo, req.Id, s2.Id, decimal.New(4500, -2))

	ctx := context.Background()

	order, err := repo.AcceptOffer(ctx, o2)
	if err != nil {
		t.Fatal(err)
	}

	if order.RequestId != req.Id || order.OfferId != o2.Id {
		t.Errorf("Order references wrong entities: %+v", order)
	}
	if order.CustomerId != customer.Id || order.SupplierId != s2.Id {
		t.Errorf("Order copied wrong parties: %+v", order)
	}
	if !order.TotalPrice.Equal(o2.Proposed) {
		t.Errorf("Expected total price %s, got %s", o2.Proposed, order.TotalPrice)
	}
	if order.Quantity != 3 {
		t.Errorf("Expected quantity 3, got %d", order.Quantity)
	}
	if order.Status != models.OrderPlaced {
		t.Errorf("Expected order status 'placed', got '%s'", order.Status)
	}

	reqAfter, err := repo.GetRequestByUUID(ctx, req.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reqAfter.Status != models.RequestAccepted {
		t.Errorf("Expected request status 'accepted', got '%s'", reqAfter.Status)
	}

	o2After, err := repo.GetOfferByUUID(ctx, o2.Id)
	if err != nil {
		t.Fatal(err)
	}
	if o2After.Status != models.OfferAccepted {
		t.Errorf("Expected offer status 'accepted', got '%s'", o2After.Status)
	}

	// the sibling keeps its stored status but can never be accepted
	o1After, err := repo.GetOfferByUUID(ctx, o1.Id)
	if err != nil {
		t.Fatal(err)
	}
	if o1After.Status != models.OfferPending {
		t.Errorf("Sibling offer status changed to '%s'", o1After.Status)
	}

	_, err = repo.AcceptOffer(ctx, o1)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition accepting sibling offer, got %v", err)
	}

	// re-accepting the winner also fails, the request is closed
	_, err = repo.AcceptOffer(ctx, o2)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition re-accepting winner, got %v", err)
	}

	// no second order has appeared
	orders, err := repo.GetActiveOrders(ctx, 0, 0, customer.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Errorf("Expected exactly 1 order, got %d", len(orders))
	}
}

func TestAcceptOfferRejectedOffer(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	supplier := AddTestUser(t, repo, models.RoleSupplier)
	req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(5000, -2))
	offer := AddTestOffer(t, repo, req.Id, supplier.Id, decimal.New(4500, -2))

	ctx := context.Background()

	err := repo.RejectOffer(ctx, offer.Id)
	if err != nil {
		t.Fatal(err)
	}

	// request is still open, the offer guard has to fire and roll the
	// request update back
	_, err = repo.AcceptOffer(ctx, offer)
	if !errors.Is(err, models.ErrOfferResolved) {
		t.Errorf("Expected ErrOfferResolved accepting rejected offer, got %v", err)
	}

	reqAfter, err := repo.GetRequestByUUID(ctx, req.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if reqAfter.Status != models.RequestOpen {
		t.Errorf("Failed accept leaked a request status change: '%s'", reqAfter.Status)
	}
}

// At most one offer per request ever reaches accepted, no matter how
// many accepts race.
func TestConcurrentAccept(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	req := AddTestRequest(t, repo, customer.Id, "tools", 2, decimal.New(5000, -2))

	const contenders = 8
	offers := make([]models.Offer, contenders)
	for i := range offers {
		supplier := AddTestUser(t, repo, models.RoleSupplier)
		offers[i] = AddTestOffer(t, repo, req.Id, supplier.Id, decimal.New(int64(4000+i), -2))
	}

	ctx := context.Background()
	results := make([]error, contenders)

	var eg errgroup.Group
	for i := range offers {
		i := i
		eg.Go(func() error {
			_, err := repo.AcceptOffer(ctx, offers[i])
			results[i] = err
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}

	winners := 0
	for i, err := range results {
		if err == nil {
			winners++
			continue
		}
		if !errors.Is(err, models.ErrInvalidTransition) && !errors.Is(err, models.ErrOfferResolved) {
			t.Errorf("Loser %d failed with unexpected error: %v", i, err)
		}
	}
	if winners != 1 {
		t.Fatalf("Expected exactly 1 winning accept, got %d", winners)
	}

	accepted := 0
	for _, offer := range offers {
		got, err := repo.GetOfferByUUID(ctx, offer.Id)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status == models.OfferAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("Expected exactly 1 accepted offer in storage, got %d", accepted)
	}

	orders, err := repo.GetActiveOrders(ctx, 0, 0, customer.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(orders) != 1 {
		t.Fatalf("Expected exactly 1 order, got %d", len(orders))
	}
}

//// Service

func AddTestOffer(t *testing.T, repo *Repository, requestId, supplierId string, proposed decimal.Decimal) models.Offer {
	offer, err := repo.AddOffer(context.Background(), models.Offer{
		RequestId:  requestId,
		SupplierId: supplierId,
		Proposed:   proposed,
	})
	if err != nil {
		t.Fatal(err)
	}
	return offer
}
