package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"market/internal/models"

	"github.com/shopspring/decimal"
)

func TestAdvanceOrder(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	supplier := AddTestUser(t, repo, models.RoleSupplier)
	req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(5000, -2))
	offer := AddTestOffer(t, repo, req.Id, supplier.Id, decimal.New(4500, -2))

	ctx := context.Background()

	order, err := repo.AcceptOffer(ctx, offer)
	if err != nil {
		t.Fatal(err)
	}

	err = repo.AdvanceOrder(ctx, order.Id, models.OrderDelivered)
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetOrderByUUID(ctx, order.Id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.OrderDelivered {
		t.Errorf("Expected order status 'delivered', got '%s'", got.Status)
	}

	// delivered and cancelled are terminal
	err = repo.AdvanceOrder(ctx, order.Id, models.OrderCancelled)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition advancing delivered order, got %v", err)
	}
	err = repo.AdvanceOrder(ctx, order.Id, models.OrderDelivered)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition re-delivering order, got %v", err)
	}
}

func TestActiveAndHistoryOrders(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	supplier := AddTestUser(t, repo, models.RoleSupplier)

	ctx := context.Background()

	makeOrder := func() models.Order {
		req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(5000, -2))
		offer := AddTestOffer(t, repo, req.Id, supplier.Id, decimal.New(4500, -2))
		order, err := repo.AcceptOffer(ctx, offer)
		if err != nil {
			t.Fatal(err)
		}
		return order
	}

	placed := makeOrder()
	delivered := makeOrder()
	cancelled := makeOrder()

	if err := repo.AdvanceOrder(ctx, delivered.Id, models.OrderDelivered); err != nil {
		t.Fatal(err)
	}
	if err := repo.AdvanceOrder(ctx, cancelled.Id, models.OrderCancelled); err != nil {
		t.Fatal(err)
	}

	// both parties see the placed order in their active list
	for _, userId := range []string{customer.Id, supplier.Id} {
		orders, err := repo.GetActiveOrders(ctx, 0, 0, userId)
		if err != nil {
			t.Fatal(err)
		}
		if len(orders) != 1 || orders[0].Id != placed.Id {
			t.Errorf("Expected active orders of %s to be [%s], got %+v", userId, placed.Id, orders)
		}
	}

	history, err := repo.GetOrderHistory(ctx, 0, 0, customer.Id)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 {
		t.Fatalf("Expected 2 orders in history, got %d", len(history))
	}
	if history[0].Id != delivered.Id || history[1].Id != cancelled.Id {
		t.Errorf("History out of creation order: %+v", history)
	}

	_, err = repo.GetOrderByUUID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for missing order, got %v", err)
	}
}
