package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"market/internal/models"

	"github.com/shopspring/decimal"
)

func TestAddGetRequests(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	price := decimal.New(5000, -2)

	r1 := AddTestRequest(t, repo, customer.Id, "tools", 3, price)
	r2 := AddTestRequest(t, repo, customer.Id, "garden", 1, price)
	r3 := AddTestRequest(t, repo, customer.Id, "electronics", 2, price)

	if r1.Status != models.RequestOpen {
		t.Errorf("Expected new request status 'open', got '%s'", r1.Status)
	}

	ctx := context.Background()

	all, err := repo.GetRequests(ctx, 0, 0, "", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 requests, got %d", len(all))
	}
	// insertion order
	for i, id := range []string{r1.Id, r2.Id, r3.Id} {
		if all[i].Id != id {
			t.Errorf("Expected request %d to be '%s', got '%s'", i, id, all[i].Id)
		}
	}

	filtered, err := repo.GetRequests(ctx, 0, 0, "", models.RequestOpen, []string{"tools", "garden"})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 2 {
		t.Fatalf("Expected 2 requests in {tools, garden}, got %d", len(filtered))
	}
	for _, req := range filtered {
		if req.Category != "tools" && req.Category != "garden" {
			t.Errorf("Received request of category '%s' outside the filter", req.Category)
		}
	}

	got, err := repo.GetRequestByUUID(ctx, r2.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Id != r2.Id || got.Quantity != 1 || !got.OfferPrice.Equal(price) {
		t.Errorf("Fetched request does not match inserted one: %+v vs %+v", got, r2)
	}

	_, err = repo.GetRequestByUUID(ctx, "00000000-0000-0000-0000-000000000000", nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected sql.ErrNoRows for missing request, got %v", err)
	}

	err = repo.DeleteRequest(ctx, r3.Id)
	if err != nil {
		t.Fatal(err)
	}
	_, err = repo.GetRequestByUUID(ctx, r3.Id, nil)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Expected deleted request to be gone, got %v", err)
	}
}

func TestCloseRequest(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(100, -2))

	ctx := context.Background()

	err := repo.CloseRequest(ctx, req.Id, models.RequestCancelled)
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRequestByUUID(ctx, req.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.RequestCancelled {
		t.Errorf("Expected status 'cancelled', got '%s'", got.Status)
	}

	// second close must fail, not silently succeed
	err = repo.CloseRequest(ctx, req.Id, models.RequestDeclined)
	if !errors.Is(err, models.ErrInvalidTransition) {
		t.Errorf("Expected ErrInvalidTransition on second close, got %v", err)
	}

	got, err = repo.GetRequestByUUID(ctx, req.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.RequestCancelled {
		t.Errorf("Second close changed status to '%s'", got.Status)
	}
}

func TestUpdateRequestFields(t *testing.T) {
	repo := OpenTestRepo(t)
	defer repo.Close()

	customer := AddTestUser(t, repo, models.RoleCustomer)
	req := AddTestRequest(t, repo, customer.Id, "tools", 1, decimal.New(100, -2))

	req.Title = "new title"
	req.Description = "new description"
	req.OfferPrice = decimal.New(250, -2)
	req.Quantity = 4

	err := repo.UpdateRequestFields(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetRequestByUUID(context.Background(), req.Id, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "new title" || got.Description != "new description" || got.Quantity != 4 || !got.OfferPrice.Equal(req.OfferPrice) {
		t.Errorf("Update did not apply: %+v", got)
	}
	if got.Category != "tools" || got.Status != models.RequestOpen {
		t.Errorf("Update touched immutable fields: %+v", got)
	}
}
