package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"market/internal/models"
)

func (repo *Repository) AddOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	query := `
	INSERT INTO offers (request_id, supplier_id, proposed, status, created_at)
	VALUES
		($1, $2, $3, 'pending', DEFAULT)
	RETURNING
		id, status, created_at
	`

	row := repo.db.QueryRowContext(ctx, query, offer.RequestId, offer.SupplierId, offer.Proposed)
	err := row.Scan(&offer.Id, &offer.Status, &offer.CreatedAt)
	if err != nil {
		return offer, fmt.Errorf("repository.Repository.AddOffer: %w", err)
	}

	return offer, nil
}

func (repo *Repository) prepOffersQuery(limit, offset int, offerId, requestId, supplierId string) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id, request_id, supplier_id, proposed, status, created_at
	FROM offers
	$conditions$
	ORDER BY created_at, id
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 5)
	conditions := make([]string, 0, 3)

	if limit <= 0 {
		queryParams = append(queryParams, nil)
	} else {
		queryParams = append(queryParams, limit)
	}
	queryParams = append(queryParams, offset)

	if len(offerId) > 0 {
		queryParams = append(queryParams, offerId)
		conditions = append(conditions, "id = $$")
	}
	if len(requestId) > 0 {
		queryParams = append(queryParams, requestId)
		conditions = append(conditions, "request_id = $$")
	}
	if len(supplierId) > 0 {
		queryParams = append(queryParams, supplierId)
		conditions = append(conditions, "supplier_id = $$")
	}

	condStr := ""
	if len(conditions) > 0 {
		for i := 0; i < len(conditions); i++ {
			conditions[i] = strings.Replace(conditions[i], "$$", "$"+strconv.Itoa(i+3), -1)
		}
		condStr = "WHERE " + strings.Join(conditions, " AND ")
	}
	query = strings.Replace(query, "$conditions$", condStr, -1)

	return query, queryParams
}

func (repo *Repository) GetOffers(ctx context.Context, limit, offset int, requestId, supplierId string) ([]models.Offer, error) {
	query, params := repo.prepOffersQuery(limit, offset, "", requestId, supplierId)

	rows, err := repo.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetOffers: %w", err)
	}
	defer rows.Close()

	var result []models.Offer
	var offer models.Offer
	for rows.Next() {
		err = rows.Scan(&offer.Id, &offer.RequestId, &offer.SupplierId, &offer.Proposed, &offer.Status, &offer.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetOffers: rows scan error: %w", err)
		}
		result = append(result, offer)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetOffers: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetOfferByUUID(ctx context.Context, UUID string) (models.Offer, error) {
	var offer models.Offer
	query, params := repo.prepOffersQuery(1, 0, UUID, "", "")
	row := repo.db.QueryRowContext(ctx, query, params...)
	err := row.Scan(&offer.Id, &offer.RequestId, &offer.SupplierId, &offer.Proposed, &offer.Status, &offer.CreatedAt)
	if err != nil {
		return offer, fmt.Errorf("repository.Repository.GetOfferByUUID: %w", err)
	}
	return offer, nil
}

// RejectOffer flips a pending offer to rejected. The parent request is
// untouched and stays open for competing offers.
func (repo *Repository) RejectOffer(ctx context.Context, offerId string) error {
	query := `
	UPDATE offers
	SET status = 'rejected'
	WHERE id = $1 AND status = 'pending'
	`

	res, err := repo.db.ExecContext(ctx, query, offerId)
	if err != nil {
		return fmt.Errorf("repository.Repository.RejectOffer: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository.Repository.RejectOffer: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repository.Repository.RejectOffer: %w", models.ErrOfferResolved)
	}

	return nil
}

// AcceptOffer runs the accept transaction: close the parent request,
// mark the offer accepted and insert the order, all in one unit.
//
// Serialization per request comes from the conditional UPDATE on
// request_posts.status: of any concurrent accepts touching the same
// request, exactly one sees 'open' and commits; the rest roll back
// before writing anything. Sibling pending offers keep their stored
// status and fail the same guard on any later accept attempt.
func (repo *Repository) AcceptOffer(ctx context.Context, offer models.Offer) (models.Order, error) {
	var order models.Order

	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: failed to start transaction: %w: %w", models.ErrTxFailed, err)
	}

	res, err := tx.ExecContext(ctx, `
	UPDATE request_posts
	SET status = 'accepted'
	WHERE id = $1 AND status = 'open'
	`, offer.RequestId)
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: %w", wrapRollbackErr(tx, err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: %w", wrapRollbackErr(tx, err))
	}
	if n == 0 {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: request %s is not open: %w", offer.RequestId, wrapRollbackErr(tx, models.ErrInvalidTransition))
	}

	res, err = tx.ExecContext(ctx, `
	UPDATE offers
	SET status = 'accepted'
	WHERE id = $1 AND status = 'pending'
	`, offer.Id)
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: %w", wrapRollbackErr(tx, err))
	}
	n, err = res.RowsAffected()
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: %w", wrapRollbackErr(tx, err))
	}
	if n == 0 {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: offer %s is not pending: %w", offer.Id, wrapRollbackErr(tx, models.ErrOfferResolved))
	}

	// total_price and quantity are snapshots: the offer's counter-price
	// and the request's quantity as they stand inside this transaction.
	row := tx.QueryRowContext(ctx, `
	INSERT INTO orders (request_id, offer_id, customer_id, supplier_id, status, total_price, quantity)
	SELECT
		req.id, $1, req.customer_id, $2, 'placed', $3, req.quantity
	FROM request_posts AS req
	WHERE req.id = $4
	RETURNING
		id, request_id, offer_id, customer_id, supplier_id, status, total_price, quantity, created_at
	`, offer.Id, offer.SupplierId, offer.Proposed, offer.RequestId)
	err = row.Scan(&order.Id, &order.RequestId, &order.OfferId, &order.CustomerId, &order.SupplierId, &order.Status, &order.TotalPrice, &order.Quantity, &order.CreatedAt)
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: order insert failed: %w", wrapRollbackErr(tx, err))
	}

	err = tx.Commit()
	if err != nil {
		return order, fmt.Errorf("repository.Repository.AcceptOffer: failed to commit transaction: %w: %w", models.ErrTxFailed, err)
	}

	return order, nil
}
