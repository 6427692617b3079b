package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"market/internal/models"
)

func (repo *Repository) prepRequestsQuery(limit, offset int, requestId, customerId string, status models.RequestStatus, categories []string) (query string, queryParams []interface{}) {
	query = `
	SELECT
		id,
		title,
		description,
		category,
		offer_price,
		quantity,
		status,
		customer_id,
		created_at
	FROM request_posts
	$conditions$
	ORDER BY created_at, id
	LIMIT $1
	OFFSET $2
	`

	queryParams = make([]interface{}, 0, 6)
	conditions := make([]string, 0, 4)

	if limit <= 0 {
		queryParams = append(queryParams, nil)
	} else {
		queryParams = append(queryParams, limit)
	}
	queryParams = append(queryParams, offset)

	if len(requestId) > 0 {
		conditions = append(conditions, "id = $$")
		queryParams = append(queryParams, requestId)
	}

	if len(customerId) > 0 {
		conditions = append(conditions, "customer_id = $$")
		queryParams = append(queryParams, customerId)
	}

	if len(status) > 0 {
		conditions = append(conditions, "status = $$")
		queryParams = append(queryParams, status)
	}

	if len(categories) > 0 {
		conditions = append(conditions, "category = any($$::text[])")
		queryParams = append(queryParams, sliceToSQLList(categories))
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

func (repo *Repository) GetRequests(ctx context.Context, limit, offset int, customerId string, status models.RequestStatus, categories []string) ([]models.RequestPost, error) {
	query, queryParams := repo.prepRequestsQuery(limit, offset, "", customerId, status, categories)

	rows, err := repo.db.QueryContext(ctx, query, queryParams...)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetRequests: %w", err)
	}
	defer rows.Close()

	var result []models.RequestPost
	req := models.RequestPost{}
	for rows.Next() {
		err = rows.Scan(&req.Id, &req.Title, &req.Description, &req.Category, &req.OfferPrice, &req.Quantity, &req.Status, &req.CustomerId, &req.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetRequests: row scan failed: %w", err)
		}
		result = append(result, req)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetRequests: %w", rows.Err())
	}

	return result, nil
}

func (repo *Repository) GetRequestByUUID(ctx context.Context, UUID string, tx *sql.Tx) (models.RequestPost, error) {
	var req models.RequestPost
	query, queryParams := repo.prepRequestsQuery(1, 0, UUID, "", "", nil)

	var rows *sql.Rows
	var err error

	if tx == nil {
		rows, err = repo.db.QueryContext(ctx, query, queryParams...)
	} else {
		rows, err = tx.QueryContext(ctx, query, queryParams...)
	}

	if err != nil {
		return req, fmt.Errorf("repository.Repository.GetRequestByUUID: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		err = rows.Scan(&req.Id, &req.Title, &req.Description, &req.Category, &req.OfferPrice, &req.Quantity, &req.Status, &req.CustomerId, &req.CreatedAt)
		if err != nil {
			return req, fmt.Errorf("repository.Repository.GetRequestByUUID: row scan failed: %w", err)
		}
	} else {
		return req, fmt.Errorf("repository.Repository.GetRequestByUUID: no request found by UUID %s, %w", UUID, sql.ErrNoRows)
	}

	if rows.Err() != nil {
		return req, fmt.Errorf("repository.Repository.GetRequestByUUID: %w", rows.Err())
	}

	return req, nil
}

func (repo *Repository) AddRequest(ctx context.Context, req models.RequestPost) (models.RequestPost, error) {
	result := req

	query := `
	INSERT INTO request_posts
		(title, description, category, offer_price, quantity, status, customer_id)
	VALUES
		($1, $2, $3, $4, $5, 'open', $6)
	RETURNING
		id, status, created_at
	`

	row := repo.db.QueryRowContext(ctx, query, req.Title, req.Description, req.Category, req.OfferPrice, req.Quantity, req.CustomerId)
	err := row.Scan(&result.Id, &result.Status, &result.CreatedAt)
	if err != nil {
		return result, fmt.Errorf("repository.Repository.AddRequest: %w", err)
	}

	return result, nil
}

// UpdateRequestFields edits the mutable request fields one by one.
// Status is deliberately not among them; it only moves through
// CloseRequest or the accept transaction.
func (repo *Repository) UpdateRequestFields(ctx context.Context, req models.RequestPost) error {
	query := `
	UPDATE request_posts
	SET (title, description, offer_price, quantity) = ($1, $2, $3, $4)
	WHERE id = $5
	`

	_, err := repo.db.ExecContext(ctx, query, req.Title, req.Description, req.OfferPrice, req.Quantity, req.Id)
	if err != nil {
		return fmt.Errorf("repository.Repository.UpdateRequestFields: %w", err)
	}

	return nil
}

// CloseRequest transitions a request out of open with a single
// compare-and-swap. Zero rows affected means the request was not open
// anymore (or never existed) and the transition is refused.
func (repo *Repository) CloseRequest(ctx context.Context, requestId string, outcome models.RequestStatus) error {
	query := `
	UPDATE request_posts
	SET status = $1
	WHERE id = $2 AND status = 'open'
	`

	res, err := repo.db.ExecContext(ctx, query, outcome, requestId)
	if err != nil {
		return fmt.Errorf("repository.Repository.CloseRequest: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repository.Repository.CloseRequest: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("repository.Repository.CloseRequest: %w", models.ErrInvalidTransition)
	}

	return nil
}

func (repo *Repository) DeleteRequest(ctx context.Context, requestId string) error {
	_, err := repo.db.ExecContext(ctx, "DELETE FROM request_posts WHERE id = $1", requestId)
	if err != nil {
		return fmt.Errorf("repository.Repository.DeleteRequest: %w", err)
	}
	return nil
}
