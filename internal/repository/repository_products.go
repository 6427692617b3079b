package repository

import (
	"context"
	"fmt"

	"market/internal/models"
)

func (repo *Repository) AddProduct(ctx context.Context, p models.Product) (models.Product, error) {
	query := `
	INSERT INTO products (name, description, category, price, supplier_id, created_at)
	VALUES
		($1, $2, $3, $4, $5, DEFAULT)
	RETURNING
		id, created_at
	`

	row := repo.db.QueryRowContext(ctx, query, p.Name, p.Description, p.Category, p.Price, p.SupplierId)
	err := row.Scan(&p.Id, &p.CreatedAt)
	if err != nil {
		return p, fmt.Errorf("repository.Repository.AddProduct: %w", err)
	}

	return p, nil
}

func (repo *Repository) GetSupplierProducts(ctx context.Context, supplierId string) ([]models.Product, error) {
	query := `
	SELECT
		id, name, description, category, price, supplier_id, created_at
	FROM products
	WHERE supplier_id = $1
	ORDER BY created_at
	`

	rows, err := repo.db.QueryContext(ctx, query, supplierId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.GetSupplierProducts: %w", err)
	}
	defer rows.Close()

	var result []models.Product
	var p models.Product
	for rows.Next() {
		err = rows.Scan(&p.Id, &p.Name, &p.Description, &p.Category, &p.Price, &p.SupplierId, &p.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.GetSupplierProducts: rows scan error: %w", err)
		}
		result = append(result, p)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.GetSupplierProducts: %w", rows.Err())
	}

	return result, nil
}

// SupplierCategories derives the catalog index: the set of distinct
// categories across the supplier's product listings. Recomputed on
// demand, never stored.
func (repo *Repository) SupplierCategories(ctx context.Context, supplierId string) (map[string]bool, error) {
	query := `
	SELECT DISTINCT category
	FROM products
	WHERE supplier_id = $1
	`

	rows, err := repo.db.QueryContext(ctx, query, supplierId)
	if err != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierCategories: %w", err)
	}
	defer rows.Close()

	categories := make(map[string]bool)
	var category string
	for rows.Next() {
		err = rows.Scan(&category)
		if err != nil {
			return nil, fmt.Errorf("repository.Repository.SupplierCategories: rows scan error: %w", err)
		}
		categories[category] = true
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("repository.Repository.SupplierCategories: %w", rows.Err())
	}

	return categories, nil
}
