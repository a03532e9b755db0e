package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

const (
	listProductsSQL = `SELECT p.id, p.title, p.url, p.price, p.currency, p.stock_status, b.name,
	(SELECT m.url FROM media m WHERE m.product_id = p.id ORDER BY m.position LIMIT 1)
FROM products p
LEFT JOIN brands b ON b.id = p.brand_id
ORDER BY p.id DESC
LIMIT $1 OFFSET $2`

	getProductSQL = `SELECT p.id, p.source, p.url, p.title, b.name, p.sku, p.gtin, p.description_html,
	p.currency, p.price, p.stock_status, p.category_path, p.created_at, p.updated_at
FROM products p
LEFT JOIN brands b ON b.id = p.brand_id
WHERE p.id = $1`

	productPhotosSQL = `SELECT url FROM media WHERE product_id = $1 ORDER BY position`
	productSizesSQL  = `SELECT value FROM product_sizes WHERE product_id = $1 ORDER BY position`

	exportRowsSQL = `SELECT p.id, p.title, p.url, p.currency, p.price, p.stock_status, p.category_path, b.name,
	COALESCE(string_agg(m.url, '|' ORDER BY m.position), '')
FROM products p
LEFT JOIN brands b ON b.id = p.brand_id
LEFT JOIN media m ON m.product_id = p.id
GROUP BY p.id, b.name
ORDER BY p.id DESC`
)

// ListProducts returns a page of product summaries, newest first.
func (s *Store) ListProducts(ctx context.Context, limit, offset int) ([]catalog.ProductSummary, error) {
	rows, err := s.pool.Query(ctx, listProductsSQL, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.ProductSummary, 0)
	for rows.Next() {
		var p catalog.ProductSummary
		if err := rows.Scan(&p.ID, &p.Title, &p.URL, &p.Price, &p.Currency, &p.StockStatus, &p.Brand, &p.Thumbnail); err != nil {
			return nil, fmt.Errorf("failed to scan product summary: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}
	return out, nil
}

// GetProduct returns one product with its photos and sizes.
func (s *Store) GetProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var p catalog.Product
	err := s.pool.QueryRow(ctx, getProductSQL, id).Scan(
		&p.ID,
		&p.Source,
		&p.URL,
		&p.Title,
		&p.Brand,
		&p.SKU,
		&p.GTIN,
		&p.DescriptionHTML,
		&p.Currency,
		&p.Price,
		&p.StockStatus,
		&p.CategoryPath,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Product{}, catalog.ErrNotFound
		}
		return catalog.Product{}, fmt.Errorf("failed to query product %d: %w", id, err)
	}

	if p.Photos, err = s.strings(ctx, productPhotosSQL, id); err != nil {
		return catalog.Product{}, fmt.Errorf("failed to query photos: %w", err)
	}
	if p.Sizes, err = s.strings(ctx, productSizesSQL, id); err != nil {
		return catalog.Product{}, fmt.Errorf("failed to query sizes: %w", err)
	}
	return p, nil
}

// ExportRows returns every product with its pipe-joined image list, newest first.
func (s *Store) ExportRows(ctx context.Context) ([]catalog.ExportRow, error) {
	rows, err := s.pool.Query(ctx, exportRowsSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	out := make([]catalog.ExportRow, 0)
	for rows.Next() {
		var r catalog.ExportRow
		if err := rows.Scan(
			&r.ID,
			&r.Title,
			&r.URL,
			&r.Currency,
			&r.Price,
			&r.StockStatus,
			&r.CategoryPath,
			&r.Brand,
			&r.Images,
		); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate export rows: %w", err)
	}
	return out, nil
}

func (s *Store) strings(ctx context.Context, sql string, id int64) ([]string, error) {
	rows, err := s.pool.Query(ctx, sql, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
