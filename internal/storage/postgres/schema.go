package postgres

import (
	"context"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS brands (
	id BIGSERIAL PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	slug TEXT UNIQUE,
	status TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'draft'))
)`,
	`CREATE TABLE IF NOT EXISTS brand_aliases (
	id BIGSERIAL PRIMARY KEY,
	brand_id BIGINT NOT NULL REFERENCES brands (id),
	alias TEXT NOT NULL,
	priority INT NOT NULL DEFAULT 1,
	UNIQUE (brand_id, alias)
)`,
	`CREATE TABLE IF NOT EXISTS collections (
	id BIGSERIAL PRIMARY KEY,
	type TEXT NOT NULL CHECK (type IN ('brand', 'category', 'promo')),
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS products (
	id BIGSERIAL PRIMARY KEY,
	source TEXT NOT NULL,
	url TEXT NOT NULL UNIQUE,
	title TEXT,
	brand_id BIGINT REFERENCES brands (id),
	sku TEXT,
	gtin TEXT,
	description_html TEXT,
	currency TEXT,
	price DOUBLE PRECISION,
	stock_status TEXT,
	category_path TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE TABLE IF NOT EXISTS media (
	id BIGSERIAL PRIMARY KEY,
	product_id BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
	url TEXT NOT NULL,
	position INT NOT NULL DEFAULT 0
)`,
	`CREATE INDEX IF NOT EXISTS media_product_position_idx ON media (product_id, position)`,
	`CREATE TABLE IF NOT EXISTS collection_items (
	collection_id BIGINT NOT NULL REFERENCES collections (id),
	product_id BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
	PRIMARY KEY (collection_id, product_id)
)`,
	`CREATE TABLE IF NOT EXISTS product_sizes (
	product_id BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
	position INT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (product_id, position)
)`,
}

// Migrate creates the catalog schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i, err)
		}
	}
	return nil
}
