package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JakeFAU/catalog-ingest/internal/catalog"
)

const (
	seedBrandSQL = `INSERT INTO brands (name, slug, status) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`

	insertDraftBrandSQL = `INSERT INTO brands (name, status) VALUES ($1, 'draft') ON CONFLICT (name) DO NOTHING`
	selectBrandIDSQL    = `SELECT id FROM brands WHERE name = $1`

	insertAliasSQL = `INSERT INTO brand_aliases (brand_id, alias, priority) VALUES ($1, $2, $3)
ON CONFLICT (brand_id, alias) DO NOTHING`
	listAliasesSQL = `SELECT b.name, a.alias, a.priority
FROM brand_aliases a JOIN brands b ON b.id = a.brand_id
ORDER BY a.id`

	insertBrandCollectionSQL = `INSERT INTO collections (type, name, slug) VALUES ('brand', $1, $2) ON CONFLICT (slug) DO NOTHING`
	selectCollectionIDSQL    = `SELECT id FROM collections WHERE slug = $1`

	upsertProductSQL = `INSERT INTO products (
	source, url, title, brand_id, sku, gtin, description_html,
	currency, price, stock_status, category_path, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
ON CONFLICT (url) DO UPDATE SET
	title = EXCLUDED.title,
	brand_id = EXCLUDED.brand_id,
	sku = EXCLUDED.sku,
	gtin = EXCLUDED.gtin,
	description_html = EXCLUDED.description_html,
	currency = EXCLUDED.currency,
	price = EXCLUDED.price,
	stock_status = EXCLUDED.stock_status,
	category_path = EXCLUDED.category_path,
	updated_at = EXCLUDED.updated_at
RETURNING id`

	deleteMediaSQL = `DELETE FROM media WHERE product_id = $1`
	insertMediaSQL = `INSERT INTO media (product_id, url, position) VALUES ($1, $2, $3)`

	deleteSizesSQL = `DELETE FROM product_sizes WHERE product_id = $1`
	insertSizeSQL  = `INSERT INTO product_sizes (product_id, position, value) VALUES ($1, $2, $3)`

	attachCollectionSQL = `INSERT INTO collection_items (collection_id, product_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
)

// SeedBrands inserts seed brands, skipping any whose name or slug already exists.
func (s *Store) SeedBrands(ctx context.Context, seeds []catalog.BrandSeed) error {
	if len(seeds) == 0 {
		return nil
	}
	return s.inTx(ctx, "seed brands", func(tx pgx.Tx) error {
		for _, seed := range seeds {
			status := seed.Status
			if status == "" {
				status = catalog.BrandActive
			}
			if _, err := tx.Exec(ctx, seedBrandSQL, seed.Name, seed.Slug, string(status)); err != nil {
				return fmt.Errorf("insert brand %q: %w", seed.Name, err)
			}
		}
		return nil
	})
}

// UpsertBrandAliases records aliases, creating missing brands as drafts.
func (s *Store) UpsertBrandAliases(ctx context.Context, aliases []catalog.AliasEntry) error {
	if len(aliases) == 0 {
		return nil
	}
	return s.inTx(ctx, "upsert brand aliases", func(tx pgx.Tx) error {
		for _, a := range aliases {
			brandID, err := ensureBrand(ctx, tx, a.Brand)
			if err != nil {
				return err
			}
			priority := a.Priority
			if priority == 0 {
				priority = 1
			}
			if _, err := tx.Exec(ctx, insertAliasSQL, brandID, a.Alias, priority); err != nil {
				return fmt.Errorf("insert alias %q: %w", a.Alias, err)
			}
		}
		return nil
	})
}

// ListBrandAliases returns every alias in table order.
func (s *Store) ListBrandAliases(ctx context.Context) ([]catalog.AliasEntry, error) {
	rows, err := s.pool.Query(ctx, listAliasesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query brand aliases: %w", err)
	}
	defer rows.Close()

	var out []catalog.AliasEntry
	for rows.Next() {
		var a catalog.AliasEntry
		if err := rows.Scan(&a.Brand, &a.Alias, &a.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan brand alias: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate brand aliases: %w", err)
	}
	return out, nil
}

// IngestProduct persists one product in a single transaction: brand and
// brand collection (when resolved), product upsert by URL, media and size
// replacement, and the collection link.
func (s *Store) IngestProduct(ctx context.Context, record catalog.IngestRecord) (int64, error) {
	if record.Product.URL == "" {
		return 0, errors.New("product url is required")
	}
	now := s.clock.Now()
	var productID int64
	err := s.inTx(ctx, "ingest product", func(tx pgx.Tx) error {
		id, err := ingest(ctx, tx, record, now)
		productID = id
		return err
	})
	if err != nil {
		return 0, err
	}
	return productID, nil
}

func ingest(ctx context.Context, tx pgx.Tx, record catalog.IngestRecord, now time.Time) (int64, error) {
	var (
		brandID      *int64
		collectionID int64
	)
	if record.Brand != nil {
		id, err := ensureBrand(ctx, tx, *record.Brand)
		if err != nil {
			return 0, err
		}
		brandID = &id
		if collectionID, err = ensureBrandCollection(ctx, tx, *record.Brand); err != nil {
			return 0, err
		}
	}

	p := record.Product
	var productID int64
	if err := tx.QueryRow(ctx, upsertProductSQL,
		record.Source,
		p.URL,
		p.Title,
		brandID,
		p.SKU,
		p.GTIN,
		p.DescriptionHTML,
		p.Currency,
		p.Price,
		p.StockStatus,
		p.CategoryPath,
		now,
	).Scan(&productID); err != nil {
		return 0, fmt.Errorf("upsert product %s: %w", p.URL, err)
	}

	if err := replaceOrdered(ctx, tx, deleteMediaSQL, productID, p.Images, func(pos int, v string) (string, []any) {
		return insertMediaSQL, []any{productID, v, pos}
	}); err != nil {
		return 0, fmt.Errorf("replace media: %w", err)
	}
	if err := replaceOrdered(ctx, tx, deleteSizesSQL, productID, p.Sizes, func(pos int, v string) (string, []any) {
		return insertSizeSQL, []any{productID, pos, v}
	}); err != nil {
		return 0, fmt.Errorf("replace sizes: %w", err)
	}

	if brandID != nil {
		if _, err := tx.Exec(ctx, attachCollectionSQL, collectionID, productID); err != nil {
			return 0, fmt.Errorf("attach collection: %w", err)
		}
	}
	return productID, nil
}

func ensureBrand(ctx context.Context, q querier, name string) (int64, error) {
	if _, err := q.Exec(ctx, insertDraftBrandSQL, name); err != nil {
		return 0, fmt.Errorf("insert brand %q: %w", name, err)
	}
	var id int64
	if err := q.QueryRow(ctx, selectBrandIDSQL, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("select brand %q: %w", name, err)
	}
	return id, nil
}

func ensureBrandCollection(ctx context.Context, q querier, name string) (int64, error) {
	slug := catalog.CollectionSlug(name)
	if _, err := q.Exec(ctx, insertBrandCollectionSQL, name, slug); err != nil {
		return 0, fmt.Errorf("insert collection %q: %w", slug, err)
	}
	var id int64
	if err := q.QueryRow(ctx, selectCollectionIDSQL, slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("select collection %q: %w", slug, err)
	}
	return id, nil
}

func replaceOrdered(
	ctx context.Context,
	q querier,
	deleteSQL string,
	productID int64,
	values []string,
	insert func(pos int, v string) (string, []any),
) error {
	if _, err := q.Exec(ctx, deleteSQL, productID); err != nil {
		return err
	}
	for pos, v := range values {
		sql, args := insert(pos, v)
		if _, err := q.Exec(ctx, sql, args...); err != nil {
			return err
		}
	}
	return nil
}
