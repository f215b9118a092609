package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/hrygo/bazaarbot/store"
)

const productColumns = `
	p.id, p.name, p.price, p.description, p.search_description, p.stock_status,
	p.stock_quantity, p.category_name, p.subcategory_name, p.tag_names, p.status,
	v.id, v.name, v.location`

// SearchProductsByVector returns published products whose cosine similarity
// to the embedding is at least the threshold, most similar first.
func (d *DB) SearchProductsByVector(ctx context.Context, find *store.FindProductsByVector) ([]*store.Product, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 5
	}

	// <=> is cosine distance, so similarity = 1 - distance.
	query := `
		SELECT ` + productColumns + `,
			1 - (p.embedding <=> $1) AS similarity
		FROM product p
		LEFT JOIN vendor v ON v.id = p.vendor_id
		WHERE p.status = 'published'
			AND p.embedding IS NOT NULL
			AND 1 - (p.embedding <=> $1) >= $2
		ORDER BY p.embedding <=> $1
		LIMIT $3`

	rows, err := d.db.QueryContext(ctx, query, pgvector.NewVector(find.Embedding), find.Threshold, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search products by vector")
	}
	defer rows.Close()

	list := []*store.Product{}
	for rows.Next() {
		var similarity float64
		p, err := scanProduct(rows, &similarity)
		if err != nil {
			return nil, err
		}
		p.Similarity = similarity
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate products")
	}
	return list, nil
}

// SearchProductsByText matches any query term against the searchable columns of published products,
// ranking products that match more terms first.
func (d *DB) SearchProductsByText(ctx context.Context, find *store.SearchProductsByText) ([]*store.Product, error) {
	terms := store.TextSearchTerms(find.Query)
	if len(terms) == 0 {
		return []*store.Product{}, nil
	}
	limit := find.Limit
	if limit <= 0 {
		limit = 5
	}

	conds, ranks, args := []string{}, []string{}, []any{}
	for _, term := range terms {
		args = append(args, "%"+term+"%")
		ph := placeholder(len(args))
		cond := "(p.name ILIKE " + ph +
			" OR p.description ILIKE " + ph +
			" OR p.search_description ILIKE " + ph +
			" OR p.category_name ILIKE " + ph +
			" OR p.subcategory_name ILIKE " + ph +
			" OR array_to_string(p.tag_names, ' ') ILIKE " + ph + ")"
		conds = append(conds, cond)
		ranks = append(ranks, "CASE WHEN "+cond+" THEN 1 ELSE 0 END")
	}
	args = append(args, limit)

	query := `
		SELECT ` + productColumns + `
		FROM product p
		LEFT JOIN vendor v ON v.id = p.vendor_id
		WHERE p.status = 'published' AND (` + strings.Join(conds, " OR ") + `)
		ORDER BY (` + strings.Join(ranks, " + ") + `) DESC, p.name ASC
		LIMIT ` + placeholder(len(args))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search products by text")
	}
	defer rows.Close()

	list := []*store.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate products")
	}
	return list, nil
}

// ListProductsWithoutEmbedding returns published products with no vector, oldest id first.
func (d *DB) ListProductsWithoutEmbedding(ctx context.Context, find *store.FindProductsWithoutEmbedding) ([]*store.Product, error) {
	limit := find.Limit
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + productColumns + `
		FROM product p
		LEFT JOIN vendor v ON v.id = p.vendor_id
		WHERE p.status = 'published' AND p.embedding IS NULL
		ORDER BY p.id ASC
		LIMIT $1`

	rows, err := d.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list products without embedding")
	}
	defer rows.Close()

	list := []*store.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate products")
	}
	return list, nil
}

func (d *DB) UpdateProductEmbedding(ctx context.Context, update *store.UpdateProductEmbedding) error {
	result, err := d.db.ExecContext(ctx, `UPDATE product SET embedding = $1 WHERE id = $2`,
		pgvector.NewVector(update.Embedding), update.ID)
	if err != nil {
		return errors.Wrapf(err, "failed to update embedding of product %d", update.ID)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return errors.Errorf("product %d not found", update.ID)
	}
	return nil
}

func scanProduct(rows *sql.Rows, extra ...any) (*store.Product, error) {
	var (
		p          store.Product
		price      sql.NullFloat64
		quantity   sql.NullInt32
		tags       pq.StringArray
		vendorID   sql.NullInt64
		vendorName sql.NullString
		vendorLoc  sql.NullString
	)
	dest := []any{
		&p.ID, &p.Name, &price, &p.Description, &p.SearchDescription, &p.StockStatus,
		&quantity, &p.CategoryName, &p.SubcategoryName, &tags, &p.Status,
		&vendorID, &vendorName, &vendorLoc,
	}
	if err := rows.Scan(append(dest, extra...)...); err != nil {
		return nil, errors.Wrap(err, "failed to scan product")
	}

	if price.Valid {
		p.Price = &price.Float64
	}
	if quantity.Valid {
		p.StockQuantity = &quantity.Int32
	}
	p.TagNames = []string(tags)
	if vendorID.Valid {
		p.Vendor = &store.Vendor{ID: vendorID.Int64, Name: vendorName.String, Location: vendorLoc.String}
	}
	return &p, nil
}
