package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/bazaarbot/store"
)

// SearchProductsByVector is not supported for SQLite.
func (d *DB) SearchProductsByVector(context.Context, *store.FindProductsByVector) ([]*store.Product, error) {
	return nil, store.ErrVectorSearchUnsupported
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

	conds, ranks, termArgs := []string{}, []string{}, []any{}
	for _, term := range terms {
		like := "%" + term + "%"
		cond := `(LOWER(p.name) LIKE ? OR LOWER(p.description) LIKE ? OR LOWER(p.search_description) LIKE ?
			OR LOWER(p.category_name) LIKE ? OR LOWER(p.subcategory_name) LIKE ? OR LOWER(p.tag_names) LIKE ?)`
		conds = append(conds, cond)
		ranks = append(ranks, "CASE WHEN "+cond+" THEN 1 ELSE 0 END")
		termArgs = append(termArgs, like, like, like, like, like, like)
	}
	// Positional placeholders: WHERE and ORDER BY each bind the term arguments.
	args := make([]any, 0, 2*len(termArgs)+1)
	args = append(args, termArgs...)
	args = append(args, termArgs...)
	args = append(args, limit)

	query := `
		SELECT p.id, p.name, p.price, p.description, p.search_description, p.stock_status,
			p.stock_quantity, p.category_name, p.subcategory_name, p.tag_names, p.status,
			v.id, v.name, v.location
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
		var (
			p          store.Product
			price      sql.NullFloat64
			quantity   sql.NullInt32
			tags       string
			vendorID   sql.NullInt64
			vendorName sql.NullString
			vendorLoc  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Description, &p.SearchDescription, &p.StockStatus,
			&quantity, &p.CategoryName, &p.SubcategoryName, &tags, &p.Status,
			&vendorID, &vendorName, &vendorLoc); err != nil {
			return nil, errors.Wrap(err, "failed to scan product")
		}
		if price.Valid {
			p.Price = &price.Float64
		}
		if quantity.Valid {
			p.StockQuantity = &quantity.Int32
		}
		if tags != "" {
			if err := json.Unmarshal([]byte(tags), &p.TagNames); err != nil {
				return nil, errors.Wrapf(err, "failed to decode tag_names of product %d", p.ID)
			}
		}
		if vendorID.Valid {
			p.Vendor = &store.Vendor{ID: vendorID.Int64, Name: vendorName.String, Location: vendorLoc.String}
		}
		list = append(list, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate products")
	}
	return list, nil
}

// ListProductsWithoutEmbedding is not supported for SQLite, which keeps no vectors.
func (d *DB) ListProductsWithoutEmbedding(context.Context, *store.FindProductsWithoutEmbedding) ([]*store.Product, error) {
	return nil, store.ErrVectorSearchUnsupported
}

// UpdateProductEmbedding is not supported for SQLite.
func (d *DB) UpdateProductEmbedding(context.Context, *store.UpdateProductEmbedding) error {
	return store.ErrVectorSearchUnsupported
}
