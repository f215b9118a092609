package postgres

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hrygo/bazaarbot/store"
)

func (d *DB) CreatePendingOrder(ctx context.Context, create *store.PendingOrder) (*store.PendingOrder, error) {
	stmt := `INSERT INTO pending_order (id, requested_product, raw_text, status, created_ts) VALUES (` + placeholders(5) + `)`
	if _, err := d.db.ExecContext(ctx, stmt, create.ID, create.RequestedProduct, create.RawText, create.Status, create.CreatedTs); err != nil {
		return nil, errors.Wrap(err, "failed to create pending order")
	}
	return create, nil
}

func (d *DB) ListPendingOrders(ctx context.Context, find *store.FindPendingOrder) ([]*store.PendingOrder, error) {
	query := `SELECT id, requested_product, raw_text, status, created_ts FROM pending_order ORDER BY created_ts DESC`
	args := []any{}
	if find.Limit > 0 {
		args = append(args, find.Limit)
		query += ` LIMIT ` + placeholder(1)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending orders")
	}
	defer rows.Close()

	list := []*store.PendingOrder{}
	for rows.Next() {
		o := &store.PendingOrder{}
		if err := rows.Scan(&o.ID, &o.RequestedProduct, &o.RawText, &o.Status, &o.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan pending order")
		}
		list = append(list, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate pending orders")
	}
	return list, nil
}
