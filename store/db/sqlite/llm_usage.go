package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/bazaarbot/store"
)

func (d *DB) CreateLLMUsage(ctx context.Context, create *store.LLMUsage) (*store.LLMUsage, error) {
	fields := []string{"model", "response_id", "prompt_tokens", "completion_tokens", "total_tokens", "origin", "created_ts"}
	args := []any{create.Model, create.ResponseID, create.PromptTokens, create.CompletionTokens, create.TotalTokens, create.Origin, create.CreatedTs}

	stmt := `INSERT INTO llm_usage (` + strings.Join(fields, ", ") + `) VALUES (` + placeholders(len(args)) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create llm usage")
	}
	return create, nil
}

func (d *DB) ListLLMUsage(ctx context.Context, find *store.FindLLMUsage) ([]*store.LLMUsage, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *find.CreatedAfter)
	}

	query := `SELECT id, model, response_id, prompt_tokens, completion_tokens, total_tokens, origin, created_ts
		FROM llm_usage WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list llm usage")
	}
	defer rows.Close()

	list := []*store.LLMUsage{}
	for rows.Next() {
		u := &store.LLMUsage{}
		if err := rows.Scan(&u.ID, &u.Model, &u.ResponseID, &u.PromptTokens, &u.CompletionTokens, &u.TotalTokens, &u.Origin, &u.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan llm usage")
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate llm usage")
	}
	return list, nil
}
