package sqlite

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/hrygo/bazaarbot/store"
)

func (d *DB) CreateConversation(ctx context.Context, create *store.Conversation) (*store.Conversation, error) {
	stmt := `INSERT INTO conversation (user_id, created_ts) VALUES (` + placeholders(2) + `) RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, create.UserID, create.CreatedTs).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create conversation")
	}
	return create, nil
}

func (d *DB) ListConversations(ctx context.Context, find *store.FindConversation) ([]*store.Conversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.UserID != nil {
		where, args = append(where, "user_id = ?"), append(args, *find.UserID)
	}
	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *find.CreatedAfter)
	}

	query := `SELECT id, user_id, created_ts FROM conversation WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC, id DESC`
	if find.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversations")
	}
	defer rows.Close()

	list := []*store.Conversation{}
	for rows.Next() {
		c := &store.Conversation{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation")
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate conversations")
	}
	return list, nil
}

func (d *DB) DeleteConversations(ctx context.Context, delete *store.DeleteConversations) (int64, error) {
	result, err := d.db.ExecContext(ctx, `DELETE FROM conversation WHERE created_ts < ?`, delete.CreatedBefore)
	if err != nil {
		return 0, errors.Wrap(err, "failed to delete conversations")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to count deleted conversations")
	}
	return affected, nil
}

func (d *DB) CreateConversationMessages(ctx context.Context, create []*store.ConversationMessage) error {
	if len(create) == 0 {
		return nil
	}

	values, args := []string{}, []any{}
	for _, m := range create {
		values = append(values, "("+placeholders(4)+")")
		args = append(args, m.ConversationID, string(m.Role), m.Text, m.CreatedTs)
	}

	stmt := `INSERT INTO conversation_message (conversation_id, role, text, created_ts) VALUES ` + strings.Join(values, ", ")
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return errors.Wrap(err, "failed to create conversation messages")
	}
	return nil
}

func (d *DB) ListConversationMessages(ctx context.Context, find *store.FindConversationMessage) ([]*store.ConversationMessage, error) {
	where, args := []string{"conversation_id = ?"}, []any{find.ConversationID}

	if find.CreatedAfter != nil {
		where, args = append(where, "created_ts >= ?"), append(args, *find.CreatedAfter)
	}

	query := `SELECT id, conversation_id, role, text, created_ts FROM conversation_message WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts ASC, id ASC`
	if find.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list conversation messages")
	}
	defer rows.Close()

	list := []*store.ConversationMessage{}
	for rows.Next() {
		m := &store.ConversationMessage{}
		var role string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Text, &m.CreatedTs); err != nil {
			return nil, errors.Wrap(err, "failed to scan conversation message")
		}
		m.Role = store.ConversationRole(role)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate conversation messages")
	}
	return list, nil
}
