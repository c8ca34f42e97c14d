package sqlite

import (
	"context"
	"time"

	"safefeed/internal/domain"
)

func (s *Store) LogConversation(ctx context.Context, c domain.Conversation) (int64, error) {
	created := c.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO support_conversations (user_id, message, response, category, source, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.Message, c.Response, string(c.Category), c.Source, created,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) RecentConversations(ctx context.Context, userID string, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, message, response, category, source, created_at
		 FROM support_conversations WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Conversation
	for rows.Next() {
		var (
			c        domain.Conversation
			category string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Message, &c.Response, &category, &c.Source, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Category = domain.IntentCategory(category)
		out = append(out, c)
	}
	return out, rows.Err()
}
