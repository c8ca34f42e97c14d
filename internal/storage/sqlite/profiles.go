package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

func (s *Store) UpsertProfile(ctx context.Context, p domain.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, username, full_name, is_admin, banned)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   username = excluded.username,
		   full_name = excluded.full_name,
		   is_admin = excluded.is_admin`,
		p.UserID, p.Username, p.FullName, boolToInt(p.IsAdmin), boolToInt(p.Banned),
	)
	return err
}

func (s *Store) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var (
		p       domain.Profile
		isAdmin int
		banned  int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, username, full_name, is_admin, banned, created_at FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Username, &p.FullName, &isAdmin, &banned, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, moderation.ErrNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	p.IsAdmin = isAdmin != 0
	p.Banned = banned != 0
	return p, nil
}

// GetProfiles loads the profiles that exist among ids. Missing ids are
// simply absent from the result.
func (s *Store) GetProfiles(ctx context.Context, ids []string) (map[string]domain.Profile, error) {
	out := make(map[string]domain.Profile, len(ids))
	unique := make([]any, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return out, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(unique)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, username, full_name, is_admin, banned, created_at FROM profiles WHERE user_id IN (`+placeholders+`)`,
		unique...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p       domain.Profile
			isAdmin int
			banned  int
		)
		if err := rows.Scan(&p.UserID, &p.Username, &p.FullName, &isAdmin, &banned, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.IsAdmin = isAdmin != 0
		p.Banned = banned != 0
		out[p.UserID] = p
	}
	return out, rows.Err()
}

func (s *Store) BanProfile(ctx context.Context, userID string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE profiles SET banned = 1 WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
