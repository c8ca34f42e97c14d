package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

func tableFor(kind domain.ContentKind) (string, error) {
	switch kind {
	case domain.KindPost:
		return "posts", nil
	case domain.KindComment:
		return "comments", nil
	}
	return "", fmt.Errorf("unknown content kind %q", kind)
}

func selectContent(kind domain.ContentKind) string {
	postID := "0"
	if kind == domain.KindComment {
		postID = "post_id"
	}
	table, _ := tableFor(kind)
	return `SELECT id, ` + postID + `, author_id, body, ip_address, status, flagged, severity, categories, confidence, source, created_at, updated_at
		 FROM ` + table
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanContent(kind domain.ContentKind, row rowScanner) (domain.ContentItem, error) {
	var (
		item       domain.ContentItem
		flagged    int
		status     string
		severity   string
		categories string
		source     string
	)
	err := row.Scan(
		&item.ID, &item.PostID, &item.AuthorID, &item.Body, &item.IPAddress, &status,
		&flagged, &severity, &categories, &item.Confidence, &source,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return domain.ContentItem{}, err
	}
	item.Kind = kind
	item.Status = domain.ContentStatus(status)
	item.Flagged = flagged != 0
	item.Severity = domain.Severity(severity)
	item.Categories = domain.SplitCategories(categories)
	item.Source = domain.Source(source)
	return item, nil
}

func (s *Store) CreateContent(ctx context.Context, item domain.ContentItem) (int64, error) {
	now := item.CreatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	updated := item.UpdatedAt
	if updated.IsZero() {
		updated = now
	}
	args := []any{
		item.AuthorID, item.Body, item.IPAddress, string(item.Status), boolToInt(item.Flagged),
		string(item.Severity), domain.JoinCategories(item.Categories), item.Confidence, string(item.Source),
		now, updated,
	}
	var res sql.Result
	var err error
	switch item.Kind {
	case domain.KindPost:
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO posts (author_id, body, ip_address, status, flagged, severity, categories, confidence, source, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			args...,
		)
	case domain.KindComment:
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO comments (author_id, body, ip_address, status, flagged, severity, categories, confidence, source, created_at, updated_at, post_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			append(args, item.PostID)...,
		)
	default:
		return 0, fmt.Errorf("unknown content kind %q", item.Kind)
	}
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetContent(ctx context.Context, kind domain.ContentKind, id int64) (domain.ContentItem, error) {
	if _, err := tableFor(kind); err != nil {
		return domain.ContentItem{}, err
	}
	row := s.db.QueryRowContext(ctx, selectContent(kind)+` WHERE id = ?`, id)
	item, err := scanContent(kind, row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ContentItem{}, moderation.ErrNotFound
	}
	return item, err
}

// ListContent returns matching items newest first. An empty kind lists both
// posts and comments.
func (s *Store) ListContent(ctx context.Context, filter moderation.ContentFilter) ([]domain.ContentItem, error) {
	kinds := []domain.ContentKind{domain.KindPost, domain.KindComment}
	if filter.Kind != "" {
		if _, err := tableFor(filter.Kind); err != nil {
			return nil, err
		}
		kinds = []domain.ContentKind{filter.Kind}
	}

	var items []domain.ContentItem
	for _, kind := range kinds {
		part, err := s.listKind(ctx, kind, filter)
		if err != nil {
			return nil, err
		}
		items = append(items, part...)
	}
	if len(kinds) > 1 {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		})
		if filter.Limit > 0 && len(items) > filter.Limit {
			items = items[:filter.Limit]
		}
	}
	return items, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) listKind(ctx context.Context, kind domain.ContentKind, filter moderation.ContentFilter) ([]domain.ContentItem, error) {
	var where []string
	var args []any
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.AuthorID != "" {
		where = append(where, "author_id = ?")
		args = append(args, filter.AuthorID)
	}
	if filter.Category != "" {
		where = append(where, `(',' || categories || ',') LIKE ? ESCAPE '\'`)
		args = append(args, "%,"+likeEscaper.Replace(domain.NormalizeCategory(filter.Category))+",%")
	}
	if filter.PostID != 0 {
		if kind != domain.KindComment {
			return nil, nil
		}
		where = append(where, "post_id = ?")
		args = append(args, filter.PostID)
	}

	query := selectContent(kind)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.ContentItem
	for rows.Next() {
		item, err := scanContent(kind, rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// ApproveContent forces status=approved and flagged=false. Verdict fields are
// left as they were recorded at creation.
func (s *Store) ApproveContent(ctx context.Context, kind domain.ContentKind, id int64, at time.Time) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE `+table+` SET status = ?, flagged = 0, updated_at = ? WHERE id = ?`,
		string(domain.StatusApproved), at, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DeleteContent removes an item. Deleting a post also removes its comments.
func (s *Store) DeleteContent(ctx context.Context, kind domain.ContentKind, id int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return moderation.ErrNotFound
	}
	return nil
}

// ModerationStats summarizes stored verdicts since a point in time.
type ModerationStats struct {
	Total         int            `json:"total"`
	Flagged       int            `json:"flagged"`
	BySource      map[string]int `json:"by_source"`
	BySeverity    map[string]int `json:"by_severity"`
	AvgConfidence float64        `json:"avg_confidence"`
}

func (s *Store) GetModerationStats(ctx context.Context, since time.Time) (ModerationStats, error) {
	stats := ModerationStats{BySource: map[string]int{}, BySeverity: map[string]int{}}
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, severity, flagged, COUNT(*), COALESCE(SUM(confidence), 0) FROM (
			SELECT source, severity, flagged, confidence FROM posts WHERE created_at >= ?
			UNION ALL
			SELECT source, severity, flagged, confidence FROM comments WHERE created_at >= ?
		 ) GROUP BY source, severity, flagged`,
		since, since,
	)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	var sum float64
	for rows.Next() {
		var (
			source, severity string
			flagged, count   int
			confidence       float64
		)
		if err := rows.Scan(&source, &severity, &flagged, &count, &confidence); err != nil {
			return stats, err
		}
		stats.Total += count
		if flagged != 0 {
			stats.Flagged += count
		}
		stats.BySource[source] += count
		stats.BySeverity[severity] += count
		sum += confidence
	}
	if stats.Total > 0 {
		stats.AvgConfidence = sum / float64(stats.Total)
	}
	return stats, rows.Err()
}
