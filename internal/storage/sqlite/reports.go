package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"safefeed/internal/domain"
	"safefeed/internal/moderation"
)

const selectReport = `SELECT id, reporter_id, reported_user_id, post_id, comment_id, reason, status, content_snapshot, created_at, resolved_at
		 FROM reports`

func scanReport(row rowScanner) (domain.Report, error) {
	var (
		r          domain.Report
		reported   sql.NullString
		postID     sql.NullInt64
		commentID  sql.NullInt64
		status     string
		resolvedAt sql.NullTime
	)
	err := row.Scan(&r.ID, &r.ReporterID, &reported, &postID, &commentID, &r.Reason, &status,
		&r.ContentSnapshot, &r.CreatedAt, &resolvedAt)
	if err != nil {
		return domain.Report{}, err
	}
	var pid, cid *int64
	if postID.Valid {
		pid = &postID.Int64
	}
	if commentID.Valid {
		cid = &commentID.Int64
	}
	target, err := domain.TargetFromColumns(pid, cid)
	if err != nil {
		return domain.Report{}, fmt.Errorf("report %d: %w", r.ID, err)
	}
	r.Target = target
	r.ReportedUserID = reported.String
	r.Status = domain.ReportStatus(status)
	if resolvedAt.Valid {
		r.ResolvedAt = resolvedAt.Time
	}
	return r, nil
}

func (s *Store) CreateReport(ctx context.Context, r domain.Report) (int64, error) {
	if r.Target == nil {
		return 0, fmt.Errorf("report has no target")
	}
	postID, commentID := domain.TargetColumns(r.Target)
	var reported any
	if r.ReportedUserID != "" {
		reported = r.ReportedUserID
	}
	status := r.Status
	if status == "" {
		status = domain.ReportPending
	}
	created := r.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (reporter_id, reported_user_id, post_id, comment_id, reason, status, content_snapshot, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ReporterID, reported, nullableID(postID), nullableID(commentID), r.Reason, string(status), r.ContentSnapshot, created,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func nullableID(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

func (s *Store) GetReport(ctx context.Context, id int64) (domain.Report, error) {
	r, err := scanReport(s.db.QueryRowContext(ctx, selectReport+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Report{}, moderation.ErrNotFound
	}
	return r, err
}

func (s *Store) ListReports(ctx context.Context, filter moderation.ReportFilter) ([]domain.Report, error) {
	query := selectReport
	var args []any
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

// ResolveReport marks a report resolved. Resolving an already resolved
// report keeps its original resolution time.
func (s *Store) ResolveReport(ctx context.Context, id int64, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ?, resolved_at = COALESCE(resolved_at, ?) WHERE id = ?`,
		string(domain.ReportResolved), at, id,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *Store) CountReports(ctx context.Context, status domain.ReportStatus) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE status = ?`, string(status)).Scan(&count)
	return count, err
}
