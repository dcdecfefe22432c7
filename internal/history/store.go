package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/me-e6/pengine/internal/db"
	"github.com/me-e6/pengine/internal/reasoning"
)

// Store persists answered questions.
type Store struct {
	db  *db.DB
	now func() time.Time
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database, now: time.Now}
}

// Save stores res as a pending entry and returns the new entry id.
func (s *Store) Save(ctx context.Context, res *reasoning.Result) (string, error) {
	if res == nil {
		return "", errors.New("saving history: nil result")
	}
	body, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("marshalling result: %w", err)
	}

	created := res.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	id := uuid.New().String()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO query_history (
			id, result_id, query, intent, domain, output_mode,
			template, confidence, status, result_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		res.ID,
		res.Query,
		string(res.Analysis.Intent),
		res.Domain(),
		string(res.OutputMode),
		res.RecommendedTemplate,
		res.Confidence,
		string(StatusPending),
		string(body),
		created.UTC().Format(time.DateTime),
	)
	if err != nil {
		return "", fmt.Errorf("inserting history entry: %w", err)
	}
	return id, nil
}

// Get returns one entry including its stored result.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM query_history WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading history entry: %w", err)
	}
	return e, nil
}

// Filter controls which entries List returns.
type Filter struct {
	Status Status
	Domain string
	Limit  int
	Offset int
}

// List returns entries matching the filter, newest first. Stored results
// are left out; use Get for those.
func (s *Store) List(ctx context.Context, filter Filter) ([]Entry, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, filter.Domain)
	}

	query := "SELECT " + columns + " FROM query_history"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	} else if filter.Offset > 0 {
		query += " LIMIT -1"
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		e.Result = nil
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// SetStatus records a review decision. Moving back to pending clears the
// reviewer and review time.
func (s *Store) SetStatus(ctx context.Context, id string, status Status, reviewer string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var reviewedAt sql.NullString
	if status != StatusPending {
		reviewedAt = sql.NullString{String: s.now().UTC().Format(time.DateTime), Valid: true}
	} else {
		reviewer = ""
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE query_history SET status = ?, reviewed_by = ?, reviewed_at = ? WHERE id = ?",
		string(status), reviewer, reviewedAt, id,
	)
	if err != nil {
		return fmt.Errorf("updating history status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBefore removes entries created before the given time and returns
// how many were removed.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM query_history WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old history entries: %w", err)
	}
	return res.RowsAffected()
}

const columns = "id, result_id, query, intent, domain, output_mode, template, confidence, status, reviewed_by, result_json, created_at, reviewed_at"

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e          Entry
		status     string
		body       string
		created    string
		reviewedAt sql.NullString
	)
	err := sc.Scan(
		&e.ID, &e.ResultID, &e.Query, &e.Intent, &e.Domain, &e.OutputMode,
		&e.Template, &e.Confidence, &status, &e.ReviewedBy, &body, &created, &reviewedAt,
	)
	if err != nil {
		return nil, err
	}

	e.Status = Status(status)
	e.Result = json.RawMessage(body)
	e.CreatedAt = parseTime(created)
	if reviewedAt.Valid {
		t := parseTime(reviewedAt.String)
		e.ReviewedAt = &t
	}
	return &e, nil
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.DateTime, time.RFC3339, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
