// Package sqlstore implements convlog.Log on database/sql. The sqlite and
// postgres packages supply the connection and a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/papercomputeco/keepsake/pkg/convlog"
)

// Dialect captures the SQL differences between backends.
type Dialect struct {
	// Name is used in error messages.
	Name string

	// Schema statements are executed in order on open.
	Schema []string

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder func(n int) string
}

// QuestionMark is the "?" placeholder style.
func QuestionMark(int) string { return "?" }

// Dollar is the "$n" placeholder style.
func Dollar(n int) string { return "$" + strconv.Itoa(n) }

// Store implements convlog.Log.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	insertSQL  string
	historySQL string
	allSQL     string
}

// New applies the dialect schema and prepares query text. Store owns db
// and closes it in Close.
func New(ctx context.Context, db *sql.DB, d Dialect) (*Store, error) {
	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s: creating schema: %w", d.Name, err)
		}
	}

	p := d.Placeholder
	return &Store{
		db:      db,
		dialect: d,
		now:     time.Now,
		insertSQL: fmt.Sprintf(
			"INSERT INTO conversation_messages (user_id, role, text, metadata, created_at) VALUES (%s, %s, %s, %s, %s)",
			p(1), p(2), p(3), p(4), p(5)),
		historySQL: fmt.Sprintf(
			"SELECT id, user_id, role, text, metadata, created_at FROM conversation_messages WHERE user_id = %s ORDER BY id DESC LIMIT %s",
			p(1), p(2)),
		allSQL: fmt.Sprintf(
			"SELECT id, user_id, role, text, metadata, created_at FROM conversation_messages WHERE user_id = %s ORDER BY id DESC",
			p(1)),
	}, nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) AppendMessage(ctx context.Context, userID, role, text string, metadata map[string]any) error {
	var meta sql.NullString
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("encoding message metadata: %w", err)
		}
		meta = sql.NullString{String: string(raw), Valid: true}
	}

	if _, err := s.db.ExecContext(ctx, s.insertSQL, userID, role, text, meta, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: appending message: %w", s.dialect.Name, err)
	}
	return nil
}

func (s *Store) History(ctx context.Context, userID string, limit int) ([]convlog.Entry, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, s.historySQL, userID, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, s.allSQL, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: querying history: %w", s.dialect.Name, err)
	}
	defer rows.Close()

	entries := []convlog.Entry{}
	for rows.Next() {
		var (
			e    convlog.Entry
			meta sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Role, &e.Text, &meta, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: scanning history: %w", s.dialect.Name, err)
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &e.Metadata); err != nil {
				return nil, fmt.Errorf("%s: decoding message metadata: %w", s.dialect.Name, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterating history: %w", s.dialect.Name, err)
	}

	slices.Reverse(entries)
	return entries, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

var _ convlog.Log = (*Store)(nil)
