package feedback

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps the feedback database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create feedback directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open feedback database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping feedback database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate feedback database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS feedback (
			id          TEXT PRIMARY KEY,
			type        TEXT NOT NULL,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			priority    TEXT NOT NULL,
			status      TEXT NOT NULL,
			tags        TEXT NOT NULL DEFAULT '[]',
			created_at  INTEGER NOT NULL,
			updated_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_created ON feedback(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_feedback_status ON feedback(status)`,
		`CREATE TABLE IF NOT EXISTS feedback_comments (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			feedback_id TEXT NOT NULL REFERENCES feedback(id) ON DELETE CASCADE,
			author      TEXT NOT NULL,
			body        TEXT NOT NULL,
			created_at  INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_comments_feedback ON feedback_comments(feedback_id)`,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Submit records a new item with status new and returns it.
func (s *Store) Submit(ctx context.Context, sub Submission) (*Item, error) {
	if strings.TrimSpace(sub.Title) == "" {
		return nil, errors.New("feedback title is required")
	}
	typ, _ := ParseType(string(sub.Type))
	prio, _ := ParsePriority(string(sub.Priority))
	tags := sub.Tags
	if tags == nil {
		tags = []string{}
	}
	tagJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}

	now := s.now().UTC()
	item := &Item{
		ID:          uuid.NewString(),
		Type:        typ,
		Title:       sub.Title,
		Description: sub.Description,
		Priority:    prio,
		Status:      StatusNew,
		Tags:        tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO feedback (id, type, title, description, priority, status, tags, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, string(item.Type), item.Title, item.Description, string(item.Priority),
		string(item.Status), string(tagJSON), now.UnixNano(), now.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}
	return item, nil
}

// Get returns the item with its comments, oldest comment first.
func (s *Store) Get(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, type, title, description, priority, status, tags, created_at, updated_at
		 FROM feedback WHERE id = ?`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT author, body, created_at FROM feedback_comments
		 WHERE feedback_id = ? ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Comment
		var ts int64
		if err := rows.Scan(&c.Author, &c.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		c.CreatedAt = time.Unix(0, ts).UTC()
		item.Comments = append(item.Comments, c)
	}
	return item, rows.Err()
}

// List returns matching items, newest first.
func (s *Store) List(ctx context.Context, f Filter) ([]*Item, error) {
	var (
		where []string
		args  []any
	)
	if f.Type != "" {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, string(f.Priority))
	}

	query := `SELECT id, type, title, description, priority, status, tags, created_at, updated_at FROM feedback`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feedback: %w", err)
	}
	defer rows.Close()

	var out []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if f.Tag != "" && !hasTag(item.Tags, f.Tag) {
			continue
		}
		out = append(out, item)
		if f.Limit > 0 && len(out) >= f.Limit {
			break
		}
	}
	return out, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id string, status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE feedback SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	return expectOne(res, id)
}

func (s *Store) AddComment(ctx context.Context, id, author, text string) error {
	if strings.TrimSpace(text) == "" {
		return errors.New("comment text is required")
	}
	if author == "" {
		author = "AI Agent"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC().UnixNano()
	res, err := tx.ExecContext(ctx, `UPDATE feedback SET updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return fmt.Errorf("touch feedback: %w", err)
	}
	if err := expectOne(res, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO feedback_comments (feedback_id, author, body, created_at) VALUES (?, ?, ?, ?)`,
		id, author, text, now); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := newStats()
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, status, priority, COUNT(*) FROM feedback GROUP BY type, status, priority`)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var typ, status, prio string
		var n int
		if err := rows.Scan(&typ, &status, &prio, &n); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats.Total += n
		stats.ByType[Type(typ)] += n
		stats.ByStatus[Status(status)] += n
		stats.ByPriority[Priority(prio)] += n
	}
	return stats, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	var (
		item              Item
		typ, prio, status string
		tags              string
		created, updated  int64
	)
	if err := row.Scan(&item.ID, &typ, &item.Title, &item.Description, &prio, &status, &tags, &created, &updated); err != nil {
		return nil, err
	}
	item.Type = Type(typ)
	item.Priority = Priority(prio)
	item.Status = Status(status)
	item.CreatedAt = time.Unix(0, created).UTC()
	item.UpdatedAt = time.Unix(0, updated).UTC()
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return nil, fmt.Errorf("decode tags for %s: %w", item.ID, err)
	}
	return &item, nil
}

func expectOne(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
