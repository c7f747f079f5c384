// Package sqlite provides a SQLite-backed docstore.Store.
//
// Documents are stored as JSON alongside the columns the secondary indexes
// and range predicates need. Attributes without a column are filtered with
// json_extract. Driver errors are returned wrapped but otherwise raw so the
// caller's classifier sees the original SQLite codes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jonwraymond/catalogops/docstore"
	"github.com/jonwraymond/catalogops/docstore/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// TableName is the table documents are stored in.
const TableName = "catalog_items"

// columns maps document attributes to their dedicated columns.
var columns = map[string]string{
	docstore.AttrID: "id",
	"category":      "category",
	"ownerId":       "owner_id",
	"status":        "status",
	"price":         "price",
}

// Store persists catalog documents in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ docstore.Store = (*Store)(nil)

// Options configures Open.
type Options struct {
	// SkipMigrations leaves the schema untouched.
	// Default: false
	SkipMigrations bool

	// BusyTimeoutMillis bounds how long a writer waits for the database lock.
	// Default: 5000
	BusyTimeoutMillis int
}

// Open opens a SQLite document store at path and applies embedded migrations.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	if opts.BusyTimeoutMillis <= 0 {
		opts.BusyTimeoutMillis = 5000
	}
	dsn := fmt.Sprintf(
		"file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		filepath.Clean(path), opts.BusyTimeoutMillis,
	)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if !opts.SkipMigrations {
		if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Get implements docstore.Store.
func (s *Store) Get(ctx context.Context, id string) (docstore.Document, error) {
	var raw string
	err := s.sqlDB.QueryRowContext(ctx, "SELECT doc FROM "+TableName+" WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog item: %w", err)
	}
	return decode(raw)
}

// Put implements docstore.Store.
func (s *Store) Put(ctx context.Context, doc docstore.Document, cond docstore.PutCondition) error {
	if doc.ID() == "" {
		return fmt.Errorf("%w: missing %s", docstore.ErrInvalidInput, docstore.AttrID)
	}
	args, err := rowArgs(doc)
	if err != nil {
		return err
	}
	query := `INSERT INTO ` + TableName + ` (id, category, owner_id, status, price, created_at, doc)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if cond == docstore.PutAlways {
		query += ` ON CONFLICT(id) DO UPDATE SET
    category = excluded.category,
    owner_id = excluded.owner_id,
    status = excluded.status,
    price = excluded.price,
    created_at = excluded.created_at,
    doc = excluded.doc`
	}
	if _, err := s.sqlDB.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s already exists", docstore.ErrConditionFailed, doc.ID())
		}
		return fmt.Errorf("put catalog item: %w", err)
	}
	return nil
}

// Update implements docstore.Store. The read-modify-write runs in one
// immediate transaction, so concurrent updates to an item serialize.
func (s *Store) Update(ctx context.Context, id string, u docstore.Update) (docstore.Document, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx, "SELECT doc FROM "+TableName+" WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, docstore.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update catalog item: %w", err)
	}
	cur, err := decode(raw)
	if err != nil {
		return nil, err
	}
	next, err := u.Apply(cur)
	if err != nil {
		return nil, err
	}
	args, err := rowArgs(next)
	if err != nil {
		return nil, err
	}
	// rowArgs leads with id; move it to the WHERE clause.
	args = append(args[1:], id)
	if _, err := tx.ExecContext(ctx, `UPDATE `+TableName+`
SET category = ?, owner_id = ?, status = ?, price = ?, created_at = ?, doc = ?
WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update catalog item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return next, nil
}

// Delete implements docstore.Store.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, "DELETE FROM "+TableName+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete catalog item: %w", err)
	}
	if n == 0 {
		return docstore.ErrNotFound
	}
	return nil
}

// Query implements docstore.Store.
func (s *Store) Query(ctx context.Context, in docstore.QueryInput) ([]docstore.Document, error) {
	attr, ok := docstore.IndexAttrs[in.Index]
	if !ok {
		return nil, fmt.Errorf("%w: unknown index %q", docstore.ErrInvalidInput, in.Index)
	}
	filter := append(docstore.Filter{docstore.Eq(attr, in.Key)}, in.Filter...)
	where, args, err := whereClause(filter)
	if err != nil {
		return nil, err
	}
	dir := "DESC"
	if in.Ascending {
		dir = "ASC"
	}
	query := "SELECT doc FROM " + TableName + where + " ORDER BY created_at " + dir + ", rowid ASC"
	if in.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, in.Limit)
	}
	docs, err := s.selectDocs(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("query catalog items: %w", err)
	}
	return docs, nil
}

// Scan implements docstore.Store. Documents come back in insertion order.
func (s *Store) Scan(ctx context.Context, in docstore.ScanInput) ([]docstore.Document, error) {
	where, args, err := whereClause(in.Filter)
	if err != nil {
		return nil, err
	}
	query := "SELECT doc FROM " + TableName + where + " ORDER BY rowid ASC"
	if in.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, in.Limit)
	}
	docs, err := s.selectDocs(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("scan catalog items: %w", err)
	}
	return docs, nil
}

// Ping implements docstore.Store. A reachable database without the catalog
// table reports docstore.ErrTableNotFound.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT count(*) FROM sqlite_master WHERE type = 'table' AND name = ?", TableName,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("ping sqlite db: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", docstore.ErrTableNotFound, TableName)
	}
	return nil
}

func (s *Store) selectDocs(ctx context.Context, query string, args []any) ([]docstore.Document, error) {
	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []docstore.Document
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func whereClause(f docstore.Filter) (string, []any, error) {
	if len(f) == 0 {
		return "", nil, nil
	}
	if err := f.Validate(); err != nil {
		return "", nil, err
	}
	parts := make([]string, 0, len(f))
	args := make([]any, 0, len(f)*2)
	for _, c := range f {
		if col, ok := columns[c.Attr]; ok {
			parts = append(parts, col+" "+string(c.Op)+" ?")
		} else {
			parts = append(parts, "json_extract(doc, ?) "+string(c.Op)+" ?")
			args = append(args, "$."+c.Attr)
		}
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func rowArgs(doc docstore.Document) ([]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode catalog item: %w", err)
	}
	str := func(attr string) string {
		v, _ := doc[attr].(string)
		return v
	}
	price, _ := doc["price"].(float64)
	return []any{
		doc.ID(),
		str("category"),
		str("ownerId"),
		str("status"),
		price,
		doc.CreatedAt().UnixMilli(),
		string(raw),
	}, nil
}

func decode(raw string) (docstore.Document, error) {
	var doc docstore.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode catalog item: %w", err)
	}
	return doc, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
