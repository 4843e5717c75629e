package driver

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"

	// Database drivers for database/sql, selected by cache.driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// CheckRecord is the stored outcome of checking one source file
type CheckRecord struct {
	Path      string
	Hash      string
	OK        bool
	Code      string
	Message   string
	Line      int
	Column    int
	CheckedAt time.Time
}

// CheckLog persists check results keyed by file content so unchanged
// files can be skipped on the next run.
type CheckLog struct {
	mu     sync.Mutex
	db     *sql.DB
	driver string
}

// OpenCheckLog opens (and if needed creates) the check log. driverName is
// one of sqlite, postgres or mysql.
func OpenCheckLog(driverName, dsn string) (*CheckLog, error) {
	var connStr string
	switch driverName {
	case "sqlite":
		if dsn != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
				return nil, fmt.Errorf("creating check log directory: %w", err)
			}
		}
		connStr = dsn + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	case "postgres", "mysql":
		connStr = dsn
	default:
		return nil, fmt.Errorf("unsupported check log driver: %s", driverName)
	}

	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return nil, fmt.Errorf("opening check log database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to check log database: %w", err)
	}
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	cl := &CheckLog{db: db, driver: driverName}
	if err := cl.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating check log schema: %w", err)
	}
	return cl, nil
}

// createSchema creates the checks table if it doesn't exist.
func (cl *CheckLog) createSchema() error {
	_, err := cl.db.Exec(`
		CREATE TABLE IF NOT EXISTS checks (
			path VARCHAR(512) NOT NULL PRIMARY KEY,
			hash VARCHAR(128) NOT NULL,
			ok INTEGER NOT NULL,
			code VARCHAR(32) NOT NULL,
			message TEXT NOT NULL,
			line INTEGER NOT NULL,
			col INTEGER NOT NULL,
			checked_at VARCHAR(64) NOT NULL
		)
	`)
	return err
}

// bind rewrites ? placeholders for drivers that use numbered parameters.
func (cl *CheckLog) bind(query string) string {
	if cl.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Lookup returns the stored record for path if it was checked with the
// same content hash.
func (cl *CheckLog) Lookup(ctx context.Context, path, hash string) (*CheckRecord, bool, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	row := cl.db.QueryRowContext(ctx, cl.bind(`
		SELECT path, hash, ok, code, message, line, col, checked_at
		FROM checks WHERE path = ? AND hash = ?
	`), path, hash)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading check log: %w", err)
	}
	return rec, true, nil
}

// Record stores the outcome of a check, replacing any earlier one for the path.
func (cl *CheckLog) Record(ctx context.Context, rec CheckRecord) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now()
	}
	ok := 0
	if rec.OK {
		ok = 1
	}

	tx, err := cl.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, cl.bind(`DELETE FROM checks WHERE path = ?`), rec.Path); err != nil {
		tx.Rollback()
		return err
	}
	_, err = tx.ExecContext(ctx, cl.bind(`
		INSERT INTO checks (path, hash, ok, code, message, line, col, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), rec.Path, rec.Hash, ok, rec.Code, rec.Message, rec.Line, rec.Column, rec.CheckedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Records returns every stored record ordered by path.
func (cl *CheckLog) Records(ctx context.Context) ([]CheckRecord, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	rows, err := cl.db.QueryContext(ctx, `
		SELECT path, hash, ok, code, message, line, col, checked_at
		FROM checks ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []CheckRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// Forget removes the record for path.
func (cl *CheckLog) Forget(ctx context.Context, path string) error {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	_, err := cl.db.ExecContext(ctx, cl.bind(`DELETE FROM checks WHERE path = ?`), path)
	return err
}

// Close closes the database connection.
func (cl *CheckLog) Close() error {
	return cl.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*CheckRecord, error) {
	var rec CheckRecord
	var ok int
	var checkedAt string
	if err := s.Scan(&rec.Path, &rec.Hash, &ok, &rec.Code, &rec.Message, &rec.Line, &rec.Column, &checkedAt); err != nil {
		return nil, err
	}
	rec.OK = ok != 0
	rec.CheckedAt, _ = time.Parse(time.RFC3339Nano, checkedAt)
	return &rec, nil
}

// ContentHash fingerprints source content together with the parser
// settings that can change the outcome of a check.
func ContentHash(content []byte, maxDepth int) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprintf(h, "max_depth=%d\n", maxDepth)
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}
