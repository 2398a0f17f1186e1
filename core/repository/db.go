package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Driver identifies the SQL backend
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// DB wraps the database handle with its dialect.
// Writes from every repository go through writeMu so the append-only logs
// keep insertion order under concurrent callers.
type DB struct {
	*sql.DB
	Driver Driver

	writeMu sync.Mutex
}

// NewDB opens the database named by databaseURL and creates the schema.
// postgres:// and postgresql:// URLs use lib/pq; anything else is a SQLite
// file path (optionally prefixed with sqlite://) or ":memory:".
func NewDB(databaseURL string) (*DB, error) {
	driver, dsn := parseDatabaseURL(databaseURL)

	sqlDB, err := sql.Open(string(driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// one writer at a time, and ":memory:" must stay on one connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := Wrap(sqlDB, driver)
	if err := db.Migrate(ctx); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Wrap adopts an already-open handle without migrating it
func Wrap(sqlDB *sql.DB, driver Driver) *DB {
	return &DB{DB: sqlDB, Driver: driver}
}

// Migrate creates the tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schema(db.Driver) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into the driver's native form
func (db *DB) Rebind(query string) string {
	if db.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Status reports "connected" when the database answers a ping
func (db *DB) Status(ctx context.Context) string {
	if db == nil || db.DB == nil {
		return "disconnected"
	}
	if err := db.PingContext(ctx); err != nil {
		return "disconnected"
	}
	return "connected"
}

func parseDatabaseURL(databaseURL string) (Driver, string) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return DriverPostgres, databaseURL
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return DriverSQLite, sqliteDSN(strings.TrimPrefix(databaseURL, "sqlite://"))
	default:
		return DriverSQLite, sqliteDSN(databaseURL)
	}
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "exoml.sqlite3"
	}
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func schema(driver Driver) []string {
	if driver == DriverPostgres {
		return []string{
			`CREATE TABLE IF NOT EXISTS predictions (
				id BIGSERIAL PRIMARY KEY,
				dataset TEXT NOT NULL,
				model TEXT NOT NULL,
				features TEXT NOT NULL,
				probability DOUBLE PRECISION NOT NULL,
				label TEXT NOT NULL,
				raw_output TEXT,
				created_at TIMESTAMPTZ NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS notebook_runs (
				seq BIGSERIAL PRIMARY KEY,
				id TEXT NOT NULL UNIQUE,
				notebook TEXT NOT NULL,
				dataset TEXT NOT NULL,
				success BOOLEAN NOT NULL,
				error_type TEXT,
				execution_time_seconds DOUBLE PRECISION NOT NULL,
				report TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL
			)`,
		}
	}
	return []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			dataset TEXT NOT NULL,
			model TEXT NOT NULL,
			features TEXT NOT NULL,
			probability REAL NOT NULL,
			label TEXT NOT NULL,
			raw_output TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notebook_runs (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			notebook TEXT NOT NULL,
			dataset TEXT NOT NULL,
			success BOOLEAN NOT NULL,
			error_type TEXT,
			execution_time_seconds REAL NOT NULL,
			report TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}
}

// timeValue scans timestamps from either driver: lib/pq yields time.Time,
// SQLite may hand back text.
type timeValue struct {
	Time time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	// time.Time.String(), which modernc.org/sqlite writes by default
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func (t *timeValue) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time", src)
	}
}

func (t *timeValue) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
