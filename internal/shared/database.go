package shared

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the database/sql driver behind a [Database].
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "pgx"
)

// Database wraps [sql.DB] with the dialect needed to rebind placeholders.
//
// Queries are written with "?" placeholders and passed through [Database.Rebind].
type Database struct {
	*sql.DB
	Dialect Dialect
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*Database, error) {
	return OpenDatabase(DatabaseConfig{Driver: string(DialectSQLite), Path: path})
}

// OpenDatabase opens the driver named by cfg and applies its pool settings.
func OpenDatabase(cfg DatabaseConfig) (*Database, error) {
	dialect := Dialect(cfg.Driver)
	switch dialect {
	case DialectSQLite, DialectPostgres:
	case "":
		dialect = DialectSQLite
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, cfg.Driver)
	}

	db, err := sql.Open(string(dialect), cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// every connection to ":memory:" is a separate database
	if dialect == DialectSQLite && cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		ConfigureDatabase(db, cfg.MaxOpenConns, cfg.MaxIdleConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Database{DB: db, Dialect: dialect}, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Recommended for production use to limit connections and improve performance.
func ConfigureDatabase(db *sql.DB, maxOpenConns, maxIdleConns int) {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
}

// Rebind rewrites "?" placeholders into the dialect's form ($1, $2, ... for PostgreSQL).
func (d *Database) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
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

// Placeholders returns n comma-separated "?" markers for an IN clause.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
