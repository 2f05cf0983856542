package store

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	sqliteBusyCode = 5

	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// dialect captures the SQL differences between SQLite and PostgreSQL.
type dialect struct {
	name        string
	driver      string
	forUpdate   string
	tableExists string
	schema      string
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		driver:      "sqlite",
		forUpdate:   "",
		tableExists: "SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name=?",
		schema:      sqliteSchemaSQL,
	}
	postgresDialect = dialect{
		name:        "postgres",
		driver:      "pgx",
		forUpdate:   " FOR UPDATE",
		tableExists: "SELECT COUNT(1) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?",
		schema:      postgresSchemaSQL,
	}
)

// rebind rewrites ? placeholders into the dialect's positional form.
func (d dialect) rebind(query string) string {
	if d.name != "postgres" {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
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

// retryable reports whether err is a lock conflict worth retrying.
func (d dialect) retryable(err error) bool {
	if err == nil {
		return false
	}
	switch d.name {
	case "postgres":
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgSerializationFailure, pgDeadlockDetected, pgUniqueViolation:
				return true
			}
		}
		return false
	default:
		var coder interface{ Code() int }
		if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
			return true
		}
		msg := err.Error()
		return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
	}
}
