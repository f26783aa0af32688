// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// booking service to distinguish between different failure scenarios.
// ErrDuplicate in particular is how the store reports a unique key
// violation: the lock manager reads it as contention on a slot and the
// admission controller reads it as a reference id collision.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicate is returned when an insert is rejected by a unique
// index.  Callers decide whether that means contention or a retry.
var ErrDuplicate = errors.New("duplicate key")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// translate maps driver specific errors onto the repository sentinels.
// Errors it does not recognise are returned unchanged.
func translate(err error) error {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
		return ErrDuplicate
	}
	return err
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx so that scan
// helpers can run inside or outside a transaction.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
