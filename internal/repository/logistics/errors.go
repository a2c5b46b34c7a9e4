package logistics

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/uptrace/bun/driver/pgdriver"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrConnection marks failures to reach the storage engine.
	ErrConnection = errors.New("storage unavailable")
	// ErrConstraint marks inserts rejected by a key, null or type constraint.
	ErrConstraint = errors.New("constraint violation")
)

// MySQL server error numbers that signal a rejected row rather than a fault.
var mysqlConstraintCodes = map[uint16]struct{}{
	1048: {}, // column cannot be null
	1062: {}, // duplicate entry
	1216: {}, // child row: foreign key fails
	1264: {}, // out of range value
	1364: {}, // field has no default
	1366: {}, // incorrect value
	1406: {}, // data too long
	1451: {}, // parent row: foreign key fails
	1452: {}, // child row: foreign key fails
}

// classify wraps driver errors with ErrConstraint or ErrConnection so callers
// can branch with errors.Is. Unknown errors pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if isConstraint(err) {
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	}
	if isConnection(err) {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return err
}

func isConstraint(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		_, ok := mysqlConstraintCodes[myErr.Number]
		return ok
	}

	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.IntegrityViolation() || strings.HasPrefix(pgErr.Field('C'), "22")
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}

	return false
}

func isConnection(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
