package logistics

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	cases := []struct {
		name string
		err  error
		want error
	}{
		{"mysql foreign key", &mysql.MySQLError{Number: 1452, Message: "a foreign key constraint fails"}, ErrConstraint},
		{"mysql not null", &mysql.MySQLError{Number: 1048, Message: "Column 'ItemName' cannot be null"}, ErrConstraint},
		{"mysql data too long", fmt.Errorf("exec: %w", &mysql.MySQLError{Number: 1406}), ErrConstraint},
		{"bad conn", driver.ErrBadConn, ErrConnection},
		{"conn done", sql.ErrConnDone, ErrConnection},
		{"mysql invalid conn", mysql.ErrInvalidConn, ErrConnection},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), ErrConnection},
		{"dial", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, ErrConnection},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassifyPassesThroughUnknownErrors(t *testing.T) {
	syntax := &mysql.MySQLError{Number: 1064, Message: "syntax error"}
	got := classify(syntax)
	assert.Same(t, syntax, got)
	assert.NotErrorIs(t, got, ErrConstraint)
	assert.NotErrorIs(t, got, ErrConnection)
}
