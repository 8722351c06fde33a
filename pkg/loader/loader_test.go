// pkg/loader/loader_test.go
package loader

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
	"github.com/nordweld/weldsync/pkg/quarantine"
	"github.com/nordweld/weldsync/pkg/retry"
)

// stubConn scripts one pinned connection. LOAD DATA outcomes are consumed
// from a queue shared across connections, so a test can fail the first
// connections and succeed on a later one.
type stubConn struct {
	loads      *[]error
	execs      []string
	closed     bool
	tableCount int64
}

func (c *stubConn) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	c.execs = append(c.execs, query)
	if strings.HasPrefix(query, "LOAD DATA") {
		if len(*c.loads) == 0 {
			return nil, nil
		}
		err := (*c.loads)[0]
		*c.loads = (*c.loads)[1:]
		return nil, err
	}
	return nil, nil
}

func (c *stubConn) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	if d, ok := dest.(*int64); ok {
		*d = c.tableCount
	}
	return nil
}

func (c *stubConn) Close() error {
	c.closed = true
	return nil
}

func (c *stubConn) ran(query string) bool {
	for _, q := range c.execs {
		if q == query {
			return true
		}
	}
	return false
}

func newTestLoader(t *testing.T, loads *[]error, conns *[]*stubConn) *Loader {
	t.Helper()

	retrier := retry.New(zap.NewNop()).WithSleep(func(time.Duration) {})
	l := New(nil, zap.NewNop(), retrier, quarantine.NewList(), 10)
	l.connect = func(ctx context.Context) (loadConn, error) {
		c := &stubConn{loads: loads, tableCount: 1}
		*conns = append(*conns, c)
		return c, nil
	}
	return l
}

func TestLoadReconnectsOnTransientChunkFailure(t *testing.T) {
	lost := errors.New("Lost connection to MySQL server during query")
	loads := []error{lost, lost, nil}
	var conns []*stubConn

	l := newTestLoader(t, &loads, &conns)
	result, err := l.Load(context.Background(), []model.FactRecord{{WeldID: "W01"}})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RowsSent)
	assert.Equal(t, 1, result.Chunks)
	assert.Equal(t, int64(1), result.TableCount)

	// Initial connection plus one per failed attempt. The failed connections
	// are discarded, never retried on.
	require.Len(t, conns, 3)
	assert.True(t, conns[0].closed)
	assert.True(t, conns[1].closed)

	// Every fresh connection gets the session flags before the chunk.
	for _, c := range conns {
		assert.True(t, c.ran("SET SESSION local_infile = 1"))
		assert.True(t, c.ran("SET FOREIGN_KEY_CHECKS = 0"))
	}

	// The truncate ran once on the first connection and is not repeated on
	// reconnect.
	assert.True(t, conns[0].ran("TRUNCATE TABLE WeldingList"))
	assert.False(t, conns[1].ran("TRUNCATE TABLE WeldingList"))
}

func TestLoadFailsAfterExhaustingChunkRetries(t *testing.T) {
	lost := errors.New("Lost connection to MySQL server during query")
	loads := []error{lost, lost, lost, lost, lost}
	var conns []*stubConn

	l := newTestLoader(t, &loads, &conns)
	_, err := l.Load(context.Background(), []model.FactRecord{{WeldID: "W01"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, lost)
	assert.Contains(t, err.Error(), "failed to load chunk 1")
	assert.Len(t, conns, 5)
}

func TestLoadDoesNotReconnectOnNonTransientFailure(t *testing.T) {
	loads := []error{errors.New("You have an error in your SQL syntax")}
	var conns []*stubConn

	l := newTestLoader(t, &loads, &conns)
	_, err := l.Load(context.Background(), []model.FactRecord{{WeldID: "W01"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load chunk 1")
	require.Len(t, conns, 1)
	assert.True(t, conns[0].closed)
}
