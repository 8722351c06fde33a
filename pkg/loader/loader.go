// pkg/loader/loader.go
package loader

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/nordweld/weldsync/pkg/model"
	"github.com/nordweld/weldsync/pkg/quarantine"
	"github.com/nordweld/weldsync/pkg/retry"
)

// readerHandlerName is the go-sql-driver virtual file name for the in-memory
// staging CSV. LOAD DATA references it as 'Reader::weldsync_chunk'.
const readerHandlerName = "weldsync_chunk"

// loadConn is the connection surface the load runs on. Satisfied by
// *sqlx.Conn.
type loadConn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Close() error
}

// Loader replaces the WeldingList fact table with a batch of normalized
// records using chunked LOAD DATA LOCAL INFILE.
type Loader struct {
	db         *sqlx.DB
	logger     *zap.Logger
	retrier    *retry.Retrier
	quarantine *quarantine.List
	chunkSize  int
	connect    func(ctx context.Context) (loadConn, error)
}

// New creates a Loader. chunkSize bounds the rows serialized per LOAD DATA
// statement.
func New(db *sqlx.DB, logger *zap.Logger, retrier *retry.Retrier, q *quarantine.List, chunkSize int) *Loader {
	l := &Loader{
		db:         db,
		logger:     logger,
		retrier:    retrier,
		quarantine: q,
		chunkSize:  chunkSize,
	}
	l.connect = func(ctx context.Context) (loadConn, error) {
		return l.db.Connx(ctx)
	}
	return l
}

// Result summarizes one bulk load.
type Result struct {
	RowsSent   int
	TableCount int64
	Chunks     int
}

// session is the pinned connection the load statements share, together with
// the flags applied to it. The session flags and LOAD DATA must see the same
// connection.
type session struct {
	conn           loadConn
	checksDisabled bool
}

// Load truncates WeldingList and streams records into it chunk by chunk.
// Each chunk goes through REPLACE semantics, so duplicate WeldIDs within a
// batch collapse to the last occurrence instead of failing the load.
func (l *Loader) Load(ctx context.Context, records []model.FactRecord) (*Result, error) {
	sess := &session{}
	if err := l.ensureSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer l.closeSession(sess)

	if err := l.execRetried(ctx, sess, "truncate WeldingList", "TRUNCATE TABLE WeldingList"); err != nil {
		return nil, fmt.Errorf("failed to truncate fact table: %w", err)
	}

	mysql.RegisterReaderHandler(readerHandlerName, chunkReader(nil))
	defer mysql.DeregisterReaderHandler(readerHandlerName)

	loadSQL := buildLoadSQL()

	result := &Result{}
	for start := 0; start < len(records); start += l.chunkSize {
		end := start + l.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		result.Chunks++

		revalidateDates(chunk, l.quarantine)
		data := buildChunkCSV(chunk)
		mysql.RegisterReaderHandler(readerHandlerName, chunkReader(data))

		err := l.execRetried(ctx, sess, fmt.Sprintf("load chunk %d", result.Chunks), loadSQL)
		if err != nil {
			return nil, fmt.Errorf("failed to load chunk %d (rows %d-%d): %w", result.Chunks, start, end-1, err)
		}

		result.RowsSent += len(chunk)
		l.logger.Info("Loaded chunk",
			zap.Int("chunk", result.Chunks),
			zap.Int("rows", len(chunk)),
			zap.Int("totalRows", result.RowsSent))
	}

	// REPLACE double-counts affected rows, so the table count is the only
	// trustworthy total. A mismatch against the batch size means duplicate
	// WeldIDs collapsed; worth a warning, not a failure.
	countErr := l.ensureSession(ctx, sess)
	if countErr == nil {
		countErr = sess.conn.GetContext(ctx, &result.TableCount, "SELECT COUNT(*) FROM WeldingList")
	}
	if countErr != nil {
		l.logger.Warn("Could not count fact table after load", zap.Error(countErr))
		result.TableCount = -1
	} else if result.TableCount != int64(len(records)) {
		l.logger.Warn("Fact table count differs from batch size",
			zap.Int64("tableCount", result.TableCount),
			zap.Int("batchRows", len(records)))
	}

	return result, nil
}

// execRetried runs one load statement under the shared retry schedule. A
// failed statement discards the session: a connection-class error kills the
// pinned connection and the driver rejects every statement after it, so each
// attempt must start from a fresh connection with the session flags
// re-applied.
func (l *Loader) execRetried(ctx context.Context, sess *session, op, query string) error {
	return l.retrier.Do(op, func() error {
		if err := l.ensureSession(ctx, sess); err != nil {
			return err
		}
		if _, err := sess.conn.ExecContext(ctx, query); err != nil {
			l.dropSession(sess)
			return err
		}
		return nil
	})
}

// ensureSession opens the pinned connection and applies the session flags if
// no connection is currently held.
func (l *Loader) ensureSession(ctx context.Context, sess *session) error {
	if sess.conn != nil {
		return nil
	}

	conn, err := l.connect(ctx)
	if err != nil {
		return err
	}
	sess.conn = conn

	// Constraint checks off for the duration of the load. Best-effort: the
	// account may lack the privilege, and the load works without it.
	sess.checksDisabled = false
	if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err == nil {
		if _, err := conn.ExecContext(ctx, "SET UNIQUE_CHECKS = 0"); err == nil {
			sess.checksDisabled = true
		}
	}

	if _, err := conn.ExecContext(ctx, "SET SESSION local_infile = 1"); err != nil {
		l.logger.Debug("Could not enable session local_infile", zap.Error(err))
	}

	return nil
}

// dropSession closes a connection that failed a statement so the next attempt
// reconnects.
func (l *Loader) dropSession(sess *session) {
	if sess.conn == nil {
		return
	}
	_ = sess.conn.Close()
	sess.conn = nil
	sess.checksDisabled = false
}

// closeSession re-enables the constraint checks and releases the connection.
func (l *Loader) closeSession(sess *session) {
	if sess.conn == nil {
		return
	}
	if sess.checksDisabled {
		_, _ = sess.conn.ExecContext(context.Background(), "SET UNIQUE_CHECKS = 1")
		_, _ = sess.conn.ExecContext(context.Background(), "SET FOREIGN_KEY_CHECKS = 1")
	}
	_ = sess.conn.Close()
	sess.conn = nil
}

// chunkReader returns a handler producing a fresh reader per invocation, so
// a retried LOAD DATA re-reads the chunk from the start.
func chunkReader(data []byte) func() io.Reader {
	return func() io.Reader {
		return bytes.NewReader(data)
	}
}

// buildLoadSQL renders the LOAD DATA statement. WeldDate routes through a
// user variable and STR_TO_DATE so a misaligned value becomes NULL on the
// server instead of raising a 1292 error.
func buildLoadSQL() string {
	cols := make([]string, len(model.TargetColumns))
	for i, col := range model.TargetColumns {
		if col == "WeldDate" {
			cols[i] = "@tmp_WeldDate"
		} else {
			cols[i] = col
		}
	}

	return `LOAD DATA LOCAL INFILE 'Reader::` + readerHandlerName + `' REPLACE INTO TABLE WeldingList ` +
		`CHARACTER SET utf8mb4 ` +
		`FIELDS TERMINATED BY ',' ENCLOSED BY '"' ESCAPED BY '\\' ` +
		`LINES TERMINATED BY '\r\n' ` +
		`IGNORE 1 LINES ` +
		`(` + strings.Join(cols, ", ") + `) ` +
		`SET WeldDate = STR_TO_DATE(NULLIF(@tmp_WeldDate, ''), '%Y-%m-%d')`
}
