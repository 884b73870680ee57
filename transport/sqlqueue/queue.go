/*
Package sqlqueue is a durable transport backed by a sqlite database.

Every published envelope is stored once in its wire form, keyed by its
id. Pump hands
undelivered envelopes to a handler and keeps the failed ones for the
next run. Each attempt is recorded in the delivery table.
*/
package sqlqueue

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/transport"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Queue is a sqlite backed transport.Transport.
type Queue struct {
	db  *sql.DB
	now func() time.Time
}

var _ transport.Transport = (*Queue)(nil)

// Open creates or opens the queue database at path. Use ":memory:" for a
// throwaway queue.
func Open(path string) (*Queue, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "open %s: %s", path, err)
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, stmt := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		schemaSQL,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.Wrapf(errors.ErrDatabase, "init schema: %s", err)
		}
	}
	return &Queue{db: db, now: time.Now}, nil
}

// Close releases the database.
func (q *Queue) Close() error {
	return q.db.Close()
}

// Publish stores the envelope. Publishing an id that is already stored is
// a no-op.
func (q *Queue) Publish(ctx context.Context, e *transport.Envelope) ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	wire, err := transport.Encode(e)
	if err != nil {
		return nil, err
	}
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO envelope (id, source, destination, wire, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.SourceDomain, e.DestinationDomain, wire, q.now().UnixNano())
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "publish: %s", err)
	}
	return e.ID, nil
}

// Record is the stored state of an envelope.
type Record struct {
	Envelope  *transport.Envelope
	Delivered bool
	Attempts  int
	LastError string
}

// Get returns the stored state of an envelope.
func (q *Queue) Get(ctx context.Context, id []byte) (*Record, error) {
	var (
		r    Record
		wire []byte
	)
	err := q.db.QueryRowContext(ctx, `
		SELECT wire, delivered, attempts, last_error
		FROM envelope WHERE id = ?`, id).
		Scan(&wire, &r.Delivered, &r.Attempts, &r.LastError)
	switch {
	case err == sql.ErrNoRows:
		return nil, errors.Wrapf(errors.ErrNotFound, "envelope %X", id)
	case err != nil:
		return nil, errors.Wrapf(errors.ErrDatabase, "get: %s", err)
	}
	if r.Envelope, err = transport.Decode(wire); err != nil {
		return nil, errors.Wrapf(err, "envelope %X", id)
	}
	return &r, nil
}

// Pending returns the number of envelopes not delivered yet.
func (q *Queue) Pending(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM envelope WHERE delivered = 0`).Scan(&n); err != nil {
		return 0, errors.Wrapf(errors.ErrDatabase, "count: %s", err)
	}
	return n, nil
}

// Pump delivers undelivered envelopes for destination in publishing order.
// It returns the number of successful deliveries and all handler errors.
func (q *Queue) Pump(ctx context.Context, destination string, handler transport.Handler) (int, error) {
	batch, err := q.undelivered(ctx, destination)
	if err != nil {
		return 0, err
	}

	var (
		delivered int
		errs      error
	)
	for _, e := range batch {
		if err := ctx.Err(); err != nil {
			return delivered, errors.Append(errs, err)
		}
		herr := handler.OnDeliver(ctx, e)
		if err := q.record(ctx, e.ID, herr); err != nil {
			return delivered, errors.Append(errs, err)
		}
		if herr != nil {
			errs = errors.Append(errs, errors.Wrapf(herr, "envelope %X", e.ID))
			continue
		}
		delivered++
	}
	return delivered, errs
}

func (q *Queue) undelivered(ctx context.Context, destination string) ([]*transport.Envelope, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, wire FROM envelope
		WHERE delivered = 0 AND destination = ?
		ORDER BY created_at, rowid`, destination)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "select: %s", err)
	}
	defer rows.Close()

	var batch []*transport.Envelope
	for rows.Next() {
		var id, wire []byte
		if err := rows.Scan(&id, &wire); err != nil {
			return nil, errors.Wrapf(errors.ErrDatabase, "scan: %s", err)
		}
		e, err := transport.Decode(wire)
		if err != nil {
			return nil, errors.Wrapf(err, "envelope %X", id)
		}
		batch = append(batch, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "rows: %s", err)
	}
	return batch, nil
}

// record stores the outcome of a single delivery attempt.
func (q *Queue) record(ctx context.Context, id []byte, herr error) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "begin: %s", err)
	}
	defer tx.Rollback()

	var msg string
	if herr != nil {
		msg = herr.Error()
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO delivery (id, envelope_id, attempted_at, error) VALUES (?, ?, ?, ?)`,
		uuid.New().String(), id, q.now().UnixNano(), msg); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "record delivery: %s", err)
	}
	delivered := 0
	if herr == nil {
		delivered = 1
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE envelope SET delivered = ?, attempts = attempts + 1, last_error = ? WHERE id = ?`,
		delivered, msg, id); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "update envelope: %s", err)
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "commit: %s", err)
	}
	return nil
}

// Deliveries returns the number of recorded attempts for an envelope.
func (q *Queue) Deliveries(ctx context.Context, id []byte) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM delivery WHERE envelope_id = ?`, id).Scan(&n); err != nil {
		return 0, errors.Wrapf(errors.ErrDatabase, "count deliveries: %s", err)
	}
	return n, nil
}
