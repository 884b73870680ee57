package sqlqueue

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/transport"
	"github.com/stretchr/testify/require"
)

func openQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := Open(filepath.Join(t.TempDir(), "queue.db"))
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q
}

func envelope(id byte, destination string) *transport.Envelope {
	return &transport.Envelope{
		ID:                []byte{id, id},
		SourceDomain:      "domain-a",
		DestinationDomain: destination,
		Payload:           []byte{id},
	}
}

func TestPublishIsIdempotent(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := q.Publish(ctx, envelope(1, "domain-b"))
		require.NoError(t, err)
	}
	n, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	r, err := q.Get(ctx, []byte{1, 1})
	require.NoError(t, err)
	require.Equal(t, envelope(1, "domain-b"), r.Envelope)
	require.False(t, r.Delivered)

	_, err = q.Get(ctx, []byte{9})
	require.True(t, errors.ErrNotFound.Is(err))
}

func TestPumpKeepsFailedEnvelopes(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()
	for i := byte(1); i <= 3; i++ {
		_, err := q.Publish(ctx, envelope(i, "domain-b"))
		require.NoError(t, err)
	}
	_, err := q.Publish(ctx, envelope(4, "domain-c"))
	require.NoError(t, err)

	var seen []byte
	flaky := transport.HandlerFunc(func(_ context.Context, e *transport.Envelope) error {
		seen = append(seen, e.Payload...)
		if e.Payload[0] == 2 {
			return errors.Wrap(errors.ErrUndeliveredMint, "not yet")
		}
		return nil
	})

	n, err := q.Pump(ctx, "domain-b", flaky)
	require.Equal(t, 2, n)
	require.True(t, errors.ErrUndeliveredMint.Is(err))
	require.Equal(t, []byte{1, 2, 3}, seen)

	r, err := q.Get(ctx, []byte{2, 2})
	require.NoError(t, err)
	require.False(t, r.Delivered)
	require.Equal(t, 1, r.Attempts)
	require.Contains(t, r.LastError, "not yet")

	// Only the failed one is delivered again.
	seen = nil
	n, err = q.Pump(ctx, "domain-b", transport.HandlerFunc(func(_ context.Context, e *transport.Envelope) error {
		seen = append(seen, e.Payload...)
		return nil
	}))
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, []byte{2}, seen)

	attempts, err := q.Deliveries(ctx, []byte{2, 2})
	require.NoError(t, err)
	require.Equal(t, 2, attempts)

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, pending)
}

func TestQueueSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	ctx := context.Background()

	q, err := Open(path)
	require.NoError(t, err)
	_, err = q.Publish(ctx, envelope(5, "domain-b"))
	require.NoError(t, err)
	require.NoError(t, q.Close())

	q, err = Open(path)
	require.NoError(t, err)
	defer q.Close()
	n, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestStoresWireForm(t *testing.T) {
	q := openQueue(t)
	ctx := context.Background()
	e := envelope(5, "domain-b")
	_, err := q.Publish(ctx, e)
	require.NoError(t, err)

	var wire []byte
	require.NoError(t, q.db.QueryRowContext(ctx, `SELECT wire FROM envelope WHERE id = ?`, e.ID).Scan(&wire))
	want, err := transport.Encode(e)
	require.NoError(t, err)
	require.Equal(t, want, wire)

	// A row that does not decode is reported, not delivered.
	_, err = q.db.ExecContext(ctx, `
		INSERT INTO envelope (id, source, destination, wire, created_at)
		VALUES (?, 'domain-a', 'domain-c', ?, 0)`, []byte{6}, []byte{0xff, 0xff})
	require.NoError(t, err)
	_, err = q.Get(ctx, []byte{6})
	require.True(t, errors.ErrInput.Is(err))
	_, err = q.Pump(ctx, "domain-c", transport.HandlerFunc(func(context.Context, *transport.Envelope) error {
		t.Fatal("corrupt envelope delivered")
		return nil
	}))
	require.True(t, errors.ErrInput.Is(err))
}
