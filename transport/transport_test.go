package transport

import (
	"context"
	"testing"

	"github.com/iov-one/rebase/errors"
	"github.com/stretchr/testify/require"
)

func envelope(id byte) *Envelope {
	return &Envelope{
		ID:                []byte{id},
		SourceDomain:      "domain-a",
		DestinationDomain: "domain-b",
		Payload:           []byte("payload"),
	}
}

func TestEnvelopeCodec(t *testing.T) {
	e := envelope(7)
	raw, err := Encode(e)
	require.NoError(t, err)
	got, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, e, got)

	_, err = Decode([]byte{0xff, 0xff})
	require.True(t, errors.ErrInput.Is(err))
}

func TestHubDelivers(t *testing.T) {
	hub := NewHub()
	ctx := context.Background()
	for i := byte(1); i <= 3; i++ {
		_, err := hub.Publish(ctx, envelope(i))
		require.NoError(t, err)
	}
	_, err := hub.Publish(ctx, &Envelope{})
	require.True(t, errors.ErrEmpty.Is(err))

	var got []byte
	n, err := hub.Pump(ctx, HandlerFunc(func(_ context.Context, e *Envelope) error {
		got = append(got, e.ID...)
		return nil
	}))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, []byte{1, 2, 3}, got)
	require.Equal(t, 0, hub.Len())
}

func TestHubKeepsFailed(t *testing.T) {
	hub := NewHub(WithDuplicates(), WithShuffle(42))
	ctx := context.Background()
	_, err := hub.Publish(ctx, envelope(1))
	require.NoError(t, err)
	_, err = hub.Publish(ctx, envelope(2))
	require.NoError(t, err)
	require.Equal(t, 4, hub.Len())

	refuse := HandlerFunc(func(_ context.Context, e *Envelope) error {
		if e.ID[0] == 2 {
			return errors.ErrUndeliveredMint
		}
		return nil
	})
	n, err := hub.Pump(ctx, refuse)
	require.Equal(t, 2, n)
	require.True(t, errors.ErrUndeliveredMint.Is(err))
	require.Equal(t, 2, hub.Len())

	n, err = hub.Pump(ctx, HandlerFunc(func(context.Context, *Envelope) error { return nil }))
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, 0, hub.Len())
}
