/*
Package relay moves bridge messages between two domain nodes.

A Relayer reads the outbox of the source node and publishes every new
message on a transport. An Endpoint consumes envelopes on the
destination side and submits them to the destination node as signed
receive transactions. Neither side keeps state the nodes cannot
rebuild: the relayer cursor may be reset to zero at any time and the
destination deduplicates by message id.
*/
package relay

import (
	"bytes"
	"context"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/app"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
	"github.com/iov-one/rebase/transport"
	"github.com/iov-one/rebase/x/bridge"
	"github.com/tendermint/tendermint/libs/log"
)

// DefaultBatch is the number of outbox messages published per Scan.
const DefaultBatch = 100

// Relayer publishes the outbox of a node.
type Relayer struct {
	node      *app.Node
	bridge    *bridge.Service
	transport transport.Transport
	logger    log.Logger

	cursor int64
	batch  int
}

// NewRelayer returns a relayer starting at the first outbox message.
func NewRelayer(node *app.Node, s *bridge.Service, t transport.Transport, logger log.Logger) *Relayer {
	return &Relayer{
		node:      node,
		bridge:    s,
		transport: t,
		logger:    logger.With("module", "relayer"),
		batch:     DefaultBatch,
	}
}

// Cursor returns the nonce of the last published message.
func (r *Relayer) Cursor() int64 {
	return r.cursor
}

// Reset moves the cursor back, messages after it are published again.
func (r *Relayer) Reset(cursor int64) {
	r.cursor = cursor
}

// Scan publishes all outbox messages after the cursor. It returns the
// number of published messages.
func (r *Relayer) Scan(ctx context.Context) (int, error) {
	var published int
	for {
		var msgs []*bridge.Message
		err := r.node.View(ctx, func(_ rebase.Context, db rebase.KVStore) error {
			var err error
			msgs, err = r.bridge.OutboxAfter(db, r.cursor, r.batch)
			return err
		})
		if err != nil {
			return published, errors.Wrap(err, "read outbox")
		}
		if len(msgs) == 0 {
			return published, nil
		}
		for _, m := range msgs {
			e, err := Wrap(m)
			if err != nil {
				return published, err
			}
			if _, err := r.transport.Publish(ctx, e); err != nil {
				return published, errors.Wrapf(err, "publish nonce %d", m.Nonce)
			}
			r.cursor = m.Nonce
			published++
			r.logger.Debug("published", "id", m.HexID(), "nonce", m.Nonce, "destination", m.DestinationDomain)
		}
	}
}

// Wrap encodes a bridge message into an envelope.
func Wrap(m *bridge.Message) (*transport.Envelope, error) {
	raw, err := orm.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode message")
	}
	return &transport.Envelope{
		ID:                m.ID,
		SourceDomain:      m.SourceDomain,
		DestinationDomain: m.DestinationDomain,
		Payload:           raw,
	}, nil
}

// Unwrap decodes the bridge message carried by an envelope.
func Unwrap(e *transport.Envelope) (*bridge.Message, error) {
	var m bridge.Message
	if err := orm.Unmarshal(e.Payload, &m); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "decode message: %s", err)
	}
	if !bytes.Equal(m.ID, e.ID) {
		return nil, errors.Wrapf(errors.ErrInput, "envelope %X carries message %X", e.ID, m.ID)
	}
	return &m, nil
}

// Endpoint delivers envelopes to the destination node.
type Endpoint struct {
	node   *app.Node
	bridge *bridge.Service
	signer crypto.Signer
	logger log.Logger
}

var _ transport.Handler = (*Endpoint)(nil)

// NewEndpoint returns a transport handler that submits receive
// transactions signed by signer. The signer must hold the relay
// capability on the destination node.
func NewEndpoint(node *app.Node, s *bridge.Service, signer crypto.Signer, logger log.Logger) *Endpoint {
	return &Endpoint{
		node:   node,
		bridge: s,
		signer: signer,
		logger: logger.With("module", "endpoint"),
	}
}

// OnDeliver submits the carried message. It returns ErrUndeliveredMint
// when the message was accepted but its mint is still pending, so the
// transport keeps the envelope.
func (ep *Endpoint) OnDeliver(ctx context.Context, e *transport.Envelope) error {
	m, err := Unwrap(e)
	if err != nil {
		return err
	}
	msg := &bridge.ReceiveMsg{Metadata: &rebase.Metadata{Schema: 1}, Message: m}
	res, err := ep.node.SignAndDeliver(ctx, ep.signer, msg)
	if err != nil {
		return errors.Wrapf(err, "receive %s", m.HexID())
	}

	var receipt *bridge.Receipt
	err = ep.node.View(ctx, func(_ rebase.Context, db rebase.KVStore) error {
		var err error
		receipt, err = ep.bridge.Receipt(db, m.ID)
		return err
	})
	if err != nil {
		return errors.Wrap(err, "load receipt")
	}
	if receipt.Status != bridge.ReceiptMinted {
		return errors.Wrapf(errors.ErrUndeliveredMint, "%s after %d attempts: %s", m.HexID(), receipt.Attempts, receipt.LastError)
	}
	ep.logger.Info("delivered", "id", m.HexID(), "result", res.Log)
	return nil
}
