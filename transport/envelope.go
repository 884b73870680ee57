/*
Package transport carries opaque bridge payloads between domains.

Delivery is at least once. An envelope may arrive more than once and in
any order, the receiving end is expected to deduplicate by id.
*/
package transport

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/rebase/errors"
)

// Envelope wraps a single payload travelling between two domains.
type Envelope struct {
	ID                []byte `protobuf:"bytes,1,opt,name=id,proto3" json:"id,omitempty"`
	SourceDomain      string `protobuf:"bytes,2,opt,name=source_domain,json=sourceDomain,proto3" json:"source_domain,omitempty"`
	DestinationDomain string `protobuf:"bytes,3,opt,name=destination_domain,json=destinationDomain,proto3" json:"destination_domain,omitempty"`
	Payload           []byte `protobuf:"bytes,4,opt,name=payload,proto3" json:"payload,omitempty"`
}

var _ proto.Message = (*Envelope)(nil)

func (m *Envelope) Reset()      { *m = Envelope{} }
func (*Envelope) ProtoMessage() {}
func (m *Envelope) String() string {
	return fmt.Sprintf("%s->%s %s", m.SourceDomain, m.DestinationDomain, hex.EncodeToString(m.ID))
}

// Validate returns an error if the envelope cannot be routed.
func (m *Envelope) Validate() error {
	if len(m.ID) == 0 {
		return errors.Wrap(errors.ErrEmpty, "envelope id")
	}
	if m.SourceDomain == "" || m.DestinationDomain == "" {
		return errors.Wrap(errors.ErrEmpty, "envelope domain")
	}
	return nil
}

// Encode serializes the envelope into its wire form.
func Encode(e *Envelope) ([]byte, error) {
	raw, err := proto.Marshal(e)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "encode envelope: %s", err)
	}
	return raw, nil
}

// Decode is the inverse of Encode.
func Decode(raw []byte) (*Envelope, error) {
	var e Envelope
	if err := proto.Unmarshal(raw, &e); err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "decode envelope: %s", err)
	}
	return &e, nil
}

// Transport publishes envelopes towards their destination domain.
type Transport interface {
	// Publish hands the envelope over and returns its id. Publishing the
	// same envelope twice is allowed.
	Publish(ctx context.Context, e *Envelope) ([]byte, error)
}

// Handler consumes envelopes on the destination domain. An error means
// the envelope must be delivered again later.
type Handler interface {
	OnDeliver(ctx context.Context, e *Envelope) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, e *Envelope) error

func (fn HandlerFunc) OnDeliver(ctx context.Context, e *Envelope) error {
	return fn(ctx, e)
}
