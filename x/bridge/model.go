package bridge

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
	"golang.org/x/crypto/blake2b"
)

// MessageID returns the identifier of the message sent by the source
// domain with the given nonce.
func MessageID(sourceDomain string, nonce int64) []byte {
	raw := make([]byte, 0, len(sourceDomain)+9)
	raw = append(raw, sourceDomain...)
	raw = append(raw, 0)
	raw = append(raw, orm.EncodeSequence(nonce)...)
	id := blake2b.Sum256(raw)
	return id[:]
}

// Message is a single burn on the source domain to be minted on the
// destination domain. It carries the rate the sender held.
type Message struct {
	Metadata          *rebase.Metadata `json:"metadata"`
	ID                []byte           `json:"id"`
	SourceDomain      string           `json:"source_domain"`
	DestinationDomain string           `json:"destination_domain"`
	Nonce             int64            `json:"nonce"`
	Sender            rebase.Address   `json:"sender"`
	Recipient         rebase.Address   `json:"recipient"`
	Amount            coin.Amount      `json:"amount"`
	Rate              coin.Amount      `json:"rate"`
	BurnedAt          rebase.UnixTime  `json:"burned_at"`
}

var _ orm.Model = (*Message)(nil)

func (m *Message) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !rebase.IsValidChainID(m.SourceDomain) {
		errs = errors.Append(errs, errors.Field("SourceDomain", errors.ErrInput, "invalid domain"))
	}
	if !rebase.IsValidChainID(m.DestinationDomain) {
		errs = errors.Append(errs, errors.Field("DestinationDomain", errors.ErrInput, "invalid domain"))
	}
	if m.SourceDomain == m.DestinationDomain {
		errs = errors.Append(errs, errors.Field("DestinationDomain", errors.ErrInput, "same as source"))
	}
	if m.Nonce <= 0 {
		errs = errors.Append(errs, errors.Field("Nonce", errors.ErrInput, "must be positive"))
	} else if !bytes.Equal(m.ID, MessageID(m.SourceDomain, m.Nonce)) {
		errs = errors.Append(errs, errors.Field("ID", errors.ErrInput, "does not match source and nonce"))
	}
	errs = errors.AppendField(errs, "Sender", m.Sender.Validate())
	errs = errors.AppendField(errs, "Recipient", m.Recipient.Validate())
	if m.Amount.IsZero() || m.Amount.IsAll() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	return errs
}

// Equals compares the content of two messages.
func (m *Message) Equals(o *Message) bool {
	return bytes.Equal(m.ID, o.ID) &&
		m.SourceDomain == o.SourceDomain &&
		m.DestinationDomain == o.DestinationDomain &&
		m.Nonce == o.Nonce &&
		m.Sender.Equals(o.Sender) &&
		m.Recipient.Equals(o.Recipient) &&
		m.Amount == o.Amount &&
		m.Rate == o.Rate &&
		m.BurnedAt == o.BurnedAt
}

// HexID returns the message id for logs.
func (m *Message) HexID() string {
	return hex.EncodeToString(m.ID)
}

// NewOutboxBucket returns the bucket of sent messages, keyed by nonce.
func NewOutboxBucket() orm.ModelBucket {
	return orm.NewModelBucket("outbox", &Message{})
}

// ReceiptStatus is the state of an inbound message.
type ReceiptStatus int32

const (
	ReceiptPending ReceiptStatus = 1
	ReceiptMinted  ReceiptStatus = 2
)

func (s ReceiptStatus) String() string {
	switch s {
	case ReceiptPending:
		return "pending"
	case ReceiptMinted:
		return "minted"
	default:
		return "unknown"
	}
}

// Receipt records an inbound message and whether it was minted.
type Receipt struct {
	Metadata  *rebase.Metadata `json:"metadata"`
	Message   *Message         `json:"message"`
	Status    ReceiptStatus    `json:"status"`
	Attempts  int32            `json:"attempts"`
	LastError string           `json:"last_error,omitempty"`
	MintedAt  rebase.UnixTime  `json:"minted_at,omitempty"`
}

var _ orm.Model = (*Receipt)(nil)

func (r *Receipt) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	if r.Message == nil {
		errs = errors.Append(errs, errors.Field("Message", errors.ErrEmpty, "required"))
	} else {
		errs = errors.AppendField(errs, "Message", r.Message.Validate())
	}
	switch r.Status {
	case ReceiptPending, ReceiptMinted:
	default:
		errs = errors.Append(errs, errors.Field("Status", errors.ErrState, "unknown status %d", r.Status))
	}
	if r.Attempts < 0 {
		errs = errors.Append(errs, errors.Field("Attempts", errors.ErrInput, "negative"))
	}
	return errs
}

func receiptStatus(m orm.Model) ([]byte, error) {
	r, ok := m.(*Receipt)
	if !ok {
		return nil, errors.WithType(errors.ErrType, m)
	}
	return statusKey(r.Status), nil
}

func statusKey(s ReceiptStatus) []byte {
	raw := make([]byte, 4)
	binary.BigEndian.PutUint32(raw, uint32(s))
	return raw
}

// NewInboxBucket returns the bucket of receipts, keyed by message id and
// indexed by status.
func NewInboxBucket() orm.ModelBucket {
	return orm.NewModelBucket("inbox", &Receipt{},
		orm.WithIndex("status", receiptStatus, false))
}

// Remote is a domain messages may be exchanged with.
type Remote struct {
	Metadata *rebase.Metadata `json:"metadata"`
	DomainID string           `json:"domain_id"`
	Enabled  bool             `json:"enabled"`
	Outbound *Limiter         `json:"outbound,omitempty"`
	Inbound  *Limiter         `json:"inbound,omitempty"`
}

var _ orm.Model = (*Remote)(nil)

func (r *Remote) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", r.Metadata.Validate())
	if !rebase.IsValidChainID(r.DomainID) {
		errs = errors.Append(errs, errors.Field("DomainID", errors.ErrInput, "invalid domain"))
	}
	errs = errors.AppendField(errs, "Outbound", r.Outbound.Validate())
	errs = errors.AppendField(errs, "Inbound", r.Inbound.Validate())
	return errs
}

// NewRemoteBucket returns the bucket of remote domains, keyed by domain id.
func NewRemoteBucket() orm.ModelBucket {
	return orm.NewModelBucket("remote", &Remote{})
}
