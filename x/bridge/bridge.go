/*
Package bridge moves ledger balance between domains by burning it on the
source and minting it on the destination.

Sending burns the sender balance and records a message carrying the
sender rate in the outbox. A relayer carries the message to the
destination, where it is recorded in the inbox by id and minted at most
once. A mint that fails keeps its receipt pending without failing the
delivering transaction, so it can be retried until it succeeds.
*/
package bridge

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/orm"
	"github.com/iov-one/rebase/x/supply"
)

// Condition is the identity the bridge mints and burns with. It must
// hold the mint_burn capability.
var Condition = rebase.NewCondition("bridge", "module", []byte("bridge"))

// Address of the bridge module.
var Address = Condition.Address()

// Outcome of delivering an inbound message.
type Outcome string

const (
	Minted    Outcome = "minted"
	Duplicate Outcome = "duplicate"
	Pending   Outcome = "pending"
)

// ReceiveResult describes what happened to an inbound message.
type ReceiveResult struct {
	Receipt *Receipt
	Outcome Outcome
	// Err is nil for Minted. A Duplicate carries ErrDuplicateMessage, a
	// Pending matches ErrUndeliveredMint as well as the reason the mint
	// failed.
	Err error
}

// Service implements both ends of the bridge.
type Service struct {
	supply  *supply.Controller
	outbox  orm.ModelBucket
	inbox   orm.ModelBucket
	remotes orm.ModelBucket
	nonce   orm.Sequence
}

// NewService returns a bridge service minting and burning through s.
func NewService(s *supply.Controller) *Service {
	return &Service{
		supply:  s,
		outbox:  NewOutboxBucket(),
		inbox:   NewInboxBucket(),
		remotes: NewRemoteBucket(),
		nonce:   orm.NewSequence("outbox", "nonce"),
	}
}

// LocalDomain returns the configured identifier of this domain.
func (s *Service) LocalDomain(db rebase.ReadOnlyKVStore) (string, error) {
	conf, err := loadConf(db)
	if err != nil {
		return "", err
	}
	return conf.DomainID, nil
}

// Send burns amount of the sender balance and records a message for the
// destination domain. coin.MaxAmount sends the whole balance.
func (s *Service) Send(ctx rebase.Context, db rebase.KVStore, sender, recipient rebase.Address, destination string, amount coin.Amount) (*Message, error) {
	local, err := s.LocalDomain(db)
	if err != nil {
		return nil, err
	}
	if destination == local {
		return nil, errors.Wrap(errors.ErrInput, "destination is the local domain")
	}
	if err := recipient.Validate(); err != nil {
		return nil, errors.Wrap(err, "recipient")
	}
	remote, err := s.Remote(db, destination)
	if err != nil {
		return nil, err
	}
	if !remote.Enabled {
		return nil, errors.Wrapf(errors.ErrState, "remote %q disabled", destination)
	}
	now, err := rebase.BlockUnixTime(ctx)
	if err != nil {
		return nil, err
	}
	if amount.IsAll() {
		if amount, err = s.supply.BalanceOf(ctx, db, sender); err != nil {
			return nil, err
		}
	}
	if amount.IsZero() {
		return nil, errors.Wrap(errors.ErrAmount, "nothing to send")
	}
	if err := remote.Outbound.Consume(now, amount); err != nil {
		return nil, errors.Wrapf(err, "outbound to %q", destination)
	}
	burned, rate, err := s.supply.Burn(ctx, db, Address, sender, amount)
	if err != nil {
		return nil, err
	}
	nonce, err := s.nonce.NextInt(db)
	if err != nil {
		return nil, errors.Wrap(err, "nonce")
	}
	msg := &Message{
		Metadata:          &rebase.Metadata{Schema: 1},
		ID:                MessageID(local, nonce),
		SourceDomain:      local,
		DestinationDomain: destination,
		Nonce:             nonce,
		Sender:            sender,
		Recipient:         recipient,
		Amount:            burned,
		Rate:              rate,
		BurnedAt:          now,
	}
	if _, err := s.outbox.Put(db, orm.EncodeSequence(nonce), msg); err != nil {
		return nil, errors.Wrap(err, "outbox")
	}
	if _, err := s.remotes.Put(db, []byte(destination), remote); err != nil {
		return nil, errors.Wrap(err, "remote")
	}
	rebase.GetLogger(ctx).Info("bridge message sent",
		"id", msg.HexID(), "nonce", nonce, "destination", destination, "amount", burned, "rate", rate)
	return msg, nil
}

// Receive records an inbound message and attempts to mint it. A message
// already minted is absorbed as a duplicate. A failed mint leaves the
// receipt pending and is reported through the result, not the error.
func (s *Service) Receive(ctx rebase.Context, db rebase.CacheableKVStore, msg *Message) (*ReceiveResult, error) {
	if err := msg.Validate(); err != nil {
		return nil, errors.Wrap(err, "message")
	}
	local, err := s.LocalDomain(db)
	if err != nil {
		return nil, err
	}
	if msg.DestinationDomain != local {
		return nil, errors.Wrapf(errors.ErrInput, "message for %q delivered to %q", msg.DestinationDomain, local)
	}

	var r Receipt
	switch err := s.inbox.One(db, msg.ID, &r); {
	case err == nil:
		if !r.Message.Equals(msg) {
			return nil, errors.Wrapf(errors.ErrState, "conflicting content for message %s", msg.HexID())
		}
		if r.Status == ReceiptMinted {
			rebase.GetLogger(ctx).Debug("bridge message duplicate", "id", msg.HexID())
			return duplicate(&r), nil
		}
	case errors.ErrNotFound.Is(err):
		r = Receipt{
			Metadata: &rebase.Metadata{Schema: 1},
			Message:  msg,
			Status:   ReceiptPending,
		}
	default:
		return nil, errors.Wrap(err, "inbox")
	}

	// Only messages that still need a mint depend on the lane.
	remote, err := s.Remote(db, msg.SourceDomain)
	if err != nil {
		return nil, err
	}
	if !remote.Enabled {
		return nil, errors.Wrapf(errors.ErrState, "remote %q disabled", msg.SourceDomain)
	}
	return s.attempt(ctx, db, &r)
}

func duplicate(r *Receipt) *ReceiveResult {
	return &ReceiveResult{
		Receipt: r,
		Outcome: Duplicate,
		Err:     errors.Wrapf(errors.ErrDuplicateMessage, "%s", r.Message.HexID()),
	}
}

// Retry attempts to mint a pending message again.
func (s *Service) Retry(ctx rebase.Context, db rebase.CacheableKVStore, id []byte) (*ReceiveResult, error) {
	r, err := s.Receipt(db, id)
	if err != nil {
		return nil, err
	}
	if r.Status == ReceiptMinted {
		return duplicate(r), nil
	}
	return s.attempt(ctx, db, r)
}

// attempt mints inside a nested cache so that a failure leaves no trace
// other than the updated receipt.
func (s *Service) attempt(ctx rebase.Context, db rebase.CacheableKVStore, r *Receipt) (*ReceiveResult, error) {
	now, err := rebase.BlockUnixTime(ctx)
	if err != nil {
		return nil, err
	}
	msg := r.Message
	r.Attempts++

	cache := db.CacheWrap()
	mintErr := s.mint(ctx, cache, now, msg)
	if mintErr == nil {
		if err := cache.Write(); err != nil {
			return nil, errors.Wrap(err, "cannot write mint")
		}
		r.Status = ReceiptMinted
		r.MintedAt = now
		r.LastError = ""
	} else {
		cache.Discard()
		r.LastError = mintErr.Error()
	}
	if _, err := s.inbox.Put(db, msg.ID, r); err != nil {
		return nil, errors.Wrap(err, "inbox")
	}

	if mintErr != nil {
		rebase.GetLogger(ctx).Info("bridge mint pending",
			"id", msg.HexID(), "attempts", r.Attempts, "err", mintErr)
		return &ReceiveResult{
			Receipt: r,
			Outcome: Pending,
			Err:     errors.Append(errors.Wrap(errors.ErrUndeliveredMint, "mint pending"), mintErr),
		}, nil
	}
	rebase.GetLogger(ctx).Info("bridge message minted",
		"id", msg.HexID(), "recipient", msg.Recipient, "amount", msg.Amount, "rate", msg.Rate)
	return &ReceiveResult{Receipt: r, Outcome: Minted}, nil
}

func (s *Service) mint(ctx rebase.Context, db rebase.KVStore, now rebase.UnixTime, msg *Message) error {
	remote, err := s.Remote(db, msg.SourceDomain)
	if err != nil {
		return err
	}
	if err := remote.Inbound.Consume(now, msg.Amount); err != nil {
		return errors.Wrapf(err, "inbound from %q", msg.SourceDomain)
	}
	if _, err := s.remotes.Put(db, []byte(remote.DomainID), remote); err != nil {
		return err
	}
	return s.supply.Mint(ctx, db, Address, msg.Recipient, msg.Amount, msg.Rate)
}

// ConfigureRemote creates or replaces a remote domain. Limiters start
// full.
func (s *Service) ConfigureRemote(ctx rebase.Context, db rebase.KVStore, remote *Remote) error {
	local, err := s.LocalDomain(db)
	if err != nil {
		return err
	}
	if remote.DomainID == local {
		return errors.Wrap(errors.ErrInput, "remote is the local domain")
	}
	now, err := rebase.BlockUnixTime(ctx)
	if err != nil {
		return err
	}
	remote.Outbound.Reset(now)
	remote.Inbound.Reset(now)
	if _, err := s.remotes.Put(db, []byte(remote.DomainID), remote); err != nil {
		return err
	}
	rebase.GetLogger(ctx).Info("bridge remote configured", "domain", remote.DomainID, "enabled", remote.Enabled)
	return nil
}

// Remote returns the configuration of a remote domain. An unknown domain
// is reported as ErrState.
func (s *Service) Remote(db rebase.ReadOnlyKVStore, domain string) (*Remote, error) {
	var r Remote
	switch err := s.remotes.One(db, []byte(domain), &r); {
	case err == nil:
		return &r, nil
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(errors.ErrState, "unknown remote %q", domain)
	default:
		return nil, errors.Wrap(err, "remote")
	}
}

// Receipt returns the inbox receipt of a message.
func (s *Service) Receipt(db rebase.ReadOnlyKVStore, id []byte) (*Receipt, error) {
	var r Receipt
	if err := s.inbox.One(db, id, &r); err != nil {
		return nil, errors.Wrapf(err, "receipt %X", id)
	}
	return &r, nil
}

// PendingReceipts returns all receipts that still wait for a mint.
func (s *Service) PendingReceipts(db rebase.ReadOnlyKVStore) ([]*Receipt, error) {
	var pending []*Receipt
	if _, err := s.inbox.ByIndex(db, "status", statusKey(ReceiptPending), &pending); err != nil {
		return nil, err
	}
	return pending, nil
}

// Outbox returns the message sent with the given nonce.
func (s *Service) Outbox(db rebase.ReadOnlyKVStore, nonce int64) (*Message, error) {
	var m Message
	if err := s.outbox.One(db, orm.EncodeSequence(nonce), &m); err != nil {
		return nil, errors.Wrapf(err, "outbox nonce %d", nonce)
	}
	return &m, nil
}

// OutboxAfter returns up to limit messages with a nonce greater than
// cursor, in nonce order.
func (s *Service) OutboxAfter(db rebase.ReadOnlyKVStore, cursor int64, limit int) ([]*Message, error) {
	latest, err := s.nonce.Latest(db)
	if err != nil {
		return nil, err
	}
	var msgs []*Message
	for n := cursor + 1; n <= latest && len(msgs) < limit; n++ {
		m, err := s.Outbox(db, n)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}
