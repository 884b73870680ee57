/*
Package app runs a single ledger domain.

A Node owns the committed state of one domain. Every transaction is
executed as its own block: the height grows by one, the block time is
read from the node clock and all writes are committed together or not
at all. Tickers run as separate blocks.
*/
package app

import (
	"context"
	"sync"
	"time"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/crypto"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/x/sigs"
	"github.com/tendermint/tendermint/libs/log"
)

// Option configures a Node.
type Option func(*Node)

// WithClock sets the source of block time.
func WithClock(now func() time.Time) Option {
	return func(n *Node) { n.now = now }
}

// WithLogger sets the node logger.
func WithLogger(logger log.Logger) Option {
	return func(n *Node) { n.logger = logger }
}

// WithTickers registers tickers executed by Tick.
func WithTickers(tickers ...rebase.Ticker) Option {
	return func(n *Node) { n.tickers = append(n.tickers, tickers...) }
}

// Node executes transactions against a committed store. All methods are
// safe for concurrent use, state changes are serialized.
type Node struct {
	mu sync.Mutex

	store   *CommitStore
	handler rebase.Handler
	init    rebase.Initializer
	tickers []rebase.Ticker

	chainID string
	height  int64

	now    func() time.Time
	logger log.Logger
}

// NewNode loads the latest committed state from store.
func NewNode(store rebase.CommitKVStore, handler rebase.Handler, init rebase.Initializer, opts ...Option) (*Node, error) {
	cs, err := NewCommitStore(store)
	if err != nil {
		return nil, err
	}
	info, err := cs.CommitInfo()
	if err != nil {
		return nil, errors.Wrap(err, "commit info")
	}
	n := &Node{
		store:   cs,
		handler: handler,
		init:    init,
		height:  info.Version,
		now:     time.Now,
		logger:  log.NewNopLogger(),
	}
	for _, fn := range opts {
		fn(n)
	}

	block := cs.Begin()
	defer block.Discard()
	if n.chainID, err = loadChainID(block); err != nil {
		return nil, err
	}
	n.logger = n.logger.With("module", "node")
	return n, nil
}

// ChainID returns the domain chain id, empty before genesis.
func (n *Node) ChainID() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.chainID
}

// Height returns the height of the last committed block.
func (n *Node) Height() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.height
}

// InitGenesis stores the chain id and runs all initializers. It can be
// called only on an empty node.
func (n *Node) InitGenesis(chainID string, opts rebase.Options) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.height != 0 || n.chainID != "" {
		return errors.Wrapf(errors.ErrState, "genesis already applied at height %d", n.height)
	}
	block := n.store.Begin()
	if err := saveChainID(block, chainID); err != nil {
		block.Discard()
		return err
	}
	if n.init != nil {
		if err := n.init.FromGenesis(opts, block); err != nil {
			block.Discard()
			return errors.Wrap(err, "genesis")
		}
	}
	info, err := n.store.Commit(block)
	if err != nil {
		return err
	}
	n.chainID = chainID
	n.height = info.Version
	n.logger.Info("genesis", "chain_id", chainID, "height", n.height)
	return nil
}

// blockContext must be called with the lock held.
func (n *Node) blockContext(ctx context.Context, height int64) (rebase.Context, error) {
	if n.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "genesis not applied")
	}
	ctx = rebase.WithHeight(ctx, height)
	ctx = rebase.WithChainID(ctx, n.chainID)
	ctx = rebase.WithBlockTime(ctx, n.now())
	ctx = rebase.WithLogger(ctx, n.logger.With("height", height))
	return ctx, nil
}

// Check runs the transaction without persisting any change.
func (n *Node) Check(ctx context.Context, tx rebase.Tx) (*rebase.CheckResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ctx, err := n.blockContext(ctx, n.height+1)
	if err != nil {
		return nil, err
	}
	block := n.store.Begin()
	defer block.Discard()
	return n.handler.Check(ctx, block, tx)
}

// Deliver executes the transaction as a new block. A failed transaction
// leaves the state and the height unchanged.
func (n *Node) Deliver(ctx context.Context, tx rebase.Tx) (*rebase.DeliverResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deliver(ctx, tx)
}

func (n *Node) deliver(ctx context.Context, tx rebase.Tx) (*rebase.DeliverResult, error) {
	ctx, err := n.blockContext(ctx, n.height+1)
	if err != nil {
		return nil, err
	}
	block := n.store.Begin()
	res, err := n.handler.Deliver(ctx, block, tx)
	if err != nil {
		block.Discard()
		return nil, err
	}
	info, err := n.store.Commit(block)
	if err != nil {
		return nil, err
	}
	n.height = info.Version
	return res, nil
}

// SignAndDeliver signs msg with the next sequence of signer and delivers
// it. The sequence is read and used under the same lock.
func (n *Node) SignAndDeliver(ctx context.Context, signer crypto.Signer, msg rebase.Msg) (*rebase.DeliverResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.chainID == "" {
		return nil, errors.Wrap(errors.ErrState, "genesis not applied")
	}
	block := n.store.Begin()
	tx, err := sigs.SignStdTx(block, signer, n.chainID, msg)
	block.Discard()
	if err != nil {
		return nil, err
	}
	return n.deliver(ctx, tx)
}

// Tick runs all tickers in a block of its own. Nothing is committed if
// any ticker fails.
func (n *Node) Tick(ctx context.Context) (rebase.TickResult, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	var res rebase.TickResult
	if len(n.tickers) == 0 {
		return res, nil
	}
	ctx, err := n.blockContext(ctx, n.height+1)
	if err != nil {
		return res, err
	}
	block := n.store.Begin()
	for _, t := range n.tickers {
		r, err := t.Tick(ctx, block)
		if err != nil {
			block.Discard()
			return rebase.TickResult{}, errors.Wrap(err, "tick")
		}
		res.Logs = append(res.Logs, r.Logs...)
	}
	info, err := n.store.Commit(block)
	if err != nil {
		return rebase.TickResult{}, err
	}
	n.height = info.Version
	return res, nil
}

// View calls fn with the committed state. Changes fn makes are dropped.
// The context carries the current clock as block time, so projected
// balances are reported as of now.
func (n *Node) View(ctx context.Context, fn func(ctx rebase.Context, db rebase.KVStore) error) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	ctx, err := n.blockContext(ctx, n.height)
	if err != nil {
		return err
	}
	block := n.store.Begin()
	defer block.Discard()
	return fn(ctx, block)
}
