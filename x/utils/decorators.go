/*
Package utils holds the decorators every rebase handler stack is
wrapped in: transaction logging, panic recovery and store savepoints.
*/
package utils

import (
	"time"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Stage selects the transaction phases a decorator is active in.
type Stage uint8

const (
	OnCheck Stage = 1 << iota
	OnDeliver

	Always = OnCheck | OnDeliver
)

// Logging writes a single line for every processed transaction.
// Rejected checks are reported at info level, failed deliveries at
// error level.
type Logging struct{}

var _ rebase.Decorator = Logging{}

func NewLogging() Logging {
	return Logging{}
}

func (Logging) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Checker) (*rebase.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, db, tx)
	logger := txLogger(ctx, tx, start)
	if err != nil {
		logger.Info("check rejected", "err", err)
		return nil, err
	}
	logger.Debug("checked", "log", res.Log)
	return res, nil
}

func (Logging) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Deliverer) (*rebase.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, db, tx)
	logger := txLogger(ctx, tx, start)
	if err != nil {
		logger.Error("deliver failed", "err", err)
		return nil, err
	}
	logger.Info("delivered", "log", res.Log)
	return res, nil
}

func txLogger(ctx rebase.Context, tx rebase.Tx, start time.Time) log.Logger {
	logger := rebase.GetLogger(ctx).With("took", time.Since(start).String())
	if height, ok := rebase.GetHeight(ctx); ok {
		logger = logger.With("height", height)
	}
	if tx != nil {
		logger = logger.With("path", rebase.GetPath(tx))
	}
	return logger
}

// Recovery converts a panic raised further down the stack into an
// ErrPanic error.
type Recovery struct{}

var _ rebase.Decorator = Recovery{}

func NewRecovery() Recovery {
	return Recovery{}
}

func (Recovery) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Checker) (_ *rebase.CheckResult, err error) {
	defer recoverInto(ctx, &err)
	return next.Check(ctx, db, tx)
}

func (Recovery) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Deliverer) (_ *rebase.DeliverResult, err error) {
	defer recoverInto(ctx, &err)
	return next.Deliver(ctx, db, tx)
}

func recoverInto(ctx rebase.Context, err *error) {
	if r := recover(); r != nil {
		*err = errors.Wrapf(errors.ErrPanic, "%v", r)
		rebase.GetLogger(ctx).Error("recovered", "panic", r)
	}
}

// Savepoint runs the rest of the stack on a cache of the store. The
// cache is written back only when the stack succeeds, so a failed
// transaction leaves no partial state behind.
type Savepoint struct {
	stages Stage
}

var _ rebase.Decorator = Savepoint{}

// NewSavepoint returns a savepoint active in the given stages.
func NewSavepoint(stages Stage) Savepoint {
	return Savepoint{stages: stages}
}

func (s Savepoint) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Checker) (*rebase.CheckResult, error) {
	if s.stages&OnCheck == 0 {
		return next.Check(ctx, db, tx)
	}
	return isolate(db, func(kv rebase.KVStore) (*rebase.CheckResult, error) {
		return next.Check(ctx, kv, tx)
	})
}

func (s Savepoint) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx, next rebase.Deliverer) (*rebase.DeliverResult, error) {
	if s.stages&OnDeliver == 0 {
		return next.Deliver(ctx, db, tx)
	}
	return isolate(db, func(kv rebase.KVStore) (*rebase.DeliverResult, error) {
		return next.Deliver(ctx, kv, tx)
	})
}

// isolate calls run with a cache wrap of db when db supports it.
func isolate[T any](db rebase.KVStore, run func(rebase.KVStore) (T, error)) (T, error) {
	cacheable, ok := db.(rebase.CacheableKVStore)
	if !ok {
		return run(db)
	}
	cache := cacheable.CacheWrap()
	res, err := run(cache)
	if err != nil {
		cache.Discard()
		var zero T
		return zero, err
	}
	if err := cache.Write(); err != nil {
		var zero T
		return zero, errors.Wrap(err, "write savepoint")
	}
	return res, nil
}
