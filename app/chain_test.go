package app

import (
	"context"
	"testing"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
	"github.com/iov-one/rebase/rebasetest"
	"github.com/iov-one/rebase/rebasetest/assert"
	"github.com/iov-one/rebase/x/utils"
	"github.com/tendermint/tendermint/libs/log"
)

func TestChain(t *testing.T) {
	c1 := &rebasetest.Decorator{}
	c2 := &rebasetest.Decorator{}
	c3 := &rebasetest.Decorator{}
	h := &rebasetest.Handler{}

	stack := ChainDecorators(
		c1,
		utils.NewLogging(),
		utils.NewRecovery(),
		c2,
		nil,
		c3,
	).WithHandler(h)

	ctx := rebase.WithLogger(context.Background(), log.NewNopLogger())

	_, err := stack.Check(ctx, nil, &rebasetest.Tx{})
	assert.Nil(t, err)
	_, err = stack.Deliver(ctx, nil, &rebasetest.Tx{})
	assert.Nil(t, err)

	assert.Equal(t, 2, c1.CallCount())
	assert.Equal(t, 2, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// A decorator error stops the chain before the handler.
	c2.DeliverErr = errors.ErrUnauthorized
	_, err = stack.Deliver(ctx, nil, &rebasetest.Tx{})
	assert.IsErr(t, errors.ErrUnauthorized, err)
	assert.Equal(t, 3, c1.CallCount())
	assert.Equal(t, 3, c2.CallCount())
	assert.Equal(t, 2, c3.CallCount())
	assert.Equal(t, 2, h.CallCount())

	// Panics are recovered below the Recovery decorator.
	c2.DeliverErr = nil
	h.Panic = "boom"
	_, err = stack.Deliver(ctx, nil, &rebasetest.Tx{})
	assert.IsErr(t, errors.ErrPanic, err)
	assert.Equal(t, 3, h.DeliverCallCount())
}

func TestChainSkipsNil(t *testing.T) {
	var missing *rebasetest.Decorator
	stack := ChainDecorators(nil, &rebasetest.Decorator{}, missing, nil)
	assert.Equal(t, 1, len(stack))
}
