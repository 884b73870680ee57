package bridge

import (
	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/coin"
	"github.com/iov-one/rebase/errors"
)

// Limiter is a token bucket bounding the amount moved over a lane. A nil
// limiter or one with zero capacity does not limit anything.
type Limiter struct {
	Capacity        coin.Amount     `json:"capacity"`
	RefillPerSecond coin.Amount     `json:"refill_per_second"`
	Tokens          coin.Amount     `json:"tokens"`
	UpdatedAt       rebase.UnixTime `json:"updated_at"`
}

func (l *Limiter) Validate() error {
	if l == nil {
		return nil
	}
	if l.Tokens.GT(l.Capacity) {
		return errors.Wrap(errors.ErrInput, "tokens exceed capacity")
	}
	return nil
}

// Enabled returns true if the limiter restricts anything.
func (l *Limiter) Enabled() bool {
	return l != nil && !l.Capacity.IsZero()
}

// Reset fills the bucket.
func (l *Limiter) Reset(now rebase.UnixTime) {
	if l == nil {
		return
	}
	l.Tokens = l.Capacity
	l.UpdatedAt = now
}

// Consume refills the bucket up to now and takes amount out of it.
// Nothing is taken when the bucket holds less than amount.
func (l *Limiter) Consume(now rebase.UnixTime, amount coin.Amount) error {
	if !l.Enabled() {
		return nil
	}
	if now > l.UpdatedAt {
		refill := l.RefillPerSecond.SaturatingMul(coin.NewAmount(uint64(now - l.UpdatedAt)))
		l.Tokens = coin.Min(l.Capacity, l.Tokens.SaturatingAdd(refill))
		l.UpdatedAt = now
	}
	left, err := l.Tokens.Sub(amount)
	if err != nil {
		return errors.Wrapf(errors.ErrRateLimited, "%s available, %s requested", l.Tokens, amount)
	}
	l.Tokens = left
	return nil
}
