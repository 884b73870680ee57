package bridge

import (
	"fmt"

	rebase "github.com/iov-one/rebase"
	"github.com/iov-one/rebase/errors"
)

// RetryTicker retries every pending inbound message on each tick.
type RetryTicker struct {
	service *Service
}

var _ rebase.Ticker = (*RetryTicker)(nil)

// NewRetryTicker returns a ticker retrying through s.
func NewRetryTicker(s *Service) *RetryTicker {
	return &RetryTicker{service: s}
}

func (t *RetryTicker) Tick(ctx rebase.Context, db rebase.CacheableKVStore) (rebase.TickResult, error) {
	var res rebase.TickResult
	pending, err := t.service.PendingReceipts(db)
	if err != nil {
		return res, errors.Wrap(err, "pending receipts")
	}
	for _, r := range pending {
		out, err := t.service.attempt(ctx, db, r)
		if err != nil {
			return res, errors.Wrapf(err, "retry %s", r.Message.HexID())
		}
		res.Logs = append(res.Logs, fmt.Sprintf("%s: %s", r.Message.HexID(), out.Outcome))
	}
	return res, nil
}
