package rebasetest

import rebase "github.com/iov-one/rebase"

// Handler is a mock implementation of the rebase.Handler interface. It
// counts calls and optionally writes a key before returning.
type Handler struct {
	checkCall   int
	CheckResult rebase.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult rebase.DeliverResult
	DeliverErr    error

	// If set, Deliver writes Value under Key before returning.
	Key, Value []byte

	// Panic if set is raised by both methods.
	Panic interface{}
}

var _ rebase.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.CheckResult, error) {
	h.checkCall++
	if h.Panic != nil {
		panic(h.Panic)
	}
	if h.CheckErr != nil {
		return nil, h.CheckErr
	}
	res := h.CheckResult
	return &res, nil
}

func (h *Handler) Deliver(ctx rebase.Context, db rebase.KVStore, tx rebase.Tx) (*rebase.DeliverResult, error) {
	h.deliverCall++
	if h.Panic != nil {
		panic(h.Panic)
	}
	if h.Key != nil {
		if err := db.Set(h.Key, h.Value); err != nil {
			return nil, err
		}
	}
	if h.DeliverErr != nil {
		return nil, h.DeliverErr
	}
	res := h.DeliverResult
	return &res, nil
}


func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
