package store

import (
	"bytes"

	"github.com/iov-one/rebase/errors"
)

// mergeIterator walks the cached entries and the parent iterator side by
// side. A cached entry shadows the parent value of the same key and a
// tombstone hides it.
type mergeIterator struct {
	own        []entry
	parent     Iterator
	descending bool

	head    *Model
	drained bool
}

var _ Iterator = (*mergeIterator)(nil)

func (m *mergeIterator) Next() (key, value []byte, err error) {
	for {
		head, err := m.peek()
		if err != nil {
			return nil, nil, err
		}
		if len(m.own) == 0 {
			if head == nil {
				return nil, nil, errors.Wrap(errors.ErrIteratorDone, "cache")
			}
			m.head = nil
			return head.Key, head.Value, nil
		}

		next := m.own[0]
		if head != nil {
			order := bytes.Compare(next.key, head.Key)
			if m.descending {
				order = -order
			}
			if order > 0 {
				m.head = nil
				return head.Key, head.Value, nil
			}
			if order == 0 {
				m.head = nil
			}
		}
		m.own = m.own[1:]
		if !next.deleted {
			return next.key, next.value, nil
		}
	}
}

// peek returns the next parent model without consuming it, or nil once
// the parent is exhausted.
func (m *mergeIterator) peek() (*Model, error) {
	if m.head != nil || m.drained {
		return m.head, nil
	}
	key, value, err := m.parent.Next()
	if errors.ErrIteratorDone.Is(err) {
		m.drained = true
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m.head = &Model{Key: key, Value: value}
	return m.head, nil
}

func (m *mergeIterator) Release() {
	m.parent.Release()
	m.own = nil
}

// SliceIterator iterates over models that are already in order.
type SliceIterator struct {
	models []Model
}

var _ Iterator = (*SliceIterator)(nil)

func NewSliceIterator(models []Model) *SliceIterator {
	return &SliceIterator{models: models}
}

func (s *SliceIterator) Next() (key, value []byte, err error) {
	if len(s.models) == 0 {
		return nil, nil, errors.Wrap(errors.ErrIteratorDone, "slice")
	}
	m := s.models[0]
	s.models = s.models[1:]
	return m.Key, m.Value, nil
}

func (s *SliceIterator) Release() {
	s.models = nil
}
