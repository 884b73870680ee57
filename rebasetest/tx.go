package rebasetest

import rebase "github.com/iov-one/rebase"

// Tx wraps a single message. A non nil Err is returned from GetMsg in
// place of the message.
type Tx struct {
	Msg rebase.Msg
	Err error
}

func (tx *Tx) GetMsg() (rebase.Msg, error) {
	return tx.Msg, tx.Err
}

// Msg routes to RoutePath and fails validation with Err.
type Msg struct {
	RoutePath string
	Err       error
}

func (m *Msg) Path() string    { return m.RoutePath }
func (m *Msg) Validate() error { return m.Err }

var (
	_ rebase.Tx  = (*Tx)(nil)
	_ rebase.Msg = (*Msg)(nil)
)
