package sigs

import "github.com/iov-one/rebase/errors"

// ErrInvalidSequence is returned when a signature was created for a
// different sequence than the one stored for the signer.
var ErrInvalidSequence = errors.Register(120, "invalid sequence number")
