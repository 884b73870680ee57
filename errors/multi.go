package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If more than one error is given, the result is a multi error. Multi errors
// are flattened, so appending to a multi error extends it. A multi error is
// reported using the code of its first error.
func Append(errs ...error) error {
	var res multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		if m, ok := e.(multiErr); ok {
			res = append(res, m...)
		} else {
			res = append(res, e)
		}
	}
	switch len(res) {
	case 0:
		return nil
	case 1:
		return res[0]
	default:
		return res
	}
}

type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s", len(m), strings.Join(points, "\n\t"))
}

// Unpack returns all errors that this multi error consists of.
func (m multiErr) Unpack() []error {
	return []error(m)
}

// Code returns the code of the first error.
func (m multiErr) Code() uint32 {
	if len(m) == 0 {
		return successCode
	}
	return code(m[0])
}

// unpacker is implemented by errors that club together many errors. It is a
// superset of the causer interface.
type unpacker interface {
	Unpack() []error
}
