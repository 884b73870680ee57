package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Field attaches err to the named message or state attribute. Nested
// attributes use dot notation, for example Outbound.Capacity or
// Remotes.1.DomainID. A nil err returns nil, so validation code can
// call Field unconditionally.
func Field(name string, err error, format string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	desc := format
	if len(args) > 0 {
		desc = fmt.Sprintf(format, args...)
	}
	return &fieldError{parent: err, field: name, desc: desc}
}

// AppendField adds a field error for name to errs. Both may be nil.
func AppendField(errs error, name string, err error) error {
	return Append(errs, Field(name, err, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (e *fieldError) Error() string {
	if e.desc == "" {
		return fmt.Sprintf("field %q: %s", e.field, e.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", e.field, e.desc, e.parent)
}

func (e *fieldError) Cause() error  { return e.parent }
func (e *fieldError) Field() string { return e.field }

// FieldErrors walks the error tree and returns every error created for
// the named field. The search stops descending at the first match on a
// branch, so an outer field error shadows inner ones of the same name.
func FieldErrors(err error, name string) []error {
	var found []error
	for !isNilErr(err) {
		if f, ok := err.(interface{ Field() string }); ok && f.Field() == name {
			return append(found, err)
		}
		// Unpack covers every child, Cause would only repeat one of them.
		if u, ok := err.(unpacker); ok {
			for _, child := range u.Unpack() {
				found = append(found, FieldErrors(child, name)...)
			}
			return found
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}
	return found
}
