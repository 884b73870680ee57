/*
Package errors implements the error handling used across the ledger.

Every failure that is reported to a caller is a wrapped instance of one of the
root errors registered in this package. A root error carries a numeric code
and a short description. Use Register to declare a root error and Wrap or
Wrapf to add context at the place where the failure happens.

The first wrap attaches a stacktrace. Format the error with %+v to print it.

Validation code should use Field and AppendField, so that callers (and
tests) can inspect which attribute failed using FieldErrors.
*/
package errors
