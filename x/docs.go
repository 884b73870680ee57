/*
Package x contains the extensions of a rebase domain and the helpers
they share.

Every sub-package registers its messages on a router, reads its own
genesis section and keeps its state in orm buckets. Handlers find out
who signed a transaction through an Authenticator, so the signature
scheme can be swapped without touching any extension.
*/
package x
