/*
Package rebase defines the common interfaces that tie together the ledger
extensions, as well as implementations of the simpler shared components.

Every domain runs one serialized state machine. A state transition is a
transaction carrying a single message. Messages are routed to handlers, which
may be wrapped by decorators (authentication, logging, savepoints). Handlers
operate on a key-value store that is cache wrapped for each transaction, so
that a failed transaction never leaves partial writes.

Context carries the information about the current block: height, domain
(chain) identifier, block time and the logger. There exist two functions for
every value of type T that is supported in the context:

  WithXYZ(Context, T) Context
  GetXYZ(Context) (val T, ok bool)

WithXYZ panics if the value was previously set to avoid lower-level modules
overwriting the value.
*/
package rebase
