// Package rebasetest provides mocks and helpers for testing handlers,
// decorators and extensions without running a node.
package rebasetest
