/*
Package gconf implements a configuration store intended to be used as a
global, in-database configuration.

Each extension keeps a single configuration entity under the "_c:<pkg>"
key. It is created from the genesis file and may later be patched by a
message signed by the configuration owner.
*/
package gconf
