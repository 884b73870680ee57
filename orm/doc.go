/*
Package orm maps models to the key-value store.

A ModelBucket stores all models of a single type under a common key
prefix. Models are serialized with amino. A bucket may declare
secondary indexes that are kept up to date on every write and may use
a Sequence to generate primary keys.
*/
package orm
