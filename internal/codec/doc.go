// Package codec implements the two serialized forms of a filter expression.
//
// The persistence codec is a durable, fully self-describing round-trip format
// over the forest's four collections, with every identifier in its canonical
// string form. Unmarshal does not validate the structure it loads - callers
// run forest.Validate afterwards when the source is untrusted.
//
// The submission command codec is one-way: it renders a single-rooted
// expression into the minimal {name, content} tree the remote query executor
// consumes. The two paths encode different semantics on purpose: the command
// flips comparison operators that sit left of the field, and decomposes a
// two-sided leaf into an implicit AND combinator at serialization time only.
package codec
