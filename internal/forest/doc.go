// Package forest implements the sift expression engine.
//
// The engine is the heart of sift - it holds the forest of filter condition
// trees being edited and applies the structural edits (insert, detach,
// reparent, merge-under-new-combinator) that the interactive builder drives.
//
// ARCHITECTURE:
//
// Arena plus adjacency maps:
// Nodes live in a flat map keyed by ID. Parent/child structure lives in
// separate children and parents maps rather than in the nodes themselves, so
// nodes carry no back-references and the shape is cycle-safe as long as the
// structural operations are the only mutation path.
//
// Pure operations:
// Every public operation is Expression × args → Expression. The receiver is
// never mutated; a failed operation leaves the caller holding the unchanged
// prior value. The calling layer applies operations one at a time and
// re-renders from the returned value, so no partial state is ever observable.
//
// Collapse:
// A combinator with fewer than two children is a transient state that must
// not survive a completed edit. Detaching a child fixes up the former parent:
// an emptied combinator is deleted, a single-child combinator is deleted with
// its survivor promoted into its place. The fix-up walks exactly one parent
// level; it does not cascade to the grandparent.
package forest
