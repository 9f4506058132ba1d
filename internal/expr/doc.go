// Package expr provides the foundational types for sift filter expressions.
//
// This package contains type definitions only: node identifiers, the two
// operator taxonomies, field references, the tagged bound-value variant, and
// the query node variants. All other internal packages import expr; expr
// imports nothing internal. This keeps it the foundational layer with no
// circular dependencies.
//
// Key design constraints:
//   - NO float storage anywhere - numeric bounds keep their decimal literal
//   - Query is a sealed interface (marker method pattern)
//   - Wire names are position-sensitive: the same comparison operator maps to
//     a direction-flipped wire code when it sits left of the field
package expr
