package expr

import (
	"fmt"
	"strconv"
)

// ID identifies a query node within an expression.
//
// IDs are issued by ident.Generator and are unique for the lifetime of the
// process. They are totally ordered and serialize to a canonical decimal
// string form, which is the key format used by the persistence codec.
type ID int64

// NoID is the zero ID. It is never issued by a generator and is used where
// an optional parent reference is absent.
const NoID ID = 0

// String returns the canonical string form used on the wire and as object
// keys in the persistence format.
func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseID parses the canonical string form of an ID.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return NoID, fmt.Errorf("parse id %q: %w", s, err)
	}
	if n <= 0 {
		return NoID, fmt.Errorf("parse id %q: ids are positive", s)
	}
	return ID(n), nil
}
