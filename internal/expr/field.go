package expr

// FieldRef references a column of a remote tabular dataset.
//
// Field metadata is owned by the schema catalog; expressions only borrow the
// reference. The Kind is the field's declared value type and decides which
// Value variant a bound on this field carries.
type FieldRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
	Kind   Kind   `json:"type"`
}

// Wire returns the qualified column name used by the submission command.
func (f FieldRef) Wire() string {
	if f.Table == "" {
		return f.Column
	}
	return f.Table + "." + f.Column
}
