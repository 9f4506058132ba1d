package catalog

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/siftql/sift/internal/expr"
)

// Error reports a problem with a catalog definition or a lookup
// against it. Path is the CUE path or field reference involved.
type Error struct {
	Path    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Path, e.Message)
	}
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// LoadDir loads every CUE file in dir as one instance and compiles the
// catalog declaration found under the top-level "catalog" field.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &Error{Path: dir, Message: fmt.Sprintf("catalog directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &Error{Path: dir, Message: "not a directory"}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &Error{Path: dir, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, cueError(inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueError(err)
	}
	return Compile(value.LookupPath(cue.ParsePath("catalog")))
}

// CompileBytes compiles a catalog from a single in-memory CUE source.
func CompileBytes(src []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src)
	if err := value.Err(); err != nil {
		return nil, cueError(err)
	}
	return Compile(value.LookupPath(cue.ParsePath("catalog")))
}

// Compile parses a CUE value into a Catalog. The value is the catalog
// struct itself:
//
//	catalog: {
//		name: "retail"
//		table: orders: column: amount: "number"
//	}
func Compile(v cue.Value) (*Catalog, error) {
	if !v.Exists() {
		return nil, &Error{Path: "catalog", Message: "no catalog declaration found"}
	}
	if err := v.Err(); err != nil {
		return nil, cueError(err)
	}

	c := &Catalog{Tables: map[string]Table{}}

	nameVal := v.LookupPath(cue.ParsePath("name"))
	if nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, cueError(err)
		}
		c.Name = name
	}

	tablesVal := v.LookupPath(cue.ParsePath("table"))
	if !tablesVal.Exists() {
		return nil, &Error{Path: "catalog.table", Message: "at least one table is required", Pos: v.Pos()}
	}
	tableIter, err := tablesVal.Fields()
	if err != nil {
		return nil, cueError(err)
	}
	for tableIter.Next() {
		table, err := compileTable(tableIter.Label(), tableIter.Value())
		if err != nil {
			return nil, err
		}
		c.Tables[table.Name] = table
	}
	if len(c.Tables) == 0 {
		return nil, &Error{Path: "catalog.table", Message: "at least one table is required", Pos: v.Pos()}
	}
	return c, nil
}

func compileTable(name string, v cue.Value) (Table, error) {
	table := Table{Name: name, Columns: map[string]Column{}}

	columnsVal := v.LookupPath(cue.ParsePath("column"))
	if !columnsVal.Exists() {
		return Table{}, &Error{
			Path:    "catalog.table." + name,
			Message: "at least one column is required",
			Pos:     v.Pos(),
		}
	}
	colIter, err := columnsVal.Fields()
	if err != nil {
		return Table{}, cueError(err)
	}
	for colIter.Next() {
		kindStr, err := colIter.Value().String()
		if err != nil {
			return Table{}, cueError(err)
		}
		kind := expr.Kind(kindStr)
		switch kind {
		case expr.KindText, expr.KindNumber, expr.KindDate:
		default:
			return Table{}, &Error{
				Path:    fmt.Sprintf("catalog.table.%s.column.%s", name, colIter.Label()),
				Message: fmt.Sprintf("unknown column type %q", kindStr),
				Pos:     colIter.Value().Pos(),
			}
		}
		table.Columns[colIter.Label()] = Column{Name: colIter.Label(), Kind: kind}
	}
	if len(table.Columns) == 0 {
		return Table{}, &Error{
			Path:    "catalog.table." + name,
			Message: "at least one column is required",
			Pos:     v.Pos(),
		}
	}
	return table, nil
}

// cueError unwraps a CUE error list into a positioned Error.
func cueError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &Error{Path: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &Error{Path: "cue", Message: first.Error()}
}
