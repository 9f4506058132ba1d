package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siftql/sift/internal/catalog"
)

// NewCatalogCommand creates the catalog command.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog <dir>",
		Short: "Load a CUE catalog and list its tables",
		Long: `Load the catalog definitions from a directory of CUE files and
print every table with its columns and value kinds.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalog(rootOpts, args[0], cmd)
		},
	}
}

// catalogTable is one table in the catalog command's JSON payload.
type catalogTable struct {
	Name    string            `json:"name"`
	Columns map[string]string `json:"columns"`
}

func runCatalog(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := catalog.LoadDir(dir)
	if err != nil {
		formatter.Error(ErrCodeCatalog, err.Error(), nil)
		return NewExitError(ExitCommandError, "catalog load failed")
	}
	formatter.VerboseLog("catalog %q: %d table(s)", cat.Name, len(cat.Tables))

	var tables []catalogTable
	var text strings.Builder
	fmt.Fprintf(&text, "catalog %s", cat.Name)
	for _, name := range cat.TableNames() {
		entry := catalogTable{Name: name, Columns: map[string]string{}}
		fmt.Fprintf(&text, "\n%s", name)
		for _, column := range cat.ColumnNames(name) {
			ref, err := cat.Field(name, column)
			if err != nil {
				return err
			}
			entry.Columns[column] = string(ref.Kind)
			fmt.Fprintf(&text, "\n  %-16s %s", column, ref.Kind)
		}
		tables = append(tables, entry)
	}
	return formatter.SuccessText(tables, text.String())
}
