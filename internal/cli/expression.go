package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/siftql/sift/internal/codec"
	"github.com/siftql/sift/internal/forest"
	"github.com/siftql/sift/internal/sqlgen"
)

// Error codes used in JSON error payloads.
const (
	ErrCodeRead     = "READ_ERROR"
	ErrCodeParse    = "PARSE_ERROR"
	ErrCodeInvalid  = "INVALID_EXPRESSION"
	ErrCodeRender   = "RENDER_ERROR"
	ErrCodeCatalog  = "CATALOG_ERROR"
	ErrCodeStore    = "STORE_ERROR"
	ErrCodeScenario = "SCENARIO_ERROR"
	ErrCodeNotFound = "NOT_FOUND"
)

// loadExpressionFile reads and parses a persisted expression document.
// Parse failures are reported through the formatter and returned as
// command errors.
func loadExpressionFile(formatter *OutputFormatter, path string) (forest.Expression, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		formatter.Error(ErrCodeRead, fmt.Sprintf("reading %s: %v", path, err), nil)
		return forest.Expression{}, NewExitError(ExitCommandError, "read failed")
	}
	e, err := codec.Unmarshal(data)
	if err != nil {
		formatter.Error(ErrCodeParse, err.Error(), nil)
		return forest.Expression{}, NewExitError(ExitCommandError, "parse failed")
	}
	return e, nil
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <expression.json>",
		Short: "Check an expression document's structure",
		Long: `Validate a persisted expression document.

Reports structural problems (cycles, dangling references, unreachable
nodes) and advisory findings (unbounded leaves, thin combinators).
Exit code 1 means the expression is structurally invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	e, err := loadExpressionFile(formatter, path)
	if err != nil {
		return err
	}
	formatter.VerboseLog("loaded %d node(s) from %s", e.Len(), path)

	result := e.Validate()
	text := renderValidation(result)
	if err := formatter.SuccessText(result, text); err != nil {
		return err
	}
	if !result.Valid {
		return NewExitError(ExitFailure, "expression is invalid")
	}
	return nil
}

func renderValidation(result forest.ValidationResult) string {
	var b strings.Builder
	if result.Valid {
		b.WriteString("valid")
	} else {
		b.WriteString("invalid")
	}
	for _, p := range result.Problems {
		b.WriteString("\n")
		if p.Advisory {
			b.WriteString("  advisory ")
		} else {
			b.WriteString("  problem  ")
		}
		b.WriteString(p.Code)
		b.WriteString(": ")
		b.WriteString(p.Message)
	}
	return b.String()
}

// NewCommandCommand creates the command command: render the one-way
// submission form.
func NewCommandCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "command <expression.json>",
		Short: "Render the submission command tree",
		Long: `Render a persisted expression as the one-way submission command.

The expression must be a single tree. Left-of-field operators are
flipped to their field-first names and two-sided leaves decompose into
an implicit AND pair.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(rootOpts, args[0], cmd)
		},
	}
}

func runCommand(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	e, err := loadExpressionFile(formatter, path)
	if err != nil {
		return err
	}
	node, err := codec.BuildCommand(e)
	if err != nil {
		formatter.Error(ErrCodeRender, err.Error(), nil)
		return NewExitError(ExitFailure, "render failed")
	}
	pretty, err := json.MarshalIndent(node, "", "  ")
	if err != nil {
		return err
	}
	return formatter.SuccessText(node, string(pretty))
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	var table string
	cmd := &cobra.Command{
		Use:           "sql <expression.json>",
		Short:         "Compile an expression to a parameterized WHERE clause",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(rootOpts, args[0], table, cmd)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "wrap the clause in a full SELECT against this table")
	return cmd
}

// sqlResult is the sql command's JSON payload.
type sqlResult struct {
	SQL  string `json:"sql"`
	Args []any  `json:"args"`
}

func runSQL(opts *RootOptions, path, table string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	e, err := loadExpressionFile(formatter, path)
	if err != nil {
		return err
	}

	var result sqlResult
	if table != "" {
		result.SQL, result.Args, err = sqlgen.SelectSQL(e, table)
	} else {
		var frag sqlgen.Fragment
		frag, err = sqlgen.Compile(e)
		result.SQL, result.Args = frag.SQL, frag.Args
	}
	if err != nil {
		formatter.Error(ErrCodeRender, err.Error(), nil)
		return NewExitError(ExitFailure, "sql compilation failed")
	}
	return formatter.SuccessText(result, fmt.Sprintf("%s\nargs: %v", result.SQL, result.Args))
}

// NewFingerprintCommand creates the fingerprint command.
func NewFingerprintCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint <expression.json>",
		Short: "Print an expression's content hash",
		Long: `Print the canonical content hash of a persisted expression.

Two expressions with the same structure and content hash identically
regardless of edit history.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			e, err := loadExpressionFile(formatter, args[0])
			if err != nil {
				return err
			}
			fp, err := codec.Fingerprint(e)
			if err != nil {
				formatter.Error(ErrCodeRender, err.Error(), nil)
				return NewExitError(ExitFailure, "fingerprint failed")
			}
			return formatter.SuccessText(map[string]string{"fingerprint": fp}, fp)
		},
	}
}
