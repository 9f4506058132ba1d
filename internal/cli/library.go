package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/siftql/sift/internal/codec"
	"github.com/siftql/sift/internal/store"
)

// NewLibraryCommand groups the saved-expression subcommands.
func NewLibraryCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage the saved expression library",
		Long:  "Save, load, list, and delete named expressions in a SQLite library.",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "sift.db", "path to the library database")

	cmd.AddCommand(newLibrarySaveCommand(rootOpts, &dbPath))
	cmd.AddCommand(newLibraryLoadCommand(rootOpts, &dbPath))
	cmd.AddCommand(newLibraryListCommand(rootOpts, &dbPath))
	cmd.AddCommand(newLibraryDeleteCommand(rootOpts, &dbPath))
	return cmd
}

func openLibrary(formatter *OutputFormatter, dbPath string) (*store.Store, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, NewExitError(ExitCommandError, "open library failed")
	}
	return st, nil
}

// savedMeta is the JSON payload describing one saved expression.
type savedMeta struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Nodes       int    `json:"nodes"`
	UpdatedAt   string `json:"updatedAt"`
}

func toSavedMeta(meta store.SavedExpression) savedMeta {
	return savedMeta{
		Name:        meta.Name,
		Fingerprint: meta.Fingerprint,
		Nodes:       meta.NodeCount,
		UpdatedAt:   meta.UpdatedAt.Format(time.RFC3339),
	}
}

func newLibrarySaveCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "save <name> <expression.json>",
		Short:         "Save an expression document under a name",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			e, err := loadExpressionFile(formatter, args[1])
			if err != nil {
				return err
			}
			st, err := openLibrary(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			meta, err := st.Save(cmd.Context(), args[0], e)
			if err != nil {
				formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, "save failed")
			}
			return formatter.SuccessText(toSavedMeta(meta),
				fmt.Sprintf("saved %s (%d nodes, %s)", meta.Name, meta.NodeCount, meta.Fingerprint[:12]))
		},
	}
}

func newLibraryLoadCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:           "load <name>",
		Short:         "Print a saved expression document",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openLibrary(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			e, meta, err := st.Load(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					formatter.Error(ErrCodeNotFound, err.Error(), nil)
					return NewExitError(ExitCommandError, "not found")
				}
				formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, "load failed")
			}
			formatter.VerboseLog("loaded %s: %d node(s)", meta.Name, meta.NodeCount)

			pretty, err := codec.MarshalIndent(e)
			if err != nil {
				return err
			}
			if outPath != "" {
				if err := os.WriteFile(outPath, pretty, 0o644); err != nil {
					formatter.Error(ErrCodeStore, err.Error(), nil)
					return NewExitError(ExitCommandError, "write failed")
				}
				return formatter.SuccessText(toSavedMeta(meta), "wrote "+outPath)
			}
			return formatter.SuccessText(toSavedMeta(meta), string(pretty))
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the document to a file instead of stdout")
	return cmd
}

func newLibraryListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved expressions",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openLibrary(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			all, err := st.List(cmd.Context())
			if err != nil {
				formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, "list failed")
			}

			metas := make([]savedMeta, 0, len(all))
			var text strings.Builder
			for i, meta := range all {
				metas = append(metas, toSavedMeta(meta))
				if i > 0 {
					text.WriteString("\n")
				}
				fmt.Fprintf(&text, "%-24s %3d nodes  %s", meta.Name, meta.NodeCount, meta.Fingerprint[:12])
			}
			if len(all) == 0 {
				text.WriteString("library is empty")
			}
			return formatter.SuccessText(metas, text.String())
		},
	}
}

func newLibraryDeleteCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved expression",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)

			st, err := openLibrary(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Delete(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					formatter.Error(ErrCodeNotFound, err.Error(), nil)
					return NewExitError(ExitCommandError, "not found")
				}
				formatter.Error(ErrCodeStore, err.Error(), nil)
				return NewExitError(ExitCommandError, "delete failed")
			}
			return formatter.Success("deleted " + args[0])
		},
	}
}
