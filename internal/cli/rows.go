package cli

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// tableAccessor returns the accessor for a schema table or a usage error.
func (a *app) tableAccessor(ctx context.Context, name string) (*sqlite.Accessor, error) {
	s, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	acc := s.Table(name)
	if acc.Name() == "" {
		var names []string
		for _, t := range s.Schema().Tables() {
			names = append(names, t.Name)
		}
		return nil, usageErrorf("unknown table %q (valid: %s)", name, strings.Join(names, ", "))
	}
	return acc, nil
}

// parseAssignments turns key=value arguments into a record. "null" clears
// a column; integers and booleans are converted.
func parseAssignments(args []string) (types.Record, error) {
	rec := types.Record{}
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, usageErrorf("expected key=value, got %q", arg)
		}
		switch {
		case v == "null":
			rec[k] = nil
		case v == "true" || v == "false":
			rec[k] = v == "true"
		default:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				rec[k] = n
			} else {
				rec[k] = v
			}
		}
	}
	return rec, nil
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update <table> <id> <key=value>...",
		Short: "Set columns of a row, creating it when the id is new",
		Example: `  tally update accounts 3 emoji=🏦 currency=EUR
  tally update transactions 12 note=null`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			rec, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}
			rec[types.ColID] = id
			acc, err := a.tableAccessor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !acc.Update(rec) {
				return fmt.Errorf("%s %d was not updated", args[0], id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s %d\n", args[0], id)
			return nil
		},
	}
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <table> <id>",
		Short: "Soft-delete a row",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			acc, err := a.tableAccessor(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !acc.Delete(id) {
				return fmt.Errorf("%s %d: %w", args[0], id, types.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %d\n", args[0], id)
			return nil
		},
	}
}

func newQueryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read query against the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			recs, err := s.Query(args[0])
			if err != nil {
				return usageErrorf("query: %v", err)
			}
			return a.emit(cmd.OutOrStdout(), recs, func() {
				printRecords(cmd.OutOrStdout(), recs)
			})
		},
	}
}

func newPendingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending [table]",
		Short: "Show rows not yet synced, or a count per table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				acc, err := a.tableAccessor(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				recs := acc.Pending()
				return a.emit(cmd.OutOrStdout(), recs, func() {
					printRecords(cmd.OutOrStdout(), recs)
				})
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			counts := map[string]int{}
			for _, row := range s.PendingRows() {
				counts[row.Table]++
			}
			return a.emit(cmd.OutOrStdout(), counts, func() {
				names := make([]string, 0, len(counts))
				for n := range counts {
					names = append(names, n)
				}
				sort.Strings(names)
				rows := make([][]string, len(names))
				for i, n := range names {
					rows[i] = []string{n, strconv.Itoa(counts[n])}
				}
				printTable(cmd.OutOrStdout(), []string{"TABLE", "PENDING"}, rows)
			})
		},
	}
}

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Report pending rows and push them when a synchronizer is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			report, err := s.Sync(cmd.Context())
			if err != nil {
				return err
			}
			return a.emit(cmd.OutOrStdout(), report, func() {
				out := cmd.OutOrStdout()
				if report.BatchID == "" {
					fmt.Fprintf(out, "%d row(s) pending; no sync service configured\n", report.Total())
					return
				}
				fmt.Fprintf(out, "Pushed %d row(s) in batch %s, pulled %d change(s)\n",
					report.Pushed, report.BatchID, len(report.Pulled))
			})
		},
	}
}
