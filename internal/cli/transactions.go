package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/internal/sqlite"
	"github.com/mesh-intelligence/tally/pkg/types"
)

// lookupRefs resolves category and account names to ids.
func lookupRefs(s *sqlite.Store, category, account string) (cat, acc *int64, err error) {
	if category != "" {
		c, ok := s.Categories().ByName(category)
		if !ok {
			return nil, nil, usageErrorf("unknown category %q", category)
		}
		cat = &c.ID
	}
	if account != "" {
		x, ok := s.Accounts().ByName(account)
		if !ok {
			return nil, nil, usageErrorf("unknown account %q", account)
		}
		acc = &x.ID
	}
	return cat, acc, nil
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tx",
		Aliases: []string{"transaction"},
		Short:   "Record and list transactions",
	}

	var (
		tx                types.Transaction
		date              string
		category, account string
	)
	add := &cobra.Command{
		Use:   "add <amount>",
		Short: "Record a transaction",
		Example: `  tally tx add 12.50 --category Food --account Cash --note lunch
  tally tx add 2400 --kind income --date 01/03/2024`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if tx.Amount, err = parseAmount("amount", args[0]); err != nil {
				return err
			}
			tx.Date = time.Now()
			if date != "" {
				if tx.Date, err = types.ParseTime(date); err != nil {
					return usageErrorf("--date: %v", err)
				}
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if tx.CategoryID, tx.AccountID, err = lookupRefs(s, category, account); err != nil {
				return err
			}
			id, ok := s.Transactions().Add(tx)
			if !ok {
				return fmt.Errorf("transaction was not recorded")
			}
			return a.emit(cmd.OutOrStdout(), map[string]int64{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded transaction %d\n", id)
			})
		},
	}
	add.Flags().StringVar(&tx.Kind, "kind", types.KindExpense, "expense or income")
	add.Flags().StringVar(&tx.Currency, "currency", "", "ISO currency code")
	add.Flags().StringVar(&tx.Note, "note", "", "free-form note")
	add.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD or DD/MM/YYYY (default: now)")
	add.Flags().StringVar(&category, "category", "", "category name")
	add.Flags().StringVar(&account, "account", "", "account name")

	var month, from, to string
	list := &cobra.Command{
		Use:   "list",
		Short: "List transactions for a month or a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			var views []types.TransactionView
			switch {
			case from != "" || to != "":
				lo, hi, err := dateRange(from, to)
				if err != nil {
					return err
				}
				views = s.Transactions().Between(lo, hi)
			default:
				m := time.Now().UTC()
				if month != "" {
					if m, err = time.Parse("2006-01", month); err != nil {
						return usageErrorf("--month must be YYYY-MM")
					}
				}
				views = s.Transactions().GetByYearMonth(m.Year(), int(m.Month())-1)
			}
			return a.emit(cmd.OutOrStdout(), views, func() {
				rows := make([][]string, len(views))
				for i, v := range views {
					rows[i] = []string{
						idString(v.ID), v.Date.Format("2006-01-02"), v.Kind, v.Amount.StringFixed(2),
						v.CategoryEmoji + " " + v.CategoryName, v.AccountName, v.Note,
					}
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "DATE", "KIND", "AMOUNT", "CATEGORY", "ACCOUNT", "NOTE"}, rows)
			})
		},
	}
	list.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current)")
	list.Flags().StringVar(&from, "from", "", "start date, inclusive")
	list.Flags().StringVar(&to, "to", "", "end date, inclusive")

	cmd.AddCommand(add, list)
	return cmd
}

// dateRange parses --from/--to. A missing bound is open; --to covers its
// whole day.
func dateRange(from, to string) (time.Time, time.Time, error) {
	lo := time.Unix(0, 0).UTC()
	hi := time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	var err error
	if from != "" {
		if lo, err = types.ParseTime(from); err != nil {
			return lo, hi, usageErrorf("--from: %v", err)
		}
	}
	if to != "" {
		if hi, err = types.ParseTime(to); err != nil {
			return lo, hi, usageErrorf("--to: %v", err)
		}
		if hi.Equal(hi.Truncate(24 * time.Hour)) {
			hi = hi.Add(24*time.Hour - time.Millisecond)
		}
	}
	return lo, hi, nil
}
