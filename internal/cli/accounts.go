package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func parseAmount(flag, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, usageErrorf("--%s: invalid amount %q", flag, s)
	}
	return d, nil
}

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var acc types.Account
	var balance string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			acc.Name = args[0]
			if acc.Balance, err = parseAmount("balance", balance); err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			id, ok := s.Accounts().Add(acc)
			if !ok {
				return fmt.Errorf("account %q was not added; it may already exist", acc.Name)
			}
			return a.emit(cmd.OutOrStdout(), map[string]int64{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Added account %d\n", id)
			})
		},
	}
	add.Flags().StringVar(&acc.Emoji, "emoji", "", "display emoji")
	add.Flags().StringVar(&acc.Kind, "kind", "", "account kind, e.g. cash, bank, card")
	add.Flags().StringVar(&acc.Currency, "currency", "", "ISO currency code")
	add.Flags().StringVar(&balance, "balance", "", "opening balance")

	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			accounts := s.Accounts().List()
			return a.emit(cmd.OutOrStdout(), accounts, func() {
				rows := make([][]string, len(accounts))
				for i, x := range accounts {
					rows[i] = []string{idString(x.ID), x.Emoji + " " + x.Name, x.Kind, x.Currency, x.Balance.StringFixed(2)}
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "KIND", "CURRENCY", "BALANCE"}, rows)
			})
		},
	}

	imp := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import accounts from a JSON array, skipping names that exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var accounts []types.Account
			if err := readJSONFile(args[0], &accounts); err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			ids := s.Accounts().Import(accounts)
			return a.emit(cmd.OutOrStdout(), map[string][]int64{"ids": ids}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d account(s)\n", len(ids), len(accounts))
			})
		},
	}

	cmd.AddCommand(add, list, imp)
	return cmd
}

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage categories",
	}

	var cat types.Category
	var budget string
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cat.Name = args[0]
			if cat.Budget, err = parseAmount("budget", budget); err != nil {
				return err
			}
			if cat.Kind != types.KindExpense && cat.Kind != types.KindIncome {
				return usageErrorf("--kind must be %s or %s", types.KindExpense, types.KindIncome)
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			id, ok := s.Categories().Add(cat)
			if !ok {
				return fmt.Errorf("category %q was not added; it may already exist", cat.Name)
			}
			return a.emit(cmd.OutOrStdout(), map[string]int64{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %d\n", id)
			})
		},
	}
	add.Flags().StringVar(&cat.Emoji, "emoji", "", "display emoji")
	add.Flags().StringVar(&cat.Kind, "kind", types.KindExpense, "expense or income")
	add.Flags().StringVar(&budget, "budget", "", "monthly budget")

	var kind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			cats := s.Categories().List(kind)
			return a.emit(cmd.OutOrStdout(), cats, func() {
				rows := make([][]string, len(cats))
				for i, x := range cats {
					rows[i] = []string{idString(x.ID), x.Emoji + " " + x.Name, x.Kind, x.Budget.StringFixed(2)}
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "KIND", "BUDGET"}, rows)
			})
		},
	}
	list.Flags().StringVar(&kind, "kind", "", "only list this kind")

	imp := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import categories from a JSON array, skipping names that exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cats []types.Category
			if err := readJSONFile(args[0], &cats); err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			ids := s.Categories().Import(cats)
			return a.emit(cmd.OutOrStdout(), map[string][]int64{"ids": ids}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d categor(ies)\n", len(ids), len(cats))
			})
		},
	}

	cmd.AddCommand(add, list, imp)
	return cmd
}
