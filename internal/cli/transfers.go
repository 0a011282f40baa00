package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func newTransferCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Track money lent to and borrowed from people",
	}

	var (
		tr   types.Transfer
		txID int64
	)
	add := &cobra.Command{
		Use:   "add <profile-id> <amount>",
		Short: "Record a transfer with a profile",
		Example: `  tally transfer add 2 15.00 --direction lent
  tally transfer add 3 40 --direction borrowed --tx 17`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if tr.ProfileID, err = parseID(args[0]); err != nil {
				return err
			}
			if tr.Amount, err = parseAmount("amount", args[1]); err != nil {
				return err
			}
			if tr.Direction != types.DirectionLent && tr.Direction != types.DirectionBorrowed {
				return usageErrorf("--direction must be %s or %s", types.DirectionLent, types.DirectionBorrowed)
			}
			if txID > 0 {
				tr.TransactionID = &txID
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if _, ok := s.Profiles().ByID(tr.ProfileID); !ok {
				return usageErrorf("unknown profile %d", tr.ProfileID)
			}
			id, ok := s.Transfers().Add(tr)
			if !ok {
				return fmt.Errorf("transfer was not recorded")
			}
			return a.emit(cmd.OutOrStdout(), map[string]int64{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Recorded transfer %d\n", id)
			})
		},
	}
	add.Flags().StringVar(&tr.Direction, "direction", types.DirectionLent, "lent (they owe you) or borrowed (you owe them)")
	add.Flags().Int64Var(&txID, "tx", 0, "transaction this transfer splits")

	var profileID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			var views []types.TransferView
			if profileID > 0 {
				views = s.Transfers().ByProfile(profileID)
			} else {
				views = s.Transfers().Open()
			}
			return a.emit(cmd.OutOrStdout(), views, func() {
				rows := make([][]string, len(views))
				for i, v := range views {
					settled := ""
					if v.Settled {
						settled = "yes"
					}
					rows[i] = []string{idString(v.ID), v.ProfileName, v.Direction, v.Amount.StringFixed(2), optID(v.TransactionID), settled}
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "PROFILE", "DIRECTION", "AMOUNT", "TX", "SETTLED"}, rows)
			})
		},
	}
	list.Flags().Int64Var(&profileID, "profile", 0, "list every transfer with this profile, settled included")

	balances := &cobra.Command{
		Use:   "balances",
		Short: "Show what each person owes you, or you owe them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			bs := s.Transfers().Balances()
			return a.emit(cmd.OutOrStdout(), bs, func() {
				rows := make([][]string, len(bs))
				for i, b := range bs {
					who := "owes you"
					if b.Net.IsNegative() {
						who = "you owe"
					}
					rows[i] = []string{b.ProfileName, who, b.Net.Abs().StringFixed(2)}
				}
				printTable(cmd.OutOrStdout(), []string{"PROFILE", "", "AMOUNT"}, rows)
			})
		},
	}

	settle := &cobra.Command{
		Use:   "settle <transfer-id>",
		Short: "Mark a transfer settled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if !s.Transfers().Settle(id) {
				return fmt.Errorf("transfer %d: %w", id, types.ErrNotFound)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Settled transfer %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, balances, settle)
	return cmd
}
