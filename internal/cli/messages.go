package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func newMessageCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Append to and read the conversation log",
	}

	var (
		role              string
		txID              int64
		category, account string
	)
	add := &cobra.Command{
		Use:   "add <content>...",
		Short: "Append a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != types.RoleUser && role != types.RoleAssistant {
				return usageErrorf("--role must be %s or %s", types.RoleUser, types.RoleAssistant)
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			m := types.Message{Role: role, Content: strings.Join(args, " ")}
			if m.CategoryID, m.AccountID, err = lookupRefs(s, category, account); err != nil {
				return err
			}
			if txID > 0 {
				m.TransactionID = &txID
			}
			id, ok := s.Messages().Add(m)
			if !ok {
				return fmt.Errorf("message was not added")
			}
			return a.emit(cmd.OutOrStdout(), map[string]int64{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Added message %d\n", id)
			})
		},
	}
	add.Flags().StringVar(&role, "role", types.RoleUser, "user or assistant")
	add.Flags().Int64Var(&txID, "tx", 0, "id of the transaction this message produced")
	add.Flags().StringVar(&category, "category", "", "referenced category name")
	add.Flags().StringVar(&account, "account", "", "referenced account name")

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the conversation log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			log := s.Messages().Log()
			return a.emit(cmd.OutOrStdout(), log, func() {
				out := cmd.OutOrStdout()
				if len(log) == 0 {
					fmt.Fprintln(out, "No messages.")
					return
				}
				for _, m := range log {
					fmt.Fprintf(out, "[%d] %s: %s\n", m.ID, m.Role, m.Content)
					if m.TransactionID != nil {
						fmt.Fprintf(out, "     -> transaction %d: %s %s\n", *m.TransactionID, m.TransactionAmount.StringFixed(2), m.TransactionNote)
					}
					if m.CategoryName != "" || m.AccountName != "" {
						fmt.Fprintf(out, "     -> %s %s / %s %s\n", m.CategoryEmoji, m.CategoryName, m.AccountEmoji, m.AccountName)
					}
				}
			})
		},
	}

	cmd.AddCommand(add, list)
	return cmd
}
