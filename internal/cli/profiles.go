package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the people money is shared with",
	}

	var p types.Profile
	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p.Name = args[0]
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			id, ok := s.Profiles().Add(p)
			if !ok {
				return fmt.Errorf("profile %q was not added", p.Name)
			}
			return a.emit(cmd.OutOrStdout(), map[string]int64{"id": id}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Added profile %d\n", id)
			})
		},
	}
	add.Flags().StringVar(&p.Email, "email", "", "email address")
	add.Flags().StringVar(&p.Phone, "phone", "", "phone number")
	add.Flags().BoolVar(&p.IsSelf, "self", false, "this profile is you")

	list := &cobra.Command{
		Use:   "list",
		Short: "List profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			profiles := s.Profiles().List()
			return a.emit(cmd.OutOrStdout(), profiles, func() {
				rows := make([][]string, len(profiles))
				for i, x := range profiles {
					self := ""
					if x.IsSelf {
						self = "yes"
					}
					rows[i] = []string{idString(x.ID), x.Name, x.Email, x.Phone, self}
				}
				printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "PHONE", "SELF"}, rows)
			})
		},
	}

	imp := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import profiles, matching existing ones by email or phone",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var profiles []types.Profile
			if err := readJSONFile(args[0], &profiles); err != nil {
				return err
			}
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			ids := s.Profiles().Import(profiles)
			return a.emit(cmd.OutOrStdout(), map[string][]int64{"ids": ids}, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d profile(s)\n", len(ids), len(profiles))
			})
		},
	}

	cmd.AddCommand(add, list, imp)
	return cmd
}
