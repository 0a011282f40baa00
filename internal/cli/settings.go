package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newConfigCmd manages the key/value settings stored inside the database,
// not config.yaml.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and write settings stored in the database",
	}

	get := &cobra.Command{
		Use:   "get [key]",
		Short: "Print one setting, or all when no key is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if len(args) == 0 {
				all := s.Config().All()
				return a.emit(cmd.OutOrStdout(), all, func() {
					rows := make([][]string, len(all))
					for i, x := range all {
						rows[i] = []string{x.Key, x.Value}
					}
					printTable(cmd.OutOrStdout(), []string{"KEY", "VALUE"}, rows)
				})
			}
			v, ok := s.Config().Get(args[0])
			if !ok {
				return usageErrorf("setting %q is not set", args[0])
			}
			return a.emit(cmd.OutOrStdout(), map[string]string{"key": args[0], "value": v}, func() {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			})
		},
	}

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if !s.Config().Set(args[0], args[1]) {
				return fmt.Errorf("setting %q was not stored", args[0])
			}
			return nil
		},
	}

	cmd.AddCommand(get, set)
	return cmd
}
