package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize tally storage",
		Long: "Write a default config.yaml if none exists, create the data directory\n" +
			"and save an empty database image with every table created.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.storeConfig()
			if err != nil {
				return err
			}
			// Only an explicit --data-dir is pinned into config.yaml.
			pinned := ""
			if a.dataDir != "" {
				pinned = cfg.DataDir
			}
			wrote, err := writeConfigIfMissing(a.configDir, pinned)
			if err != nil {
				return err
			}

			s, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			if err := s.Save(); err != nil {
				return fmt.Errorf("save image: %w", err)
			}

			out := cmd.OutOrStdout()
			if wrote {
				fmt.Fprintf(out, "Wrote %s/config.yaml\n", a.configDir)
			}
			fmt.Fprintf(out, "Tally initialized in %s\n", cfg.DataDir)
			return nil
		},
	}
}
