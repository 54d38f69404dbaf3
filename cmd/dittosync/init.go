package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/dittosync/pkg/config"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample configuration file",
		Long: `Write a commented sample configuration file.

The file goes to --config when given, otherwise to the default location
($XDG_CONFIG_HOME/dittosync/config.yaml). An existing file is only replaced
with --force.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}

			if path == "" {
				path, err = config.InitConfig(force)
			} else {
				err = config.InitConfigToPath(path, force)
			}
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}
