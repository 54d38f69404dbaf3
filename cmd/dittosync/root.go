package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootFlags holds the flags of the sync command.
type rootFlags struct {
	ConfigPath string
	LogLevel   string

	// SourceBackend and DestinationBackend override source.type and
	// destination.type from the config file.
	SourceBackend      string
	DestinationBackend string
}

// flagAliases maps short flag spellings to their canonical names.
var flagAliases = map[string]string{
	"fs1": "file_system1",
	"fs2": "file_system2",
}

func newRootCommand() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "dittosync [flags] SOURCE DESTINATION",
		Short: "Make a destination directory match a source directory",
		Long: `DittoSync reconciles DESTINATION to match SOURCE.

Files only in SOURCE are copied, files only in DESTINATION are removed, and
files whose content matches but whose name differs are renamed instead of
being copied again. File identity is content: a digest narrows candidates and
a byte-for-byte comparison confirms them. SOURCE is never modified.

SOURCE and DESTINATION are interpreted by the selected backend:
  filesystem  a directory path
  memory      a label (volatile, for testing)
  s3          a key prefix inside the configured bucket
  badger      a namespace inside the configured database`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd.Context(), cmd.OutOrStdout(), flags, args[0], args[1])
		},
	}

	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/dittosync/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "Log level override (DEBUG, INFO, WARN, ERROR)")
	cmd.Flags().StringVar(&flags.SourceBackend, "file_system1", "", "Source backend: filesystem, memory, s3, badger (or legacy index 0)")
	cmd.Flags().StringVar(&flags.DestinationBackend, "file_system2", "", "Destination backend: filesystem, memory, s3, badger (or legacy index 0)")
	cmd.Flags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if canonical, ok := flagAliases[name]; ok {
			name = canonical
		}
		return pflag.NormalizedName(name)
	})

	cmd.AddCommand(newInitCommand())
	return cmd
}

// legacyArgs rewrites the single-dash -fs1/-fs2 spellings accepted by
// earlier releases into flags pflag can parse.
func legacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") {
			name, _, _ := strings.Cut(arg[1:], "=")
			if _, ok := flagAliases[name]; ok {
				arg = "-" + arg
			}
		}
		out = append(out, arg)
	}
	return out
}
