package cli

import (
	"github.com/spf13/cobra"
)

// initCommand creates the init command, which writes a configuration file
// holding the defaults.
func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default " + defaultConfigFile,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigFile
			if len(args) > 0 {
				path = args[0]
			}
			if err := WriteDefaultConfig(path); err != nil {
				return err
			}
			printSuccess("Wrote %s", path)
			printNextStep("Generate mocks", "jrevolver generate <layouts>")
			return nil
		},
	}
}
