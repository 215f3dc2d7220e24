package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/taxotree/pkg/config"
)

// configCommand prints the effective configuration as TOML, ready to be
// saved as a config file.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cfg.Encode(out)
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			printInfo("%s", p)
			return nil
		},
	})
	return cmd
}
