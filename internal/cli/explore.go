package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

func (c *CLI) exploreCommand() *cobra.Command {
	var direction string

	cmd := &cobra.Command{
		Use:   "explore [id]",
		Short: "Browse the taxonomy in the terminal",
		Long: `Explore opens an interactive tree rooted at [id]. Without an id it
starts on the search box.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if direction == "" {
				direction = c.cfg.Direction
			}
			dir, err := taxonomy.ParseDirection(direction)
			if err != nil {
				return err
			}
			// The alternate screen owns the terminal, so the session logs
			// nowhere and failures show up in the status line instead.
			sess := explorer.New(c.newSource(), explorer.Options{
				Direction:         dir,
				IncludeDeprecated: c.cfg.IncludeDeprecated,
				Logger:            log.New(io.Discard),
			})

			var root string
			if len(args) == 1 {
				root = args[0]
			}
			ctx := cmd.Context()
			m := NewExplorerModel(ctx, sess, root, c.cfg.Labels, c.cfg.SearchLimit)
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			return err
		},
	}
	cmd.Flags().StringVarP(&direction, "direction", "d", "", "children or parents (default from config)")
	return cmd
}
