package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/metrics"
	"github.com/matzehuels/taxotree/pkg/server"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		root       string
		noCache    bool
		sessionTTL time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser explorer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.cfg.Serve.Addr
			}
			dir, err := taxonomy.ParseDirection(c.cfg.Direction)
			if err != nil {
				return err
			}

			artifacts, closeCache, err := c.newArtifacts(ctx, noCache)
			if err != nil {
				return err
			}
			defer closeCache()

			var reg *metrics.Registry
			if c.cfg.Serve.Metrics {
				reg = metrics.NewRegistry()
				reg.Install()
			}

			srv := server.New(server.Config{
				Source: c.newSource(),
				Explorer: explorer.Options{
					Direction:         dir,
					IncludeDeprecated: c.cfg.IncludeDeprecated,
				},
				DefaultRoot: root,
				Artifacts:   artifacts,
				Metrics:     reg,
				SessionTTL:  sessionTTL,
				Logger:      c.Logger,
			})

			printSuccess("Explorer at http://%s", addr)
			printDetail("Backend: %s", c.cfg.ServerURL)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", "", "listen address (default from config)")
	f.StringVar(&root, "root", "", "concept every new session starts at")
	f.BoolVar(&noCache, "no-cache", false, "disable the rendered-scene cache")
	f.DurationVar(&sessionTTL, "session-ttl", 2*time.Hour, "drop sessions idle for this long")
	return cmd
}
