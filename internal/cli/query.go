package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	taxonomyclient "github.com/matzehuels/taxotree/pkg/integrations/taxonomy"
	"github.com/matzehuels/taxotree/pkg/search"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

func (c *CLI) searchCommand() *cobra.Command {
	var (
		mode  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search concepts by label or id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = c.cfg.SearchLimit
			}
			req := search.Request{
				Query:             strings.Join(args, " "),
				Mode:              taxonomy.SearchMode(mode),
				Limit:             limit,
				IncludeDeprecated: c.cfg.IncludeDeprecated,
			}
			req = req.Normalize()
			if err := req.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			res, _ := spin(ctx, "Searching...", func(ctx context.Context) (search.Outcome, error) {
				return search.Run(ctx, c.newSource(), req, loggerFromContext(ctx)), nil
			})
			printSearchResults(res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", string(taxonomy.SearchByLabel), "match on label or id")
	cmd.Flags().IntVarP(&limit, "limit", "n", search.DefaultLimit, "maximum number of results")
	return cmd
}

func printSearchResults(res search.Outcome) {
	if res.Empty() {
		printWarning("%s", res.ErrorMessage)
		return
	}
	table := tablewriter.NewWriter(out)
	table.Header("Label", "ID", "Deprecated")
	for _, r := range res.Results {
		dep := ""
		if r.Deprecated() {
			dep = *r.Dep
		}
		_ = table.Append(r.Label, r.ID, dep)
	}
	_ = table.Render()
	printDetail("%d results", len(res.Results))
}

func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show the details of a concept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			info, err := spin(ctx, "Fetching...", func(ctx context.Context) (*taxonomy.NodeInfo, error) {
				return c.newSource().NodeInfo(ctx, args[0], c.cfg.IncludeDeprecated)
			})
			if err != nil {
				return err
			}
			printNodeInfo(info)
			return nil
		},
	}
}

func printNodeInfo(info *taxonomy.NodeInfo) {
	fmt.Fprintln(out, StyleTitle.Render(info.Label))
	printKeyValue("id", info.ID)
	if info.Definition != "" {
		printKeyValue("definition", info.Definition)
	}
	if info.Dep != nil && *info.Dep != "" {
		printKeyValue("deprecated", *info.Dep)
	}
	for _, p := range info.Parents {
		printKeyValue("parent", p)
	}
	for _, t := range info.Types {
		printKeyValue("type", t)
	}
	if len(info.Properties) == 0 {
		return
	}

	keys := make([]string, 0, len(info.Properties))
	for k := range info.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")
	for _, k := range keys {
		for _, v := range info.Properties[k] {
			_ = table.Append(k, v)
		}
	}
	_ = table.Render()
}

func (c *CLI) pingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the taxonomy backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := c.newSource()
			prog := newProgress(loggerFromContext(cmd.Context()))
			resp, err := spin(cmd.Context(), "Pinging "+src.BaseURL(), func(ctx context.Context) (*taxonomyclient.PingResponse, error) {
				return src.Ping(ctx)
			})
			if err != nil {
				printError("%s is not reachable", src.BaseURL())
				return err
			}
			prog.done("ping")
			printSuccess("%s is up", src.BaseURL())
			if resp.Message != "" {
				printDetail("%s", resp.Message)
			}
			return nil
		},
	}
}
