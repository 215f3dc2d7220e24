package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/taxotree/pkg/buildinfo"
	"github.com/matzehuels/taxotree/pkg/cache"
	"github.com/matzehuels/taxotree/pkg/config"
	"github.com/matzehuels/taxotree/pkg/explorer"
	"github.com/matzehuels/taxotree/pkg/integrations"
	taxonomyclient "github.com/matzehuels/taxotree/pkg/integrations/taxonomy"
	"github.com/matzehuels/taxotree/pkg/taxonomy"
)

const appName = "taxotree"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	serverURL  string
	deprecated bool
	cfg        config.Config
}

// New creates a CLI writing log output to w.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), cfg: config.Default()}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           appName,
		Short:         "Taxotree explores a class hierarchy one level at a time",
		Long:          `Taxotree browses the children or parents tree of a taxonomy concept, fetching each level from the taxonomy backend only when it is expanded.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}
	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "config file (default ~/.config/taxotree/config.toml)")
	pf.StringVar(&c.serverURL, "server", "", "taxonomy backend URL")
	pf.BoolVar(&c.deprecated, "deprecated", false, "include deprecated concepts")

	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.pingCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig resolves the configuration and applies the persistent flags.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.ServerURL = c.serverURL
	}
	if flags.Changed("deprecated") {
		cfg.IncludeDeprecated = c.deprecated
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "server", cfg.ServerURL, "cache", cfg.Cache.Backend)
	return nil
}

// newSource creates the backend client from the loaded configuration.
func (c *CLI) newSource() *taxonomyclient.Client {
	return taxonomyclient.NewClient(c.cfg.ServerURL,
		integrations.WithRateLimit(c.cfg.RateLimit),
		integrations.WithTimeout(c.cfg.Timeout.Duration),
	)
}

// newSession creates an explorer session using the configured direction
// and deprecated filter. dir overrides the configured direction when set.
func (c *CLI) newSession(src taxonomy.Source, dir string) (*explorer.Session, error) {
	if dir == "" {
		dir = c.cfg.Direction
	}
	d, err := taxonomy.ParseDirection(dir)
	if err != nil {
		return nil, err
	}
	return explorer.New(src, explorer.Options{
		Direction:         d,
		IncludeDeprecated: c.cfg.IncludeDeprecated,
		Logger:            c.Logger,
	}), nil
}

// newCache opens the configured artifact cache backend.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cc := c.cfg.Cache
	if noCache {
		cc.Backend = "none"
	}
	switch cc.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cc.RedisAddr,
			Password: cc.RedisPassword,
			DB:       cc.RedisDB,
			Prefix:   cc.Prefix,
		})
	case "file":
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cc.Backend)
	}
}

// newArtifacts wraps the configured cache for rendered scenes.
func (c *CLI) newArtifacts(ctx context.Context, noCache bool) (*cache.Artifacts, func(), error) {
	backend, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, nil, err
	}
	// Scenes from different backends never share a key.
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cache.Hash([]byte(c.cfg.ServerURL))[:12]+":")
	closeFn := func() {
		if err := backend.Close(); err != nil {
			c.Logger.Warn("close cache", "err", err)
		}
	}
	return cache.NewArtifacts(backend, keyer), closeFn, nil
}

func (c *CLI) cacheDir() (string, error) {
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir, nil
	}
	return config.DefaultCacheDir()
}
