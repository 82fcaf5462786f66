package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"finitefield.org/mitienda-web/internal/config"
	"finitefield.org/mitienda-web/internal/observability"
)

// cli carries state shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *zap.Logger
}

// flagKeys maps persistent flags onto configuration keys. A flag only overrides the
// configuration when it is set on the command line.
var flagKeys = map[string]string{
	"log-level":      config.KeyLogLevel,
	"storage-driver": config.KeyStorageDriver,
	"storage-dsn":    config.KeyStorageDSN,
	"lang":           config.KeyDefaultLang,
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:   "mitienda",
		Short: "Mi Tienda storefront",
		Long: `Mi Tienda renders a small product catalog with a cart kept per visitor.
It serves the storefront over HTTP, renders static pages and edits the local cart.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.logger != nil {
				_ = c.logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "config file (YAML)")
	flags.String("log-level", "", "log level: debug, info, warn, error")
	flags.String("storage-driver", "", "cart storage driver: memory, file, sqlite")
	flags.String("storage-dsn", "", "cart storage location: directory (file) or database (sqlite)")
	flags.String("lang", "", "default language")

	root.AddCommand(
		newServeCmd(c),
		newCartCmd(c),
		newRenderCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			c.v.Set(key, f.Value.String())
		}
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		c.v.Set(config.KeyHTTPAddr, f.Value.String())
	}

	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	c.cfg = cfg
	c.logger = logger.With(zap.String("env", cfg.Env))
	return nil
}
