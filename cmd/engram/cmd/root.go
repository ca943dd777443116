package cmd

import (
	"github.com/engramhq/engram/config"
	"github.com/engramhq/engram/internal/mylog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootParams struct {
	ConfigFile string
	DSN        string
}

func NewRootCmd() *cobra.Command {
	params := &rootParams{}

	cmd := &cobra.Command{
		Use:          "engram",
		Short:        "Multi-tenant memory and knowledge graph engine",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&params.ConfigFile, "config", "c", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&params.DSN, "dsn", "", "Database DSN (overrides config)")

	cmd.AddCommand(
		newMigrateCmd(params),
		newExportCmd(params),
		newKeygenCmd(params),
	)

	return cmd
}

// loadConfig resolves defaults, the optional config file, and flag overrides,
// in that order.
func (p *rootParams) loadConfig() (*config.Config, *mylog.Logger, error) {
	_ = godotenv.Load()

	conf := config.NewConfig()
	if p.ConfigFile != "" {
		loaded, err := config.LoadFromFile(p.ConfigFile)
		if err != nil {
			return nil, nil, err
		}
		conf = loaded
	}
	if p.DSN != "" {
		conf.Database.DSN = p.DSN
	}

	logger := mylog.NewLogger(conf.Log.LogLevel, conf.Log.LogHandler)

	return conf, logger, nil
}
