package main

import (
	"fmt"

	"github.com/spf13/cobra"

	corecmd "github.com/m3rciful/topicbot/core/cmd"
	coreconfig "github.com/m3rciful/topicbot/core/config"
	coredatabase "github.com/m3rciful/topicbot/core/database"
	"github.com/m3rciful/topicbot/core/logger"
	"github.com/m3rciful/topicbot/internal/catalogue"
)

type publishConfig struct {
	Logging  coreconfig.LoggingConfig `yaml:"logging"`
	Database coredatabase.Config      `yaml:"database"`
}

func newPublishCmd(flags *rootFlags) *cobra.Command {
	var (
		cfgPath string
		cfg     publishConfig
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Migrate the database and replace the stored catalogue",
		Long: `Publish validates the catalogue, applies pending migrations and replaces the
stored catalogue in one transaction. Database settings come from the bot
config file and the DB_* / DATABASE_URL environment variables.`,
		Args: cobra.NoArgs,
		// Replaces the root hook: logging settings come from the config file.
		PersistentPreRunE: func(*cobra.Command, []string) error {
			path, err := corecmd.ConfigPath("CONFIG_PATH", cfgPath)
			if err != nil {
				return err
			}
			if err := coreconfig.Decode(path, &cfg); err != nil {
				return err
			}
			if cfg.Logging.Output == "" {
				cfg.Logging.Output = "stderr"
			}
			return logger.InitLogger(&coreconfig.Config{Logging: cfg.Logging})
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if cfg.Database.MigrationsDir == "" {
				cfg.Database.MigrationsDir = "migrations"
			}

			d, err := flags.loadData(cmd)
			if err != nil {
				return err
			}
			if err := coredatabase.RunMigrations(ctx, cfg.Database); err != nil {
				return err
			}
			db, err := coredatabase.Connect(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			st, err := catalogue.Publish(ctx, db, d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Published %d classes, %d topics, %d images, %d tests, %d sources\n",
				st.Classes, st.Topics, st.Images, st.Tests, st.Sources)
			return nil
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "bot config file with the database section")
	return cmd
}
