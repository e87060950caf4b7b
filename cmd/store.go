package cmd

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the record store tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(be *backend) error {
			if err := be.migrate(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("migration complete")
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace every record with the demo fixtures",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBackend(cmd, func(be *backend) error {
			if err := be.migrate(cmd.Context()); err != nil {
				return err
			}
			if err := be.seed(cmd.Context()); err != nil {
				return err
			}
			log.Info().Msg("seed complete")
			return nil
		})
	},
}

func withBackend(cmd *cobra.Command, fn func(*backend) error) error {
	appCfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	be, err := openBackend(cmd.Context(), *appCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := be.close(); err != nil {
			log.Warn().Err(err).Msg("close record store")
		}
	}()
	return fn(be)
}
