// Package cmd holds the command-line entry points of the support backend.
package cmd

import (
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/chative-support/pkg/config"
	logx "github.com/tanpawarit/chative-support/pkg/logger"
)

var (
	envFile      string
	storeBackend string
)

var rootCmd = &cobra.Command{
	Use:   "chative-support",
	Short: "Multi-agent customer support chat backend",
	Long: `chative-support routes each customer message to a support, order or billing
agent, lets that agent call store-backed tools, and keeps the conversation history.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configx.SetEnvFile(envFile)
		// The autoload import already configured logging from ./.env; redo it
		// in case --env points elsewhere.
		conf, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*conf)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "record store backend: memory or postgres (overrides APP_STORE)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentsCmd)
}
