// Package cmd wires the storage chat agent into a command line tool.
package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	configx "github.com/tanpawarit/storage-chat-agent/pkg/config"
	logx "github.com/tanpawarit/storage-chat-agent/pkg/logger"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:   "storage-chat",
	Short: "Chat with a model that reads and writes local storage",
	Long: `storage-chat is a terminal chat client. The model can read and change a
small set of typed storage keys (calculation, flag, note, theme) through tools.

Configuration comes from the environment or an env file:
  LLM_*      provider endpoint, API key, model, sampling
  STORAGE_*  storage backend (memory, badger, upstash, postgres)
  CHAT_*     chain length, session file
  LOG_*      logging`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile == "" {
			return nil
		}
		configx.SetEnvFile(envFile)
		conf, err := configx.New[logx.Config]("LOG")
		if err != nil {
			return err
		}
		logx.Init(*conf)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "path to .env file")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(storageCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}
