package cmd

import (
	"os"

	"github.com/spf13/cobra"

	llmx "github.com/tanpawarit/storage-chat-agent/agent/llm"
	configx "github.com/tanpawarit/storage-chat-agent/pkg/config"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the models that can be selected",
	RunE: func(cmd *cobra.Command, args []string) error {
		selected := llmx.DefaultModel
		if cfg, err := configx.New[llmx.Config]("LLM"); err == nil && cfg.Model != "" {
			selected = cfg.Model
		}
		printModels(os.Stdout, selected)
		return nil
	},
}
