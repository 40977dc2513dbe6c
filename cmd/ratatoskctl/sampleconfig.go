package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sampleConfigCmd)
}

const sampleSettings = `resolver:
  default_catalog: uc_tarhone
  llm_timeout: 30s

llm:
  endpoint: https://my-workspace.openai.azure.com/openai/deployments/gpt-4o/chat/completions
  model: gpt-4o
  api_key: ""

databricks:
  host: https://adb-1234567890.12.azuredatabricks.net
  token: ""
  default_cluster_id: ""

server:
  port: 4000
`

var sampleConfigCmd = &cobra.Command{
	Use:   "sampleconfig",
	Short: "Print a sample settings file for the Ratatosk server",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Print(sampleSettings)
	},
}
