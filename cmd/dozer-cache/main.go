package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/getdozer/dozer-cache/pkg/cache"
	"github.com/getdozer/dozer-cache/pkg/log"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "dozer-cache",
	Short:   "Query a Dozer materialized cache endpoint from the command line",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"dozer-cache version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to the endpoint's YAML config (required)")
	rootCmd.PersistentFlags().String("data-dir", "./dozer-cache-data", "Directory the endpoint's database lives in")
	_ = rootCmd.MarkPersistentFlagRequired("config")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(tailCmd)
	rootCmd.AddCommand(schemaCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}

// openEndpoint loads the endpoint named by --config and opens it under
// --data-dir, the way every subcommand below gets at its Endpoint.
func openEndpoint(cmd *cobra.Command) (*cache.Endpoint, error) {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")

	cfg, err := cache.LoadEndpointConfig(configPath)
	if err != nil {
		return nil, err
	}
	return cache.Open(cfg, dataDir, log.Logger)
}
