package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dzjyyds666/aqtoml/internal/options"
)

var opts = &options.Options{}

// log is replaced by initLogging once flags are parsed.
var log = options.NewLogger(options.DefaultLogLevelStr)

var rootCmd = &cobra.Command{
	Use:               "aq",
	Short:             "Aq converts structured data into TOML.",
	Long:              "Aq is a tool for turning YAML and JSON documents into TOML. It keeps key order, writes nested mappings as [sections] and lists of mappings as [[arrays of tables]].",
	PersistentPreRunE: initLogging,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Aq",
	Long:  `All software has versions. This is Aq's`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Aq v0.2 -- HEAD")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&opts.LogLevel,
		options.ConfigKeyLogLevel,
		options.DefaultLogLevelStr,
		"the logging verbosity (trace, debug, info, warn, error)",
	)
	rootCmd.PersistentFlags().StringVar(
		&opts.ConfigFile,
		options.ConfigKeyConfigFile,
		options.DefaultConfigFile,
		"config file location (default ./.aq.yaml)",
	)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(tomlCmd)
}

func initLogging(*cobra.Command, []string) error {
	if _, err := logrus.ParseLevel(opts.LogLevel); err != nil {
		return fmt.Errorf("setting up logger: %w", err)
	}
	log = options.NewLogger(opts.LogLevel)
	return nil
}
