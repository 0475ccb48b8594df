// Package relcheck holds the cobra commands behind the relcheck binary.
package relcheck

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "relcheck",
	Short: "Audit concept relation tables for structural defects",
	Long: `Relcheck audits a pipe-delimited concept relation table for structural and
semantic defects: cycles in the parent-child hierarchy, mutual broader-than
contradictions, duplicate relation rows and self-referencing concepts.

Findings are written as timestamped CSV files or as tables in a DuckDB
database, together with run statistics.

Configuration can be provided through a config file, environment variables,
or command-line flags.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default relcheck.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-file", "", "append logs to this file as well as stderr")

	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.file", rootCmd.PersistentFlags().Lookup("log-file"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("relcheck")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.relcheck")
	}

	viper.SetEnvPrefix("RELCHECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
