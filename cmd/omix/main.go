// Package main provides the omix command-line tool.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "omix",
		Short:   "Integrate genomic reference databases into annotation tables",
		Version: fmt.Sprintf("%s (%s) built %s", version, commit, date),
		Long: `omix loads reference databases (GENCODE gene models, GO annotations,
RNAcentral cross-references) into normalized tables and joins them onto
a caller-supplied set of gene or transcript identifiers.`,
		SilenceUsage: true,
	}

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newAnnotateCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// initConfig loads ~/.omix.yaml if present.
func initConfig() {
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".omix")
		viper.SetConfigType("yaml")
		_ = viper.ReadInConfig()
	}
	viper.SetDefault("species", "9606")
	viper.SetConfigFile(configFilePath())
}

// configFilePath returns the config file location.
func configFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".omix.yaml"
	}
	return filepath.Join(home, ".omix.yaml")
}
