package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// knownConfigKeys are the settings omix reads, with a short description
// shown on errors and in `config` output.
var knownConfigKeys = map[string]string{
	"species": "NCBI taxon id used to filter RNAcentral rows (e.g. 9606)",
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage omix configuration",
		Long:  "Show, get, or set configuration values. Config is stored in ~/.omix.yaml.",
		Example: `  omix config                    # show all config
  omix config set species 10090  # annotate mouse by default
  omix config get species        # get a value`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow()
		},
	}

	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())

	return cmd
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(args[0], args[1])
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(args[0])
		},
	}
}

func runConfigShow() error {
	settings := viper.AllSettings()
	if len(settings) == 0 {
		fmt.Println("# No configuration set. Config file: ~/.omix.yaml")
		for _, key := range configKeyNames() {
			fmt.Printf("#   %s: %s\n", key, knownConfigKeys[key])
		}
		return nil
	}

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	fmt.Print(string(out))
	return nil
}

func runConfigSet(key, value string) error {
	if err := validateConfigEntry(key, value); err != nil {
		return err
	}
	viper.Set(key, value)

	cfgFile := viper.ConfigFileUsed()
	if cfgFile == "" {
		cfgFile = configFilePath()
	}

	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Printf("Set %s = %s in %s\n", key, value, cfgFile)
	return nil
}

func runConfigGet(key string) error {
	if _, ok := knownConfigKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(configKeyNames(), ", "))
	}
	val := viper.Get(key)
	if val == nil {
		return fmt.Errorf("key %q is not set", key)
	}
	fmt.Println(val)
	return nil
}

// validateConfigEntry rejects unknown keys and malformed values before
// anything is written to the config file.
func validateConfigEntry(key, value string) error {
	if _, ok := knownConfigKeys[key]; !ok {
		return fmt.Errorf("unknown config key %q (known keys: %s)", key, strings.Join(configKeyNames(), ", "))
	}
	switch key {
	case "species":
		if value == "" || strings.TrimLeft(value, "0123456789") != "" {
			return fmt.Errorf("species must be a numeric NCBI taxon id, got %q", value)
		}
	}
	return nil
}

func configKeyNames() []string {
	names := make([]string, 0, len(knownConfigKeys))
	for k := range knownConfigKeys {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
