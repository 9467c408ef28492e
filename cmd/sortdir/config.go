package main

import (
	"fmt"
	"os"

	"github.com/fenilsonani/sortdir/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	var initConfig bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Display current configuration",
		Long: `Shows the config file in use and the effective configuration after
defaults and SORTDIR_* environment variables are applied. --init writes the
default configuration if the file does not exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			out := cmd.OutOrStdout()

			cfgPath, err := global.resolveConfigPath()
			if err != nil {
				return err
			}

			if initConfig {
				if _, err := os.Stat(cfgPath); err == nil {
					fmt.Fprintf(out, "Config file already exists: %s\n", cfgPath)
					return nil
				}
				if err := config.Save(config.GetDefault(), cfgPath); err != nil {
					return err
				}
				fmt.Fprintf(out, "Created config file: %s\n", cfgPath)
				return nil
			}

			fmt.Fprintf(out, "Config file: %s\n", cfgPath)
			if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config file does not exist. Using default configuration.")
				fmt.Fprintln(out, "Run 'sortdir config --init' to create it.")
			}

			cfg, err := global.loadConfig()
			if err != nil {
				return err
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%s", data)
			return nil
		},
	}

	cmd.Flags().BoolVar(&initConfig, "init", false, "create the config file with defaults")

	return cmd
}
