package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/showcasehq/showcase/internal/config"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage Showcase configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefaultConfig(path); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Configuration written to %s\n", path)
			fmt.Println("Set auth.secret (or SHOWCASE_AUTH_SECRET) before running 'showcase serve'.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "showcase.yaml", "Output path")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Print the configuration after merging the config file, environment, and defaults. Secrets are redacted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(viper.GetViper())
			if err != nil {
				return err
			}
			redactSecrets(settings)

			if used := viper.ConfigFileUsed(); used != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "# config file: %s\n", used)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "# no config file found, showing defaults and environment")
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(settings)
		},
	}
}

func redactSecrets(c *config.YAMLConfig) {
	if c.Auth.Secret != "" {
		c.Auth.Secret = redacted
	}
	if c.Reviews.APIKey != "" {
		c.Reviews.APIKey = redacted
	}
}
