package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/showcasehq/showcase/internal/config"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve and telemetry
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "showcase",
		Short: "Marketing site with a signed-in admin area",
		Long: `Showcase serves a marketing site (home, pricing, projects) from a small
content store, with an admin area behind email/password sign-in.

Sessions are signed tokens carried in HttpOnly cookies. Rendered pages are
cached by tag and invalidated when content changes in the admin area.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./showcase.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the SQLite store (default: ~/.showcase)")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newAdminCmd())
	cmd.AddCommand(newSeedCmd())
	cmd.AddCommand(newOpenAPICmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("showcase")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.showcase")
	}

	viper.SetEnvPrefix("SHOWCASE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults(viper.GetViper(), config.DefaultYAMLConfig())
	viper.ReadInConfig() // Ignore error - config file is optional
}

// setDefaults registers every known key so AutomaticEnv can resolve it even
// when the key is absent from the config file.
func setDefaults(v *viper.Viper, d *config.YAMLConfig) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.rate_limit_per_minute", d.Server.RateLimitPerMinute)

	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.max_age", d.Auth.MaxAge)
	v.SetDefault("auth.cookie_name", d.Auth.CookieName)
	v.SetDefault("auth.secure_cookies", d.Auth.SecureCookies)
	v.SetDefault("auth.bcrypt_cost", d.Auth.BcryptCost)
	v.SetDefault("auth.login_rate_per_minute", d.Auth.LoginRatePerMinute)

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("cache.redis_url", d.Cache.RedisURL)
	v.SetDefault("cache.page_ttl", d.Cache.PageTTL)

	v.SetDefault("reviews.url", d.Reviews.URL)
	v.SetDefault("reviews.api_key", d.Reviews.APIKey)
	v.SetDefault("reviews.revalidate", d.Reviews.Revalidate)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("site.name", d.Site.Name)
	v.SetDefault("site.languages", d.Site.Languages)
}

// loadSettings decodes the effective configuration (defaults, config file,
// SHOWCASE_* environment) into a YAMLConfig.
func loadSettings(v *viper.Viper) (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode configuration: %w", err)
	}
	// Comma-separated lists arrive from the environment as one string.
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	cfg.Site.Languages = splitList(cfg.Site.Languages)
	return cfg, nil
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
