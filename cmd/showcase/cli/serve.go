package cli

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/prefs"
	"github.com/showcasehq/showcase/internal/reviews"
	"github.com/showcasehq/showcase/internal/server"
	"github.com/showcasehq/showcase/internal/service"
	"github.com/showcasehq/showcase/internal/session"
	"github.com/showcasehq/showcase/internal/telemetry"
)

const banner = `
 ___  _  _  ___  _ _ _  ___  ___  ___  ___
/ __|| || |/ _ \| | | |/ __|/   \/ __|| __|
\__ \| __ | (_) | V V | (__ | - |\__ \| _|
|___/|_||_|\___/ \_/\_/\___||_|_||___/|___|
`

func newServeCmd() *cobra.Command {
	var (
		port       int
		host       string
		dev        bool
		background bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Showcase web server",
		Long: `Start the HTTP server for the public site, the admin area and the JSON API.

An auth secret is required (auth.secret or SHOWCASE_AUTH_SECRET). With --dev a
random secret is generated for the life of the process, so sessions do not
survive a restart.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if background {
				return startBackground()
			}
			return runServe(cmd.Context(), dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (debug logging, ephemeral secret if none is set)")
	cmd.Flags().BoolVarP(&background, "background", "b", false, "Run detached; logs go to the data directory")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(ctx context.Context, dev bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	settings, err := loadSettings(viper.GetViper())
	if err != nil {
		return err
	}

	logger := newLogger(os.Stderr, settings.Log, dev)
	slog.SetDefault(logger)

	fmt.Print(banner)
	fmt.Println()

	secret := settings.Auth.Secret
	if secret == "" {
		if !dev {
			return fmt.Errorf("%w: set auth.secret or SHOWCASE_AUTH_SECRET (or use --dev)", service.ErrConfigurationMissing)
		}
		secret, err = ephemeralSecret()
		if err != nil {
			return err
		}
		logger.Warn("no auth secret configured; using an ephemeral one (sessions end on restart)")
	}

	maxAge, err := parseDuration("auth.max_age", settings.Auth.MaxAge, service.DefaultMaxAge)
	if err != nil {
		return err
	}
	pageTTL, err := parseDuration("cache.page_ttl", settings.Cache.PageTTL, 5*time.Minute)
	if err != nil {
		return err
	}
	revalidate, err := parseDuration("reviews.revalidate", settings.Reviews.Revalidate, reviews.DefaultRevalidate)
	if err != nil {
		return err
	}
	shutdownTimeout, err := parseDuration("server.shutdown_timeout", settings.Server.ShutdownTimeout, 30*time.Second)
	if err != nil {
		return err
	}

	// 1. Content store
	store, err := openStore(settings.Database)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	logger.Info("store initialized", "driver", store.Driver())

	// 2. Page cache
	pageCache, err := cache.Open(ctx, settings.Cache.RedisURL)
	if err != nil {
		store.Close()
		return fmt.Errorf("init page cache: %w", err)
	}
	if settings.Cache.RedisURL != "" {
		logger.Info("page cache backed by redis")
	}

	// 3. Auth core and session cookies
	authSvc, err := service.NewAuthService(store, service.AuthConfig{
		Secret:   secret,
		MaxAge:   maxAge,
		HashCost: settings.Auth.BcryptCost,
	})
	if err != nil {
		pageCache.Close()
		store.Close()
		return err
	}
	transport := session.NewTransport(session.Options{
		Name:   settings.Auth.CookieName,
		Secure: settings.Auth.SecureCookies,
		MaxAge: maxAge,
	})

	// 4. Collaborators
	resolver, err := prefs.NewResolver(settings.Site.Languages)
	if err != nil {
		pageCache.Close()
		store.Close()
		return fmt.Errorf("site.languages: %w", err)
	}
	rc := reviews.NewClient(reviews.Config{
		URL:        settings.Reviews.URL,
		APIKey:     settings.Reviews.APIKey,
		Revalidate: revalidate,
		Logger:     logger,
	}, pageCache)

	shutdownTracing, err := telemetry.Setup(ctx, store, telemetry.Options{ServiceName: "showcase", Version: versionString()})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTracing(flushCtx)
	}()

	// 5. First-run check
	hasAdmin, err := store.HasAnyAdmin(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: showcase admin create")
	}

	// 6. Build and start HTTP server
	srvCfg := server.Config{
		Host:               settings.Server.Host,
		Port:               settings.Server.Port,
		ShutdownTimeout:    shutdownTimeout,
		CORSOrigins:        settings.Server.CORSOrigins,
		SiteName:           settings.Site.Name,
		PageTTL:            pageTTL,
		SecureCookies:      settings.Auth.SecureCookies,
		HashCost:           settings.Auth.BcryptCost,
		LoginRatePerMinute: settings.Auth.LoginRatePerMinute,
		APIRatePerMinute:   settings.Server.RateLimitPerMinute,
	}
	srv, err := server.New(srvCfg, server.Deps{
		Store:     store,
		Auth:      authSvc,
		Transport: transport,
		Cache:     pageCache,
		Reviews:   rc,
		Prefs:     resolver,
		Logger:    logger,
	})
	if err != nil {
		pageCache.Close()
		store.Close()
		return err
	}

	if err := writePID(os.Getpid()); err != nil {
		logger.Warn("failed to write PID file", "error", err)
	}
	defer removePID()

	host, port := settings.Server.Host, settings.Server.Port
	fmt.Printf("→ Showcase %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ Admin:      http://%s:%d/admin\n", host, port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", host, port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}

// startBackground re-executes the binary without --background, detached
// from the terminal, with output appended to the log file.
func startBackground() error {
	if pid, err := readPID(); err == nil && isProcessRunning(pid) {
		return fmt.Errorf("server already running (PID %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}
	if err := os.MkdirAll(resolveDataDir(), 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(logFilePath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	var args []string
	for _, a := range os.Args[1:] {
		if a == "--background" || a == "-b" || a == "--background=true" {
			continue
		}
		args = append(args, a)
	}

	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	setSysProcAttr(child)
	if err := child.Start(); err != nil {
		return fmt.Errorf("start server: %w", err)
	}

	fmt.Printf("Started showcase in the background (PID %d)\n", child.Process.Pid)
	fmt.Printf("  Logs: %s\n", logFilePath())
	fmt.Println("  Stop with: showcase stop")
	return child.Process.Release()
}

func ephemeralSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// storeForCommand opens the store for one-shot admin commands.
func storeForCommand() (*config.Store, *config.YAMLConfig, error) {
	settings, err := loadSettings(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	store, err := openStore(settings.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return store, settings, nil
}
