package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/showcasehq/showcase/internal/cache"
	"github.com/showcasehq/showcase/internal/mcp"
	"github.com/showcasehq/showcase/internal/reviews"
)

func newMCPCmd() *cobra.Command {
	var (
		transport string
		port      int
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve site content to AI agents over the Model Context Protocol",
		Long: `Start an MCP server exposing read-only tools and resources for pricing,
projects, contact details, and reviews. The stdio transport is meant to be
launched by an MCP client; the http transport listens on --port.`,
		Example: `  showcase mcp
  showcase mcp --transport http --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, settings, err := storeForCommand()
			if err != nil {
				return err
			}
			defer store.Close()

			// stdout belongs to the protocol on stdio.
			logger := newLogger(os.Stderr, settings.Log, false)

			revalidate, err := parseDuration("reviews.revalidate", settings.Reviews.Revalidate, time.Hour)
			if err != nil {
				return err
			}
			rc := reviews.NewClient(reviews.Config{
				URL:        settings.Reviews.URL,
				APIKey:     settings.Reviews.APIKey,
				Revalidate: revalidate,
				Logger:     logger,
			}, cache.NewMemory())

			srv := mcp.NewMCPServer(settings.Site.Name, versionString(), store, rc, logger)

			switch transport {
			case "stdio":
				return srv.ServeStdio()
			case "http":
				addr := fmt.Sprintf(":%d", port)
				fmt.Fprintf(os.Stderr, "MCP server listening on http://localhost%s/mcp\n", addr)
				return srv.ServeHTTP(addr)
			default:
				return fmt.Errorf("unknown transport %q (use stdio or http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport: stdio or http")
	cmd.Flags().IntVar(&port, "port", 3001, "Port for the http transport")

	return cmd
}
