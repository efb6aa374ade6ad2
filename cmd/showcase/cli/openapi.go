package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/showcasehq/showcase/internal/openapi"
)

func newOpenAPICmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI 3.0 document for the JSON API",
		Example: `  showcase openapi
  showcase openapi -o openapi.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(viper.GetViper())
			if err != nil {
				return err
			}

			doc := openapi.Generate(openapi.Info{
				Title:      settings.Site.Name,
				Version:    versionString(),
				BaseURL:    fmt.Sprintf("http://localhost:%d", settings.Server.Port),
				CookieName: settings.Auth.CookieName,
			})

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal openapi document: %w", err)
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Printf("OpenAPI document written to %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")

	return cmd
}
