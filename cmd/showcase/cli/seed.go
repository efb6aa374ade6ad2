package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/service"
)

func newSeedCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load admins and content from a YAML seed file",
		Long: `Apply a YAML seed file to the content store. Pricing tiers and projects
are matched by slug and updated in place; existing admin accounts are left
untouched. ${VAR} references in the file are expanded from the environment.`,
		Example: `  showcase seed --file seed.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := config.LoadSeedFile(file)
			if err != nil {
				return err
			}

			store, settings, err := storeForCommand()
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := store.ApplySeed(context.Background(), seed, service.PasswordHasher(settings.Auth.BcryptCost))
			if err != nil {
				return fmt.Errorf("apply seed: %w", err)
			}

			fmt.Printf("Seed applied from %s\n", file)
			fmt.Printf("  Admins:   %d created, %d already present\n", res.AdminsCreated, res.AdminsSkipped)
			fmt.Printf("  Pricing:  %d tiers\n", res.Tiers)
			fmt.Printf("  Projects: %d\n", res.Projects)
			if res.Contact {
				fmt.Println("  Contact:  updated")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "Seed file path")

	return cmd
}
