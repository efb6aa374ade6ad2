package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/showcasehq/showcase/internal/config"
	"github.com/showcasehq/showcase/internal/model"
	"github.com/showcasehq/showcase/internal/service"
)

const minPasswordLength = 8

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage admin accounts",
		Long:  "Create and list the accounts allowed to sign in to the admin area.",
	}

	cmd.AddCommand(newAdminCreateCmd())
	cmd.AddCommand(newAdminListCmd())

	return cmd
}

func newAdminCreateCmd() *cobra.Command {
	var (
		email    string
		password string
		name     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new admin account",
		Example: `  showcase admin create --email admin@example.com --password secret123
  showcase admin create --email admin@example.com  # prompts for password`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdminCreate(cmd.Context(), email, password, name)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Admin email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (prompted if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.MarkFlagRequired("email")

	return cmd
}

func runAdminCreate(ctx context.Context, email, password, name string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return fmt.Errorf("invalid email address %q", email)
	}

	if password == "" {
		var err error
		password, err = promptPassword()
		if err != nil {
			return err
		}
	}
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}

	store, settings, err := storeForCommand()
	if err != nil {
		return err
	}
	defer store.Close()

	hash, err := service.HashPassword(password, settings.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := &model.AdminUser{
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
	}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return fmt.Errorf("an admin with email %q already exists", email)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	fmt.Printf("Admin created: %s (id %s)\n", admin.Email, admin.ID)
	return nil
}

func promptPassword() (string, error) {
	fmt.Print("Password: ")
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Print("Confirm password: ")
	confirm, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(pw) != string(confirm) {
		return "", errors.New("passwords do not match")
	}
	return string(pw), nil
}

func newAdminListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List admin accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := storeForCommand()
			if err != nil {
				return err
			}
			defer store.Close()

			admins, err := store.ListAdmins(context.Background())
			if err != nil {
				return fmt.Errorf("list admins: %w", err)
			}

			if jsonOutput {
				identities := make([]model.UserIdentity, 0, len(admins))
				for i := range admins {
					identities = append(identities, admins[i].Identity())
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(identities)
			}

			if len(admins) == 0 {
				fmt.Println("No admin accounts. Create one with 'showcase admin create'.")
				return nil
			}

			fmt.Printf("%-36s  %-30s  %-20s  %s\n", "ID", "EMAIL", "NAME", "CREATED")
			for _, a := range admins {
				fmt.Printf("%-36s  %-30s  %-20s  %s\n", a.ID, a.Email, a.Name, a.CreatedAt.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}
