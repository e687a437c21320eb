package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	identityapp "github.com/printapi/backend/internal/application/identity"
	"github.com/spf13/cobra"
)

func (a *app) userCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}
	cmd.AddCommand(a.userCreateCommand(), a.userRotateCommand(), a.userListCommand())
	return cmd
}

func (a *app) userCreateCommand() *cobra.Command {
	var apiKey string
	cmd := &cobra.Command{
		Use:   "create <email>",
		Short: "Register an API user and print its key",
		Long: `Register an API user. The generated key is printed once and only its
bcrypt hash is stored. Pass --key to choose the key yourself.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(svc *Services) error {
				result, err := svc.Users.Create(cmd.Context(), args[0], apiKey)
				if err != nil {
					return err
				}
				printCredentials(cmd, result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&apiKey, "key", "", "use this API key instead of generating one")
	return cmd
}

func (a *app) userRotateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rotate <email>",
		Short: "Issue a new key for an API user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(svc *Services) error {
				result, err := svc.Users.RotateKey(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printCredentials(cmd, result)
				return nil
			})
		},
	}
}

func (a *app) userListCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API users and their usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withServices(cmd, func(svc *Services) error {
				users, err := svc.Users.List(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(users)
				}
				return printUsers(cmd, users)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printCredentials(cmd *cobra.Command, result *identityapp.CreateUserResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "email:   %s\n", result.User.Email)
	fmt.Fprintf(out, "api key: %s\n", result.APIKey)
	fmt.Fprintln(cmd.ErrOrStderr(), "Store the key now, it cannot be shown again.")
}

func printUsers(cmd *cobra.Command, users []*identityapp.UserDTO) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tPRINTS\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", u.ID, u.Email, u.UsageCount, u.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}
