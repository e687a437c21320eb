// Package cli implements printctl, the administration command for API users
// and the PDF cache.
package cli

import (
	"context"
	"fmt"
	"time"

	identityapp "github.com/printapi/backend/internal/application/identity"
	printingapp "github.com/printapi/backend/internal/application/printing"
	"github.com/spf13/cobra"
)

// UserManager is the user administration surface printctl drives.
type UserManager interface {
	Create(ctx context.Context, email, apiKey string) (*identityapp.CreateUserResult, error)
	RotateKey(ctx context.Context, email string) (*identityapp.CreateUserResult, error)
	List(ctx context.Context) ([]*identityapp.UserDTO, error)
}

// CachePruner removes stale cache and scratch files.
type CachePruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (printingapp.PruneReport, error)
}

// Services are the dependencies a command runs against.
type Services struct {
	Users       UserManager
	Maintenance CachePruner
	// Close releases connections opened by the Loader. May be nil.
	Close func() error
}

// Loader builds Services from the config file at path (empty for the
// default search path).
type Loader func(ctx context.Context, configPath string) (*Services, error)

type app struct {
	load    Loader
	cfgFile string
	version string
}

// NewRootCommand returns the printctl command tree.
func NewRootCommand(load Loader, version string) *cobra.Command {
	a := &app{load: load, version: version}

	root := &cobra.Command{
		Use:   "printctl",
		Short: "Administer the print API",
		Long: `printctl manages the API users allowed to call the print endpoint and
cleans up the on-disk PDF cache.

Configuration is read the same way as the server: config.toml and
PRINTAPI_* environment variables.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./config.toml)")

	root.AddCommand(a.userCommand(), a.cacheCommand(), a.versionCommand())
	return root
}

// withServices loads the services, runs fn and releases them.
func (a *app) withServices(cmd *cobra.Command, fn func(*Services) error) error {
	svc, err := a.load(cmd.Context(), a.cfgFile)
	if err != nil {
		return err
	}
	if svc.Close != nil {
		defer func() { _ = svc.Close() }()
	}
	return fn(svc)
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "printctl %s\n", a.version)
		},
	}
}
