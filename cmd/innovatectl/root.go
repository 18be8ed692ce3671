package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// appHolder lets subcommands reach the app opened by the root pre-run and
// lets run close it whether or not the command failed.
type appHolder struct {
	app *app
}

func (h *appHolder) get() (*app, error) {
	if h == nil || h.app == nil {
		return nil, fmt.Errorf("innovatectl: not initialized")
	}
	return h.app, nil
}

func (h *appHolder) close() error {
	if h == nil || h.app == nil {
		return nil
	}
	err := h.app.Close()
	h.app = nil
	return err
}

func run(ctx context.Context, args []string, env environment) error {
	holder := &appHolder{}
	root := newRootCommand(env, holder)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, holder.close())
}

func newRootCommand(env environment, holder *appHolder) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "innovatectl",
		Short: "InnovateTogether profile override tooling",
		Long: `innovatectl manages the local overrides that decide which user profile is
loaded, and resolves the profile the same way the dashboard does.

Precedence: absolute profile URL, then fixed user id, then the signed-in session.

Example usage:
  innovatectl status
  innovatectl set-id 689a92d2e88fe639589bf7b0
  innovatectl --id-token "$TOKEN" resolve
  innovatectl clear-url`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if holder.app != nil {
				return nil
			}
			opened, err := openApp(cmd.Context(), env, *flags)
			if err != nil {
				return err
			}
			holder.app = opened
			return nil
		},
	}
	root.SetOut(env.stdout)
	root.SetErr(env.stderr)

	root.PersistentFlags().StringVar(&flags.dsn, "dsn", env.getenv(envDatabaseDSN), "preference database DSN (sqlite path or postgres:// URL)")
	root.PersistentFlags().StringVar(&flags.idToken, "id-token", env.getenv(envIDToken), "identity provider ID token used as the session")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")
	root.PersistentFlags().BoolVar(&flags.json, "json", false, "JSON output")
	root.PersistentFlags().BoolVar(&flags.metrics, "metrics", false, "print collected metrics to stderr on exit")
	root.PersistentFlags().DurationVar(&flags.cacheTTL, "cache-ttl", defaultCacheTTL, "preference read cache TTL")

	root.AddCommand(
		newStatusCommand(holder, flags),
		newResolveCommand(holder, flags),
		newSetURLCommand(holder),
		newClearURLCommand(holder),
		newSetIDCommand(holder, flags),
		newSetSubjectCommand(holder),
		newClearSubjectCommand(holder),
		newDevDefaultsCommand(holder, flags),
	)
	return root
}
