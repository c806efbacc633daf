package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"finance/internal/amqp"
	"finance/internal/diag"
	"finance/internal/log"
	"finance/internal/middleware/ratelimit"
	"finance/internal/resolver"
	"finance/internal/worker"
)

const shutdownTimeout = 30 * time.Second

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "finance",
		Short: "Route discovery and envelope handling for the finance API",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			LoadEnvFile()
		},
	}

	rootCmd.AddCommand(
		newResolveCommand(),
		newRoutesCommand(),
		newInvalidateCommand(),
		newResetCommand(),
		newGetCommand(),
		newMoneyCommand(),
		newServeCommand(),
		newWatchCommand(),
	)

	return rootCmd
}

// withApp loads configuration, builds the app and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) error {
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		return err
	}
	logger := SetupLogger(cfg, cmd.ErrOrStderr())

	ctx := log.NewContext(cmd.Context(), logger)
	app, err := NewApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("Cleanup failed", log.FieldError, err)
		}
	}()
	return fn(ctx, app)
}

func newResolveCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "resolve [key...]",
		Short: "Resolve route keys against the configured backend",
		Example: "  finance resolve accounts recurrences\n" +
			"  finance resolve --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args, all)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, key := range keys {
					path, err := app.Resolver.Resolve(ctx, key)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\n", key, path)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "resolve every route key")
	return cmd
}

func newRoutesCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List cached route resolutions for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				return printRoutes(cmd.OutOrStdout(), app.Resolver.Snapshot(ctx), asJSON)
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newInvalidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <key>...",
		Short: "Forget the resolution of the given route keys",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := parseKeys(args, false)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				for _, key := range keys {
					if err := app.Resolver.Invalidate(ctx, key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget every route resolution for the configured backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				return app.Resolver.Reset(ctx)
			})
		},
	}
}

func newGetCommand() *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "get <key> [suffix]",
		Short: "Fetch a resource through its resolved route and print the unwrapped payload",
		Example: "  finance get accounts\n" +
			"  finance get transactions --param month=2024-05\n" +
			"  finance get recurrences 42/pause",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolver.ParseRouteKey(args[0])
			if err != nil {
				return err
			}
			suffix := ""
			if len(args) == 2 {
				suffix = args[1]
			}
			query := url.Values{}
			for _, p := range params {
				k, v, ok := strings.Cut(p, "=")
				if !ok || k == "" {
					return fmt.Errorf("param %q must look like name=value", p)
				}
				query.Add(k, v)
			}
			return withApp(cmd, func(ctx context.Context, app *App) error {
				var payload json.RawMessage
				if err := app.Client.Do(ctx, http.MethodGet, key, suffix, query, nil, &payload); err != nil {
					return err
				}
				if payload == nil {
					payload = json.RawMessage("null")
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			})
		},
	}

	cmd.Flags().StringArrayVar(&params, "param", nil, "query parameter as name=value, repeatable")
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the diagnostics HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				var opts []diag.Option
				if rc, ok := app.Backend.Store.(diag.ReadyChecker); ok {
					opts = append(opts, diag.WithReadyCheck(rc))
				}
				opts = append(opts, diag.WithCacheManager(app.Caches))
				if app.Config.DiagRateLimit > 0 {
					opts = append(opts, diag.WithRateLimit(ratelimit.NewLimiter(ratelimit.Config{
						RequestsPerMinute: app.Config.DiagRateLimit,
					})))
				}
				srv := diag.NewServer(net.JoinHostPort("", app.Config.Port), app.Resolver, app.Logger, opts...)

				syncCtx, stopSync := context.WithCancel(ctx)
				defer stopSync()
				if client, ok := app.Backend.Notifier.(*amqp.Client); ok {
					go func() {
						if err := worker.NewRouteSyncWorker(app.Resolver, app.Logger).Run(syncCtx, client); err != nil {
							app.Logger.Error("Route sync stopped", log.FieldError, err)
						}
					}()
				}

				shutdownCtx, done := GracefulShutdown(app.Logger, shutdownTimeout, func(ctx context.Context) {
					stopSync()
					if err := srv.Shutdown(ctx); err != nil {
						app.Logger.Error("Server shutdown failed", log.FieldError, err)
					}
				})

				app.Logger.InfoContext(ctx, "Diagnostics server listening",
					"addr", srv.Addr,
					log.FieldBaseURL, app.Resolver.BaseURL())
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return fmt.Errorf("diagnostics server: %w", err)
				}
				WaitForShutdown(shutdownCtx, done)
				return nil
			})
		},
	}
}

func newWatchCommand() *cobra.Command {
	var adopt bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print route resolution events published on AMQP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, app *App) error {
				client, ok := app.Backend.Notifier.(*amqp.Client)
				if !ok {
					return fmt.Errorf("watch needs AMQP_URL pointing at a reachable broker")
				}
				ctx, cancel := context.WithCancel(ctx)
				defer cancel()
				shutdownCtx, done := GracefulShutdown(app.Logger, shutdownTimeout, func(context.Context) { cancel() })

				syncer := worker.NewRouteSyncWorker(app.Resolver, app.Logger)
				enc := json.NewEncoder(cmd.OutOrStdout())
				err := client.ConsumeRouteResolved(ctx, func(msg *amqp.RouteResolvedMessage) error {
					if adopt {
						if err := syncer.HandleRouteResolved(ctx, msg); err != nil {
							return err
						}
					}
					return enc.Encode(msg)
				})
				if ctx.Err() != nil {
					WaitForShutdown(shutdownCtx, done)
					return nil
				}
				return err
			})
		},
	}

	cmd.Flags().BoolVar(&adopt, "sync", false, "also adopt announced routes into the local route store")
	return cmd
}

func parseKeys(args []string, all bool) ([]resolver.RouteKey, error) {
	if all {
		return resolver.AllRouteKeys(), nil
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("give at least one route key or --all")
	}
	keys := make([]resolver.RouteKey, 0, len(args))
	for _, arg := range args {
		key, err := resolver.ParseRouteKey(arg)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func printRoutes(out io.Writer, routes []resolver.ResolvedRoute, asJSON bool) error {
	if asJSON {
		if routes == nil {
			routes = []resolver.ResolvedRoute{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(routes)
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tPATH\tRESOLVED AT")
	for _, r := range routes {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Key, r.Path, r.ResolvedAt.Format(time.RFC3339))
	}
	return w.Flush()
}
