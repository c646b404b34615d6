package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/msomdec/stitch-flow/internal/app"
	"github.com/msomdec/stitch-flow/internal/config"
	"github.com/msomdec/stitch-flow/internal/domain"
	"github.com/msomdec/stitch-flow/internal/handler"
)

// cli carries what the persistent pre-run loads for every command.
type cli struct {
	configPath string
	cfg        *config.Config
	level      slog.Level
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:          "stitch-flow",
		Short:        "Onboarding, navigation and project tracking for knitters and crocheters",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			level, err := cfg.Level()
			if err != nil {
				return err
			}
			c.cfg, c.level = cfg, level
			return nil
		},
		RunE: c.runServe,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "optional YAML config file; environment variables override it")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API (default)",
			Args:  cobra.NoArgs,
			RunE:  c.runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply schema migrations and import the legacy profile",
			Args:  cobra.NoArgs,
			RunE:  c.runMigrate,
		},
		c.newStateCmd(),
		&cobra.Command{
			Use:   "screens",
			Short: "List every screen and its view",
			Args:  cobra.NoArgs,
			RunE:  runScreens,
		},
	)
	return root
}

// serverLogger writes text to stdout and JSON to stderr.
func (c *cli) serverLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level}
	return slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, opts),
		slog.NewJSONHandler(os.Stderr, opts),
	))
}

// toolLogger keeps stdout free for command output.
func (c *cli) toolLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.level}))
}

func (c *cli) runServe(cmd *cobra.Command, args []string) error {
	logger := c.serverLogger()
	slog.SetDefault(logger)

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, closeStores, err := app.Open(ctx, c.cfg, logger)
	if err != nil {
		logger.Error("failed to open stores", "error", err)
		return err
	}
	defer closeStores()

	if err := a.Boot(ctx); err != nil {
		// The screen flow still works; the error is shown, not fatal.
		logger.Error("boot finished with errors", "error", err)
	}

	srv := &http.Server{
		Addr:              c.cfg.Addr(),
		Handler:           handler.NewServer(a, logger),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
		// Event streams end when the server shuts down.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", "error", err)
			return err
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		return err
	}
	logger.Info("server stopped")
	return nil
}

func (c *cli) runMigrate(cmd *cobra.Command, args []string) error {
	logger := c.toolLogger(cmd.ErrOrStderr())
	ctx := cmd.Context()

	a, closeStores, err := app.Open(ctx, c.cfg, logger)
	if err != nil {
		return err
	}
	defer closeStores()

	migrated, err := a.Migration.MigrateIfNeeded(ctx)
	if err != nil {
		return err
	}
	if migrated {
		fmt.Fprintln(cmd.OutOrStdout(), "legacy profile imported")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to import")
	}
	return nil
}

func (c *cli) newStateCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Boot the app and print the state the presentation would receive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q: use json or yaml", format)
			}
			logger := c.toolLogger(cmd.ErrOrStderr())
			ctx := cmd.Context()

			a, closeStores, err := app.Open(ctx, c.cfg, logger)
			if err != nil {
				return err
			}
			defer closeStores()
			if err := a.Boot(ctx); err != nil {
				return err
			}

			view, err := handler.NewStateView(a.State())
			if err != nil {
				return err
			}
			return writeState(cmd.OutOrStdout(), format, view)
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "output format: json or yaml")
	return cmd
}

func writeState(w io.Writer, format string, view handler.StateView) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view)
}

func runScreens(cmd *cobra.Command, args []string) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCREEN\tREGION\tNEXT\tTITLE")
	for _, s := range domain.Screens() {
		v, err := handler.DescribeScreen(s)
		if err != nil {
			return err
		}
		next := string(v.Next)
		if next == "" {
			next = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Region, next, v.Title)
	}
	return tw.Flush()
}
