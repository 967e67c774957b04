// Command csv2json converts a CSV file into a JSON array of records.
//
// Run without arguments it converts CSV2JSON_INPUT to CSV2JSON_OUTPUT.
// "convert" takes explicit paths and "serve" starts the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/JonMunkholm/csv2json/internal/config"
	"github.com/JonMunkholm/csv2json/internal/core"
	"github.com/JonMunkholm/csv2json/internal/logging"
	"github.com/JonMunkholm/csv2json/internal/web"
)

const extraFieldsFlagName = "extra-fields"

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if err := newApp(cfg).Run(os.Args); err != nil {
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err, followed by its support code when it maps to one.
func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "csv2json: %v\n", err)
	if core.IsUserFacing(err) {
		fmt.Fprintln(w, core.FormatUserError(err))
	}
}

// newApp builds the command tree around cfg.
func newApp(cfg *config.Config) *cli.App {
	extraFieldsFlag := &cli.StringFlag{
		Name:  extraFieldsFlagName,
		Value: cfg.Convert.ExtraFields,
		Usage: "what to do with fields beyond the header: drop or strict",
	}

	return &cli.App{
		Name:      "csv2json",
		Usage:     "convert a CSV file into a JSON array of records",
		ArgsUsage: " ",
		Flags:     []cli.Flag{extraFieldsFlag},
		Action: func(c *cli.Context) error {
			return runConvert(c, cfg.Convert.InputPath, cfg.Convert.OutputPath)
		},
		Commands: []*cli.Command{
			{
				Name:      "convert",
				Usage:     "convert INPUT to OUTPUT",
				ArgsUsage: "[input.csv] [output.json]",
				Flags:     []cli.Flag{extraFieldsFlag},
				Action: func(c *cli.Context) error {
					if c.NArg() > 2 {
						return fmt.Errorf("convert takes at most 2 arguments, got %d", c.NArg())
					}
					in, out := cfg.Convert.InputPath, cfg.Convert.OutputPath
					if c.NArg() > 0 {
						in = c.Args().Get(0)
					}
					if c.NArg() > 1 {
						out = c.Args().Get(1)
					}
					return runConvert(c, in, out)
				},
			},
			{
				Name:  "serve",
				Usage: "serve the conversion API over HTTP",
				Flags: []cli.Flag{extraFieldsFlag},
				Action: func(c *cli.Context) error {
					conv, err := converterFor(c)
					if err != nil {
						return err
					}
					return serve(c.Context, web.NewServer(conv, cfg), cfg)
				},
			},
		},
	}
}

// converterFor builds a Converter from the --extra-fields flag. The
// confirmation line goes to the app's writer.
func converterFor(c *cli.Context) (*core.Converter, error) {
	policy := core.ExtraFieldsPolicy(strings.ToLower(c.String(extraFieldsFlagName)))
	switch policy {
	case core.ExtraFieldsDrop, core.ExtraFieldsStrict:
	default:
		return nil, fmt.Errorf("--%s must be drop or strict, got %q", extraFieldsFlagName, c.String(extraFieldsFlagName))
	}

	conv := core.NewConverter(policy)
	if c.App.Writer != nil {
		conv.Out = c.App.Writer
	}
	return conv, nil
}

func runConvert(c *cli.Context, in, out string) error {
	conv, err := converterFor(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if _, err := conv.Convert(ctx, in, out); err != nil {
		slog.Error("conversion failed", "input", in, "output", out, "error", err)
		return err
	}
	return nil
}

// serve runs server until SIGINT or SIGTERM, then shuts it down within
// SERVER_SHUTDOWN_TIMEOUT.
func serve(ctx context.Context, server *web.Server, cfg *config.Config) error {
	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"extra_fields", cfg.Convert.ExtraFields,
		"upload_max_concurrent", cfg.Upload.MaxConcurrent,
	)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
