// Command claimload loads one payer's claim file (or the built-in manual
// sample) into the warehouse.
//
// Usage:
//
//	claimload --payer anthem --source claims.csv
//	claimload --payer cigna --source s3://claims-bucket/2025/cigna.xlsx
//	claimload --payer manual
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/claimload/internal/config"
	"github.com/JonMunkholm/claimload/internal/core"
	"github.com/JonMunkholm/claimload/internal/logging"
	"github.com/JonMunkholm/claimload/internal/storage/s3"
	"github.com/JonMunkholm/claimload/internal/warehouse"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, warehouse.Connect); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// reportError logs the technical error and prints the coded message.
// Errors without a code also print their text, since the generic message
// alone says nothing about the cause.
func reportError(w io.Writer, err error) {
	uerr := core.NewUserError(err)
	slog.Error("claimload failed", "error", uerr.Technical, "code", uerr.User.Code)
	fmt.Fprintln(w, "error:", core.FormatUserError(err))
	if !core.IsUserFacing(err) {
		fmt.Fprintln(w, "  cause:", uerr.Technical)
	}
}

type options struct {
	source  string
	payer   string
	rules   string
	envFile string
	preview int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("claimload", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.source, "source", "", "path to the claims file (local path or s3://bucket/key)")
	fs.StringVar(&opts.payer, "payer", "", "payer name, e.g. anthem, cigna, or manual for the built-in sample (required)")
	fs.StringVar(&opts.rules, "rules", "", "payer rules file (overrides PAYER_RULES_FILE)")
	fs.StringVar(&opts.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	fs.IntVar(&opts.preview, "preview", 5, "number of rows to preview (0 disables)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return opts, err
		}
		return opts, fmt.Errorf("%w: %w", core.ErrUsage, err)
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("%w: unexpected arguments: %s", core.ErrUsage, strings.Join(fs.Args(), " "))
	}
	opts.payer = strings.TrimSpace(opts.payer)
	if opts.payer == "" {
		fs.Usage()
		return opts, fmt.Errorf("%w: --payer is required", core.ErrUsage)
	}
	return opts, nil
}

func run(ctx context.Context, args []string, stdout io.Writer, connect warehouse.Connector) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		return err
	}

	if _, err := config.LoadEnvFile(opts.envFile); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithTimeout(ctx, cfg.Load.Timeout)
	defer cancel()
	ctx = logging.ContextWithRunID(ctx, logging.NewRunID())

	logger := logging.WithFields(ctx, "payer", opts.payer)
	logger.Debug("configuration loaded", "config", cfg.String())

	rulesFile := opts.rules
	if rulesFile == "" {
		rulesFile = cfg.Load.RulesFile
	}
	rules, err := core.LoadRules(rulesFile)
	if err != nil {
		return err
	}

	manual := core.NormalizePayer(opts.payer) == core.ManualPayer
	if !manual && !rules.Known(opts.payer) {
		return fmt.Errorf("%w: %q (known: %s, %s)", core.ErrUnknownPayer, opts.payer,
			strings.Join(rules.Keys(), ", "), core.ManualPayer)
	}
	logger.Info("payer resolved",
		"factor", rules.Factor(opts.payer).String(),
		"table", rules.Destination(opts.payer),
		"fallback_table", rules.Fallback(),
	)

	// Resolve the input
	var in core.Input
	normalizer := core.NewNormalizer(nil)
	if manual {
		if opts.source != "" {
			logger.Warn("ignoring --source for the manual payer", "source", opts.source)
		}
		in = core.ManualRecords()
	} else {
		if opts.source == "" {
			return fmt.Errorf("%w: pass --source for payer %q", core.ErrMissingSource, opts.payer)
		}
		if core.IsObjectPath(opts.source) {
			client, err := s3.NewClient(ctx, cfg.Source)
			if err != nil {
				return err
			}
			normalizer.Objects = client
		}
		path := core.FilePath(opts.source)
		if err := normalizer.Exists(ctx, path); err != nil {
			return err
		}
		in = path
	}

	table, err := normalizer.Normalize(ctx, in)
	if err != nil {
		return err
	}

	transformed := core.NewTransformer(rules).Transform(ctx, table, opts.payer)

	if opts.preview > 0 {
		fmt.Fprintln(stdout, "\nData Preview:")
		if err := core.WritePreview(stdout, transformed, opts.preview); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	}

	loader := warehouse.NewLoader(cfg.Warehouse, cfg.Load.ChunkSize, rules, warehouse.WithConnector(connect))
	result, err := loader.Load(ctx, transformed, opts.payer)
	if err != nil {
		return err
	}

	if result.Success {
		fmt.Fprintf(stdout, "Loaded %d rows into %s\n", result.RowsWritten, result.Table)
	} else {
		fmt.Fprintf(stdout, "Load failed for %s (run %s)\n", result.Table, result.RunID)
	}
	return nil
}
