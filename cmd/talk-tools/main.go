package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"talk-tools/internal/config"
	"talk-tools/internal/httpclient"
	"talk-tools/internal/invoke"
	"talk-tools/internal/render"
	"talk-tools/internal/tools"
	"talk-tools/internal/version"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "talk-tools",
		Short:         "talk-tools - host and run the leaf tools a tool-calling engine invokes",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("base-url", config.DefaultBaseURL, "Base URL of the posts/users API")
	flags.String("catalog", "", "Tool catalog YAML (defaults to the built-in catalog)")
	flags.String("timeout", config.DefaultTimeout.String(), "HTTP request timeout (e.g. 30s)")
	flags.String("tool-timeout", config.DefaultToolTimeout.String(), "Timeout for a single tool execution")
	flags.Int("retry-max", config.DefaultRetryMax, "Maximum HTTP retries")
	flags.Float64("rate-per-minute", 0, "Outbound HTTP requests per minute (0 = unlimited)")
	flags.Bool("json", false, "Output JSON only")
	flags.Bool("verbose", false, "Enable verbose logging")

	cmd.AddCommand(newListCmd(), newSchemaCmd(), newRunCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, registry, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			if cfg.JSON {
				type entry struct {
					Name        string         `json:"name"`
					Description string         `json:"description"`
					Schema      map[string]any `json:"schema"`
				}
				var out []entry
				for _, name := range registry.Names() {
					tool, _ := registry.Get(name)
					out = append(out, entry{Name: name, Description: tool.Description(), Schema: tool.Schema()})
				}
				return printJSON(out)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, name := range registry.Names() {
				tool, _ := registry.Get(name)
				fmt.Fprintf(w, "%s\t%s\n", name, tool.Description())
			}
			return w.Flush()
		},
	}
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print OpenAI function-tool definitions for every tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, registry, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return printJSON(registry.OpenAITools())
		},
	}
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tool> [key=value ...]",
		Short: "Run a tool once and print its result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawArgs, _ := cmd.Flags().GetString("args")
			params, err := tools.ParseJSON([]byte(rawArgs))
			if err != nil {
				return err
			}
			pairs, err := tools.ParseKeyValues(args[1:])
			if err != nil {
				return err
			}
			params = params.Merge(pairs)

			cfg, logger, registry, err := setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if cfg.JSON {
				record, runErr := invoke.NewInvoker(registry, nil, logger, cfg).Run(ctx, args[0], params)
				if err := printJSON(record); err != nil {
					return err
				}
				return runErr
			}

			renderer := render.NewStdoutRenderer(os.Stdout, cfg.Verbose)
			_, runErr := invoke.NewInvoker(registry, renderer, logger, cfg).Run(ctx, args[0], params)
			_ = renderer.Close()
			return runErr
		},
	}
	cmd.Flags().String("args", "", "Tool arguments as a JSON object; key=value pairs override it")
	return cmd
}

func setup(cmd *cobra.Command) (config.Config, *zap.Logger, *tools.Registry, error) {
	cfg, err := config.Load(cmd)
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	logger := buildLogger(cfg.Verbose)

	catalog, err := tools.LoadCatalog(cfg.Catalog)
	if err != nil {
		_ = logger.Sync()
		return config.Config{}, nil, nil, err
	}
	client := httpclient.New(httpclient.Options{
		Timeout:        cfg.HTTP.Timeout,
		ConnectTimeout: cfg.HTTP.ConnectTimeout,
		RetryMax:       cfg.HTTP.RetryMax,
		RatePerMinute:  cfg.HTTP.RatePerMinute,
		Logger:         logger,
	})
	deps := tools.Deps{HTTP: client, BaseURL: cfg.BaseURL, Logger: logger}
	registry := catalog.Build(tools.Builtins(deps), logger)
	return cfg, logger, registry, nil
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
