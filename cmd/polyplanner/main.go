package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ChicagoDave/polyplanner/internal/config"
	"github.com/ChicagoDave/polyplanner/internal/logging"
)

var version = "dev"

func main() {
	// A local .env is optional.
	_ = godotenv.Load()

	var (
		configPath string
		cfg        *config.Config
	)

	rootCmd := &cobra.Command{
		Use:           "polyplanner",
		Short:         "Polyhouse placement engine for agricultural parcels",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = c
			// Command output owns stdout; only the server logs there.
			if cmd.Name() == "serve" {
				logging.Setup(cfg.Log.Level, cfg.Log.Format)
			} else {
				slog.SetDefault(logging.New(os.Stderr, cfg.Log.Level, "text"))
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./config.yaml if present)")

	getConfig := func() *config.Config { return cfg }
	rootCmd.AddCommand(planCmd(getConfig))
	rootCmd.AddCommand(validateCmd(getConfig))
	rootCmd.AddCommand(solarCmd())
	rootCmd.AddCommand(serveCmd(getConfig))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func planCmd(cfg func() *config.Config) *cobra.Command {
	var (
		format   string
		blocks   bool
		progress bool
	)

	cmd := &cobra.Command{
		Use:   "plan [project-path]",
		Short: "Place polyhouses on the project's parcel and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd.Context(), cfg(), args[0], planOptions{format: format, blocks: blocks, progress: progress})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, geojson, scene, svg or summary")
	cmd.Flags().BoolVar(&blocks, "blocks", false, "include blocks in geojson and svg output")
	cmd.Flags().BoolVar(&progress, "progress", false, "log optimizer progress to stderr")
	return cmd
}

func validateCmd(cfg func() *config.Config) *cobra.Command {
	var placement bool

	cmd := &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a plan spec without placing structures",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cfg(), args[0], placement)
		},
	}

	cmd.Flags().BoolVar(&placement, "placement", false, "also run placement and report layout checks")
	return cmd
}

func solarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "solar <latitude>",
		Short: "Show the allowed orientation window for a latitude",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSolar(os.Stdout, args[0])
		},
	}
}

func serveCmd(cfg func() *config.Config) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Start the planning API server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cfg()
			if port != 0 {
				c.Server.Port = port
			}
			project := ""
			if len(args) == 1 {
				project = args[0]
			}
			return runServe(cmd.Context(), c, project)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "HTTP server port (overrides config)")
	return cmd
}
