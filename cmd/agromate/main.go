package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/chetan13062004/agromate/config"
	"github.com/chetan13062004/agromate/internal/app"
	"github.com/chetan13062004/agromate/internal/webserver"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	Version   = "1.0.0"
	BuildTime = "dev"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "agromate",
		Short:         "Farm-to-consumer marketplace server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (YAML)")

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	})

	var track bool
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer application.Release()
			if err := application.MigrateDB(track); err != nil {
				return err
			}
			zap.L().Info("database migrated")
			return nil
		},
	}
	migrate.Flags().BoolVar(&track, "track", false, "log migration SQL")
	cmd.AddCommand(migrate)

	cmd.AddCommand(&cobra.Command{
		Use:   "initdb",
		Short: "Drop every table, recreate the schema and seed the administrator",
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := bootstrap(configPath)
			if err != nil {
				return err
			}
			defer application.Release()
			if err := application.InitDb(); err != nil {
				return err
			}
			zap.L().Info("database initialized")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("agromate version %s (build: %s)\n", Version, BuildTime)
		},
	})

	return cmd
}

func bootstrap(configPath string) (*app.Application, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	app.SetupLogger(cfg)
	application := app.NewApplication(cfg)
	if err := application.Init(cfg); err != nil {
		application.Release()
		return nil, err
	}
	return application, nil
}

func serve(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer application.Release()

	handlers, err := application.Handlers(ctx)
	if err != nil {
		return err
	}
	server := webserver.NewServer(application.Config(), handlers.Auth, application.Health)
	handlers.Register(server)

	zap.S().Infof("agromate %s starting", Version)
	return server.Start(ctx)
}
