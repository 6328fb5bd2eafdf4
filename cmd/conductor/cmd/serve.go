package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hugo-lorenzo-mato/conductor/internal/adapters/store"
	"github.com/hugo-lorenzo-mato/conductor/internal/api"
	"github.com/hugo-lorenzo-mato/conductor/internal/config"
	"github.com/hugo-lorenzo-mato/conductor/internal/events"
	"github.com/hugo-lorenzo-mato/conductor/internal/logging"
	"github.com/hugo-lorenzo-mato/conductor/internal/server"
	"github.com/hugo-lorenzo-mato/conductor/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow server",
	Long: `Start the HTTP server hosting the registered workflows.

With a persistent store configured, runs that were still in flight when
the process stopped are resumed from their last checkpoint on startup.

Examples:
  # Start with defaults (0.0.0.0:8080, no persistence)
  conductor serve

  # Persist run state to SQLite
  conductor serve --store sqlite --store-path .conductor/handlers.db

  # Serve the built-in demo workflows
  conductor serve --demo`,
	RunE: runServe,
}

var (
	serveHost    string
	servePort    int
	serveBackend string
	servePath    string
	serveDemo    bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "",
		"Host address to bind to")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0,
		"Port to listen on")
	serveCmd.Flags().StringVar(&serveBackend, "store", "",
		"Persistence backend (none, memory, sqlite, json, redis)")
	serveCmd.Flags().StringVar(&servePath, "store-path", "",
		"Database or file path for sqlite and json backends")
	serveCmd.Flags().BoolVar(&serveDemo, "demo", false,
		"Register the built-in demo workflows")

	_ = viper.BindPFlag("store.backend", serveCmd.Flags().Lookup("store"))
	_ = viper.BindPFlag("store.path", serveCmd.Flags().Lookup("store-path"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	loader := config.NewLoaderWithViper(viper.GetViper())
	if cfgFile != "" {
		loader.WithConfigFile(cfgFile)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if serveHost != "" {
		cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, store.Options{
		Backend:  cfg.Store.Backend,
		Path:     cfg.Store.Path,
		Addr:     cfg.Store.Addr,
		Password: cfg.Store.Password,
		DB:       cfg.Store.DB,
	})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(st); closeErr != nil {
			logger.Warn("failed to close store", "error", closeErr)
		}
	}()
	logger.Info("store initialized", "backend", cfg.Store.Backend)

	workflows := workflow.NewRegistry()
	eventTypes := events.NewRegistry()
	if serveDemo {
		registerDemoWorkflows(workflows, eventTypes)
		logger.Info("demo workflows registered", "workflows", workflows.Names())
	}

	runtime := server.New(workflows, eventTypes,
		server.WithLogger(logger.Logger),
		server.WithStore(st),
	)
	defer runtime.Close()

	if err := runtime.Recover(ctx); err != nil {
		logger.Warn("recovering interrupted runs", "error", err)
	}

	apiServer := api.NewServer(runtime, api.WithLogger(logger.Logger))

	err = apiServer.ListenAndServe(ctx, cfg.Server.Addr())
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
