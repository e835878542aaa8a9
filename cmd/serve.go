package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vofmun/registrar/internal/api"
	"github.com/vofmun/registrar/internal/infrastructure/sqlite"
	"github.com/vofmun/registrar/internal/log"
	"github.com/vofmun/registrar/internal/mail"
	"github.com/vofmun/registrar/internal/pubsub"
	"github.com/vofmun/registrar/internal/referral"
	"github.com/vofmun/registrar/internal/registration"
	"github.com/vofmun/registrar/internal/storage"
	"github.com/vofmun/registrar/internal/tracing"
	"github.com/vofmun/registrar/internal/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the registration intake server",
	Long: `Run the HTTP intake server that accepts registration submissions.

The server listens on the configured address (default: localhost:8095)
and exposes POST /api/signup plus a /health endpoint.

Example:
  registrar serve                      # Start on the configured address
  registrar serve --addr :8080         # Override the listen address`,
	RunE: runServe,
}

var serveAddr string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cleanup, err := log.Init(os.Getenv("REGISTRAR_LOG"))
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	defer cleanup()
	if debugFlag || os.Getenv("REGISTRAR_DEBUG") != "" {
		log.SetMinLevel(log.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing first so every later component picks up the global provider.
	tp, err := tracing.NewProvider(tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error(log.CatConfig, "Error shutting down tracing", "error", err)
		}
	}()

	resolver, err := buildResolver(ctx)
	if err != nil {
		return err
	}

	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error(log.CatDB, "Error closing database", "error", err)
		}
	}()

	proofs := storage.NewProofHandler(buildObjectStore(), cfg.Storage.Bucket)

	events := pubsub.NewBroker[registration.Created]()
	defer events.Close()

	dispatcher := mail.NewDispatcher(buildNotifier())
	go dispatcher.Run(ctx, events)

	repo := db.RegistrationRepository()
	if counts, err := repo.CountByRole(ctx); err == nil {
		log.Info(log.CatDB, "registrations on record",
			"delegate", counts[registration.RoleDelegate],
			"chair", counts[registration.RoleChair],
			"admin", counts[registration.RoleAdmin])
	}

	committer := registration.NewCommitter(resolver, proofs, repo, events)

	addr := serveAddr
	if addr == "" {
		addr = cfg.Listen
	}
	server, err := api.NewServer(api.ServerConfig{
		Addr:      addr,
		Committer: committer,
		DB:        db.Connection(),
		Tracer:    tp.Tracer(),
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("Registrar listening on port %d\n", server.Port())
	fmt.Println("Press Ctrl+C to stop")

	select {
	case sig := <-sigCh:
		fmt.Printf("\nReceived %s, shutting down...\n", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error(log.CatHTTP, "Error stopping API server", "error", err)
	}

	fmt.Println("Server stopped")
	return nil
}

// buildResolver loads the referral registry (file or compiled-in), wires
// the resolver over a hot-swappable snapshot, and optionally starts the
// registry file watcher.
func buildResolver(ctx context.Context) (registration.ReferralResolver, error) {
	registryPath := cfg.Referral.File
	var registry *referral.Registry
	if registryPath != "" {
		var err error
		registry, err = referral.LoadRegistry(registryPath)
		if err != nil {
			return nil, fmt.Errorf("loading referral registry: %w", err)
		}
		log.Info(log.CatReferral, "referral registry loaded", "path", registryPath, "codes", registry.Len())
	} else {
		registry = referral.DefaultRegistry()
		log.Info(log.CatReferral, "using embedded referral registry", "codes", registry.Len())
	}

	provider := referral.NewProvider(registryPath, registry)
	resolver := referral.NewResolverFunc(provider.Current, referral.Options{
		MaxSuggestions: cfg.Referral.MaxSuggestions,
		MaxDistance:    cfg.Referral.MaxDistance,
	})
	provider.BindResolver(resolver)

	if cfg.Referral.AutoReload && registryPath != "" {
		wcfg := watcher.DefaultConfig(registryPath)
		wcfg.DebounceDur = cfg.Referral.ReloadDebounce
		if err := provider.Watch(ctx, wcfg); err != nil {
			return nil, fmt.Errorf("watching referral registry: %w", err)
		}
		log.Info(log.CatReferral, "watching referral registry for changes", "path", registryPath)
	}

	return resolver, nil
}

// buildObjectStore returns the configured object store. Without a
// storage URL proofs land in process memory and vanish on restart,
// which is only acceptable for local development.
func buildObjectStore() storage.ObjectStore {
	if cfg.Storage.URL == "" {
		log.Warn(log.CatStorage, "no storage URL configured, payment proofs are kept in memory only")
		return storage.NewMemoryStore()
	}
	return storage.NewSupabaseStore(cfg.Storage.URL, cfg.Storage.ServiceKey, cfg.Storage.Bucket, cfg.Storage.Timeout)
}

func buildNotifier() mail.Notifier {
	if !cfg.Mail.Enabled {
		return mail.NopNotifier{}
	}
	if cfg.Mail.APIKey == "" {
		log.Warn(log.CatMail, "mail enabled but REGISTRAR_MAIL_KEY is not set, notifications disabled")
		return mail.NopNotifier{}
	}
	return mail.NewResendNotifier(cfg.Mail.URL, cfg.Mail.APIKey, cfg.Mail.From, 15*time.Second)
}
