package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/phishaware/internal/accounts"
	"github.com/harrylevesque/phishaware/internal/api"
	"github.com/harrylevesque/phishaware/internal/assist"
	"github.com/harrylevesque/phishaware/internal/auth"
	"github.com/harrylevesque/phishaware/internal/certs"
	"github.com/harrylevesque/phishaware/internal/config"
	"github.com/harrylevesque/phishaware/internal/crypto"
	"github.com/harrylevesque/phishaware/internal/detect"
	"github.com/harrylevesque/phishaware/internal/files"
	"github.com/harrylevesque/phishaware/internal/learn"
	"github.com/harrylevesque/phishaware/internal/models"
	"github.com/harrylevesque/phishaware/internal/utils"
)

var (
	configPath string
	addr       string
	verbose    bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "phishaware-server",
	Short: "PhishAware web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "phishaware.yaml", "path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Store.Dir = utils.ResolvePath(cfg.Store.Dir)
	cfg.Learn.QuestionsPath = utils.ResolvePath(cfg.Learn.QuestionsPath)
	logger, err = utils.NewLogger(cfg.Logging.Level, cfg.Logging.Path)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	master, err := loadMasterKey(cfg)
	if err != nil {
		return err
	}

	store, err := accounts.Open(ctx, cfg.Store, master)
	if err != nil {
		return fmt.Errorf("open account store: %w", err)
	}
	defer store.Close()
	if n, err := store.Count(ctx); err == nil {
		logger.Info("account store ready", zap.String("driver", cfg.Store.Driver), zap.Int("accounts", n))
	}

	svc, err := auth.NewService(store, cfg.Auth, logger.Named("auth"))
	if err != nil {
		return err
	}
	sessions, err := auth.NewSessions(master, cfg.Session, logger.Named("session"))
	if err != nil {
		return err
	}

	deps := api.Deps{
		Config:    cfg,
		Auth:      svc,
		Sessions:  sessions,
		Detector:  detect.NewClient(cfg.Detect, logger.Named("detect")),
		Bank:      learn.LoadBank(cfg.Learn.QuestionsPath, logger.Named("learn")),
		Progress:  learn.NewProgress(),
		Providers: map[string]auth.IdentityProvider{},
		Logger:    logger,
	}
	if cfg.Assistant.APIKey != "" {
		a, err := assist.NewFromConfig(ctx, cfg.Assistant, logger.Named("assist"))
		if err != nil {
			return err
		}
		deps.Assistant = a
	} else {
		logger.Warn("GEMINI_API_KEY not set; assistant disabled")
	}
	if cfg.OAuth.Google.Enabled() {
		deps.Providers[models.ProviderGoogle] = auth.NewGoogleProvider(cfg.OAuth.Google)
	}
	if cfg.Detect.Token == "" {
		logger.Warn("HF_API_TOKEN not set; detection calls will be unauthenticated")
	}

	router, err := api.NewRouter(deps)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	tlsOn := cfg.Server.TLSCert != ""
	if tlsOn {
		cm := certs.NewCertManager(cfg.Server.TLSCert, cfg.Server.TLSKey)
		cert, err := cm.Check()
		if err != nil {
			return fmt.Errorf("tls certificate: %w", err)
		}
		logger.Info("tls certificate loaded", zap.String("subject", cert.Subject.CommonName), zap.Time("not_after", cert.NotAfter))
		if cm.ExpiresWithin(cert, 30*24*time.Hour) {
			logger.Warn("tls certificate expires within 30 days", zap.Time("not_after", cert.NotAfter))
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.Bool("tls", tlsOn))
		var err error
		if tlsOn {
			err = srv.ListenAndServeTLS(cfg.Server.TLSCert, cfg.Server.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Learn.QuestionsPath != "" && cfg.Learn.Watch {
		g.Go(func() error {
			return deps.Bank.Watch(gctx, cfg.Learn.QuestionsPath)
		})
	}
	return g.Wait()
}

// loadMasterKey reads the master key. Without one, an encrypted file store
// is an error; otherwise a throwaway key is generated and sessions will not
// survive a restart.
func loadMasterKey(cfg *config.Config) ([]byte, error) {
	key, err := files.ReadMasterKey(utils.ResolvePath(cfg.Store.MasterKeyPath))
	if err == nil {
		return key, nil
	}
	if cfg.Store.Driver == "file" && cfg.Store.Encrypt {
		return nil, fmt.Errorf("master key required for the encrypted file store (run genmasterkey): %w", err)
	}
	logger.Warn("no master key; using an ephemeral session key", zap.Error(err))
	return crypto.GenerateMasterKey(), nil
}
