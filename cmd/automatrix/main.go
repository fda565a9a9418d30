package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/automatrixhq/automatrix/internal/adapter/driven/automation"
	githubadapter "github.com/automatrixhq/automatrix/internal/adapter/driven/github"
	sqliteadapter "github.com/automatrixhq/automatrix/internal/adapter/driven/sqlite"
	stripeadapter "github.com/automatrixhq/automatrix/internal/adapter/driven/stripe"
	"github.com/automatrixhq/automatrix/internal/adapter/driven/supabase"
	httphandler "github.com/automatrixhq/automatrix/internal/adapter/driving/http"
	webhandler "github.com/automatrixhq/automatrix/internal/adapter/driving/web"
	"github.com/automatrixhq/automatrix/internal/application"
	"github.com/automatrixhq/automatrix/internal/config"
	"github.com/automatrixhq/automatrix/internal/domain/port/driven"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on invalid values or a missing secret).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.RequireServer(); err != nil {
		return err
	}
	slog.SetDefault(cfg.Logger(os.Stderr))
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"db_path", cfg.DBPath,
		"public_url", cfg.PublicURL,
		"payments", cfg.HasPayments(),
		"auth", cfg.HasAuth(),
		"automation", cfg.HasAutomation(),
		"catalog", cfg.HasCatalog(),
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open database (dual reader/writer with WAL mode).
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	// 4. Run migrations on writer connection.
	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	if err := os.MkdirAll(cfg.WorkflowsDir, 0o755); err != nil {
		return err
	}

	// 5. Wire stores.
	profileStore := sqliteadapter.NewProfileRepo(db)
	workflowStore := sqliteadapter.NewWorkflowRepo(db)

	// 6. Wire external services. Each stays a nil interface when unconfigured
	// so the services answer ErrNotConfigured.
	var gateway driven.PaymentGateway
	if cfg.HasPayments() {
		gateway = stripeadapter.NewGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	} else {
		slog.Warn("stripe not configured, billing endpoints disabled")
	}

	var authProvider driven.AuthProvider
	if cfg.HasAuth() {
		authProvider = supabase.NewAuthClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, cfg.AutomationTimeout)
	} else {
		slog.Warn("supabase not configured, sign-in disabled")
	}

	var automationClient driven.AutomationClient
	if cfg.HasAutomation() {
		automationClient = automation.NewClient(cfg.AutomationWebhookURL, cfg.AutomationTimeout)
	} else {
		slog.Warn("automation webhook not configured, chat disabled")
	}

	// 7. Create application services.
	accessSvc := application.NewAccessService(profileStore)
	billingSvc := application.NewBillingService(
		gateway,
		profileStore,
		sqliteadapter.NewSubscriptionRepo(db),
		sqliteadapter.NewPaymentRepo(db),
		sqliteadapter.NewPayoutRepo(db),
		sqliteadapter.NewEventLedger(db),
		cfg.Prices(),
		cfg.PublicURL,
	)
	chatSvc := application.NewChatService(automationClient, sqliteadapter.NewChatRepo(db))
	downloadSvc := application.NewDownloadService(workflowStore, accessSvc, cfg.WorkflowsDir)
	blogSvc := application.NewBlogService(sqliteadapter.NewBlogRepo(db))
	agencySvc := application.NewAgencyService(
		sqliteadapter.NewClientRepo(db),
		sqliteadapter.NewTaskRepo(db),
		sqliteadapter.NewMeetingRepo(db),
		sqliteadapter.NewContactRepo(db),
	)
	missionSvc := application.NewMissionService(sqliteadapter.NewProjectRepo(db), sqliteadapter.NewBidRepo(db))

	// 7b. Start the catalog sync loop.
	if cfg.HasCatalog() {
		source, err := githubadapter.NewCatalogClient(cfg.CatalogRepo, cfg.CatalogPath, cfg.CatalogRef, cfg.CatalogToken)
		if err != nil {
			return err
		}
		catalogSvc := application.NewCatalogSyncService(source, workflowStore, cfg.WorkflowsDir, cfg.CatalogInterval)
		go catalogSvc.Start(ctx)
		slog.Info("catalog sync started", "repo", cfg.CatalogRepo, "interval", cfg.CatalogInterval)
	}

	// 8. Create HTTP handler and register API routes.
	logger := slog.Default()
	sessions := httphandler.NewSessions(cfg.JWTSecret, cfg.SessionTTL, cfg.SecureCookies())
	metrics := httphandler.NewMetrics()
	apiHandler := httphandler.NewHandler(httphandler.Services{
		Access:    accessSvc,
		Billing:   billingSvc,
		Chat:      chatSvc,
		Downloads: downloadSvc,
		Agency:    agencySvc,
		Missions:  missionSvc,
		Auth:      authProvider,
		Gateway:   gateway,
	}, sessions, httphandler.NewChatLimiter(cfg.ChatRateLimit), metrics, logger)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	// 8b. Create web handler and register GUI routes.
	authURL := ""
	if cfg.HasAuth() {
		authURL = cfg.SupabaseURL
	}
	webHandler := webhandler.NewHandler(webhandler.Services{
		Access:    accessSvc,
		Billing:   billingSvc,
		Downloads: downloadSvc,
		Blog:      blogSvc,
		Agency:    agencySvc,
		Missions:  missionSvc,
	}, webhandler.Config{
		AuthURL:   authURL,
		PublicURL: cfg.PublicURL,
		Providers: cfg.AuthProviders,
		Secure:    cfg.SecureCookies(),
	}, logger)
	webhandler.RegisterRoutes(mux, webHandler)

	// Apply middleware.
	handler := httphandler.ApplyMiddleware(mux, logger, metrics, sessions)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
			stop()
		}
	}()

	slog.Info("automatrix started", "listen_addr", cfg.ListenAddr)

	// 9. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	// 10. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
