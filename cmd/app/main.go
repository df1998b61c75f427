// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"vm-provisioning-bot/internal/config"
	"vm-provisioning-bot/internal/domain/ports/adapter"
	"vm-provisioning-bot/internal/infra/adapters/cloud"
	"vm-provisioning-bot/internal/infra/api"
	"vm-provisioning-bot/internal/infra/i18n"
	"vm-provisioning-bot/internal/infra/logging"
	"vm-provisioning-bot/internal/infra/metrics"
	red "vm-provisioning-bot/internal/infra/redis"
	"vm-provisioning-bot/internal/infra/web"
	"vm-provisioning-bot/internal/infra/worker"
	"vm-provisioning-bot/internal/usecase"
)

// Set at build time with -ldflags "-X main.version=... -X main.commit=...".
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted names)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("dotenv: %v", err)
	}

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	sessions := red.NewSessionRepo(redisClient, cfg.Redis.SessionTTL)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Cloud ----
	cloudAdapter, err := newCloudAdapter(cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("cloud adapter")
	}

	// ---- Use cases ----
	vm := cfg.Cloud.VM
	provisionUC := usecase.NewProvisionUseCase(cloudAdapter, usecase.ProvisionSettings{
		AddressSpace:   cfg.Cloud.AddressSpace,
		SubnetName:     cfg.Cloud.SubnetName,
		SubnetPrefix:   cfg.Cloud.SubnetPrefix,
		VMSize:         vm.Size,
		ImagePublisher: vm.Image.Publisher,
		ImageOffer:     vm.Image.Offer,
		ImageSKU:       vm.Image.SKU,
		ImageVersion:   vm.Image.Version,
		AdminUsername:  vm.AdminUsername,
		AdminPassword:  vm.AdminPassword,
	}, logger)

	var provisioner usecase.ProvisionUseCase = provisionUC
	if n := cfg.Provisioning.MaxConcurrent; n > 0 {
		pool := worker.NewPool(n, cfg.Provisioning.QueueSize, logger)
		// workers outlive the signal so in-flight chains finish during shutdown
		pool.Start(context.WithoutCancel(ctx))
		defer pool.Stop()
		provisioner = worker.NewProvisioner(provisionUC, pool)
		logger.Info().Int("workers", n).Int("queue", cfg.Provisioning.QueueSize).Msg("provisioning pool started")
	}

	tr, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Conversation.Language)
	if err != nil {
		logger.Fatal().Err(err).Str("lang", cfg.Conversation.Language).Msg("translator")
	}
	turnUC := usecase.NewTurnUseCase(sessions, provisioner, tr, usecase.TurnOptions{
		Location:         cfg.Cloud.Location,
		ResetOnFailure:   cfg.Conversation.ResetOnFailure,
		ProvisionTimeout: cfg.Provisioning.Timeout,
		Dev:              cfg.Runtime.Dev,
	}, logger)

	// ---- HTTP ----
	router := api.NewServer(turnUC, tr, rateLimiter, redisClient, cfg.RateLimit.TurnsPerMinute, logger).Router()
	auth := web.NewAuthManager(cfg.Admin.JWTSecret, cfg.Admin.SecureCookie, cfg.Admin.SessionTTL)
	router.Mount("/admin/v1", web.NewServer(sessions, cfg.Admin.APIKey, auth, logger).Routes())

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		// provisioning can outlast any fixed write timeout; zero means none
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Info().
			Str("addr", server.Addr).
			Str("cloud", cfg.Cloud.Provider).
			Str("version", version).
			Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 30*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func newCloudAdapter(cfg *config.Config, logger *zerolog.Logger) (adapter.CloudAdapter, error) {
	switch cfg.Cloud.Provider {
	case "noop":
		logger.Warn().Msg("cloud provider is noop; no resources will be created")
		return cloud.NewNoopCloudAdapter(logger), nil
	case "azure":
		a, err := cloud.NewAzureAdapter(cfg.Cloud.Azure, logger)
		if err != nil {
			return nil, err
		}
		logger.Info().
			Str("subscription", logging.Redact(cfg.Cloud.Azure.SubscriptionID, cfg.Runtime.Dev)).
			Str("location", cfg.Cloud.Location).
			Msg("azure adapter ready")
		return a, nil
	default:
		return nil, fmt.Errorf("unsupported cloud provider %q", cfg.Cloud.Provider)
	}
}
