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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/go-account-api/internal/application/verification"
	"github.com/go-account-api/internal/config"
	"github.com/go-account-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-account-api/internal/infrastructure/jwt"
	mongostore "github.com/go-account-api/internal/infrastructure/mongo"
	"github.com/go-account-api/internal/infrastructure/otp"
	redisinfra "github.com/go-account-api/internal/infrastructure/redis"
	"github.com/go-account-api/internal/infrastructure/sns"
	"github.com/go-account-api/internal/pkg/logger"
	transporthttp "github.com/go-account-api/internal/transport/http"
)

func main() {
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.AppEnv, cfg.LogLevel)
	if envErr != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}

// run wires the stores and serves until SIGINT/SIGTERM. Every early return
// goes through the deferred cleanup.
func run(cfg *config.Config, log *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := &transporthttp.Deps{Logger: log}
	var challenges otp.ChallengeStore

	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, db, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("mongo unavailable: %w", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		deps.Identities = mongostore.NewIdentityRepo(db)
		deps.Addresses = mongostore.NewAddressRepo(db)
		deps.Profiles = mongostore.NewProfileRepo(db)
		challenges = mongostore.NewChallengeRepo(db)
	default:
		// Bootstrap DynamoDB tables (creates them if they don't exist).
		client, err := dynamo.NewClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("dynamodb client: %w", err)
		}
		dynamo.Bootstrap(ctx, client, cfg.DynamoTables, log)
		deps.Identities = dynamo.NewIdentityRepo(client, cfg.DynamoTables.Identities, cfg.DynamoTables.IdentityKeys)
		deps.Addresses = dynamo.NewAddressRepo(client, cfg.DynamoTables.Addresses)
		deps.Profiles = dynamo.NewProfileRepo(client, cfg.DynamoTables.Profiles)
		challenges = dynamo.NewChallengeRepo(client, cfg.DynamoTables.OTPChallenges)
	}

	provider, err := newOTPProvider(ctx, cfg, challenges)
	if err != nil {
		return err
	}
	deps.OTPProvider = provider

	if cfg.RedisURL != "" {
		rdb, err := redisinfra.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis unavailable: %w", err)
		}
		defer rdb.Close()
		deps.VerifyWindow = redisinfra.NewWindowStore(rdb, "verify-otp:")
	}

	// JWT provider is optional: protected routes stay open without keys.
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		deps.JWTProvider = p
	} else {
		log.Warn().Err(err).Msg("JWT provider not available")
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      transporthttp.NewRouter(ctx, cfg, deps),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).
			Str("store", cfg.StoreDriver).Str("otp_provider", cfg.OTPProvider).Msg("server starting")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

func newOTPProvider(ctx context.Context, cfg *config.Config, challenges otp.ChallengeStore) (verification.Provider, error) {
	if cfg.OTPProvider == config.OTPProviderSNS {
		sender, err := sns.NewSender(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("SNS sender not available: %w", err)
		}
		return otp.NewSMSProvider(challenges, sender, otp.SMSConfig{TTL: cfg.OTPTTL, MaxAttempts: cfg.OTPMaxAttempts}), nil
	}
	return otp.NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioServiceSID), nil
}
