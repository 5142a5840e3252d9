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
	"github.com/rs/zerolog/log"
	"github.com/walleto-api/internal/application/auth"
	"github.com/walleto-api/internal/application/cleanup"
	"github.com/walleto-api/internal/application/ledger"
	"github.com/walleto-api/internal/application/otp"
	"github.com/walleto-api/internal/application/ratelimit"
	"github.com/walleto-api/internal/application/trusteddevice"
	"github.com/walleto-api/internal/application/user"
	"github.com/walleto-api/internal/config"
	"github.com/walleto-api/internal/infrastructure/dynamo"
	"github.com/walleto-api/internal/infrastructure/google"
	jwtinfra "github.com/walleto-api/internal/infrastructure/jwt"
	"github.com/walleto-api/internal/infrastructure/redislock"
	s3infra "github.com/walleto-api/internal/infrastructure/s3"
	"github.com/walleto-api/internal/infrastructure/smtp"
	"github.com/walleto-api/internal/infrastructure/sns"
	transporthttp "github.com/walleto-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	setupLogger(cfg)

	ctx := context.Background()

	dynamoClient, err := dynamo.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("dynamodb client")
	}
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("jwt provider")
	}

	s3Client, err := s3infra.NewClient(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("s3 client")
	}
	objects := s3infra.NewStore(s3Client, cfg.S3BucketName)
	if err := objects.EnsureBucket(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", cfg.S3BucketName).Msg("avatar bucket not available")
	}

	notifier, err := newNotifier(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("channel", cfg.NotifyChannel).Msg("notifier")
	}

	policy := cfg.Security
	attemptRepo := dynamo.NewAttemptRepo(dynamoClient, cfg.DynamoTables.OTPAttempts)
	userRepo := dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users)

	limiter := ratelimit.NewService(ratelimit.ServiceDeps{
		AttemptRepo: attemptRepo,
		Generate:    ratelimit.Policy{Window: policy.GenerateWindow, Max: policy.GenerateMax},
		Verify:      ratelimit.Policy{Window: policy.VerifyWindow, Max: policy.VerifyMax},
		Retention:   policy.AttemptRetention,
	})
	otpSvc := otp.NewService(otp.ServiceDeps{
		CodeRepo:      dynamo.NewOTPCodeRepo(dynamoClient, cfg.DynamoTables.OTPCodes),
		AttemptRepo:   attemptRepo,
		Limiter:       limiter,
		Notifier:      notifier,
		CodeLength:    policy.CodeLength,
		TTL:           policy.CodeTTL,
		Retention:     policy.AttemptRetention,
		NotifyTimeout: policy.NotifyTimeout,
	})
	deviceSvc := trusteddevice.NewService(trusteddevice.ServiceDeps{
		DeviceRepo: dynamo.NewTrustedDeviceRepo(dynamoClient, cfg.DynamoTables.TrustedDevices),
		TTL:        policy.DeviceTTL,
	})

	authDeps := auth.ServiceDeps{
		UserRepo:    userRepo,
		OTP:         otpSvc,
		Devices:     deviceSvc,
		JWTProvider: jwtProvider,
	}
	if cfg.GoogleClientID != "" {
		authDeps.Google = google.NewVerifier(cfg.GoogleClientID)
	}

	deps := &transporthttp.Deps{
		Auth:    auth.NewService(authDeps),
		OTP:     otpSvc,
		Devices: deviceSvc,
		Users: user.NewService(user.ServiceDeps{
			UserRepo: userRepo,
			Objects:  objects,
		}),
		Ledger: ledger.NewService(ledger.ServiceDeps{
			AccountRepo:     dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts),
			CategoryRepo:    dynamo.NewCategoryRepo(dynamoClient, cfg.DynamoTables.Categories),
			BudgetRepo:      dynamo.NewBudgetRepo(dynamoClient, cfg.DynamoTables.Budgets),
			TransactionRepo: dynamo.NewTransactionRepo(dynamoClient, cfg.DynamoTables.Transactions),
		}),
		JWTProvider: jwtProvider,
	}

	schedDeps := cleanup.SchedulerDeps{
		OTP:      otpSvc,
		Devices:  deviceSvc,
		Interval: policy.CleanupInterval,
	}
	if cfg.RedisURL != "" {
		lease, err := redislock.NewFromURL(ctx, cfg.RedisURL, "walleto:lease:")
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cleanup runs without a lease")
		} else {
			defer lease.Close()
			schedDeps.Locker = lease
		}
	}
	scheduler := cleanup.NewScheduler(schedDeps)
	scheduler.Start(ctx)

	router, closeRouter := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.AppPort).Str("env", cfg.AppEnv).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")
	scheduler.Stop()
	closeRouter()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
		return
	}
	log.Info().Msg("server stopped")
}

func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.AppEnv == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func newNotifier(cfg *config.Config) (otp.Notifier, error) {
	switch cfg.NotifyChannel {
	case "sns":
		return sns.NewPublisher(cfg)
	case "smtp", "":
		return smtp.NewMailer(cfg), nil
	default:
		return nil, fmt.Errorf("unknown notify channel %q", cfg.NotifyChannel)
	}
}
