// Package app is the composition root: it builds the auth service and its
// collaborators from config so embedding binaries and host applications wire
// one thing instead of ten.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	authservice "rental-auth-service/internal/auth/service"
	blacklistrepo "rental-auth-service/internal/blacklist/repository"
	"rental-auth-service/internal/config"
	attemptrepo "rental-auth-service/internal/loginattempt/repository"
	attemptservice "rental-auth-service/internal/loginattempt/service"
	"rental-auth-service/internal/maintenance"
	refreshrepo "rental-auth-service/internal/refreshtoken/repository"
	"rental-auth-service/internal/security"
	"rental-auth-service/internal/telemetry"
	"rental-auth-service/internal/telemetry/otel"
	"rental-auth-service/internal/telemetry/producer"
	userrepo "rental-auth-service/internal/user/repository"
)

// App holds the wired service graph and a Shutdown that flushes telemetry.
type App struct {
	Auth    *authservice.AuthService
	Tracker *attemptservice.Tracker
	Sweeper *maintenance.Sweeper
	Emitter telemetry.EventEmitter

	shutdownFns []func(context.Context) error
}

// New wires the full service graph over the given connection pool. The pool
// stays owned by the caller. Emitter backend selection: Kafka when brokers are
// configured, otherwise OTel log records when an OTLP endpoint is configured,
// otherwise a no-op.
func New(ctx context.Context, cfg *config.Config, pool *sql.DB) (*App, error) {
	codec, err := buildCodec(cfg)
	if err != nil {
		return nil, err
	}
	hasher := security.NewHasher(cfg.BcryptCost)

	users := userrepo.NewPostgresRepository(pool)
	tokens := refreshrepo.NewPostgresRepository(pool)
	blacklist := blacklistrepo.NewPostgresRepository(pool)
	attempts := attemptrepo.NewPostgresRepository(pool)

	tracker := attemptservice.NewTracker(attempts, cfg.LockoutThreshold, cfg.LockWindow(), cfg.LockDuration())

	a := &App{Tracker: tracker}

	emitter, err := a.buildEmitter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.Emitter = emitter

	a.Auth = authservice.NewAuthService(users, tokens, blacklist, tracker, hasher, codec, emitter)
	a.Sweeper = maintenance.NewSweeper(tokens, blacklist, attempts,
		cfg.SweepEvery(),
		daysToDuration(cfg.RevokedRetentionDays),
		daysToDuration(cfg.AttemptRetentionDays))
	return a, nil
}

// Shutdown flushes and closes telemetry backends. Call after in-flight
// requests have drained.
func (a *App) Shutdown(ctx context.Context) error {
	var lastErr error
	for i := len(a.shutdownFns) - 1; i >= 0; i-- {
		if err := a.shutdownFns[i](ctx); err != nil {
			log.Printf("app: shutdown: %v", err)
			lastErr = err
		}
	}
	return lastErr
}

func buildCodec(cfg *config.Config) (*security.TokenCodec, error) {
	accessSecret, err := security.LoadSecret(cfg.AccessTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_SECRET: %w", err)
	}
	refreshSecret, err := security.LoadSecret(cfg.RefreshTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_SECRET: %w", err)
	}
	return security.NewTokenCodec(
		security.TokenConfig{
			Secret:   accessSecret,
			Issuer:   cfg.AccessTokenIssuer,
			Audience: cfg.AccessTokenAudience,
			TTL:      cfg.AccessTTL(),
		},
		security.TokenConfig{
			Secret:   refreshSecret,
			Issuer:   cfg.RefreshTokenIssuer,
			Audience: cfg.RefreshTokenAudience,
			TTL:      cfg.RefreshTTL(),
		},
	)
}

func (a *App) buildEmitter(ctx context.Context, cfg *config.Config) (telemetry.EventEmitter, error) {
	if brokers := cfg.TelemetryKafkaBrokersList(); len(brokers) > 0 {
		p, err := producer.NewKafkaProducer(brokers, cfg.TelemetryKafkaTopic)
		if err != nil {
			return nil, err
		}
		if p != nil {
			a.shutdownFns = append(a.shutdownFns, func(context.Context) error { return p.Close() })
			return p, nil
		}
	}

	if cfg.OTLPEndpoint != "" {
		providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, "rental-auth-service", cfg.OTLPInsecure)
		if err != nil {
			return nil, err
		}
		providers.SetGlobal()
		a.shutdownFns = append(a.shutdownFns, providers.Shutdown)
		return otel.NewEventEmitter(providers.LoggerProvider), nil
	}

	return telemetry.Noop{}, nil
}

func daysToDuration(days int) time.Duration {
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}
