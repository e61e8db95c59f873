package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"deal-qualifier/internal/assess"
	"deal-qualifier/internal/config"
	"deal-qualifier/internal/kv"
	"deal-qualifier/internal/llm"
	"deal-qualifier/internal/logger"
	"deal-qualifier/internal/retry"
	"deal-qualifier/internal/secrets"
	"deal-qualifier/internal/session"
	"deal-qualifier/internal/store"
	"deal-qualifier/internal/view"
)

const (
	connectAttempts = 5
	connectBackoff  = 500 * time.Millisecond
)

// Deps bundles runtime dependencies for the web service.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	Assessor assess.Service
	Sessions *session.Manager
	Views    *view.Renderer
	// Close releases backend connections.
	Close func() error
}

// Build loads env, config, and shared components.
func Build(ctx context.Context) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	assessor, err := buildAssessor(cfg, secrets.Env{}, log)
	if err != nil {
		return Deps{}, err
	}
	stores, closeFn, err := buildKV(ctx, cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize key-value store: %w", err)
	}
	views, err := view.New()
	if err != nil {
		_ = closeFn()
		return Deps{}, fmt.Errorf("failed to parse templates: %w", err)
	}
	sessionSecret, err := buildSessionSecret(cfg, log)
	if err != nil {
		_ = closeFn()
		return Deps{}, err
	}

	return Deps{
		Config:   cfg,
		Log:      log,
		Store:    store.NewKVStore(stores, cfg.KVPageSize),
		Assessor: assessor,
		Sessions: session.NewManager(stores.Sessions, sessionSecret, cfg.SessionTTL, cfg.CookieSecure, log),
		Views:    views,
		Close:    closeFn,
	}, nil
}

func buildKV(ctx context.Context, cfg config.Config, log *slog.Logger) (kv.Stores, func() error, error) {
	noop := func() error { return nil }
	switch cfg.KVProvider {
	case "memory", "":
		log.Warn("using in-memory key-value store; data is lost on restart")
		return kv.Stores{
			Deals:       kv.NewMemory(),
			Assessments: kv.NewMemory(),
			Usage:       kv.NewMemory(),
			Sessions:    kv.NewMemory(),
		}, noop, nil
	case "redis":
		if cfg.RedisAddr == "" {
			return kv.Stores{}, noop, fmt.Errorf("REDIS_ADDR is required when KV_PROVIDER=redis")
		}
		var client *redis.Client
		err := retry.Do(ctx, connectAttempts, connectBackoff, func(ctx context.Context) error {
			c, err := kv.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
			if err != nil {
				log.Warn("redis not ready, retrying", "addr", cfg.RedisAddr, "err", err)
				return err
			}
			client = c
			return nil
		})
		if err != nil {
			return kv.Stores{}, noop, err
		}
		log.Info("using Redis key-value store", "addr", cfg.RedisAddr)
		return kv.Stores{
			Deals:       kv.NewRedis(client, kv.NamespaceDeals),
			Assessments: kv.NewRedis(client, kv.NamespaceAssessments),
			Usage:       kv.NewRedis(client, kv.NamespaceUsage),
			Sessions:    kv.NewRedis(client, kv.NamespaceSessions),
		}, client.Close, nil
	case "postgres":
		if cfg.DBURL == "" {
			return kv.Stores{}, noop, fmt.Errorf("DB_URL is required when KV_PROVIDER=postgres")
		}
		db, err := retryOpenPostgres(ctx, cfg.DBURL, log)
		if err != nil {
			return kv.Stores{}, noop, err
		}
		var stores kv.Stores
		for _, ns := range []struct {
			name string
			dst  *kv.Store
		}{
			{kv.NamespaceDeals, &stores.Deals},
			{kv.NamespaceAssessments, &stores.Assessments},
			{kv.NamespaceUsage, &stores.Usage},
			{kv.NamespaceSessions, &stores.Sessions},
		} {
			p, err := kv.NewPostgres(ctx, db, ns.name)
			if err != nil {
				_ = db.Close()
				return kv.Stores{}, noop, err
			}
			*ns.dst = p
		}
		log.Info("using Postgres key-value store")
		return stores, db.Close, nil
	default:
		return kv.Stores{}, noop, fmt.Errorf("invalid KV_PROVIDER: %s (valid options: memory, redis, postgres)", cfg.KVProvider)
	}
}

// buildAssessor binds the provider factory to the configured endpoints. The
// API key is resolved per assessment, so a key added to the secret store
// later is picked up without a restart.
func buildAssessor(cfg config.Config, sec secrets.Store, log *slog.Logger) (*assess.Assessor, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.LLMProvider)) {
	case "", llm.ProviderOpenAI, llm.ProviderAnthropic:
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER: %s (valid options: openai, anthropic)", cfg.LLMProvider)
	}
	opts := map[string]llm.Options{
		llm.ProviderOpenAI:    {BaseURL: cfg.OpenAIBaseURL},
		llm.ProviderAnthropic: {BaseURL: cfg.AnthropicBaseURL},
	}
	factory := func(name, model, apiKey string) (llm.Provider, error) {
		return llm.NewProvider(name, model, apiKey, opts[name])
	}
	a := assess.NewAssessor(assess.Config{Provider: cfg.LLMProvider, Model: cfg.LLMModel}, sec, factory, log)
	log.Info("assessment pipeline configured", "provider", cfg.LLMProvider, "model", cfg.LLMModel)
	return a, nil
}

func retryOpenPostgres(ctx context.Context, dsn string, log *slog.Logger) (*sql.DB, error) {
	var db *sql.DB
	err := retry.Do(ctx, connectAttempts, connectBackoff, func(ctx context.Context) error {
		d, err := kv.OpenPostgres(ctx, dsn)
		if err != nil {
			log.Warn("postgres not ready, retrying", "err", err)
			return err
		}
		db = d
		return nil
	})
	return db, err
}

func buildSessionSecret(cfg config.Config, log *slog.Logger) ([]byte, error) {
	if cfg.SessionSecret != "" {
		return []byte(cfg.SessionSecret), nil
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	log.Warn("SESSION_SECRET not set; using a random secret, sessions will not survive a restart")
	return secret, nil
}
