package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"whatsappbot/database"
	"whatsappbot/internal/config"
	"whatsappbot/internal/knowledge"
	"whatsappbot/internal/llm"
)

// Bootstrap builds the knowledge bot described by cfg, checking that every
// backing service is reachable. The returned cleanup releases them.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*KnowledgeBot, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("cleanup failed", "error", err)
			}
		}
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	var answerer Answerer
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiAnswerer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("gemini unavailable (check GEMINI_API_KEY): %w", err)
		}
		closers = append(closers, gemini.Close)
		answerer = gemini
		logger.Info("answerer_ready", "model", cfg.GeminiModel)
	} else {
		logger.Warn("GEMINI_API_KEY not set, answering with the best matching stored passage")
	}

	loader := knowledge.NewLoader(cfg.FetchTimeout, cfg.FetchRate)
	return NewKnowledgeBot(store, loader, answerer, cfg.SearchLimit, logger), cleanup, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (knowledge.Store, func() error, error) {
	switch cfg.KnowledgeStore {
	case config.StoreMemory:
		logger.Info("knowledge_store_ready", "kind", cfg.KnowledgeStore)
		return knowledge.NewMemoryStore(), nil, nil

	case config.StoreRedis:
		store, err := knowledge.NewRedisStore(ctx, cfg.RedisURL, cfg.RedisPassword, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("redis knowledge store unavailable (check REDIS_URL): %w", err)
		}
		logger.Info("knowledge_store_ready", "kind", cfg.KnowledgeStore)
		return store, store.Close, nil

	case config.StorePostgres:
		db, err := database.OpenGorm(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres knowledge store unavailable (check DATABASE_URL): %w", err)
		}
		store := knowledge.NewPostgresStore(db)
		if err := store.Migrate(ctx); err != nil {
			database.Close(db)
			return nil, nil, fmt.Errorf("migrate documents table: %w", err)
		}
		logger.Info("knowledge_store_ready", "kind", cfg.KnowledgeStore)
		return store, func() error { return database.Close(db) }, nil
	}

	return nil, nil, errors.New("unknown knowledge store: " + cfg.KnowledgeStore)
}
