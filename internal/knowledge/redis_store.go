package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisDocKeyPrefix = "knowledge:doc:"
	redisDocIndexKey  = "knowledge:docs"
)

// RedisStore keeps each document in a hash and the document IDs in a set.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisStore connects to redisURL (redis://[:password@]host:port/db) and
// verifies the connection. A non-empty password overrides the URL's.
func NewRedisStore(ctx context.Context, redisURL, password string, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: rdb, logger: logger}, nil
}

func (s *RedisStore) Save(ctx context.Context, doc Document) error {
	key := redisDocKeyPrefix + doc.ID
	fields := map[string]any{
		"id":         doc.ID,
		"source":     doc.Source,
		"content":    doc.Content,
		"created_at": doc.CreatedAt.Format(time.RFC3339Nano),
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.SAdd(ctx, redisDocIndexKey, doc.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *RedisStore) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	ids, err := s.client.SMembers(ctx, redisDocIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	cmds, err := s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.HGetAll(ctx, redisDocKeyPrefix+id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	docs := make([]Document, 0, len(cmds))
	for _, cmd := range cmds {
		fields, err := cmd.(*redis.MapStringStringCmd).Result()
		if err != nil || len(fields) == 0 {
			continue
		}
		// a document without a valid timestamp cannot be ordered, leave it out
		createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
		if err != nil {
			s.logger.Warn("skipping document with invalid created_at", "id", fields["id"], "error", err)
			continue
		}
		docs = append(docs, Document{
			ID:        fields["id"],
			Source:    fields["source"],
			Content:   fields["content"],
			CreatedAt: createdAt,
		})
	}

	return Rank(docs, query, limit), nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
