package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"whatsappbot/internal/knowledge"

	"github.com/google/uuid"
)

// WhatsApp caps message bodies at 1600 characters
const maxReplyBytes = 1500

var ErrNoKnowledge = errors.New("no stored data matches the question")

// Answerer writes an answer to question from the given context passages
type Answerer interface {
	Answer(ctx context.Context, question string, contexts []string) (string, error)
}

// ContentLoader resolves an add payload into the text to store
type ContentLoader interface {
	Load(ctx context.Context, source string) (string, error)
}

// KnowledgeBot stores added data and answers questions from it.
type KnowledgeBot struct {
	store       knowledge.Store
	loader      ContentLoader
	answerer    Answerer // nil answers with the best matching passage
	searchLimit int
	logger      *slog.Logger
	now         func() time.Time
}

func NewKnowledgeBot(store knowledge.Store, loader ContentLoader, answerer Answerer, searchLimit int, logger *slog.Logger) *KnowledgeBot {
	if logger == nil {
		logger = slog.Default()
	}
	if searchLimit < 1 {
		searchLimit = 1
	}
	return &KnowledgeBot{
		store:       store,
		loader:      loader,
		answerer:    answerer,
		searchLimit: searchLimit,
		logger:      logger,
		now:         time.Now,
	}
}

// Add loads source and stores its text
func (b *KnowledgeBot) Add(ctx context.Context, source string) error {
	content, err := b.loader.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("load %q: %w", source, err)
	}

	doc := knowledge.Document{
		ID:        uuid.New().String(),
		Source:    source,
		Content:   content,
		CreatedAt: b.now().UTC(),
	}
	if err := b.store.Save(ctx, doc); err != nil {
		return err
	}

	b.logger.Info("document_added", "id", doc.ID, "source", source, "bytes", len(content))
	return nil
}

// Query answers question from the stored documents
func (b *KnowledgeBot) Query(ctx context.Context, question string) (string, error) {
	docs, err := b.store.Search(ctx, question, b.searchLimit)
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}
	if len(docs) == 0 {
		return "", ErrNoKnowledge
	}

	if b.answerer == nil {
		return truncate(docs[0].Content, maxReplyBytes), nil
	}

	contexts := make([]string, len(docs))
	for i, doc := range docs {
		contexts[i] = doc.Content
	}

	answer, err := b.answerer.Answer(ctx, question, contexts)
	if err != nil {
		return "", fmt.Errorf("answer: %w", err)
	}
	return truncate(answer, maxReplyBytes), nil
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max - len("...")
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
