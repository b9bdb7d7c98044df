package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"whatsappbot/internal/knowledge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnswerer mocks the Answerer interface
type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, question string, contexts []string) (string, error) {
	args := m.Called(ctx, question, contexts)
	return args.String(0), args.Error(1)
}

// MockLoader mocks the ContentLoader interface
type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, source string) (string, error) {
	args := m.Called(ctx, source)
	return args.String(0), args.Error(1)
}

// failingStore fails every call
type failingStore struct{}

func (failingStore) Save(context.Context, knowledge.Document) error {
	return errors.New("store down")
}

func (failingStore) Search(context.Context, string, int) ([]knowledge.Document, error) {
	return nil, errors.New("store down")
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestAdd_StoresLoadedContent(t *testing.T) {
	store := knowledge.NewMemoryStore()
	loader := new(MockLoader)
	b := NewKnowledgeBot(store, loader, nil, 3, discard)

	loader.On("Load", mock.Anything, "https://example.com").Return("spacex launches rockets", nil)

	require.NoError(t, b.Add(context.Background(), "https://example.com"))
	assert.Equal(t, 1, store.Len())

	docs, err := store.Search(context.Background(), "rockets", 3)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "https://example.com", docs[0].Source)
	assert.NotEmpty(t, docs[0].ID)
	loader.AssertExpectations(t)
}

func TestAdd_LoaderError(t *testing.T) {
	store := knowledge.NewMemoryStore()
	loader := new(MockLoader)
	b := NewKnowledgeBot(store, loader, nil, 3, discard)

	loader.On("Load", mock.Anything, "").Return("", knowledge.ErrEmptySource)

	err := b.Add(context.Background(), "")
	assert.True(t, errors.Is(err, knowledge.ErrEmptySource))
	assert.Equal(t, 0, store.Len())
}

func TestAdd_StoreError(t *testing.T) {
	loader := new(MockLoader)
	b := NewKnowledgeBot(failingStore{}, loader, nil, 3, discard)

	loader.On("Load", mock.Anything, "hello").Return("hello", nil)

	assert.Error(t, b.Add(context.Background(), "hello"))
}

func TestQuery_NoKnowledge(t *testing.T) {
	b := NewKnowledgeBot(knowledge.NewMemoryStore(), new(MockLoader), nil, 3, discard)

	_, err := b.Query(context.Background(), "what is foo")
	assert.True(t, errors.Is(err, ErrNoKnowledge))
}

func TestQuery_StoreError(t *testing.T) {
	b := NewKnowledgeBot(failingStore{}, new(MockLoader), nil, 3, discard)

	_, err := b.Query(context.Background(), "what is foo")
	assert.ErrorContains(t, err, "store down")
}

func TestQuery_Extractive(t *testing.T) {
	store := knowledge.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, knowledge.Document{ID: "1", Content: "foo is a metasyntactic variable", CreatedAt: time.Now()}))

	b := NewKnowledgeBot(store, new(MockLoader), nil, 3, discard)

	answer, err := b.Query(ctx, "what is foo")
	require.NoError(t, err)
	assert.Equal(t, "foo is a metasyntactic variable", answer)
}

func TestQuery_WithAnswerer(t *testing.T) {
	store := knowledge.NewMemoryStore()
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, store.Save(ctx, knowledge.Document{ID: "1", Content: "foo is a variable", CreatedAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, knowledge.Document{ID: "2", Content: "foo and bar go together", CreatedAt: now}))
	require.NoError(t, store.Save(ctx, knowledge.Document{ID: "3", Content: "unrelated text", CreatedAt: now}))

	answerer := new(MockAnswerer)
	b := NewKnowledgeBot(store, new(MockLoader), answerer, 3, discard)

	answerer.On("Answer", mock.Anything, "what is foo", []string{"foo and bar go together", "foo is a variable"}).
		Return("foo is a placeholder name", nil)

	answer, err := b.Query(ctx, "what is foo")
	require.NoError(t, err)
	assert.Equal(t, "foo is a placeholder name", answer)
	answerer.AssertExpectations(t)
}

func TestQuery_AnswererError(t *testing.T) {
	store := knowledge.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, knowledge.Document{ID: "1", Content: "foo is a variable"}))

	answerer := new(MockAnswerer)
	b := NewKnowledgeBot(store, new(MockLoader), answerer, 3, discard)
	answerer.On("Answer", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota exceeded"))

	_, err := b.Query(ctx, "what is foo")
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))

	long := strings.Repeat("a", 20)
	assert.Equal(t, "aaaaaaa...", truncate(long, 10))

	// never split a multi-byte rune
	accented := strings.Repeat("é", 10)
	out := truncate(accented, 10)
	assert.LessOrEqual(t, len(out), 10)
	assert.True(t, strings.HasSuffix(out, "..."))
	assert.Equal(t, "ééé...", out)
}
