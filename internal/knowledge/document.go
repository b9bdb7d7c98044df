package knowledge

import (
	"context"
	"errors"
	"time"
)

var (
	ErrEmptySource = errors.New("empty source")
	ErrFetch       = errors.New("fetch failed")
)

// Document is a piece of text added to the bot's knowledge
type Document struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Source    string    `json:"source" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists documents and finds the ones relevant to a query
type Store interface {
	Save(ctx context.Context, doc Document) error
	Search(ctx context.Context, query string, limit int) ([]Document, error)
}
