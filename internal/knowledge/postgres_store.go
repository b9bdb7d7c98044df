package knowledge

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// candidates loaded from postgres before ranking
const postgresCandidateLimit = 100

// PostgresStore keeps documents in the documents table.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates or updates the documents table
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Document{})
}

func (s *PostgresStore) Save(ctx context.Context, doc Document) error {
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return fmt.Errorf("save document %s: %w", doc.ID, err)
	}
	return nil
}

func (s *PostgresStore) Search(ctx context.Context, query string, limit int) ([]Document, error) {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil, nil
	}

	// any document whose content or source contains a term is a candidate,
	// the same text Rank scores
	pattern := "%" + terms[0] + "%"
	cond := s.db.Where("content ILIKE ?", pattern).Or("source ILIKE ?", pattern)
	for _, term := range terms[1:] {
		pattern = "%" + term + "%"
		cond = cond.Or("content ILIKE ?", pattern).Or("source ILIKE ?", pattern)
	}

	var docs []Document
	err := s.db.WithContext(ctx).
		Where(cond).
		Order("created_at DESC").
		Limit(postgresCandidateLimit).
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("search documents: %w", err)
	}

	return Rank(docs, query, limit), nil
}
