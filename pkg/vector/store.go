// Package vector implements semantic search over study content. Embeddings
// are produced by an external model, persisted alongside their source text,
// and ranked in process by cosine similarity.
package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Embedder converts text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Document is one indexed piece of content. Ref identifies the source row,
// e.g. "material:42".
type Document struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Ref       string         `gorm:"size:64;uniqueIndex;not null" json:"ref"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	Subject   string         `gorm:"size:200;index" json:"subject"`
	Embedding datatypes.JSON `gorm:"type:jsonb;not null" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Match is a search hit with its relevance in [0, 1].
type Match struct {
	Ref       string  `json:"ref"`
	Content   string  `json:"content"`
	Subject   string  `json:"subject"`
	Relevance float64 `json:"relevance"`
}

// Store indexes documents and answers similarity queries.
type Store struct {
	db       *gorm.DB
	embedder Embedder
	logger   zerolog.Logger
}

// NewStore builds a GORM-backed vector store.
func NewStore(db *gorm.DB, embedder Embedder, logger zerolog.Logger) *Store {
	return &Store{
		db:       db,
		embedder: embedder,
		logger:   logger.With().Str("component", "vector").Logger(),
	}
}

// Upsert embeds the content and stores it under ref, replacing any previous
// document for the same ref.
func (s *Store) Upsert(ctx context.Context, ref, content, subject string) error {
	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("embed document: %w", err)
	}

	raw, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("encode embedding: %w", err)
	}

	doc := Document{Ref: ref, Content: content, Subject: subject, Embedding: raw}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("ref = ?", ref).Delete(&Document{}).Error; err != nil {
			return err
		}
		return tx.Create(&doc).Error
	})
}

// Delete removes the document stored under ref, if any.
func (s *Store) Delete(ctx context.Context, ref string) error {
	return s.db.WithContext(ctx).Where("ref = ?", ref).Delete(&Document{}).Error
}

// Search embeds the query and returns up to limit matches with relevance of
// at least minRelevance, best first. Relevance is 1 minus cosine distance.
func (s *Store) Search(ctx context.Context, query, subject string, limit int, minRelevance float64) ([]Match, error) {
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	dbq := s.db.WithContext(ctx)
	if subject != "" {
		dbq = dbq.Where("subject = ?", subject)
	}

	var docs []Document
	if err := dbq.Find(&docs).Error; err != nil {
		return nil, err
	}

	matches := make([]Match, 0, len(docs))
	for _, doc := range docs {
		var docVec []float32
		if err := json.Unmarshal(doc.Embedding, &docVec); err != nil {
			s.logger.Warn().Str("ref", doc.Ref).Err(err).Msg("skipping document with bad embedding")
			continue
		}

		relevance := CosineSimilarity(queryVec, docVec)
		if relevance < minRelevance {
			continue
		}
		matches = append(matches, Match{
			Ref:       doc.Ref,
			Content:   doc.Content,
			Subject:   doc.Subject,
			Relevance: relevance,
		})
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].Relevance > matches[j].Relevance })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	return matches, nil
}

// CosineSimilarity returns the cosine of the angle between two vectors, or 0
// when the vectors differ in length or either is zero.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
