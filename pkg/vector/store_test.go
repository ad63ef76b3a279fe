package vector

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// mapEmbedder returns a canned vector per text so similarity is predictable.
type mapEmbedder struct {
	vectors map[string][]float32
}

func (m *mapEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := m.vectors[text]; ok {
		return vec, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestStore(t *testing.T, embedder Embedder) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Document{}))
	return NewStore(db, embedder, zerolog.Nop())
}

func TestStoreUpsertAndSearch(t *testing.T) {
	embedder := &mapEmbedder{vectors: map[string][]float32{
		"calculus notes":   {1, 0, 0},
		"circuit basics":   {0, 1, 0},
		"limits and rates": {0.9, 0.1, 0},
	}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "material:1", "calculus notes", "Mathematics"))
	require.NoError(t, store.Upsert(ctx, "material:2", "circuit basics", "Electronics"))

	matches, err := store.Search(ctx, "limits and rates", "", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "material:1", matches[0].Ref)
	require.Greater(t, matches[0].Relevance, 0.9)
}

func TestStoreUpsertReplaces(t *testing.T) {
	embedder := &mapEmbedder{vectors: map[string][]float32{
		"old content": {1, 0, 0},
		"new content": {0, 1, 0},
	}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "material:1", "old content", ""))
	require.NoError(t, store.Upsert(ctx, "material:1", "new content", ""))

	matches, err := store.Search(ctx, "new content", "", 10, 0.9)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "new content", matches[0].Content)
}

func TestStoreSearchSubjectFilter(t *testing.T) {
	embedder := &mapEmbedder{vectors: map[string][]float32{
		"calculus notes": {1, 0, 0},
		"algebra notes":  {1, 0, 0},
	}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "material:1", "calculus notes", "Mathematics"))
	require.NoError(t, store.Upsert(ctx, "material:2", "algebra notes", "Algebra"))

	matches, err := store.Search(ctx, "calculus notes", "Mathematics", 10, 0.5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "material:1", matches[0].Ref)
}

func TestStoreDelete(t *testing.T) {
	embedder := &mapEmbedder{vectors: map[string][]float32{"calculus notes": {1, 0, 0}}}
	store := newTestStore(t, embedder)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, "material:1", "calculus notes", ""))
	require.NoError(t, store.Delete(ctx, "material:1"))

	matches, err := store.Search(ctx, "calculus notes", "", 10, 0)
	require.NoError(t, err)
	require.Empty(t, matches)

	// Deleting an absent ref is not an error.
	require.NoError(t, store.Delete(ctx, "material:404"))
}

func TestCosineSimilarity(t *testing.T) {
	require.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	require.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	require.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	require.Zero(t, CosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	require.Zero(t, CosineSimilarity([]float32{0, 0}, []float32{0, 0}))
	require.Zero(t, CosineSimilarity(nil, nil))
}
