package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testDoc struct {
	ID        string   `json:"id"`
	Owner     string   `json:"owner"`
	CreatedAt int64    `json:"createdAt"`
	Tags      []string `json:"tags"`
}

func seed(t *testing.T, s *MemoryStore, docs ...testDoc) {
	t.Helper()
	for _, d := range docs {
		require.NoError(t, s.Set(context.Background(), "items", d.ID, d))
	}
}

func TestMemoryStore_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "items", "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	seed(t, s, testDoc{ID: "a", Owner: "u1", CreatedAt: 1700000000123})

	doc, err := s.Get(ctx, "items", "a")
	require.NoError(t, err)
	assert.Equal(t, "a", doc.ID())

	var got testDoc
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, int64(1700000000123), got.CreatedAt)
	assert.Equal(t, "u1", got.Owner)

	require.NoError(t, s.Delete(ctx, "items", "a"))
	require.NoError(t, s.Delete(ctx, "items", "a"), "deleting a missing document succeeds")
	_, err = s.Get(ctx, "items", "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Create(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Create(ctx, "items", "a", testDoc{ID: "a"}))
	err := s.Create(ctx, "items", "a", testDoc{ID: "a"})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestMemoryStore_UpdateArrayOps(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s, testDoc{ID: "a", Tags: []string{"x"}})

	require.NoError(t, s.Update(ctx, "items", "a", []Update{{Field: "tags", Value: ArrayUnion("y", "x")}}))
	var got testDoc
	doc, err := s.Get(ctx, "items", "a")
	require.NoError(t, err)
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, []string{"x", "y"}, got.Tags)

	require.NoError(t, s.Update(ctx, "items", "a", []Update{
		{Field: "tags", Value: ArrayRemove("x")},
		{Field: "owner", Value: "u9"},
	}))
	doc, err = s.Get(ctx, "items", "a")
	require.NoError(t, err)
	require.NoError(t, doc.DataTo(&got))
	assert.Equal(t, []string{"y"}, got.Tags)
	assert.Equal(t, "u9", got.Owner)

	err = s.Update(ctx, "items", "missing", []Update{{Field: "owner", Value: "u"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Query(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seed(t, s,
		testDoc{ID: "a", Owner: "u1", CreatedAt: 100},
		testDoc{ID: "b", Owner: "u2", CreatedAt: 200},
		testDoc{ID: "c", Owner: "u1", CreatedAt: 300},
		testDoc{ID: "d", Owner: "u1", CreatedAt: 400},
	)

	ids := func(docs []Document) []string {
		out := make([]string, 0, len(docs))
		for _, d := range docs {
			out = append(out, d.ID())
		}
		return out
	}

	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "descending with limit",
			query: Query{OrderBy: "createdAt", Descending: true, Limit: 2},
			want:  []string{"d", "c"},
		},
		{
			name:  "start after is exclusive",
			query: Query{OrderBy: "createdAt", Descending: true, StartAfter: int64(300)},
			want:  []string{"b", "a"},
		},
		{
			name:  "equality filter",
			query: Query{Where: []Filter{{Field: "owner", Value: "u1"}}, OrderBy: "createdAt", Descending: true},
			want:  []string{"d", "c", "a"},
		},
		{
			name:  "ascending",
			query: Query{OrderBy: "createdAt", StartAfter: int64(100), Limit: 2},
			want:  []string{"b", "c"},
		},
		{
			name:  "no match",
			query: Query{Where: []Filter{{Field: "owner", Value: "nobody"}}},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, err := s.Query(ctx, "items", tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
		})
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStore()
	_, err := s.Get(ctx, "items", "a")
	assert.ErrorIs(t, err, context.Canceled)
}
