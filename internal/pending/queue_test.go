package pending

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medi-plus/internal/auth"
)

func TestQueue_AddOnce(t *testing.T) {
	q, err := New(nil)
	require.NoError(t, err)

	added, err := q.Add(auth.User{ID: 5, Username: "x"})
	require.NoError(t, err)
	assert.True(t, added)

	added, err = q.Add(auth.User{ID: 5, Username: "x"})
	require.NoError(t, err)
	assert.False(t, added)

	require.NoError(t, q.Remove(5))
	require.NoError(t, q.Remove(5))
	assert.Empty(t, q.List())
}

func TestQueue_PersistsThroughRepository(t *testing.T) {
	p := filepath.Join(t.TempDir(), "pending.json")
	repo, err := auth.NewFileRepository(p)
	require.NoError(t, err)

	q, err := New(repo)
	require.NoError(t, err)
	_, err = q.Add(auth.User{ID: 2})
	require.NoError(t, err)
	_, err = q.Add(auth.User{ID: 1})
	require.NoError(t, err)

	reloaded, err := New(repo)
	require.NoError(t, err)
	assert.Equal(t, []auth.User{{ID: 1}, {ID: 2}}, reloaded.List())

	added, err := reloaded.Add(auth.User{ID: 2})
	require.NoError(t, err)
	assert.False(t, added, "already queued before restart")
}
