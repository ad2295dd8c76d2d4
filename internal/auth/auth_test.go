package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct{ users []User }

func (m *memRepo) LoadAll() ([]User, error) { return append([]User{}, m.users...), nil }
func (m *memRepo) Upsert(u User) error {
	for i, x := range m.users {
		if x.ID == u.ID {
			m.users[i] = u
			return nil
		}
	}
	m.users = append(m.users, u)
	return nil
}
func (m *memRepo) Remove(id int64) error {
	out := make([]User, 0, len(m.users))
	for _, x := range m.users {
		if x.ID != id {
			out = append(out, x)
		}
	}
	m.users = out
	return nil
}

func TestServiceBasic(t *testing.T) {
	repo := &memRepo{users: []User{{ID: 10, Username: "alice"}}}
	svc, err := NewWithRepo(repo, []int64{20}, 99)
	if err != nil {
		t.Fatalf("init: %v", err)
	}

	if svc.Open() {
		t.Fatalf("allowlist present, service must not be open")
	}
	if !svc.IsAllowed(10) {
		t.Fatalf("repo preload not effective")
	}
	if !svc.IsAllowed(20) {
		t.Fatalf("initial env list not merged")
	}
	if svc.IsAllowed(30) {
		t.Fatalf("unexpected allowed")
	}
	if !svc.IsAllowed(99) {
		t.Fatalf("admin must always be allowed")
	}

	if err := svc.Upsert(User{ID: 30, Username: "bob"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !svc.IsAllowed(30) {
		t.Fatalf("upsert not effective")
	}

	if err := svc.Remove(10); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if svc.IsAllowed(10) {
		t.Fatalf("remove not effective")
	}

	lst := svc.List()
	if len(lst) != 2 || lst[0].ID != 20 || lst[1].ID != 30 {
		t.Fatalf("unexpected list: %+v", lst)
	}
	// ids from the environment list are not persisted
	if len(repo.users) != 1 || repo.users[0].ID != 30 {
		t.Fatalf("repo not updated: %+v", repo.users)
	}
}

func TestServiceOpenWhenEmpty(t *testing.T) {
	svc, err := NewWithRepo(nil, nil, 0)
	require.NoError(t, err)
	assert.True(t, svc.Open())
	assert.True(t, svc.IsAllowed(12345))
	assert.False(t, svc.IsAdmin(0))
}

func TestServiceOpenModeEndsOnUpsert(t *testing.T) {
	svc, err := NewWithRepo(&memRepo{}, nil, 99)
	require.NoError(t, err)
	require.True(t, svc.Open())

	require.NoError(t, svc.Upsert(User{ID: 5}))
	assert.False(t, svc.Open())
	assert.False(t, svc.IsAllowed(7))

	require.NoError(t, svc.Remove(5))
	assert.False(t, svc.Open(), "removing the last user must not reopen")
	assert.False(t, svc.IsAllowed(5))
	assert.False(t, svc.IsAllowed(7))
	assert.True(t, svc.IsAllowed(99))
}

func TestServiceRemoveLastUserStaysClosed(t *testing.T) {
	svc, err := NewWithRepo(nil, []int64{42}, 0)
	require.NoError(t, err)
	require.NoError(t, svc.Remove(42))
	assert.False(t, svc.Open())
	assert.False(t, svc.IsAllowed(7))
	assert.Empty(t, svc.List())
}

func TestFileRepository(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "allowlist.json")
	repo, err := NewFileRepository(p)
	require.NoError(t, err)

	users, err := repo.LoadAll()
	require.NoError(t, err)
	assert.Empty(t, users)

	require.NoError(t, repo.Upsert(User{ID: 1, Username: "a"}))
	require.NoError(t, repo.Upsert(User{ID: 2, Username: "b"}))
	require.NoError(t, repo.Upsert(User{ID: 1, Username: "a2"}))
	require.NoError(t, repo.Remove(2))

	users, err = repo.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []User{{ID: 1, Username: "a2"}}, users)

	svc, err := NewWithRepo(repo, nil, 0)
	require.NoError(t, err)
	assert.True(t, svc.IsAllowed(1))
	assert.False(t, svc.IsAllowed(2))

	require.NoError(t, os.WriteFile(p, []byte("{broken"), 0o644))
	_, err = repo.LoadAll()
	assert.Error(t, err)
}
