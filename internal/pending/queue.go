// Package pending tracks users who asked for access while the allowlist is
// in force, so the admin is notified once per user.
package pending

import (
	"fmt"
	"sort"
	"sync"

	"medi-plus/internal/auth"
)

type Queue struct {
	mu    sync.Mutex
	repo  auth.Repository
	users map[int64]auth.User
}

// New loads queued requests from repo. A nil repo keeps the queue in memory.
func New(repo auth.Repository) (*Queue, error) {
	q := &Queue{repo: repo, users: make(map[int64]auth.User)}
	if repo == nil {
		return q, nil
	}
	users, err := repo.LoadAll()
	if err != nil {
		return nil, fmt.Errorf("load pending: %w", err)
	}
	for _, u := range users {
		q.users[u.ID] = u
	}
	return q, nil
}

// Add queues user and reports whether it was not queued before.
func (q *Queue) Add(user auth.User) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.users[user.ID]; ok {
		return false, nil
	}
	q.users[user.ID] = user
	if q.repo != nil {
		if err := q.repo.Upsert(user); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (q *Queue) Remove(userID int64) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.users[userID]; !ok {
		return nil
	}
	delete(q.users, userID)
	if q.repo != nil {
		return q.repo.Remove(userID)
	}
	return nil
}

func (q *Queue) List() []auth.User {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]auth.User, 0, len(q.users))
	for _, u := range q.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
