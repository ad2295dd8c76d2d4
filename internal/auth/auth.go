package auth

import (
	"sort"
	"sync"
)

type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

type Repository interface {
	LoadAll() ([]User, error)
	Upsert(user User) error
	Remove(userID int64) error
}

// Service guards the chat transport. It starts in open mode when no user is
// configured and leaves it on the first Upsert; removals never reopen it.
// The admin is always allowed.
type Service struct {
	mu      sync.RWMutex
	repo    Repository
	adminID int64
	allowed map[int64]User
	open    bool
}

func NewWithRepo(repo Repository, initial []int64, adminID int64) (*Service, error) {
	s := &Service{repo: repo, adminID: adminID, allowed: make(map[int64]User)}
	if repo != nil {
		users, err := repo.LoadAll()
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			s.allowed[u.ID] = u
		}
	}
	for _, id := range initial {
		if _, ok := s.allowed[id]; !ok {
			s.allowed[id] = User{ID: id}
		}
	}
	s.open = len(s.allowed) == 0
	return s, nil
}

// Open reports whether no allowlist is in force.
func (s *Service) Open() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

func (s *Service) IsAdmin(userID int64) bool {
	return s.adminID != 0 && userID == s.adminID
}

func (s *Service) IsAllowed(userID int64) bool {
	if s.IsAdmin(userID) {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.open {
		return true
	}
	_, ok := s.allowed[userID]
	return ok
}

func (s *Service) Upsert(user User) error {
	s.mu.Lock()
	s.allowed[user.ID] = user
	s.open = false
	s.mu.Unlock()
	if s.repo != nil {
		return s.repo.Upsert(user)
	}
	return nil
}

func (s *Service) Remove(userID int64) error {
	s.mu.Lock()
	delete(s.allowed, userID)
	s.mu.Unlock()
	if s.repo != nil {
		return s.repo.Remove(userID)
	}
	return nil
}

// List returns allowed users ordered by id.
func (s *Service) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]User, 0, len(s.allowed))
	for _, u := range s.allowed {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
