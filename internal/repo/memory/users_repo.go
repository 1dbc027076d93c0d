package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/google/uuid"
)

// UsersRepo keeps users in process memory. Email uniqueness is checked and
// written under the same lock.
type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User
	now   func() time.Time
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.mu.RLock()
	out := make([]user.User, 0, len(r.items))
	for _, u := range r.items {
		out = append(out, u)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id string) (user.User, error) {
	r.mu.RLock()
	u, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) Create(_ context.Context, in user.NewUser) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTakenLocked(in.Email, "") {
		return user.User{}, user.ErrEmailTaken
	}

	now := r.now()
	u := user.User{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.items[u.ID] = u

	return u, nil
}

func (r *UsersRepo) Update(_ context.Context, id string, ch user.Changes) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if ch.Email != nil && r.emailTakenLocked(*ch.Email, id) {
		return user.User{}, user.ErrEmailTaken
	}

	if ch.Name != nil {
		cur.Name = *ch.Name
	}
	if ch.Email != nil {
		cur.Email = *ch.Email
	}
	if ch.PasswordHash != nil {
		cur.PasswordHash = *ch.PasswordHash
	}
	cur.UpdatedAt = r.now()
	r.items[id] = cur

	return cur, nil
}

func (r *UsersRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return user.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// emails compare case-insensitively, like the postgres unique index on lower(email).
func (r *UsersRepo) emailTakenLocked(email, exceptID string) bool {
	for id, u := range r.items {
		if id != exceptID && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
