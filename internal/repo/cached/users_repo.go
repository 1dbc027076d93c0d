package cached

import (
	"context"
	"encoding/json"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/geocoder89/userhub/internal/cache"
	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/utils"
)

const stripeCount = 64

type UsersStore interface {
	List(ctx context.Context) ([]user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
	Create(ctx context.Context, in user.NewUser) (user.User, error)
	Update(ctx context.Context, id string, ch user.Changes) (user.User, error)
	Delete(ctx context.Context, id string) error
}

// UsersRepo serves GetByID from a cache in front of the real store.
// Only the public view is cached: users read through this repo carry no
// PasswordHash. Cache faults never fail a request.
type UsersRepo struct {
	next  UsersStore
	cache cache.Store
	prom  *observability.Prom
	log   *slog.Logger

	// a fill is dropped when its key was invalidated while the store read ran
	stripes [stripeCount]stripe
}

type stripe struct {
	mu  sync.Mutex
	gen uint64
}

func NewUsersRepo(next UsersStore, c cache.Store, prom *observability.Prom, log *slog.Logger) *UsersRepo {
	if log == nil {
		log = slog.Default()
	}
	return &UsersRepo{next: next, cache: c, prom: prom, log: log}
}

func (r *UsersRepo) stripeFor(key string) *stripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &r.stripes[h.Sum32()%stripeCount]
}

func fromPublic(p user.Public) user.User {
	return user.User{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		IsActive:  p.IsActive,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (r *UsersRepo) List(ctx context.Context) ([]user.User, error) {
	return r.next.List(ctx)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	key := utils.BuildUserCacheKey(id)

	b, err := r.cache.Get(ctx, key)
	switch {
	case err == nil:
		var p user.Public
		decErr := json.Unmarshal(b, &p)
		if decErr == nil {
			r.prom.ObserveCache("hit")
			return fromPublic(p), nil
		}
		r.prom.ObserveCache("error")
		r.log.WarnContext(ctx, "user cache decode failed", "key", key, "err", decErr)
	case errors.Is(err, cache.ErrMiss):
		r.prom.ObserveCache("miss")
	default:
		r.prom.ObserveCache("error")
		r.log.WarnContext(ctx, "user cache get failed", "key", key, "err", err)
	}

	s := r.stripeFor(key)
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	u, err := r.next.GetByID(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	pub := u.Public()

	s.mu.Lock()
	if s.gen == gen {
		r.fill(ctx, key, pub)
	}
	s.mu.Unlock()

	return fromPublic(pub), nil
}

func (r *UsersRepo) Create(ctx context.Context, in user.NewUser) (user.User, error) {
	return r.next.Create(ctx, in)
}

func (r *UsersRepo) Update(ctx context.Context, id string, ch user.Changes) (user.User, error) {
	updated, err := r.next.Update(ctx, id, ch)
	r.invalidate(ctx, id)
	if err != nil {
		return user.User{}, err
	}
	return updated, nil
}

func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	err := r.next.Delete(ctx, id)
	r.invalidate(ctx, id)
	return err
}

func (r *UsersRepo) fill(ctx context.Context, key string, p user.Public) {
	b, err := json.Marshal(p)
	if err != nil {
		r.log.WarnContext(ctx, "user cache encode failed", "key", key, "err", err)
		return
	}
	if err := r.cache.Set(ctx, key, b); err != nil {
		r.log.WarnContext(ctx, "user cache set failed", "key", key, "err", err)
	}
}

func (r *UsersRepo) invalidate(ctx context.Context, id string) {
	key := utils.BuildUserCacheKey(id)

	s := r.stripeFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if err := r.cache.Delete(ctx, key); err != nil {
		r.log.WarnContext(ctx, "user cache delete failed", "key", key, "err", err)
	}
}
