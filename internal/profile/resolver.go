// Package profile resolves the role of the signed-in user from their profile
// document. Lookups fail open: anything short of a valid stored role yields
// the student role.
package profile

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/examforge/internal/config"
	"github.com/stemsi/examforge/internal/model"
	"github.com/stemsi/examforge/internal/repository"
	"github.com/stemsi/examforge/internal/session"
	"golang.org/x/sync/singleflight"
)

// DefaultRole is granted whenever the stored role cannot be used.
const DefaultRole = model.RoleStudent

// lookupTimeout bounds one shared profile fetch. The fetch outlives the
// caller that started it, since other callers may be waiting on it.
const lookupTimeout = 5 * time.Second

// Source reads profile documents.
type Source interface {
	Get(ctx context.Context, uid string) (*model.AppUser, error)
}

// State is the outcome of a role lookup. Role is empty only for a nil user.
// Err records a fetch failure that was absorbed by the fallback.
type State struct {
	Role    model.Role
	Loading bool
	Err     error
}

// Resolver looks roles up with a Redis cache in front of the profile store.
type Resolver struct {
	src   Source
	rdb   *redis.Client
	ttl   time.Duration
	group singleflight.Group
	log   zerolog.Logger

	mu       sync.Mutex
	inflight map[string]int

	unsubscribe func()
}

// NewResolver creates a Resolver. Cached roles are dropped whenever the hub
// reports a session change for the user.
func NewResolver(src Source, rdb *redis.Client, ttl time.Duration, hub *session.Hub, log zerolog.Logger) *Resolver {
	r := &Resolver{
		src:      src,
		rdb:      rdb,
		ttl:      ttl,
		log:      log.With().Str("component", "profile").Logger(),
		inflight: make(map[string]int),
	}
	if hub != nil {
		r.unsubscribe = hub.Subscribe(func(ev session.Event) {
			r.Invalidate(context.Background(), ev.UID)
		})
	}
	return r
}

// Close detaches the resolver from the session hub.
func (r *Resolver) Close() {
	if r.unsubscribe != nil {
		r.unsubscribe()
	}
}

// Resolve returns the role state for user. A nil user has no role and
// triggers no lookup. If ctx ends before the lookup settles the state is
// still loading.
func (r *Resolver) Resolve(ctx context.Context, user *session.User) State {
	if user == nil {
		return State{}
	}
	role, err := r.Role(ctx, user.UID)
	if err != nil && ctx.Err() != nil {
		return State{Loading: true, Err: err}
	}
	return State{Role: role, Err: err}
}

// Role returns the effective role for uid. The returned role is always
// usable; a non-nil error only reports why the fallback was taken.
func (r *Resolver) Role(ctx context.Context, uid string) (model.Role, error) {
	key := config.CacheKey.RoleKey(uid)

	cached, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		if role, ok := model.ParseRole(cached); ok {
			return role, nil
		}
	case !errors.Is(err, redis.Nil):
		r.log.Warn().Err(err).Str("uid", uid).Msg("Role cache read failed")
	}

	ch := r.group.DoChan(uid, func() (interface{}, error) {
		r.begin(uid)
		defer r.end(uid)
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return r.fetch(fctx, uid)
	})
	select {
	case res := <-ch:
		return res.Val.(model.Role), res.Err
	case <-ctx.Done():
		return DefaultRole, ctx.Err()
	}
}

// Loading reports whether a lookup for uid is in flight.
func (r *Resolver) Loading(uid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight[uid] > 0
}

// Invalidate drops the cached role for uid.
func (r *Resolver) Invalidate(ctx context.Context, uid string) {
	if err := r.rdb.Del(ctx, config.CacheKey.RoleKey(uid)).Err(); err != nil {
		r.log.Warn().Err(err).Str("uid", uid).Msg("Role cache invalidation failed")
	}
}

func (r *Resolver) fetch(ctx context.Context, uid string) (model.Role, error) {
	u, err := r.src.Get(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		return DefaultRole, nil
	}
	if err != nil {
		r.log.Warn().Err(err).Str("uid", uid).Msg("Role lookup failed, using default role")
		return DefaultRole, err
	}

	role, ok := model.ParseRole(string(u.Role))
	if !ok {
		return DefaultRole, nil
	}

	// Only stored roles are cached so a profile written later is picked up.
	if err := r.rdb.Set(ctx, config.CacheKey.RoleKey(uid), string(role), r.ttl).Err(); err != nil {
		r.log.Warn().Err(err).Str("uid", uid).Msg("Role cache write failed")
	}
	return role, nil
}

func (r *Resolver) begin(uid string) {
	r.mu.Lock()
	r.inflight[uid]++
	r.mu.Unlock()
}

func (r *Resolver) end(uid string) {
	r.mu.Lock()
	if r.inflight[uid]--; r.inflight[uid] <= 0 {
		delete(r.inflight, uid)
	}
	r.mu.Unlock()
}
