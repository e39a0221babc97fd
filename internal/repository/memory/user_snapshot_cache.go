package memory

import (
	"time"

	"realtime-chat-be/internal/entity"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// UserSnapshotCache keeps short-lived user snapshots so the websocket handshake
// and payload shaping don't hit the database on every connection.
type UserSnapshotCache struct {
	cache *cache.Cache
}

func NewUserSnapshotCache() *UserSnapshotCache {
	// 5 minute TTL, purge sweep every 10 minutes
	c := cache.New(5*time.Minute, 10*time.Minute)
	return &UserSnapshotCache{cache: c}
}

func (r *UserSnapshotCache) Set(user *entity.User) {
	r.cache.Set(user.Id.String(), user, cache.DefaultExpiration)
}

func (r *UserSnapshotCache) Get(userId uuid.UUID) (*entity.User, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		return x.(*entity.User), true
	}
	return nil, false
}

func (r *UserSnapshotCache) Invalidate(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}
