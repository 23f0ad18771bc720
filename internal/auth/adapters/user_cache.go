package adapters

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"podium/internal/auth/models"
)

// userCacheEntry holds a cached user with expiration.
type userCacheEntry struct {
	user      models.User
	expiresAt time.Time
}

// userCache keeps recently resolved users keyed by a hash of the access
// token, so raw tokens are never held as map keys.
type userCache struct {
	mu      sync.RWMutex
	entries map[string]userCacheEntry
	ttl     time.Duration
	now     func() time.Time
}

func newUserCache(ttl time.Duration) *userCache {
	return &userCache{
		entries: make(map[string]userCacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func tokenKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return hex.EncodeToString(sum[:])
}

// Get returns a cached user that has not expired.
func (c *userCache) Get(accessToken string) (*models.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[tokenKey(accessToken)]
	if !ok || c.now().After(entry.expiresAt) {
		return nil, false
	}
	user := entry.user
	return &user, true
}

// Set stores user and drops expired entries.
func (c *userCache) Set(accessToken string, user *models.User) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[tokenKey(accessToken)] = userCacheEntry{user: *user, expiresAt: now.Add(c.ttl)}
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Delete forgets the user for accessToken.
func (c *userCache) Delete(accessToken string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, tokenKey(accessToken))
}
