package cache

import (
	"sync"
	"time"

	"proposal/models"
)

// VisitorSessionCache stores visitor sessions by digest id.
type VisitorSessionCache struct {
	mu       sync.RWMutex
	sessions map[string]models.VisitorSession
}

func NewVisitorSessionCache() *VisitorSessionCache {
	return &VisitorSessionCache{sessions: make(map[string]models.VisitorSession)}
}

func (c *VisitorSessionCache) Add(s models.VisitorSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[s.ID] = s
}

func (c *VisitorSessionCache) Find(id string) (models.VisitorSession, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.sessions[id]
	return s, ok
}

func (c *VisitorSessionCache) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, id)
}

// PruneExpired drops sessions that expired before now.
func (c *VisitorSessionCache) PruneExpired(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for id, s := range c.sessions {
		if now.After(s.ExpiresAt) {
			delete(c.sessions, id)
			removed++
		}
	}
	return removed
}

func (c *VisitorSessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}
