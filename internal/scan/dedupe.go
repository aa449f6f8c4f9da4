package scan

import (
	"sync"
	"time"
)

// DedupeCache remembers recently decoded codes so a code held in front of a camera
// is reported once per cooldown
type DedupeCache struct {
	seen     map[string]time.Time
	mutex    sync.Mutex
	cooldown time.Duration
	now      func() time.Time
}

func NewDedupeCache(cooldown time.Duration) *DedupeCache {
	if cooldown <= 0 {
		cooldown = 2 * time.Second
	}
	return &DedupeCache{
		seen:     make(map[string]time.Time),
		cooldown: cooldown,
		now:      time.Now,
	}
}

// Seen records result and reports whether it was already seen within the cooldown
func (dc *DedupeCache) Seen(result *Result) bool {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()

	now := dc.now()
	for key, at := range dc.seen {
		// entries live for two cooldowns
		if now.Sub(at) > dc.cooldown*2 {
			delete(dc.seen, key)
		}
	}

	key := result.Format + "|" + result.Text
	last, exists := dc.seen[key]
	dc.seen[key] = now
	return exists && now.Sub(last) < dc.cooldown
}

// Len is the number of remembered codes
func (dc *DedupeCache) Len() int {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()
	return len(dc.seen)
}
