package notify

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ivankudzin/botgate/internal/domain/platform"
)

const defaultCorrelationSize = 4096

// Correlations maps a delivered approval request back to the entity it is about.
// Entries expire after ttl so abandoned requests cannot resolve a later case.
type Correlations struct {
	cache *expirable.LRU[platform.SentMessage, int64]
}

func NewCorrelations(size int, ttl time.Duration) *Correlations {
	if size <= 0 {
		size = defaultCorrelationSize
	}
	return &Correlations{cache: expirable.NewLRU[platform.SentMessage, int64](size, nil, ttl)}
}

func (c *Correlations) Put(msg platform.SentMessage, entityID int64) {
	c.cache.Add(msg, entityID)
}

func (c *Correlations) Lookup(msg platform.SentMessage) (int64, bool) {
	return c.cache.Get(msg)
}

func (c *Correlations) Forget(msg platform.SentMessage) {
	c.cache.Remove(msg)
}

func (c *Correlations) Len() int {
	return c.cache.Len()
}
