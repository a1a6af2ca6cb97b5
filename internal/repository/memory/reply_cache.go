package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// ReplyCache keeps deterministic assistant replies (suggestions, classifiers,
// formulas) so repeated clicks in the survey builder do not re-query the model.
type ReplyCache struct {
	cache *cache.Cache
}

func NewReplyCache(ttl time.Duration) *ReplyCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &ReplyCache{
		cache: cache.New(ttl, 2*ttl),
	}
}

// Key hashes the operation name and its inputs.
func Key(operation string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(operation))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(strings.TrimSpace(p)))
	}
	return operation + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}

func (r *ReplyCache) Save(key string, value any) {
	r.cache.Set(key, value, cache.DefaultExpiration)
}

func (r *ReplyCache) Get(key string) (any, bool) {
	return r.cache.Get(key)
}

func (r *ReplyCache) Delete(key string) {
	r.cache.Delete(key)
}

func (r *ReplyCache) Len() int {
	return r.cache.ItemCount()
}

// Lookup is a typed Get.
func Lookup[T any](r *ReplyCache, key string) (T, bool) {
	var zero T
	if r == nil {
		return zero, false
	}
	v, ok := r.cache.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	return typed, ok
}
