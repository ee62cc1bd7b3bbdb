package lexicon

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

// CachedDictionary memoizes successful lookups of another Dictionary.
// Misses and failures are not cached so that a transient outage does not
// leave a word permanently undefined.
type CachedDictionary struct {
	next  Dictionary
	cache *cache.Cache
}

// NewCachedDictionary wraps next with an in-process cache whose entries
// expire after ttl.
func NewCachedDictionary(next Dictionary, ttl time.Duration) *CachedDictionary {
	return &CachedDictionary{
		next:  next,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Define implements Dictionary.
func (d *CachedDictionary) Define(ctx context.Context, word string) (string, error) {
	key := strings.TrimSpace(word)
	if key == "" {
		return "", ErrEmptyText
	}

	if v, found := d.cache.Get(key); found {
		return v.(string), nil
	}

	definition, err := d.next.Define(ctx, key)
	if err != nil {
		return "", err
	}

	d.cache.Set(key, definition, cache.DefaultExpiration)
	return definition, nil
}

// Len returns the number of cached definitions, expired or not.
func (d *CachedDictionary) Len() int {
	return d.cache.ItemCount()
}

var _ Dictionary = (*CachedDictionary)(nil)

// PlaceholderDictionary knows no words. It is used when no LLM provider is
// configured, so captures keep their (possibly empty) meaning.
type PlaceholderDictionary struct{}

// Define implements Dictionary.
func (PlaceholderDictionary) Define(_ context.Context, word string) (string, error) {
	if strings.TrimSpace(word) == "" {
		return "", ErrEmptyText
	}
	return "", ErrDefinitionNotFound
}

var _ Dictionary = PlaceholderDictionary{}
