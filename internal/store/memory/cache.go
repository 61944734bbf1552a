package memory

import (
	"strings"

	"github.com/patrickmn/go-cache"
)

// Cache is a LocalCache backed by go-cache with no expiration.
type Cache struct {
	c *cache.Cache
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{c: cache.New(cache.NoExpiration, 0)}
}

func (c *Cache) GetItem(key string) (string, bool, error) {
	v, ok := c.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, _ := v.(string)
	return s, true, nil
}

func (c *Cache) SetItem(key, value string) error {
	c.c.Set(key, value, cache.NoExpiration)
	return nil
}

func (c *Cache) RemoveItem(key string) error {
	c.c.Delete(key)
	return nil
}

// Keys returns every key starting with prefix, unordered.
func (c *Cache) Keys(prefix string) ([]string, error) {
	var out []string
	for k := range c.c.Items() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

// Len returns the number of cached items.
func (c *Cache) Len() int { return c.c.ItemCount() }
