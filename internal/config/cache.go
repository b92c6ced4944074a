package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the public response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled.  Methods lists the HTTP methods to cache.  TTL bounds the
// lifetime of an entry; admin writes also invalidate entries eagerly.
// KeyStrategy determines which parts of the request contribute to the key.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" envDefault:"true"`
	MethodList   []string      `env:"CACHE_METHODS" envSeparator:"," envDefault:"GET"`
	TTL          time.Duration `env:"CACHE_TTL" envDefault:"60s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" envDefault:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" envDefault:"spiderhome:cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" envDefault:"1048576"`

	// Methods is MethodList as a lookup set, filled by Load.
	Methods map[string]bool
}

// normalize upper-cases the method list into a lookup set and fills in
// defaults for values that would make the cache useless.
func (c *CacheConfig) normalize() {
	c.Methods = parseMethods(c.MethodList)
	if len(c.Methods) == 0 {
		c.Methods = map[string]bool{"GET": true}
	}
	if c.TTL <= 0 {
		c.TTL = time.Minute
	}
	if c.Prefix == "" {
		c.Prefix = "spiderhome:cache"
	}
}

func parseMethods(list []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range list {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
