package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewellner/daybridge/internal/infrastructure/cache"
)

// CacheMiddleware caches successful GET responses per user and path.
type CacheMiddleware struct {
	cache  *cache.RedisClient
	prefix string
	ttl    time.Duration
}

func NewCacheMiddleware(cache *cache.RedisClient, prefix string, ttl time.Duration) *CacheMiddleware {
	return &CacheMiddleware{cache: cache, prefix: prefix, ttl: ttl}
}

// responseBuffer tees the response body so it can be cached after write.
type responseBuffer struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseBuffer) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

// CacheResponse serves GETs from cache when possible and fills the cache on
// a successful miss.
func (m *CacheMiddleware) CacheResponse() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := m.cacheKey(c)
		if cached, err := m.cache.Get(c, key); err == nil && cached != "" {
			// Undecodable entries are treated as misses so a corrupt
			// blob can never be replayed to a client.
			var response map[string]interface{}
			if err := json.Unmarshal([]byte(cached), &response); err == nil {
				c.JSON(http.StatusOK, response)
				c.Abort()
				return
			}
			log.Warn("Discarding undecodable cached response", zap.String("key", key))
		}

		writer := c.Writer
		buff := &responseBuffer{ResponseWriter: writer, body: &bytes.Buffer{}}
		c.Writer = buff

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := m.cache.Set(c, key, buff.body.String(), m.ttl); err != nil {
				log.Warn("Failed to cache response", zap.Error(err))
			}
		}
		c.Writer = writer
	}
}

// CacheInvalidate clears matching cache entries after a successful write.
func (m *CacheMiddleware) CacheInvalidate(patterns ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() >= 200 && c.Writer.Status() < 300 {
			uid, _ := GetUID(c)
			for _, pattern := range patterns {
				key := fmt.Sprintf("%s:%s:%s", m.prefix, pattern, uid)
				if err := m.cache.ClearByPattern(c, key+"*"); err != nil {
					log.Warn("Failed to invalidate cache",
						zap.String("pattern", pattern), zap.Error(err))
				}
			}
		}
	}
}

// cacheKey builds "<prefix>:<resource>:<uid>[:subpath][:query]". The middle
// segment is the resource type from the URL path so that CacheInvalidate's
// "<prefix>:<resource>:<uid>*" patterns match every entry for that resource.
func (m *CacheMiddleware) cacheKey(c *gin.Context) string {
	uid, _ := GetUID(c)

	parts := strings.Split(strings.Trim(c.Request.URL.Path, "/"), "/")
	resource := c.Request.URL.Path
	var rest []string
	if len(parts) >= 2 && parts[0] == "api" {
		resource = parts[1]
		rest = parts[2:]
	}

	key := fmt.Sprintf("%s:%s:%s", m.prefix, resource, uid)
	for _, p := range rest {
		key += ":" + p
	}
	if raw := c.Request.URL.RawQuery; raw != "" {
		key += ":" + raw
	}
	return key
}
