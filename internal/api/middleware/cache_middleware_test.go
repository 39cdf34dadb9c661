package middleware

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	gzipmw "github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewellner/daybridge/internal/infrastructure/cache"
)

func newCacheFixture(t *testing.T) (*cache.RedisClient, *CacheMiddleware) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := cache.NewRedisClient(&cache.Config{
		Addr:             mr.Addr(),
		ConnTimeout:      time.Second,
		OperationTimeout: time.Second,
		DefaultTTL:       time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client, NewCacheMiddleware(client, "daybridge", time.Minute)
}

func sessionStub() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("uid", "user-1")
		c.Set("guest", true)
		c.Next()
	}
}

func decodeGzipJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	body := rec.Body.Bytes()
	if rec.Header().Get("Content-Encoding") == "gzip" {
		zr, err := gzip.NewReader(bytes.NewReader(body))
		require.NoError(t, err)
		defer zr.Close()
		var out bytes.Buffer
		_, err = out.ReadFrom(zr)
		require.NoError(t, err)
		body = out.Bytes()
	}
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &decoded), "body is not JSON: % x", body[:min(len(body), 8)])
	return decoded
}

func TestCacheHitStaysDecodableThroughGzip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, cm := newCacheFixture(t)

	payload := "v1"
	router := gin.New()
	router.Use(sessionStub())
	router.GET("/api/goals", gzipmw.Gzip(gzipmw.DefaultCompression), cm.CacheResponse(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": payload})
	})

	get := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		req.Header.Set("Accept-Encoding", "gzip")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := get()
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "gzip", first.Header().Get("Content-Encoding"))
	assert.Equal(t, "v1", decodeGzipJSON(t, first)["data"])

	// The second request is served from cache; the handler's payload has
	// moved on, so seeing v1 proves the hit path, and the body must still
	// decode as gzip-encoded JSON.
	payload = "v2"
	second := get()
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "gzip", second.Header().Get("Content-Encoding"))
	assert.Equal(t, "v1", decodeGzipJSON(t, second)["data"])
}

func TestMutationInvalidatesListCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, cm := newCacheFixture(t)

	payload := "v1"
	router := gin.New()
	router.Use(sessionStub())
	router.GET("/api/goals", cm.CacheResponse(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": payload})
	})
	router.POST("/api/goals", cm.CacheInvalidate("goals"), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"data": "created"})
	})

	get := func() map[string]interface{} {
		req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
		return decoded
	}

	assert.Equal(t, "v1", get()["data"])

	payload = "v2"
	assert.Equal(t, "v1", get()["data"], "repeat read within TTL is served from cache")

	req := httptest.NewRequest(http.MethodPost, "/api/goals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "v2", get()["data"], "mutation clears the cached list")
}

func TestInvalidationIsScopedToResourceAndUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	_, cm := newCacheFixture(t)

	habitsPayload := "h1"
	router := gin.New()
	router.Use(sessionStub())
	router.GET("/api/habits", cm.CacheResponse(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": habitsPayload})
	})
	router.POST("/api/goals", cm.CacheInvalidate("goals"), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"data": "created"})
	})

	get := func() map[string]interface{} {
		req := httptest.NewRequest(http.MethodGet, "/api/habits", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
		return decoded
	}

	assert.Equal(t, "h1", get()["data"])
	habitsPayload = "h2"

	req := httptest.NewRequest(http.MethodPost, "/api/goals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "h1", get()["data"], "a goals mutation leaves the habits cache alone")
}

func TestUndecodableCacheEntryFallsThroughToHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	client, cm := newCacheFixture(t)

	router := gin.New()
	router.Use(sessionStub())
	router.GET("/api/goals", cm.CacheResponse(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": "fresh"})
	})

	// A binary blob under the exact key the middleware computes, as if a
	// compressed body had been cached.
	require.NoError(t, client.Set(context.Background(), "daybridge:goals:user-1", "\x1f\x8b\x08\x00junk", time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/api/goals", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	assert.Equal(t, "fresh", decoded["data"])
}
