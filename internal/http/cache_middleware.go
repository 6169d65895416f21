package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CacheKeyFunc derives a cache key from a request. The default key is
// METHOD:URI, extended with the query values and, for mutating methods, the
// body with sensitive fields removed.
type CacheKeyFunc func(*gin.Context) string

// CacheKeyByUser namespaces the key under the authenticated user so cached
// lists are never shared across identities.
func CacheKeyByUser(c *gin.Context) string {
	var id any = "anonymous"
	if ident, ok := IdentityFrom(c); ok {
		id = ident.ID
	}
	return fmt.Sprintf("user:%v:%s:%s", id, c.Request.Method, c.Request.URL.RequestURI())
}

// CacheKeyByParams keys on the route parameters.
func CacheKeyByParams(c *gin.Context) string {
	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}
	encoded, _ := json.Marshal(params)
	return fmt.Sprintf("%s:%s:%s", c.Request.Method, c.Request.URL.RequestURI(), encoded)
}

// CacheKeyByQuery keys on the query string values.
func CacheKeyByQuery(c *gin.Context) string {
	encoded, _ := json.Marshal(c.Request.URL.Query())
	return fmt.Sprintf("%s:%s:%s", c.Request.Method, c.Request.URL.RequestURI(), encoded)
}

// cacheFor serves a stored body on a hit without running the wrapped
// handler, so it must only guard idempotent routes. On a miss the outgoing
// body is captured and stored when the response is 2xx.
func (h *Handler) cacheFor(ttl time.Duration, keyFn CacheKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := defaultCacheKey(c)
		if keyFn != nil {
			key = keyFn(c)
		}

		if cached, ok := h.store.Get(key); ok {
			if body, ok := cached.([]byte); ok {
				h.logger.WithField("key", key).Debug("cache hit")
				c.Data(http.StatusOK, "application/json; charset=utf-8", body)
				c.Abort()
				return
			}
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer

		c.Next()

		status := c.Writer.Status()
		if status >= 200 && status < 300 && writer.body.Len() > 0 {
			h.logger.WithField("key", key).Debug("caching response")
			h.store.Set(key, writer.body.Bytes(), ttl)
		}
	}
}

// invalidateCache deletes, after a successful response, every cache key
// containing the given substring. It runs whether or not the request itself
// touched the cache.
func (h *Handler) invalidateCache(pattern string) gin.HandlerFunc {
	return h.invalidateCacheFunc(func(*gin.Context) string { return pattern })
}

func (h *Handler) invalidateCacheFunc(patternFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}

		pattern := patternFn(c)
		var doomed []string
		for _, key := range h.store.Keys() {
			if strings.Contains(key, pattern) {
				doomed = append(doomed, key)
			}
		}
		if len(doomed) == 0 {
			return
		}

		n := h.store.DeleteMany(doomed)
		h.logger.WithField("pattern", pattern).Debugf("invalidated %d cache entries", n)
	}
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

func defaultCacheKey(c *gin.Context) string {
	key := c.Request.Method + ":" + c.Request.URL.RequestURI()

	if query := c.Request.URL.Query(); len(query) > 0 {
		if encoded, err := json.Marshal(query); err == nil {
			key += ":" + string(encoded)
		}
	}

	switch c.Request.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		body := peekBody(c)
		if len(body) == 0 {
			break
		}
		var fields map[string]any
		if err := json.Unmarshal(body, &fields); err != nil {
			break
		}
		delete(fields, "password")
		delete(fields, "confirmPassword")
		delete(fields, "token")
		if encoded, err := json.Marshal(fields); err == nil {
			key += ":" + string(encoded)
		}
	}

	return key
}

// peekBody reads the request body and puts it back so binding still works.
func peekBody(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(data))
	return data
}
