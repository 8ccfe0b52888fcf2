// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// IdempotencyValidator makes retried writes safe. A client sends the same
// Idempotency-Key when retrying POST /matchings, /matchings/{id}/complete or
// /matchings/{id}/cancel. The middleware validates the key, looks up an
// earlier successful result for (operator, scope, key) and, when one exists,
// marks the request as a replay carrying the stored resource id. Handlers
// answer replays with the current state of that resource instead of running
// the operation again.
//
// The scope is the HTTP method plus the matched route and its :id parameter,
// so the same key may be reused safely on different resources.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey      = "idem.key"
	ctxKeyIdemResource = "idem.resource"

	defaultIdemMaxLen = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// IdempotencyOptions configures key validation. TTL is enforced by the
// lookup.
type IdempotencyOptions struct {
	MaxLen  int            // defaults to 200
	Pattern *regexp.Regexp // defaults to ^[A-Za-z0-9._~\-:]+$
}

// IdempotencyLookup returns the resource id recorded for (operator, scope,
// key) if it is still valid at now. Lookup errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, operator, scope, key string, now time.Time) (resourceID int64, found bool, err error)

// IdempotencyScope is the scope a request's key is recorded under, e.g.
// "POST /api/v1/matchings/:id/complete#42".
func IdempotencyScope(c *gin.Context) string {
	scope := c.Request.Method + " " + c.FullPath()
	if id := c.Param("id"); id != "" {
		scope += "#" + id
	}
	return scope
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s, _ := v.(string)
	return s, s != ""
}

// ReplayedResource returns the resource id of an earlier successful request
// with the same key and scope.
func ReplayedResource(c *gin.Context) (int64, bool) {
	v, ok := c.Get(ctxKeyIdemResource)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// IsReplay reports whether ReplayedResource found a prior result.
func IsReplay(c *gin.Context) bool {
	_, ok := ReplayedResource(c)
	return ok
}

// IdempotencyValidator rejects malformed keys with 400 and annotates replays.
// Requests without the header pass through untouched. Safe methods ignore
// the header.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = defaultIdemMaxLen
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": GetRequestID(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			id, found, err := lookup(c.Request.Context(), OperatorID(c), IdempotencyScope(c), key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			} else if found {
				c.Set(ctxKeyIdemResource, id)
			}
		}
		c.Next()
	}
}
