// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RedactingLogger is the access logger of the back office. Customer records
// carry phone numbers and, in free text, resident registration numbers and
// e-mail addresses, so nothing from the request body is logged and query
// strings and header values are scrubbed before they reach the log.
//
// It also installs a request-scoped logger (request id, operator, route) that
// handlers retrieve with LoggerFrom.
package middleware

import (
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions lists extra header names to mask entirely. Authorization,
// Cookie and Set-Cookie are always masked.
//
// NumericParams names query parameters that carry amounts, rates or paging
// values. A plain decimal in one of them is logged as is; anything else is
// scrubbed like the rest of the query.
type RedactOptions struct {
	MaskHeaders   []string
	NumericParams []string
}

var (
	// Korean resident registration number, e.g. 900101-1234567.
	rrnRE   = regexp.MustCompile(`\b\d{6}-?[1-8]\d{6}\b`)
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Domestic (010-1234-5678, 02-123-4567) and international forms.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)

	plainDecimalRE = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
)

// Redact scrubs identifiers from s. Order matters: the phone pattern is the
// loosest and would otherwise eat parts of the others.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = rrnRE.ReplaceAllString(s, "[REDACTED:rrn]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// redactQuery scrubs a raw query string parameter by parameter, keeping
// plain decimals in the numeric parameters. Unparseable queries are scrubbed
// whole.
func redactQuery(raw string, numeric map[string]struct{}) string {
	if raw == "" {
		return raw
	}
	vals, err := url.ParseQuery(raw)
	if err != nil {
		return Redact(raw)
	}
	keys := make([]string, 0, len(vals))
	for k := range vals {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		_, isNumeric := numeric[k]
		for _, v := range vals[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			if !isNumeric || !plainDecimalRE.MatchString(v) {
				v = Redact(v)
			}
			b.WriteString(Redact(k))
			b.WriteByte('=')
			b.WriteString(v)
		}
	}
	return b.String()
}

// RedactingLogger emits one structured line per request at info, warn (4xx)
// or error (5xx) level.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}
	numeric := make(map[string]struct{}, len(opts.NumericParams))
	for _, p := range opts.NumericParams {
		numeric[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = Redact(strings.Join(vv, ", "))
		}

		reqLog := log.With().
			Str("request_id", GetRequestID(c)).
			Str("operator", OperatorID(c)).
			Str("method", c.Request.Method).
			Str("route", route).
			Logger()
		c.Set(loggerKey, &reqLog)

		c.Next()

		status := c.Writer.Status()
		ev := reqLog.Info()
		switch {
		case status >= 500:
			ev = reqLog.Error()
		case status >= 400:
			ev = reqLog.Warn()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.
			Str("query", redactQuery(c.Request.URL.RawQuery, numeric)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}
