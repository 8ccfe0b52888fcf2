package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-agency-backoffice/internal/sysutil"
)

// env reads typed values from the process environment. Unset or empty
// variables yield the default; malformed ones are remembered and reported
// by err.
type env struct {
	problems []error
}

func (e *env) lookup(k string) (string, bool) {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *env) bad(k, v, want string) {
	e.problems = append(e.problems, fmt.Errorf("%s: %q is not a valid %s", k, v, want))
}

func (e *env) str(k, def string) string {
	if v, ok := e.lookup(k); ok {
		return v
	}
	return def
}

func (e *env) lower(k, def string) string {
	return strings.ToLower(strings.TrimSpace(e.str(k, def)))
}

func (e *env) int(k string, def int) int {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		e.bad(k, v, "integer")
		return def
	}
	return i
}

func (e *env) float(k string, def float64) float64 {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		e.bad(k, v, "number")
		return def
	}
	return f
}

func (e *env) dur(k string, def time.Duration) time.Duration {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		e.bad(k, v, "duration")
		return def
	}
	return d
}

func (e *env) bool(k string, def bool) bool {
	v, ok := e.lookup(k)
	if !ok {
		return def
	}
	b, known := sysutil.ParseBool(v)
	if !known {
		e.bad(k, v, "boolean")
		return def
	}
	return b
}

func (e *env) err() error {
	return errors.Join(e.problems...)
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
