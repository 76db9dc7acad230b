// Package id generates the identifiers used across the service.
//
// IDs are ULIDs with a type prefix (run_*, snip_*, req_*, conn_*), so they
// sort by creation time and read well in logs.
package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies one execution
type RunID string

// SnippetID identifies a saved program/tests pair
type SnippetID string

// RequestID identifies an API request
type RequestID string

// ConnID identifies a streaming connection
type ConnID string

const (
	RunPrefix     = "run"
	SnippetPrefix = "snip"
	RequestPrefix = "req"
	ConnPrefix    = "conn"
)

// Generator hands out monotonic ULIDs. Safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

var std = NewGenerator()

// Default returns the process-wide generator
func Default() *Generator {
	return std
}

func NewGenerator() *Generator {
	return &Generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Next returns a ULID strictly greater than any previous one from g
func (g *Generator) Next() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// String returns Next as text
func (g *Generator) String() string {
	return g.Next().String()
}

// Prefixed returns prefix_ULID
func (g *Generator) Prefixed(prefix string) string {
	return prefix + "_" + g.String()
}

func NewRunID() RunID         { return RunID(std.Prefixed(RunPrefix)) }
func NewSnippetID() SnippetID { return SnippetID(std.Prefixed(SnippetPrefix)) }
func NewRequestID() RequestID { return RequestID(std.Prefixed(RequestPrefix)) }
func NewConnID() ConnID       { return ConnID(std.Prefixed(ConnPrefix)) }

func (id RunID) String() string     { return string(id) }
func (id SnippetID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id ConnID) String() string    { return string(id) }

// IsValid reports whether s is a bare ULID
func IsValid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// IsPrefixed reports whether s is prefix_ULID
func IsPrefixed(s, prefix string) bool {
	rest, ok := strings.CutPrefix(s, prefix+"_")
	return ok && IsValid(rest)
}

// Timestamp extracts the creation time of an ID, prefixed or not
func Timestamp(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '_'); i >= 0 {
		s = s[i+1:]
	}
	parsed, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
