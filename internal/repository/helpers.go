package repository

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	DefaultPageSize int64 = 20
	MaxPageSize     int64 = 100
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a lexically sortable id for stores that do not mint their own.
// Ids minted within the same millisecond keep increasing.
func NewID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Now is the store clock: UTC with millisecond precision, the finest precision
// every backend round-trips unchanged.
func Now() time.Time {
	return Normalize(time.Now())
}

// Normalize brings a stored time to the store clock precision.
func Normalize(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC().Truncate(time.Millisecond)
}

// PageBounds clamps skip and limit of a listing request.
func PageBounds(skip, limit int64) (int64, int64) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return skip, limit
}

// UniqueIDs 去重并丢弃空 id，保留首次出现的顺序
func UniqueIDs(ids []string) []string {
	res := make([]string, 0, len(ids))
	existMap := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || existMap[id] {
			continue
		}
		existMap[id] = true
		res = append(res, id)
	}
	return res
}
