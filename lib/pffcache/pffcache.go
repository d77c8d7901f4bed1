// Package pffcache wraps lib/containers' hashicorp/golang-lru-backed
// LRUCache into a bounded cache over positioned reads (§5 "Caches are
// bounded per-subsystem... default 8 entries for index nodes, 64 for
// data blocks"). Open Question resolution (recorded in DESIGN.md):
// rather than keeping index-node and data-block pools physically
// separate, one CachingFile decorator caches every ReadAt the core
// issues, keyed by (offset, length) — a node read and a block read
// are both just positioned reads from this layer's point of view, so
// one bounded pool, sized to the data-block default, serves both
// without the dead second pool a literal two-pool split would leave
// unexercised until every call site threaded a "which pool" flag
// through.
package pffcache

import (
	"github.com/libpff-rec/pff-rec/lib/containers"
	"github.com/libpff-rec/pff-rec/lib/pffdiskio"
	"github.com/libpff-rec/pff-rec/lib/textui"
)

// DefaultSize is the default bound on cached positioned reads,
// matching the spec's data-block default (the larger of the two
// stated defaults, since blocks outnumber nodes in a typical walk).
// Wrapped in textui.Tunable per teacher's own convention for constants
// that are candidates for later profiling-driven adjustment (e.g.
// keyio.go's LRU cache size in the teacher repo).
var DefaultSize = textui.Tunable(64)

type rangeKey struct {
	Offset int64
	Length int
}

// CachingFile decorates a pffdiskio.File, caching the bytes returned
// by ReadAt keyed by (offset, length). It is read-only and safe to
// share across every layer of the core that holds the same
// underlying file, since nothing in this module ever writes back.
type CachingFile struct {
	pffdiskio.File
	cache *containers.LRUCache[rangeKey, []byte]
}

// Wrap returns a CachingFile over f with the given bound (0 uses
// DefaultSize).
func Wrap(f pffdiskio.File, size int) *CachingFile {
	if size <= 0 {
		size = DefaultSize
	}
	return &CachingFile{
		File:  f,
		cache: containers.NewLRUCache[rangeKey, []byte](size),
	}
}

// ReadAt serves p from the cache when an identical (offset, length)
// range was read before, otherwise reads through to the underlying
// file and caches the result.
func (c *CachingFile) ReadAt(p []byte, off int64) (int, error) {
	key := rangeKey{Offset: off, Length: len(p)}
	if cached, ok := c.cache.Get(key); ok {
		return copy(p, cached), nil
	}
	n, err := c.File.ReadAt(p, off)
	if err != nil {
		return n, err
	}
	cached := append([]byte(nil), p[:n]...)
	c.cache.Add(key, cached)
	return n, nil
}

// Len reports current occupancy.
func (c *CachingFile) Len() int { return c.cache.Len() }
