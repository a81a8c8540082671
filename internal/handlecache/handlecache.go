// Package handlecache memoizes the compiled handles templates produce on
// first use — compiled regexes (Regex → RegexCompiled) and compiled xlat
// programs (Xlat → XlatCompiled) — so a template reused across many
// requests pays the compilation cost once. It is grounded on the
// Ristretto-backed query cache used elsewhere in the example corpus,
// repurposed here from caching query results to caching compiled handles.
package handlecache

import (
	"fmt"
	"regexp"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/l0p7/tmplengine/internal/expr"
)

const (
	numCounters = 1e5
	bufferItems = 64

	// DefaultMaxCostBytes bounds the cache's estimated memory footprint; each
	// entry's cost is its source text length, a cheap proxy for compiled-
	// handle size.
	DefaultMaxCostBytes = 16 * 1024 * 1024

	// DefaultTTL bounds how long a compiled handle survives without reuse.
	DefaultTTL = 10 * time.Minute
)

// HandleCache is a thread-safe, shared cache of compiled regex and xlat
// handles keyed by their source text.
type HandleCache struct {
	store *ristretto.Cache

	hits   atomic.Int64
	misses atomic.Int64
}

// New builds a HandleCache with the given cost budget in bytes.
func New(maxCostBytes int64) (*HandleCache, error) {
	if maxCostBytes <= 0 {
		maxCostBytes = DefaultMaxCostBytes
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCostBytes,
		BufferItems: bufferItems,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("handlecache: create ristretto cache: %w", err)
	}
	return &HandleCache{store: store}, nil
}

type regexEntry struct {
	re    *regexp.Regexp
	iflag bool
	mflag bool
}

// GetRegex returns a previously cached compiled regex for pattern/iflag/mflag.
func (c *HandleCache) GetRegex(pattern string, iflag, mflag bool) (*regexp.Regexp, bool) {
	if c == nil {
		return nil, false
	}
	val, found := c.store.Get(regexKey(pattern, iflag, mflag))
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	entry, ok := val.(regexEntry)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return entry.re, true
}

// PutRegex stores a compiled regex under its pattern/flags key.
func (c *HandleCache) PutRegex(pattern string, iflag, mflag bool, re *regexp.Regexp) {
	if c == nil {
		return
	}
	key := regexKey(pattern, iflag, mflag)
	c.store.SetWithTTL(key, regexEntry{re: re, iflag: iflag, mflag: mflag}, int64(len(pattern)), DefaultTTL)
	c.store.Wait()
}

// GetXlat returns a previously cached compiled xlat program for source.
func (c *HandleCache) GetXlat(source string) (*expr.Program, bool) {
	if c == nil {
		return nil, false
	}
	val, found := c.store.Get(xlatKey(source))
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	prog, ok := val.(*expr.Program)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return prog, true
}

// PutXlat stores a compiled xlat program under its source key.
func (c *HandleCache) PutXlat(source string, prog *expr.Program) {
	if c == nil {
		return
	}
	c.store.SetWithTTL(xlatKey(source), prog, int64(len(source)), DefaultTTL)
	c.store.Wait()
}

// Snapshot reports cumulative hit/miss counters, for metrics export.
func (c *HandleCache) Snapshot() (hits, misses int64) {
	if c == nil {
		return 0, 0
	}
	return c.hits.Load(), c.misses.Load()
}

// Close releases the underlying cache's background goroutines.
func (c *HandleCache) Close() {
	if c == nil {
		return
	}
	c.store.Close()
}

func regexKey(pattern string, iflag, mflag bool) string {
	return fmt.Sprintf("re:%v:%v:%s", iflag, mflag, pattern)
}

func xlatKey(source string) string {
	return "xlat:" + source
}
