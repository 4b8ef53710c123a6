package cache

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"genres/internal/descriptor"
	"genres/internal/hierarchy"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"
)

// Cache shares built closures between callers. Entries are keyed by root and the sorted,
// deduplicated ignored set; a key is built at most once even under concurrent demand.
// Declarations are treated as fixed for the lifetime of a cache: a changed registry needs
// a new cache.
type Cache struct {
	reg     descriptor.Registry
	entries sync.Map // uint64 -> *entry
	group   singleflight.Group

	hits   atomic.Int64
	builds atomic.Int64
}

type entry struct {
	key     string
	closure *hierarchy.Closure
}

// Stats reports how often a closure was served from the cache versus built.
type Stats struct {
	Entries int
	Hits    int64
	Builds  int64
}

func New(reg descriptor.Registry) *Cache {
	return &Cache{reg: reg}
}

func (c *Cache) Registry() descriptor.Registry {
	return c.reg
}

// Get returns the closure of root with the given ignored types, building it on first use.
// Build errors are returned to every waiting caller and are not cached.
func (c *Cache) Get(root descriptor.TypeID, ignored ...descriptor.TypeID) (*hierarchy.Closure, error) {
	key := Key(root, ignored)
	sum := xxhash.Sum64String(key)

	if e, ok := c.lookup(sum, key); ok {
		c.hits.Add(1)
		return e.closure, nil
	}

	v, err, _ := c.group.Do(strconv.FormatUint(sum, 16)+":"+key, func() (interface{}, error) {
		if e, ok := c.lookup(sum, key); ok {
			c.hits.Add(1)
			return e.closure, nil
		}
		closure, err := hierarchy.Build(c.reg, root, ignored...)
		if err != nil {
			return nil, err
		}
		c.builds.Add(1)
		c.entries.Store(sum, &entry{key: key, closure: closure})
		return closure, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*hierarchy.Closure), nil
}

// lookup guards against digest collisions by comparing the full key.
func (c *Cache) lookup(sum uint64, key string) (*entry, bool) {
	v, ok := c.entries.Load(sum)
	if !ok {
		return nil, false
	}
	e := v.(*entry)
	if e.key != key {
		return nil, false
	}
	return e, true
}

func (c *Cache) Stats() Stats {
	n := 0
	c.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return Stats{Entries: n, Hits: c.hits.Load(), Builds: c.builds.Load()}
}

// Key renders the cache key of root and an ignored set, e.g. "A|B,C".
func Key(root descriptor.TypeID, ignored []descriptor.TypeID) string {
	set := make(map[descriptor.TypeID]bool, len(ignored))
	names := make([]string, 0, len(ignored))
	for _, id := range ignored {
		if !set[id] {
			set[id] = true
			names = append(names, string(id))
		}
	}
	sort.Strings(names)
	return string(root) + "|" + strings.Join(names, ",")
}
