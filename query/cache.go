package query

import (
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

type cachedDescriptor struct {
	desc    Descriptor
	modTime time.Time
}

// Cache keeps compiled descriptors keyed by source path, invalidated by the
// source's modification time. Lookups are safe for concurrent use; a racing
// recompile of the same source+mtime is last-writer-wins, which is fine
// because the compiled descriptors are equivalent.
type Cache struct {
	compiler Compiler
	entries  *lru.Cache[uint64, cachedDescriptor]
}

// NewCache creates a descriptor cache of the given size.
func NewCache(compiler Compiler, size int) (*Cache, error) {
	entries, err := lru.New[uint64, cachedDescriptor](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create descriptor cache: %w", err)
	}

	return &Cache{
		compiler: compiler,
		entries:  entries,
	}, nil
}

// Get returns the descriptor compiled from path. The cached instance is
// returned as long as modTime matches the entry; an edited source recompiles.
func (c *Cache) Get(path string, modTime time.Time) (Descriptor, error) {
	key := xxhash.Sum64String(path)

	if cached, ok := c.entries.Get(key); ok && cached.modTime.Equal(modTime) {
		return cached.desc, nil
	}

	desc, err := c.compiler.Compile(path)
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, cachedDescriptor{desc: desc, modTime: modTime})
	return desc, nil
}

// Len reports the number of cached descriptors.
func (c *Cache) Len() int {
	return c.entries.Len()
}
