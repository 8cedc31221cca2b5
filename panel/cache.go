package panel

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/polarsignals/pqexplorer"
	"github.com/polarsignals/pqexplorer/storage"
)

// Loader produces the Result for a file.
type Loader interface {
	Load(ctx context.Context, name string) (*pqexplorer.Result, error)
}

// LoaderFunc adapts a function, like Processor.ProcessFile, to a Loader.
type LoaderFunc func(ctx context.Context, name string) (*pqexplorer.Result, error)

func (f LoaderFunc) Load(ctx context.Context, name string) (*pqexplorer.Result, error) {
	return f(ctx, name)
}

// DefaultCacheSize is the number of decoded files a Cache keeps.
const DefaultCacheSize = 16

type cacheEntry struct {
	info   storage.Info
	result *pqexplorer.Result
}

// Cache keeps the Results of recently loaded files. An entry is only served
// while the size and modification time of its file are unchanged.
type Cache struct {
	logger    log.Logger
	processor *pqexplorer.Processor
	source    storage.Source
	entries   *lru.Cache[string, cacheEntry]
}

var _ Loader = (*Cache)(nil)

func NewCache(logger log.Logger, processor *pqexplorer.Processor, source storage.Source, size int) (*Cache, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{
		logger:    logger,
		processor: processor,
		source:    source,
		entries:   entries,
	}, nil
}

// Load returns the cached Result of name, decoding the file again when it
// changed since it was cached.
func (c *Cache) Load(ctx context.Context, name string) (*pqexplorer.Result, error) {
	info, err := c.source.Stat(ctx, name)
	if err != nil {
		c.entries.Remove(name)
		return nil, err
	}

	if e, ok := c.entries.Get(name); ok {
		if sameFile(e.info, info) {
			return e.result, nil
		}
		level.Debug(c.logger).Log("msg", "file changed, evicting cached result", "file", name)
		c.entries.Remove(name)
	}

	data, err := c.source.ReadAll(ctx, name)
	if err != nil {
		return nil, err
	}
	res, err := c.processor.Decode(ctx, data)
	if err != nil {
		return nil, err
	}
	c.entries.Add(name, cacheEntry{info: info, result: res})
	return res, nil
}

// Invalidate drops the cached Result of name.
func (c *Cache) Invalidate(name string) {
	c.entries.Remove(name)
}

func (c *Cache) Len() int { return c.entries.Len() }

func sameFile(a, b storage.Info) bool {
	return a.Size == b.Size && a.LastModified.Equal(b.LastModified)
}
