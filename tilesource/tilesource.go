// Package tilesource resolves (z, x, y) tile coordinates to decoded
// tile.Tile values through a bounded FIFO cache, coalescing concurrent
// requests for the same key, per spec.md §4.6. Coalescing follows the
// pending-map-plus-channel shape of daisied-aln/lsp/client.go's
// sendRequest; eviction is an explicit FIFO (container/list + map)
// rather than an LRU, per spec.md §9(b)'s called-out fix.
package tilesource

import (
	"container/list"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"mapscii/style"
	"mapscii/tile"
)

// ErrSourceConfig is returned by New when source matches no supported
// scheme (spec.md §7's *SourceConfig* error).
var ErrSourceConfig = errors.New("tilesource: source matches no supported scheme")

// ErrArchiveUnavailable is returned when a .mbtiles source is requested
// but no archive backend has been wired in (spec.md §4.6: "when the
// optional dependency is absent, trying to open one fails with a clear
// message").
var ErrArchiveUnavailable = errors.New("tilesource: local archive support is not available")

// Fetcher retrieves the raw (possibly gzip-wrapped) bytes for a tile.
// The HTTP and archive backends are both expressed as a Fetcher so
// callers can inject a fake one in tests without a network or a real
// .mbtiles file.
type Fetcher func(z, x, y int) ([]byte, error)

// ArchiveSource opens a local tile archive (e.g. a .mbtiles container)
// and returns a Fetcher reading from it.
type ArchiveSource interface {
	Open(path string) (Fetcher, error)
}

// Config mirrors spec.md §4.6's enumerated TileSource configuration.
type Config struct {
	Source                 string
	CacheSize               int
	PersistDownloadedTiles bool
	CacheDir               string
	Language               string
	HTTPClient             *http.Client
	Archive                ArchiveSource
}

// Source is a bounded, coalescing, FIFO-evicted tile cache.
type Source struct {
	cfg     Config
	doc     *style.Doc
	fetch   Fetcher
	cacheSize int

	mu      sync.Mutex
	entries map[string]*list.Element // key -> order
	order   *list.List               // front = oldest
	values  map[string]*tile.Tile

	pendingMu sync.Mutex
	pending   map[string]*pendingFetch
}

type fetchResult struct {
	t   *tile.Tile
	err error
}

// pendingFetch lets every goroutine racing for the same key wait on a
// single in-flight fetch: result is written once, then done is closed,
// broadcasting to every waiter (a single buffered channel send/close
// only ever delivers the value to the first receiver, which would
// starve the rest).
type pendingFetch struct {
	done   chan struct{}
	result fetchResult
}

// New constructs a Source, inferring HTTP vs local-archive mode from
// cfg.Source: an "http"-prefixed source fetches over HTTP, a
// ".mbtiles"-suffixed source opens a local archive via cfg.Archive;
// anything else is a *SourceConfig error.
func New(cfg Config, doc *style.Doc) (*Source, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 16
	}

	var fetch Fetcher
	switch {
	case strings.HasPrefix(cfg.Source, "http"):
		client := cfg.HTTPClient
		if client == nil {
			client = http.DefaultClient
		}
		fetch = httpFetcher(client, cfg.Source)
	case strings.HasSuffix(cfg.Source, ".mbtiles"):
		if cfg.Archive == nil {
			return nil, ErrArchiveUnavailable
		}
		f, err := cfg.Archive.Open(cfg.Source)
		if err != nil {
			return nil, fmt.Errorf("tilesource: opening archive: %w", err)
		}
		fetch = f
	default:
		return nil, ErrSourceConfig
	}

	return &Source{
		cfg:       cfg,
		doc:       doc,
		fetch:     fetch,
		cacheSize: cfg.CacheSize,
		entries:   make(map[string]*list.Element),
		order:     list.New(),
		values:    make(map[string]*tile.Tile),
		pending:   make(map[string]*pendingFetch),
	}, nil
}

func key(z, x, y int) string {
	return fmt.Sprintf("%d-%d-%d", z, x, y)
}

// GetTile returns the decoded tile at (z, x, y), serving from cache on a
// hit, coalescing concurrent misses for the same key into a single
// fetch+decode, and evicting the oldest entries (FIFO by insertion
// order) once the cache exceeds cacheSize.
func (s *Source) GetTile(z, x, y int) (*tile.Tile, error) {
	k := key(z, x, y)

	s.mu.Lock()
	if t, ok := s.values[k]; ok {
		s.mu.Unlock()
		return t, nil
	}
	s.mu.Unlock()

	s.pendingMu.Lock()
	if pf, inflight := s.pending[k]; inflight {
		s.pendingMu.Unlock()
		<-pf.done
		return pf.result.t, pf.result.err
	}
	// A fetch for k may have finished since the cache check above; it
	// stores its tile before dropping its pending entry, so look again.
	s.mu.Lock()
	if t, ok := s.values[k]; ok {
		s.mu.Unlock()
		s.pendingMu.Unlock()
		return t, nil
	}
	s.mu.Unlock()
	pf := &pendingFetch{done: make(chan struct{})}
	s.pending[k] = pf
	s.pendingMu.Unlock()

	t, err := s.fetchAndDecode(z, x, y, k)

	pf.result = fetchResult{t: t, err: err}
	s.pendingMu.Lock()
	delete(s.pending, k)
	s.pendingMu.Unlock()
	close(pf.done)

	return t, err
}

func (s *Source) fetchAndDecode(z, x, y int, k string) (*tile.Tile, error) {
	buf, err := s.fetch(z, x, y)
	if err != nil {
		return nil, fmt.Errorf("tilesource: fetch %s: %w", k, err)
	}

	if s.cfg.PersistDownloadedTiles {
		s.persist(z, x, y, buf)
	}

	t, err := tile.Load(buf, s.doc, s.cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("tilesource: decode %s: %w", k, err)
	}

	s.store(k, t)
	return t, nil
}

// store inserts t under k, evicting the oldest entries (FIFO by
// insertion order, not recency) until the cache is back at cacheSize.
func (s *Source) store(k string, t *tile.Tile) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[k]; exists {
		s.values[k] = t
		return
	}

	el := s.order.PushBack(k)
	s.entries[k] = el
	s.values[k] = t

	for s.order.Len() > s.cacheSize {
		oldest := s.order.Front()
		if oldest == nil {
			break
		}
		oldestKey := oldest.Value.(string)
		s.order.Remove(oldest)
		delete(s.entries, oldestKey)
		delete(s.values, oldestKey)
	}
}

func httpFetcher(client *http.Client, base string) Fetcher {
	return func(z, x, y int) ([]byte, error) {
		url := strings.TrimSuffix(base, "/") + "/" + strconv.Itoa(z) + "/" + strconv.Itoa(x) + "/" + strconv.Itoa(y) + ".pbf"
		resp, err := client.Get(url)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("tilesource: unexpected status %d for %s", resp.StatusCode, url)
		}
		return io.ReadAll(resp.Body)
	}
}

// persist writes buf to the OS-standard cache directory
// (~/.cache/mapscii/z/x-y.pbf), silently doing nothing on failure: a
// write failure here must never fail a render (spec.md §6).
func (s *Source) persist(z, x, y int, buf []byte) {
	dir := s.cfg.CacheDir
	if dir == "" {
		return
	}
	zDir := filepath.Join(dir, strconv.Itoa(z))
	if err := os.MkdirAll(zDir, 0o755); err != nil {
		return
	}
	name := strconv.Itoa(x) + "-" + strconv.Itoa(y) + ".pbf"
	_ = os.WriteFile(filepath.Join(zDir, name), buf, 0o644)
}
