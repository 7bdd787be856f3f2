package crawl

import (
	"strings"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/poesaver"
)

// Compile-time interface verification.
var _ poesaver.URLQueue = (*Frontier)(nil)

// Frontier is an in-memory FIFO of batch URLs with Bloom filter
// deduplication. URLs for the same share page count as duplicates
// regardless of host case, "www." prefix or fragment.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu    sync.Mutex
	seen  *bloom.BloomFilter
	keys  map[string]struct{}
	queue []string
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for the Bloom filter.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		seen: bloom.NewWithEstimates(n, fpRate),
		keys: make(map[string]struct{}),
	}
}

// Push adds a URL to the frontier.
// Returns false if the URL has already been queued.
func (f *Frontier) Push(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := dedupKey(url)
	// Filter positives are confirmed against the exact set.
	if f.seen.TestString(key) {
		if _, ok := f.keys[key]; ok {
			return false
		}
	}
	f.seen.AddString(key)
	f.keys[key] = struct{}{}

	f.queue = append(f.queue, url)
	return true
}

// Pop returns the next URL in insertion order.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	url := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	return url, true
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// dedupKey identifies the page url points at. Share URLs are keyed by
// their conversation ID; anything else by the URL without its fragment.
func dedupKey(url string) string {
	if id, ok := poesaver.ShareID(url); ok {
		return "share:" + id
	}
	if idx := strings.Index(url, "#"); idx != -1 {
		url = url[:idx]
	}
	return url
}
