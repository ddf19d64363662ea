package crawl

import (
	"strings"
	"sync"

	"github.com/skaczmarek/librarian/bloom"
)

// Frontier is an in-memory FIFO work queue of page URLs with duplicate
// suppression. A Bloom filter rejects the bulk of repeats cheaply; an exact
// set behind it guarantees a URL is never queued twice and never dropped by
// a false positive. Safe for concurrent use.
type Frontier struct {
	mu    sync.Mutex
	fast  *bloom.Filter
	seen  map[string]struct{}
	queue []string
}

// NewFrontier creates a Frontier sized for n expected URLs with the given
// Bloom false positive rate.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		fast: bloom.NewFilter(n, fpRate),
		seen: make(map[string]struct{}),
	}
}

// Push queues a URL. Fragments are stripped first, so URLs differing only
// by fragment are duplicates. Returns false if the URL was already seen.
func (f *Frontier) Push(url string) bool {
	url = stripFragment(url)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.fast.Visit(url) {
		// Possibly seen; the exact set decides.
		if _, ok := f.seen[url]; ok {
			return false
		}
	}
	f.seen[url] = struct{}{}
	f.queue = append(f.queue, url)
	return true
}

// MarkSeen records a URL as already visited without queueing it, so later
// links back to it are suppressed as duplicates.
func (f *Frontier) MarkSeen(url string) {
	url = stripFragment(url)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.fast.Visit(url)
	f.seen[url] = struct{}{}
}

// Pop returns the next URL in discovery order.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}
	url := f.queue[0]
	f.queue = f.queue[1:]
	return url, true
}

// Drain removes and returns all queued URLs in discovery order.
func (f *Frontier) Drain() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	urls := f.queue
	f.queue = nil
	return urls
}

// Len returns the number of queued URLs.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen reports whether a URL has been queued at any point.
func (f *Frontier) Seen(url string) bool {
	url = stripFragment(url)

	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[url]
	return ok
}

func stripFragment(url string) string {
	if idx := strings.Index(url, "#"); idx != -1 {
		return url[:idx]
	}
	return url
}
