// Package bloom provides fast first-pass URL deduplication for the crawl
// frontier.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter keyed by normalized URL.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a filter sized for n expected URLs with the given false
// positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Visit records the URL and reports whether it may have been visited before.
// False positives are possible, never false negatives; callers that need
// exactness keep an authoritative set behind this filter.
func (f *Filter) Visit(url string) bool {
	return f.f.TestAndAddString(url)
}

// Test reports whether the URL may have been visited, without recording it.
func (f *Filter) Test(url string) bool {
	return f.f.TestString(url)
}

// Count returns the approximate number of URLs recorded.
func (f *Filter) Count() uint {
	return uint(f.f.ApproximatedSize())
}
