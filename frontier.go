package poesaver

import "context"

// URLQueue holds the URLs of a batch waiting to be processed, in input
// order and without duplicates.
type URLQueue interface {
	// Push adds a URL to the queue.
	// Returns false if the URL (or another URL for the same share) was
	// already queued.
	Push(url string) bool

	// Pop returns the next URL in input order.
	// Returns false if the queue is empty.
	Pop() (string, bool)

	// Len returns the number of URLs waiting in the queue.
	Len() int
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
