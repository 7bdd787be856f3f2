package mock

import (
	"context"

	"github.com/fwojciec/poesaver"
)

var _ poesaver.URLQueue = (*URLQueue)(nil)

// URLQueue is a mock implementation of poesaver.URLQueue.
type URLQueue struct {
	PushFn func(url string) bool
	PopFn  func() (string, bool)
	LenFn  func() int
}

func (q *URLQueue) Push(url string) bool {
	return q.PushFn(url)
}

func (q *URLQueue) Pop() (string, bool) {
	return q.PopFn()
}

func (q *URLQueue) Len() int {
	return q.LenFn()
}

var _ poesaver.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of poesaver.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
