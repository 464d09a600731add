package searchindex

import (
	"context"
	"errors"
	"fmt"
	"time"

	"biodata-platform/internal/logger"

	"github.com/sony/gobreaker"
)

// BreakerClient guards a Client with a circuit breaker. Answers the index gives
// on purpose (not found, bad query) do not count as failures.
type BreakerClient struct {
	next    Client
	breaker *gobreaker.CircuitBreaker
}

type BreakerOption func(*gobreaker.Settings)

// WithStateChange registers a callback for breaker transitions.
func WithStateChange(fn func(name string, from, to gobreaker.State)) BreakerOption {
	return func(s *gobreaker.Settings) {
		prev := s.OnStateChange
		s.OnStateChange = func(name string, from, to gobreaker.State) {
			if prev != nil {
				prev(name, from, to)
			}
			fn(name, from, to)
		}
	}
}

func WithTimeout(d time.Duration) BreakerOption {
	return func(s *gobreaker.Settings) { s.Timeout = d }
}

func NewBreakerClient(next Client, opts ...BreakerOption) *BreakerClient {
	settings := gobreaker.Settings{
		Name:        "SearchIndex",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isExpected,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	return &BreakerClient{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func isExpected(err error) bool {
	return err == nil ||
		errors.Is(err, ErrCollectionNotFound) ||
		errors.Is(err, ErrCollectionExists) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrInvalidQuery) ||
		errors.Is(err, ErrInvalidDocument)
}

func (b *BreakerClient) State() gobreaker.State {
	return b.breaker.State()
}

func execute[T any](b *BreakerClient, fn func() (T, error)) (T, error) {
	out, err := b.breaker.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return zero, err
	}
	return out.(T), nil
}

func (b *BreakerClient) RetrieveCollection(ctx context.Context, name string) (*CollectionInfo, error) {
	return execute(b, func() (*CollectionInfo, error) { return b.next.RetrieveCollection(ctx, name) })
}

func (b *BreakerClient) CreateCollection(ctx context.Context, schema Schema) (*CollectionInfo, error) {
	return execute(b, func() (*CollectionInfo, error) { return b.next.CreateCollection(ctx, schema) })
}

func (b *BreakerClient) ListCollections(ctx context.Context) ([]CollectionInfo, error) {
	return execute(b, func() ([]CollectionInfo, error) { return b.next.ListCollections(ctx) })
}

func (b *BreakerClient) Upsert(ctx context.Context, collection string, doc Document) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.Upsert(ctx, collection, doc) })
	return err
}

func (b *BreakerClient) Delete(ctx context.Context, collection, id string) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.Delete(ctx, collection, id) })
	return err
}

func (b *BreakerClient) Import(ctx context.Context, collection string, docs []Document) error {
	_, err := execute(b, func() (struct{}, error) { return struct{}{}, b.next.Import(ctx, collection, docs) })
	return err
}

func (b *BreakerClient) Search(ctx context.Context, collection string, params SearchParams) (*SearchResult, error) {
	return execute(b, func() (*SearchResult, error) { return b.next.Search(ctx, collection, params) })
}

func (b *BreakerClient) Close() error {
	return b.next.Close()
}
