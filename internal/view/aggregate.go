// Package view assembles page state from fallible backend calls: concurrent
// partial-failure loading, append-only page accumulation and optimistic flag toggles.
package view

import (
	"context"
	"fmt"
	"sync"

	"github.com/fatali-fataliyev/intelliwealth/logging"
	"golang.org/x/sync/errgroup"
)

type Kind int

const (
	// KindList degrades to an empty sequence on failure.
	KindList Kind = iota
	// KindSummary degrades to its zero-valued default on failure.
	KindSummary
)

func (k Kind) String() string {
	if k == KindList {
		return "list"
	}
	return "summary"
}

// Fetcher is one tagged fetch operation. Only slots built by List and Summary implement it.
type Fetcher interface {
	Name() string
	Kind() Kind
	Err() error
	fetch(ctx context.Context) error
}

type Slot[T any] struct {
	name  string
	kind  Kind
	run   func(context.Context) (T, error)
	fix   func(T) T
	zero  func() T
	value T
	err   error
	done  bool
}

// List creates a list slot. A failed or nil result reads as an empty, non-nil slice.
func List[T any](name string, fetch func(context.Context) ([]T, error)) *Slot[[]T] {
	empty := func() []T { return []T{} }
	return &Slot[[]T]{
		name: name,
		kind: KindList,
		run:  fetch,
		zero: empty,
		fix: func(v []T) []T {
			if v == nil {
				return empty()
			}
			return v
		},
		value: empty(),
	}
}

// Summary creates a summary slot. A failed result reads as the zero value of T.
func Summary[T any](name string, fetch func(context.Context) (T, error)) *Slot[T] {
	return &Slot[T]{
		name: name,
		kind: KindSummary,
		run:  fetch,
		zero: func() T {
			var zero T
			return zero
		},
		fix: func(v T) T { return v },
	}
}

func (s *Slot[T]) Name() string { return s.name }
func (s *Slot[T]) Kind() Kind   { return s.kind }
func (s *Slot[T]) Err() error   { return s.err }

// Value is the fetched value, or the degraded default when the fetch failed.
func (s *Slot[T]) Value() T { return s.value }

// OK reports whether the fetch ran and succeeded.
func (s *Slot[T]) OK() bool { return s.done && s.err == nil }

func (s *Slot[T]) fetch(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s fetch panicked: %v", s.name, r)
			s.value, s.err = s.zero(), err
		}
		s.done = true
	}()

	v, err := s.run(ctx)
	if err != nil {
		s.value, s.err = s.zero(), err
		return err
	}
	s.value, s.err = s.fix(v), nil
	return nil
}

type Failure struct {
	Name string
	Kind Kind
	Err  error
}

// Notice is the JSON form of a Failure, carried in view models so the consumer chooses
// whether to tell the user.
type Notice struct {
	Source  string `json:"source"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type Report struct {
	Failures []Failure
}

func (r Report) Degraded() bool { return len(r.Failures) > 0 }

func (r Report) Failed(name string) bool {
	for _, f := range r.Failures {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (r Report) Notices() []Notice {
	notices := make([]Notice, 0, len(r.Failures))
	for _, f := range r.Failures {
		notices = append(notices, Notice{Source: f.Name, Kind: f.Kind.String(), Message: f.Err.Error()})
	}
	return notices
}

// Merge appends another report's failures.
func (r Report) Merge(other Report) Report {
	r.Failures = append(r.Failures, other.Failures...)
	return r
}

// Settle runs every fetcher concurrently and waits for all of them. A failure only
// degrades its own slot; siblings are never cancelled. Failures are logged and reported in
// fetcher order.
func Settle(ctx context.Context, fetchers ...Fetcher) Report {
	errs := make([]error, len(fetchers))

	var wg sync.WaitGroup
	for i, f := range fetchers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = f.fetch(ctx)
		}()
	}
	wg.Wait()

	var report Report
	for i, err := range errs {
		if err == nil {
			continue
		}
		f := fetchers[i]
		logging.FromContext(ctx).WithField("source", f.Name()).Warnf("%s fetch degraded: %v", f.Kind(), err)
		report.Failures = append(report.Failures, Failure{Name: f.Name(), Kind: f.Kind(), Err: err})
	}
	return report
}

// All runs every fetcher concurrently and fails as a whole: the first error cancels the
// remaining fetches and is returned. Slots that failed or were cancelled hold their defaults.
func All(ctx context.Context, fetchers ...Fetcher) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, f := range fetchers {
		g.Go(func() error {
			if err := f.fetch(gctx); err != nil {
				return fmt.Errorf("failed to load %s: %w", f.Name(), err)
			}
			return nil
		})
	}
	return g.Wait()
}
