package view

import (
	"context"
	"slices"

	"github.com/fatali-fataliyev/intelliwealth/logging"
)

const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notification is a transient message for the user (a toast).
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(n Notification)
}

type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

// State is the list an optimistic mutation patches. Pager implements it.
type State[T any] interface {
	Items() []T
	Replace(items []T)
}

// Versioned is a State that detects writes made by others while a mutation is in flight.
// Pager implements it.
type Versioned[T any] interface {
	State[T]
	Apply(transform func(items []T) []T) (snapshot []T, version uint64)
	RestoreIf(version uint64, snapshot []T) bool
	Reset(ctx context.Context) (bool, error)
}

type Mutation[T any] struct {
	Name string
	// Transform builds the optimistic list. It receives a private copy.
	Transform func(items []T) []T
	// Call performs the mutation on the backend.
	Call func(ctx context.Context) error
	// Refresh reloads dependent aggregates after a confirmed mutation. Optional.
	Refresh func(ctx context.Context) error
	// FailureMessage is shown when Call fails.
	FailureMessage string
}

type Outcome struct {
	RolledBack bool
	// Reloaded is set when the list changed during a failed call, so page 0 was reloaded
	// instead of restoring the snapshot.
	Reloaded bool
	// RefreshErr is set when the mutation was confirmed but the dependent refresh failed.
	RefreshErr error
}

// Optimistic applies m.Transform immediately, then confirms with m.Call. On failure the
// full pre-mutation snapshot is restored and an error notification is sent. A Versioned
// state that was reloaded or grown while the call ran is reset from page 0 instead, so the
// rollback never discards pages or newer data. On success m.Refresh runs before Optimistic
// returns; its failure never rolls back.
//
// Use it for flag-style mutations only. Amount edits go through mutate then reload.
func Optimistic[T any](ctx context.Context, state State[T], m Mutation[T], n Notifier) (Outcome, error) {
	versioned, isVersioned := state.(Versioned[T])

	var snapshot []T
	var version uint64
	if isVersioned {
		snapshot, version = versioned.Apply(m.Transform)
	} else {
		snapshot = slices.Clone(state.Items())
		state.Replace(m.Transform(slices.Clone(snapshot)))
	}

	if err := m.Call(ctx); err != nil {
		out := Outcome{RolledBack: true}
		log := logging.FromContext(ctx).WithField("mutation", m.Name)
		switch {
		case !isVersioned:
			state.Replace(snapshot)
		case !versioned.RestoreIf(version, snapshot):
			out.Reloaded = true
			if _, rerr := versioned.Reset(ctx); rerr != nil {
				log.Warnf("reload after rejected mutation failed: %v", rerr)
			}
		}
		log.Errorf("optimistic mutation rolled back: %v", err)
		if n != nil {
			msg := m.FailureMessage
			if msg == "" {
				msg = "Failed to " + m.Name
			}
			n.Notify(Notification{Level: LevelError, Message: msg})
		}
		return out, err
	}

	var out Outcome
	if m.Refresh != nil {
		if err := m.Refresh(ctx); err != nil {
			logging.FromContext(ctx).WithField("mutation", m.Name).Warnf("refresh after mutation failed: %v", err)
			out.RefreshErr = err
		}
	}
	return out, nil
}

// ToggleWhere returns a transform that applies flip to every item matching match.
func ToggleWhere[T any](match func(T) bool, flip func(T) T) func([]T) []T {
	return func(items []T) []T {
		for i, item := range items {
			if match(item) {
				items[i] = flip(item)
			}
		}
		return items
	}
}
