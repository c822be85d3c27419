package cache

import (
	"context"
	"time"
)

type Status int

const (
	StatusEmpty Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusEmpty:
		return "empty"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Settled reports whether the status is terminal for a fetch cycle
func (s Status) Settled() bool {
	return s == StatusReady || s == StatusFailed
}

// Entry is a snapshot of the shared resource
//
// Items is shared between every consumer of the same fetch cycle and must be treated as read-only.
type Entry[T any] struct {
	Items  []T
	Err    error
	Status Status

	// Version is the number of the fetch cycle that produced the entry. 0 until settled.
	Version   uint64
	SettledAt time.Time
}

type Callback[T any] func(Entry[T])

type CredentialSource interface {
	// Returns the credential stored under name, and whether it was present
	GetCredential(ctx context.Context, name string) (string, bool, error)
}

type Fetcher[T any] interface {
	// Fetch the full, ordered listing using the given bearer credential
	//
	// Errors should wrap domain.ErrServerError or domain.ErrTransportFailure.
	FetchAll(ctx context.Context, credential string) ([]T, error)
}
