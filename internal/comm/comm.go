// Package comm defines the collective broadcast capability shared by the
// cooperating ranks of an ingestion, and an in-process implementation.
package comm

import (
	"context"
	"errors"
)

// Root is the rank that owns external resources and originates broadcasts.
const Root = 0

// Broadcast errors.
var (
	ErrClosed   = errors.New("broadcast group closed")
	ErrProtocol = errors.New("broadcast protocol mismatch")
)

// Broadcaster replicates values from the root rank to every rank.
// Calls are collective: every rank must make the same sequence of calls.
type Broadcaster interface {
	// Rank returns this rank's index in [0, Size()).
	Rank() int
	// Size returns the number of ranks in the group.
	Size() int
	// BroadcastScalar returns the root's v on every rank.
	BroadcastScalar(ctx context.Context, v int) (int, error)
	// BroadcastBytes returns a copy of the root's b, with its exact
	// length, on every rank. Non-root ranks may pass nil.
	BroadcastBytes(ctx context.Context, b []byte) ([]byte, error)
}

// IsRoot reports whether bc is the root rank.
func IsRoot(bc Broadcaster) bool {
	return bc.Rank() == Root
}

// Local is a group of one. Every broadcast returns its input.
type Local struct{}

// Rank returns 0.
func (Local) Rank() int { return Root }

// Size returns 1.
func (Local) Size() int { return 1 }

// BroadcastScalar returns v.
func (Local) BroadcastScalar(ctx context.Context, v int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return v, nil
}

// BroadcastBytes returns a copy of b.
func (Local) BroadcastBytes(ctx context.Context, b []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}
