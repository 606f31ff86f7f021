package comm

import (
	"context"
	"fmt"
)

type msgKind uint8

const (
	kindScalar msgKind = iota + 1
	kindBytes
)

func (k msgKind) String() string {
	switch k {
	case kindScalar:
		return "scalar"
	case kindBytes:
		return "bytes"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

type message struct {
	kind   msgKind
	scalar int
	data   []byte
}

// member is one rank of an in-process Group.
type member struct {
	rank  int
	size  int
	links []chan message // root only: one link per non-root rank
	in    chan message   // non-root only
}

// NewGroup returns n connected in-process ranks. Element i has rank i.
// The ranks must run concurrently, typically one goroutine each via Run.
func NewGroup(n int) []Broadcaster {
	if n < 1 {
		n = 1
	}
	members := make([]*member, n)
	root := &member{rank: Root, size: n}
	members[0] = root
	for i := 1; i < n; i++ {
		ch := make(chan message)
		root.links = append(root.links, ch)
		members[i] = &member{rank: i, size: n, in: ch}
	}

	out := make([]Broadcaster, n)
	for i, m := range members {
		out[i] = m
	}
	return out
}

func (m *member) Rank() int { return m.rank }
func (m *member) Size() int { return m.size }

func (m *member) BroadcastScalar(ctx context.Context, v int) (int, error) {
	msg, err := m.exchange(ctx, message{kind: kindScalar, scalar: v})
	if err != nil {
		return 0, err
	}
	return msg.scalar, nil
}

func (m *member) BroadcastBytes(ctx context.Context, b []byte) ([]byte, error) {
	msg, err := m.exchange(ctx, message{kind: kindBytes, data: b})
	if err != nil {
		return nil, err
	}
	return msg.data, nil
}

// exchange sends msg from the root to every other rank, or receives it.
// Each receiver gets its own copy of the payload.
func (m *member) exchange(ctx context.Context, msg message) (message, error) {
	if m.rank == Root {
		for _, link := range m.links {
			out := msg
			if msg.kind == kindBytes {
				out.data = append([]byte(nil), msg.data...)
			}
			select {
			case link <- out:
			case <-ctx.Done():
				return message{}, ctx.Err()
			}
		}
		if msg.kind == kindBytes {
			msg.data = append([]byte(nil), msg.data...)
		}
		return msg, nil
	}

	select {
	case got, ok := <-m.in:
		if !ok {
			return message{}, ErrClosed
		}
		if got.kind != msg.kind {
			return message{}, fmt.Errorf("%w: rank %d expected %s, root sent %s",
				ErrProtocol, m.rank, msg.kind, got.kind)
		}
		return got, nil
	case <-ctx.Done():
		return message{}, ctx.Err()
	}
}
