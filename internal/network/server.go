package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/multierr"

	"github.com/Faultbox/surfread/internal/comm"
	"github.com/Faultbox/surfread/internal/network/packets"
)

// Coordinator is the root rank. It owns one connection per worker.
type Coordinator struct {
	ln    net.Listener
	mu    sync.Mutex
	conns []net.Conn
	size  int
}

var _ comm.Broadcaster = (*Coordinator)(nil)

// Listen starts listening on addr for a group of size ranks (the
// coordinator included). Call Accept before broadcasting.
func Listen(addr string, size int) (*Coordinator, error) {
	if size < 1 {
		return nil, fmt.Errorf("group size must be at least 1, got %d", size)
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}
	return &Coordinator{ln: ln, size: size}, nil
}

// Addr returns the listening address.
func (c *Coordinator) Addr() net.Addr {
	return c.ln.Addr()
}

// Accept waits for size-1 workers and assigns them ranks 1..size-1 in
// connection order. The listener is closed once the group is complete.
func (c *Coordinator) Accept(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { c.ln.Close() })
	defer stop()

	for rank := 1; rank < c.size; rank++ {
		conn, err := c.ln.Accept()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("accepting rank %d: %w", rank, err)
		}
		hello := &packets.Hello{Rank: uint32(rank), Size: uint32(c.size)}
		if _, err := conn.Write(packets.Frame(packets.PKT_HELLO, hello.Encode())); err != nil {
			conn.Close()
			return fmt.Errorf("assigning rank %d: %w", rank, err)
		}
		c.mu.Lock()
		c.conns = append(c.conns, conn)
		c.mu.Unlock()
	}
	return c.ln.Close()
}

// Rank returns 0.
func (c *Coordinator) Rank() int { return comm.Root }

// Size returns the group size.
func (c *Coordinator) Size() int { return c.size }

// BroadcastScalar sends v to every worker and returns it.
func (c *Coordinator) BroadcastScalar(ctx context.Context, v int) (int, error) {
	if err := c.send(ctx, packets.PKT_SCALAR, packets.EncodeScalar(v)); err != nil {
		return 0, err
	}
	return v, nil
}

// BroadcastBytes sends b to every worker and returns a copy of it.
func (c *Coordinator) BroadcastBytes(ctx context.Context, b []byte) ([]byte, error) {
	if err := c.send(ctx, packets.PKT_BYTES, b); err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// Abort tells every worker the group is shutting down with reason.
func (c *Coordinator) Abort(ctx context.Context, reason string) error {
	return c.send(ctx, packets.PKT_ABORT, []byte(reason))
}

func (c *Coordinator) send(ctx context.Context, id uint16, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.conns) != c.size-1 {
		return fmt.Errorf("%w: %d of %d workers connected", comm.ErrClosed, len(c.conns), c.size-1)
	}
	frame := packets.Frame(id, payload)
	for i, conn := range c.conns {
		stop := watch(ctx, conn)
		_, err := conn.Write(frame)
		stop()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("sending %s to rank %d: %w", packets.Name(id), i+1, err)
		}
	}
	return nil
}

// Close closes the listener and every worker connection.
func (c *Coordinator) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	if cerr := c.ln.Close(); cerr != nil && !isClosed(cerr) {
		err = multierr.Append(err, cerr)
	}
	for _, conn := range c.conns {
		err = multierr.Append(err, conn.Close())
	}
	c.conns = nil
	return err
}

func isClosed(err error) bool {
	return err != nil && errors.Is(err, net.ErrClosed)
}
