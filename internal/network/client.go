// Package network carries broadcasts between ranks running in separate
// processes over TCP. The coordinator listens and accepts one connection per
// worker; every broadcast is a single frame written to each connection.
package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Faultbox/surfread/internal/comm"
	"github.com/Faultbox/surfread/internal/network/packets"
)

// ErrAborted is returned by a worker when the coordinator shuts the group down.
var ErrAborted = errors.New("coordinator aborted the group")

// dialRetry is the pause between connection attempts while the coordinator
// is not yet listening.
const dialRetry = 100 * time.Millisecond

// Worker is a non-root rank connected to a Coordinator.
type Worker struct {
	conn net.Conn
	mu   sync.Mutex
	rank int
	size int
}

var _ comm.Broadcaster = (*Worker)(nil)

// Dial connects to the coordinator at addr and waits for its rank
// assignment. It retries until ctx is done.
func Dial(ctx context.Context, addr string) (*Worker, error) {
	var d net.Dialer
	var conn net.Conn
	for {
		c, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			conn = c
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connecting to %s: %w", addr, err)
		case <-time.After(dialRetry):
		}
	}

	w := &Worker{conn: conn}
	id, payload, err := w.read(ctx)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("waiting for rank assignment: %w", err)
	}
	if id != packets.PKT_HELLO {
		conn.Close()
		return nil, fmt.Errorf("%w: expected HELLO, got %s", comm.ErrProtocol, packets.Name(id))
	}
	hello, err := packets.DecodeHello(payload)
	if err != nil {
		conn.Close()
		return nil, err
	}
	w.rank = int(hello.Rank)
	w.size = int(hello.Size)
	return w, nil
}

// Rank returns the rank assigned by the coordinator.
func (w *Worker) Rank() int { return w.rank }

// Size returns the group size.
func (w *Worker) Size() int { return w.size }

// Close closes the connection.
func (w *Worker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// BroadcastScalar receives the coordinator's scalar. v is ignored.
func (w *Worker) BroadcastScalar(ctx context.Context, v int) (int, error) {
	payload, err := w.expect(ctx, packets.PKT_SCALAR)
	if err != nil {
		return 0, err
	}
	return packets.DecodeScalar(payload)
}

// BroadcastBytes receives the coordinator's buffer. b is ignored.
func (w *Worker) BroadcastBytes(ctx context.Context, b []byte) ([]byte, error) {
	return w.expect(ctx, packets.PKT_BYTES)
}

func (w *Worker) expect(ctx context.Context, want uint16) ([]byte, error) {
	id, payload, err := w.read(ctx)
	if err != nil {
		return nil, err
	}
	switch id {
	case want:
		return payload, nil
	case packets.PKT_ABORT:
		return nil, fmt.Errorf("%w: %s", ErrAborted, payload)
	default:
		return nil, fmt.Errorf("%w: rank %d expected %s, coordinator sent %s",
			comm.ErrProtocol, w.rank, packets.Name(want), packets.Name(id))
	}
}

func (w *Worker) read(ctx context.Context) (uint16, []byte, error) {
	w.mu.Lock()
	conn := w.conn
	w.mu.Unlock()

	if conn == nil {
		return 0, nil, comm.ErrClosed
	}
	stop := watch(ctx, conn)
	defer stop()

	id, payload, err := packets.ReadFrame(conn)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, fmt.Errorf("reading from coordinator: %w", err)
	}
	return id, payload, nil
}

// watch applies ctx's deadline to conn and interrupts blocked I/O when ctx
// is cancelled. The returned func must be called when the I/O completes.
func watch(ctx context.Context, conn net.Conn) func() {
	if dl, ok := ctx.Deadline(); ok {
		conn.SetDeadline(dl)
	} else {
		conn.SetDeadline(time.Time{})
	}
	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(time.Now())
	})
	return func() { stop() }
}
