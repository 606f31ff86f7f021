package readsurf

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/pgzip"
	"go.uber.org/multierr"

	"github.com/Faultbox/surfread/internal/comm"
	"github.com/Faultbox/surfread/pkg/encoding"
	"github.com/Faultbox/surfread/pkg/formats"
)

// Broadcast status values. A positive status is the byte length of the
// buffer that follows.
const (
	statusEOF   = 0
	statusAbort = -1
)

var errUnexpectedEOF = errors.New("unexpected end of surf file")

// reader streams a surf file from the root rank to every rank. Only the
// root holds the file. A failure on the root is recorded in err and sent
// to all ranks at the next broadcast, so that every rank fails together.
type reader struct {
	bc    comm.Broadcaster
	root  bool
	chunk int

	in      *bufio.Reader
	closers []io.Closer
	err     error
}

// openReader opens path on the root rank. Open failures are deferred to the
// first broadcast.
func openReader(bc comm.Broadcaster, path string, chunk int, allowGzip bool) *reader {
	r := &reader{bc: bc, root: comm.IsRoot(bc), chunk: chunk}
	if !r.root {
		return r
	}

	var compressed bool
	if strings.HasSuffix(path, ".gz") {
		if !allowGzip {
			r.err = fmt.Errorf("cannot open gzipped file %s", path)
			return r
		}
		compressed = true
	}

	f, err := os.Open(path)
	if err != nil {
		r.err = fmt.Errorf("cannot open file %s", path)
		return r
	}
	r.closers = append(r.closers, f)

	var src io.Reader = f
	if compressed {
		zr, err := pgzip.NewReader(f)
		if err != nil {
			r.err = fmt.Errorf("cannot open gzipped file %s: %v", path, err)
			return r
		}
		r.closers = append(r.closers, zr)
		src = zr
	}
	r.in = bufio.NewReader(encoding.NewUTF8Reader(src))
	return r
}

// close releases the file on the root rank.
func (r *reader) close() error {
	var err error
	for i := len(r.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, r.closers[i].Close())
	}
	r.closers = nil
	return err
}

// fail records a root-local failure if none is pending.
func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// readRaw reads one line on the root, including its newline.
// io.EOF is returned only when no bytes remain.
func (r *reader) readRaw() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	line, err := r.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	if err != nil && err != io.EOF {
		r.fail(fmt.Errorf("reading surf file: %v", err))
		return "", r.err
	}
	return line, err
}

// sync broadcasts a status and, for a positive status, the data that goes
// with it. Workers pass zero values. A pending root failure is sent as
// statusAbort followed by its message.
func (r *reader) sync(ctx context.Context, status int, data []byte) (int, []byte, error) {
	if r.root && r.err != nil {
		status = statusAbort
		data = []byte(r.err.Error())
	}

	n, err := r.bc.BroadcastScalar(ctx, status)
	if err != nil {
		return 0, nil, err
	}
	if n == statusEOF {
		return n, nil, nil
	}

	buf, err := r.bc.BroadcastBytes(ctx, data)
	if err != nil {
		return 0, nil, err
	}
	if n == statusAbort {
		return n, nil, fmt.Errorf("%w: %s", ErrCoordinator, buf)
	}
	if len(buf) != n {
		return 0, nil, fmt.Errorf("%w: announced %d bytes, received %d", comm.ErrProtocol, n, len(buf))
	}
	return n, buf, nil
}

// skipLine discards one line on the root. A missing line is a root failure.
func (r *reader) skipLine() {
	if !r.root {
		return
	}
	if _, err := r.readRaw(); err == io.EOF {
		r.fail(errUnexpectedEOF)
	}
}

// nextLine returns the next line on every rank; ok is false at end of file.
func (r *reader) nextLine(ctx context.Context) (line string, ok bool, err error) {
	var data []byte
	if r.root {
		if s, err := r.readRaw(); err == nil {
			data = []byte(s)
		}
	}

	n, buf, err := r.sync(ctx, len(data), data)
	if err != nil {
		return "", false, err
	}
	if n == statusEOF {
		return "", false, nil
	}
	return string(buf), true, nil
}

// readChunk returns the next n lines on every rank, read by the root and
// sent as one buffer. End of file before n lines is a root failure.
func (r *reader) readChunk(ctx context.Context, n int) ([]string, error) {
	var data []byte
	if r.root {
		var sb strings.Builder
		for i := 0; i < n; i++ {
			line, err := r.readRaw()
			if err == io.EOF {
				r.fail(errUnexpectedEOF)
			}
			if err != nil {
				break
			}
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
		data = []byte(sb.String())
	}

	_, buf, err := r.sync(ctx, len(data), data)
	if err != nil {
		return nil, err
	}
	lines := strings.SplitAfter(string(buf), "\n")
	lines = lines[:len(lines)-1]
	if len(lines) != n {
		return nil, fmt.Errorf("%w: expected %d lines in chunk, received %d", comm.ErrProtocol, n, len(lines))
	}
	return lines, nil
}

// keyword reads a section keyword: the next non-blank line plus one more
// line, which is consumed unread. If first is set, pending is the line that
// ended the header and is examined before reading. The keyword is the line
// without comment and surrounding whitespace, or "" at end of file.
func (r *reader) keyword(ctx context.Context, pending string, first bool) (string, error) {
	var data []byte
	if r.root && r.err == nil {
		line, eof := pending, false
		if !first {
			var err error
			line, err = r.readRaw()
			eof = err != nil
		}
		for !eof && formats.IsBlank(line) {
			var err error
			line, err = r.readRaw()
			eof = err != nil
		}
		if !eof {
			if _, err := r.readRaw(); err != nil {
				eof = true
			}
		}
		if !eof {
			data = []byte(line)
		}
	}

	n, buf, err := r.sync(ctx, len(data), data)
	if err != nil {
		return "", err
	}
	if n == statusEOF {
		return "", nil
	}
	return strings.TrimSpace(formats.StripComment(string(buf))), nil
}
