package readsurf

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Faultbox/surfread/pkg/formats"
	"github.com/Faultbox/surfread/pkg/surf"
)

// header holds the counts declared at the top of a surf file.
type header struct {
	npoint int
	nline  int
	ntri   int

	// last is the line that ended the header, or "" at end of file.
	last string
}

// readHeader skips the description line and reads count lines until the
// first line that declares none.
func readHeader(ctx context.Context, r *reader, dim int) (header, error) {
	var h header
	r.skipLine()

	for {
		line, ok, err := r.nextLine(ctx)
		if err != nil {
			return h, err
		}
		if !ok {
			break
		}
		if formats.IsBlank(line) {
			continue
		}

		kw := formats.ClassifyHeader(formats.StripComment(line))
		if kw == formats.HeaderNone {
			h.last = line
			break
		}
		n, err := formats.ParseCount(line)
		if err != nil {
			return h, fmt.Errorf("%w: %s line: %v", ErrFormat, kw, err)
		}

		switch kw {
		case formats.HeaderPoints:
			h.npoint = n
		case formats.HeaderLines:
			if dim == 3 {
				return h, fmt.Errorf("%w: surf file cannot contain lines for 3d simulation", ErrFormat)
			}
			h.nline = n
		case formats.HeaderTriangles:
			if dim == 2 {
				return h, fmt.Errorf("%w: surf file cannot contain triangles for 2d simulation", ErrFormat)
			}
			h.ntri = n
		}
	}

	switch {
	case h.npoint == 0:
		return h, fmt.Errorf("%w: surf file does not contain points", ErrFormat)
	case dim == 2 && h.nline == 0:
		return h, fmt.Errorf("%w: surf file does not contain lines", ErrFormat)
	case dim == 3 && h.ntri == 0:
		return h, fmt.Errorf("%w: surf file does not contain triangles", ErrFormat)
	}
	return h, nil
}

// expectSection reads a section keyword and checks it.
func expectSection(ctx context.Context, r *reader, pending string, first bool, want string) error {
	kw, err := r.keyword(ctx, pending, first)
	if err != nil {
		return err
	}
	if kw != want {
		return fmt.Errorf("%w: surf file cannot parse %s section", ErrFormat, want)
	}
	return nil
}

// section reads n data rows in chunks. Each chunk's first row must have
// exactly cols tokens; fn is called once per row with its tokens and
// 1-based row number.
func section(ctx context.Context, r *reader, n, cols int, name string, fn func(row int, fields []string) error) error {
	row := 0
	for row < n {
		nchunk := min(r.chunk, n-row)
		lines, err := r.readChunk(ctx, nchunk)
		if err != nil {
			return err
		}
		if formats.CountWords(lines[0]) != cols {
			return fmt.Errorf("%w: incorrect %s format in surf file", ErrFormat, name)
		}
		for _, line := range lines {
			row++
			fields := formats.Fields(line)
			if len(fields) < cols {
				return fmt.Errorf("%w: incorrect %s format in surf file, row %d", ErrFormat, name, row)
			}
			if err := fn(row, fields[1:cols]); err != nil {
				return err
			}
		}
	}
	return nil
}

// readPoints fills pts, the new point window.
func readPoints(ctx context.Context, r *reader, dim int, pts []surf.Point) error {
	return section(ctx, r, len(pts), formats.PointColumns(dim), "point", func(row int, fields []string) error {
		p := &pts[row-1]
		for k := 0; k < dim; k++ {
			v, err := strconv.ParseFloat(fields[k], 64)
			if err != nil {
				return fmt.Errorf("%w: invalid coordinate %q in point %d", ErrFormat, fields[k], row)
			}
			p.X[k] = v
		}
		return nil
	})
}

// readLines fills lines, the new line window. Point references are
// relative to the npointNew points appended after npointOld.
func readLines(ctx context.Context, r *reader, id, npointOld, npointNew int, lines []surf.Line) error {
	return section(ctx, r, len(lines), formats.LineColumns, "line", func(row int, fields []string) error {
		var p [2]int
		if err := pointRefs(fields, p[:], npointNew, "line", row); err != nil {
			return err
		}
		if p[0] == p[1] {
			return fmt.Errorf("%w: invalid point index in line %d", ErrFormat, row)
		}
		lines[row-1] = surf.Line{ID: id, P1: p[0] - 1 + npointOld, P2: p[1] - 1 + npointOld}
		return nil
	})
}

// readTris fills tris, the new triangle window. Only the p1/p2 and p2/p3
// pairs are checked for repeats; p1 == p3 is accepted.
func readTris(ctx context.Context, r *reader, id, npointOld, npointNew int, tris []surf.Tri) error {
	return section(ctx, r, len(tris), formats.TriangleColumns, "triangle", func(row int, fields []string) error {
		var p [3]int
		if err := pointRefs(fields, p[:], npointNew, "triangle", row); err != nil {
			return err
		}
		if p[0] == p[1] || p[1] == p[2] {
			return fmt.Errorf("%w: invalid point index in triangle %d", ErrFormat, row)
		}
		tris[row-1] = surf.Tri{
			ID: id,
			P1: p[0] - 1 + npointOld,
			P2: p[1] - 1 + npointOld,
			P3: p[2] - 1 + npointOld,
		}
		return nil
	})
}

// pointRefs parses 1-based point references and checks they are in range.
func pointRefs(fields []string, p []int, npointNew int, kind string, row int) error {
	for k := range p {
		v, err := strconv.Atoi(fields[k])
		if err != nil || v < 1 || v > npointNew {
			return fmt.Errorf("%w: invalid point index in %s %d", ErrFormat, kind, row)
		}
		p[k] = v
	}
	return nil
}
