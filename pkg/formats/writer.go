package formats

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
)

// Mesh is a surface in file order. Face references are 0-based indices
// into Points; they are written 1-based.
type Mesh struct {
	Dimension int
	Points    [][3]float64
	Lines     [][2]int
	Triangles [][3]int
}

// Write writes m in surf file format. Coordinates are written with the
// shortest representation that parses back to the same float64.
func Write(w io.Writer, m *Mesh, description string) error {
	if m.Dimension != 2 && m.Dimension != 3 {
		return fmt.Errorf("unsupported dimension %d", m.Dimension)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", description)
	fmt.Fprintf(bw, "%d points\n", len(m.Points))
	if m.Dimension == 2 {
		fmt.Fprintf(bw, "%d lines\n", len(m.Lines))
	} else {
		fmt.Fprintf(bw, "%d triangles\n", len(m.Triangles))
	}

	fmt.Fprintf(bw, "\n%s\n\n", SectionPoints)
	for i, p := range m.Points {
		bw.WriteString(strconv.Itoa(i + 1))
		for d := 0; d < m.Dimension; d++ {
			bw.WriteByte(' ')
			bw.WriteString(strconv.FormatFloat(p[d], 'g', -1, 64))
		}
		bw.WriteByte('\n')
	}

	fmt.Fprintf(bw, "\n%s\n\n", FaceSection(m.Dimension))
	if m.Dimension == 2 {
		for i, l := range m.Lines {
			fmt.Fprintf(bw, "%d %d %d\n", i+1, l[0]+1, l[1]+1)
		}
	} else {
		for i, t := range m.Triangles {
			fmt.Fprintf(bw, "%d %d %d %d\n", i+1, t[0]+1, t[1]+1, t[2]+1)
		}
	}

	return bw.Flush()
}

// Encode returns m in surf file format.
func Encode(m *Mesh, description string) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, m, description); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
