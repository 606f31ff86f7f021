// Package surf holds the global surface geometry shared by every ingestion:
// append-only point, line and triangle arrays plus the surface ID registry.
package surf

import (
	"fmt"

	m "github.com/Faultbox/surfread/pkg/math"
)

// Point is a surface vertex. 2D points have X[2] == 0.
type Point struct {
	X [3]float64
}

// Line is a 2D surface element. P1 and P2 are absolute point indices.
type Line struct {
	ID     int
	P1, P2 int
	Norm   [3]float64
}

// Tri is a 3D surface element. P1, P2, P3 are absolute point indices.
type Tri struct {
	ID         int
	P1, P2, P3 int
	Norm       [3]float64
}

// Surf owns all committed surface geometry.
type Surf struct {
	Points []Point
	Lines  []Line
	Tris   []Tri

	ids []string
}

// New returns an empty surface store.
func New() *Surf {
	return &Surf{}
}

// AddID registers a surface name and returns its index.
// A name that is already registered returns the existing index.
func (s *Surf) AddID(name string) int {
	for i, id := range s.ids {
		if id == name {
			return i
		}
	}
	s.ids = append(s.ids, name)
	return len(s.ids) - 1
}

// FindID returns the index of a registered surface name, or -1.
func (s *Surf) FindID(name string) int {
	for i, id := range s.ids {
		if id == name {
			return i
		}
	}
	return -1
}

// IDName returns the name of surface index i.
func (s *Surf) IDName(i int) string {
	if i < 0 || i >= len(s.ids) {
		return ""
	}
	return s.ids[i]
}

// Commit replaces the geometry arrays with grown copies produced by an
// ingestion. The new arrays must extend the current ones.
func (s *Surf) Commit(pts []Point, lines []Line, tris []Tri) error {
	if len(pts) < len(s.Points) || len(lines) < len(s.Lines) || len(tris) < len(s.Tris) {
		return fmt.Errorf("commit would shrink surface: points %d->%d lines %d->%d tris %d->%d",
			len(s.Points), len(pts), len(s.Lines), len(lines), len(s.Tris), len(tris))
	}
	s.Points = pts
	s.Lines = lines
	s.Tris = tris
	return nil
}

// ComputeLineNormals sets the normal of lines [start, start+n) to the unit
// vector z x (p2 - p1). Swapping P1 and P2 flips it.
func (s *Surf) ComputeLineNormals(start, n int) {
	z := m.Vec3{Z: 1}
	for i := start; i < start+n; i++ {
		ln := &s.Lines[i]
		d := m.V3(s.Points[ln.P2].X).Sub(m.V3(s.Points[ln.P1].X))
		ln.Norm = z.Cross(d).Normalize().Array()
	}
}

// ComputeTriNormals sets the normal of triangles [start, start+n)
// as (p2 - p1) x (p3 - p1), normalized.
func (s *Surf) ComputeTriNormals(start, n int) {
	for i := start; i < start+n; i++ {
		tr := &s.Tris[i]
		p1 := m.V3(s.Points[tr.P1].X)
		d12 := m.V3(s.Points[tr.P2].X).Sub(p1)
		d13 := m.V3(s.Points[tr.P3].X).Sub(p1)
		tr.Norm = d12.Cross(d13).Normalize().Array()
	}
}
