package readsurf

import (
	"fmt"
	"math"
	"strconv"

	m "github.com/Faultbox/surfread/pkg/math"
	"github.com/Faultbox/surfread/pkg/surf"
)

// Op is a geometry transformation keyword.
type Op int

// Transformations, in the order they are documented for the command.
const (
	OpOrigin Op = iota
	OpTrans
	OpATrans
	OpFTrans
	OpScale
	OpRotate
	OpInvert
)

var opNames = map[Op]string{
	OpOrigin: "origin",
	OpTrans:  "trans",
	OpATrans: "atrans",
	OpFTrans: "ftrans",
	OpScale:  "scale",
	OpRotate: "rotate",
	OpInvert: "invert",
}

var opArity = map[Op]int{
	OpOrigin: 3,
	OpTrans:  3,
	OpATrans: 3,
	OpFTrans: 3,
	OpScale:  3,
	OpRotate: 4,
	OpInvert: 0,
}

// String returns the command keyword.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Transform is one parsed transformation. Args holds Arity values: a
// vector for origin, trans, atrans, ftrans and scale; the angle in degrees
// followed by the axis for rotate.
type Transform struct {
	Op   Op
	Args []float64
}

func (t Transform) vec() [3]float64 {
	return [3]float64{t.Args[0], t.Args[1], t.Args[2]}
}

// ParseTransforms parses the keyword list that follows the file name of a
// read_surf command.
func ParseTransforms(args []string) ([]Transform, error) {
	var ops []Transform
	for i := 0; i < len(args); {
		op, ok := lookupOp(args[i])
		if !ok {
			return nil, fmt.Errorf("%w: unknown keyword %q", ErrCommand, args[i])
		}
		n := opArity[op]
		if i+1+n > len(args) {
			return nil, fmt.Errorf("%w: %s needs %d arguments", ErrCommand, op, n)
		}
		t := Transform{Op: op, Args: make([]float64, n)}
		for k := 0; k < n; k++ {
			v, err := strconv.ParseFloat(args[i+1+k], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s argument %q is not a number", ErrCommand, op, args[i+1+k])
			}
			t.Args[k] = v
		}
		ops = append(ops, t)
		i += 1 + n
	}
	return ops, nil
}

func lookupOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return 0, false
}

// geometry is the window of newly read entities a command may modify.
type geometry struct {
	box    surf.Box
	pts    []surf.Point
	lines  []surf.Line
	tris   []surf.Tri
	origin [3]float64
}

func (g *geometry) is2D() bool {
	return g.box.Dimension == 2
}

// apply validates t for the dimension and applies it.
func (g *geometry) apply(t Transform) error {
	if len(t.Args) != opArity[t.Op] {
		return fmt.Errorf("%w: %s needs %d arguments", ErrCommand, t.Op, opArity[t.Op])
	}

	switch t.Op {
	case OpOrigin:
		v := t.vec()
		if g.is2D() && v[2] != 0 {
			return fmt.Errorf("%w: invalid 2d origin", ErrTransform)
		}
		g.origin = v

	case OpTrans:
		d := t.vec()
		if g.is2D() && d[2] != 0 {
			return fmt.Errorf("%w: invalid 2d trans", ErrTransform)
		}
		g.translate(d)

	case OpATrans:
		a := t.vec()
		if g.is2D() && a[2] != 0 {
			return fmt.Errorf("%w: invalid 2d atrans", ErrTransform)
		}
		g.translate(sub(a, g.origin))

	case OpFTrans:
		f := t.vec()
		if g.is2D() && f[2] != 0.5 {
			return fmt.Errorf("%w: invalid 2d ftrans", ErrTransform)
		}
		var a [3]float64
		for k := 0; k < 3; k++ {
			a[k] = g.box.Lo[k] + f[k]*(g.box.Hi[k]-g.box.Lo[k])
		}
		if g.is2D() {
			a[2] = 0
		}
		g.translate(sub(a, g.origin))

	case OpScale:
		s := t.vec()
		if g.is2D() && s[2] != 1 {
			return fmt.Errorf("%w: invalid 2d scale", ErrTransform)
		}
		g.scale(s)

	case OpRotate:
		axis := [3]float64{t.Args[1], t.Args[2], t.Args[3]}
		if axis == [3]float64{} {
			return fmt.Errorf("%w: rotation axis is zero", ErrTransform)
		}
		if g.is2D() && axis != [3]float64{0, 0, 1} {
			return fmt.Errorf("%w: invalid 2d rotation axis", ErrTransform)
		}
		g.rotate(t.Args[0], axis)

	case OpInvert:
		g.invert()

	default:
		return fmt.Errorf("%w: unknown operation %s", ErrCommand, t.Op)
	}
	return nil
}

// translate shifts every new point and the origin by d.
func (g *geometry) translate(d [3]float64) {
	for i := range g.pts {
		for k := 0; k < 3; k++ {
			g.pts[i].X[k] += d[k]
		}
	}
	for k := 0; k < 3; k++ {
		g.origin[k] += d[k]
	}
}

// scale scales new points about the origin. z is untouched in 2D.
func (g *geometry) scale(s [3]float64) {
	n := 3
	if g.is2D() {
		n = 2
	}
	for i := range g.pts {
		x := &g.pts[i].X
		for k := 0; k < n; k++ {
			x[k] = s[k]*(x[k]-g.origin[k]) + g.origin[k]
		}
	}
}

// rotate rotates new points about the origin by theta degrees around axis.
// z is untouched in 2D.
func (g *geometry) rotate(theta float64, axis [3]float64) {
	rot := m.Rotation(m.V3(axis), theta*math.Pi/180)
	o := m.V3(g.origin)
	for i := range g.pts {
		x := &g.pts[i].X
		r := rot.MulVec(m.V3(*x).Sub(o)).Add(o)
		x[0], x[1] = r.X, r.Y
		if !g.is2D() {
			x[2] = r.Z
		}
	}
}

// invert reverses the orientation of every new line or triangle.
func (g *geometry) invert() {
	if g.is2D() {
		for i := range g.lines {
			ln := &g.lines[i]
			ln.P1, ln.P2 = ln.P2, ln.P1
		}
		return
	}
	for i := range g.tris {
		tr := &g.tris[i]
		tr.P2, tr.P3 = tr.P3, tr.P2
	}
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}
