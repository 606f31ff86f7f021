// Package readsurf ingests surface meshes from surf files. Every rank of a
// group runs the same command; the root rank reads the file and broadcasts
// its content, so all ranks build and validate identical geometry.
package readsurf

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/surfread/internal/comm"
	"github.com/Faultbox/surfread/pkg/formats"
	"github.com/Faultbox/surfread/pkg/surf"
)

// Defaults for Config.
const (
	DefaultChunkLines = 1024
	DefaultEpsilon    = 1e-6
)

// Config contains ingestion options.
type Config struct {
	// ChunkLines is the number of data rows read and broadcast at once.
	ChunkLines int
	// Epsilon is the duplicate point distance as a fraction of the
	// shortest box edge.
	Epsilon float64
	// AllowGzip permits reading .gz files.
	AllowGzip bool
	// Logger receives progress on the root rank. Nil disables logging.
	Logger *zap.Logger
}

// DefaultConfig returns the default ingestion configuration.
func DefaultConfig() Config {
	return Config{
		ChunkLines: DefaultChunkLines,
		Epsilon:    DefaultEpsilon,
		AllowGzip:  true,
	}
}

// Window is a range of newly added entries in a geometry array.
type Window struct {
	Start int
	Count int
}

// Result describes a successful ingestion.
type Result struct {
	SurfaceID int
	Points    Window
	Lines     Window
	Tris      Window
	Extent    Extent
}

// ReadSurf runs read_surf commands against a surface store.
type ReadSurf struct {
	bc   comm.Broadcaster
	surf *surf.Surf
	box  surf.Box
	cfg  Config
	log  *zap.Logger
}

// New creates a reader for one rank. Ranks other than the root never log.
func New(bc comm.Broadcaster, s *surf.Surf, box surf.Box, cfg Config) (*ReadSurf, error) {
	if err := box.Validate(); err != nil {
		return nil, err
	}
	if cfg.ChunkLines <= 0 {
		cfg.ChunkLines = DefaultChunkLines
	}
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = DefaultEpsilon
	}

	log := cfg.Logger
	if log == nil || !comm.IsRoot(bc) {
		log = zap.NewNop()
	}
	return &ReadSurf{bc: bc, surf: s, box: box, cfg: cfg, log: log}, nil
}

// Command runs a read_surf command: a surface name, a file path, then
// transformation keywords.
func (rs *ReadSurf) Command(ctx context.Context, args []string) (*Result, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("%w: expected surface name and file", ErrCommand)
	}
	ops, err := ParseTransforms(args[2:])
	if err != nil {
		return nil, err
	}
	return rs.Ingest(ctx, args[0], args[1], ops)
}

// Ingest reads the surf file at path as surface name, applies ops to the
// new geometry, validates it and commits it. Geometry already in the store
// is never modified, and nothing is committed on error.
func (rs *ReadSurf) Ingest(ctx context.Context, name, path string, ops []Transform) (*Result, error) {
	dim := rs.box.Dimension
	log := rs.log
	if comm.IsRoot(rs.bc) {
		log = log.With(zap.String("run", uuid.NewString()), zap.String("surf", name))
	}

	id := rs.surf.AddID(name)
	log.Info("reading surf file", zap.String("path", path))

	r := openReader(rs.bc, path, rs.cfg.ChunkLines, rs.cfg.AllowGzip)
	g, err := rs.read(ctx, r, id, dim)
	if cerr := r.close(); cerr != nil {
		log.Warn("closing surf file", zap.Error(cerr))
	}
	if err != nil {
		return nil, err
	}

	npointOld := len(rs.surf.Points)
	nlineOld := len(rs.surf.Lines)
	ntriOld := len(rs.surf.Tris)
	npointNew := len(g.pts) - npointOld
	pts, lines, tris := g.pts, g.lines, g.tris
	log.Info("read points", zap.Int("count", npointNew))
	if dim == 2 {
		log.Info("read lines", zap.Int("count", len(lines)-nlineOld))
	} else {
		log.Info("read triangles", zap.Int("count", len(tris)-ntriOld))
	}

	win := &geometry{
		box:   rs.box,
		pts:   pts[npointOld:],
		lines: lines[nlineOld:],
		tris:  tris[ntriOld:],
	}
	for _, op := range ops {
		if err := win.apply(op); err != nil {
			return nil, err
		}
	}

	ext := extent(win.pts)
	log.Info("surf extent",
		zap.Float64s("x", ext[0][:]),
		zap.Float64s("y", ext[1][:]),
		zap.Float64s("z", ext[2][:]),
	)

	if err := rs.validate(win, npointOld); err != nil {
		return nil, err
	}

	if err := rs.surf.Commit(pts, lines, tris); err != nil {
		return nil, err
	}
	res := &Result{
		SurfaceID: id,
		Points:    Window{Start: npointOld, Count: npointNew},
		Lines:     Window{Start: nlineOld, Count: len(win.lines)},
		Tris:      Window{Start: ntriOld, Count: len(win.tris)},
		Extent:    ext,
	}
	if dim == 2 {
		rs.surf.ComputeLineNormals(res.Lines.Start, res.Lines.Count)
	} else {
		rs.surf.ComputeTriNormals(res.Tris.Start, res.Tris.Count)
	}
	log.Info("surf committed",
		zap.Int("id", id),
		zap.Int("points", len(rs.surf.Points)),
		zap.Int("lines", len(rs.surf.Lines)),
		zap.Int("triangles", len(rs.surf.Tris)),
	)
	return res, nil
}

// read parses the file into grown copies of the store's arrays.
func (rs *ReadSurf) read(ctx context.Context, r *reader, id, dim int) (*geometry, error) {
	h, err := readHeader(ctx, r, dim)
	if err != nil {
		return nil, err
	}

	npointOld := len(rs.surf.Points)
	g := &geometry{
		box:   rs.box,
		pts:   grow(rs.surf.Points, h.npoint),
		lines: grow(rs.surf.Lines, h.nline),
		tris:  grow(rs.surf.Tris, h.ntri),
	}

	if err := expectSection(ctx, r, h.last, true, formats.SectionPoints); err != nil {
		return nil, err
	}
	if err := readPoints(ctx, r, dim, g.pts[npointOld:]); err != nil {
		return nil, err
	}

	if err := expectSection(ctx, r, "", false, formats.FaceSection(dim)); err != nil {
		return nil, err
	}
	if dim == 2 {
		err = readLines(ctx, r, id, npointOld, h.npoint, g.lines[len(rs.surf.Lines):])
	} else {
		err = readTris(ctx, r, id, npointOld, h.npoint, g.tris[len(rs.surf.Tris):])
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// validate runs the bounds, duplicate point and watertight checks on the
// new geometry.
func (rs *ReadSurf) validate(g *geometry, npointOld int) error {
	if err := defects(CheckInside, countOutside(g.pts, rs.box)); err != nil {
		return err
	}
	eps := pairEpsilon(rs.box, rs.cfg.Epsilon)
	if err := checkPointPairs(g.pts, rs.box, eps); err != nil {
		return err
	}
	if rs.box.Dimension == 2 {
		return defects(CheckWatertight2D, countLeaky2D(g.lines, npointOld, len(g.pts)))
	}
	return defects(CheckWatertight3D, countLeaky3D(g.tris, npointOld, len(g.pts)))
}

// grow returns a copy of s extended by n zero entries. The store's own
// array is never written.
func grow[T any](s []T, n int) []T {
	out := make([]T, len(s), len(s)+n)
	copy(out, s)
	return out[:len(s)+n]
}
