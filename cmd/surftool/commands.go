package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/surfread/internal/comm"
	"github.com/Faultbox/surfread/internal/config"
	"github.com/Faultbox/surfread/internal/logger"
	"github.com/Faultbox/surfread/internal/network"
	"github.com/Faultbox/surfread/internal/readsurf"
	"github.com/Faultbox/surfread/pkg/formats"
	"github.com/Faultbox/surfread/pkg/surf"
)

// ingest runs one read_surf command on a rank and returns the store.
func ingest(ctx context.Context, cfg *config.Config, bc comm.Broadcaster, args []string) (*surf.Surf, *readsurf.Result, error) {
	box, err := cfg.Box()
	if err != nil {
		return nil, nil, err
	}

	s := surf.New()
	rs, err := readsurf.New(bc, s, box, readsurf.Config{
		ChunkLines: cfg.Reader.ChunkLines,
		Epsilon:    cfg.Checks.Epsilon,
		AllowGzip:  cfg.Reader.AllowGzip,
		Logger:     logger.ForRank(bc.Rank()),
	})
	if err != nil {
		return nil, nil, err
	}

	res, err := rs.Command(ctx, args)
	if err != nil {
		return nil, nil, err
	}
	return s, res, nil
}

func cmdCheck(ctx context.Context, args []string) error {
	cfg, rest, err := setup("check", args, nil)
	if err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		root *readsurf.Result
	)
	err = comm.Run(ctx, cfg.Group.Workers, func(ctx context.Context, bc comm.Broadcaster) error {
		_, res, err := ingest(ctx, cfg, bc, rest)
		if err != nil {
			return err
		}
		if comm.IsRoot(bc) {
			mu.Lock()
			root = res
			mu.Unlock()
		}
		return nil
	})
	if err != nil {
		return err
	}

	printResult(os.Stdout, rest[0], cfg.Domain.Dimension, root)
	return nil
}

func cmdExport(ctx context.Context, args []string) error {
	var output string
	cfg, rest, err := setup("export", args, func(fs *flag.FlagSet) {
		fs.StringVar(&output, "o", "", "Output file (default stdout)")
	})
	if err != nil {
		return err
	}

	s, res, err := ingest(ctx, cfg, comm.Local{}, rest)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	mesh := windowMesh(s, res, cfg.Domain.Dimension)
	desc := fmt.Sprintf("# surf %s exported by surftool", rest[0])
	if err := formats.Write(w, mesh, desc); err != nil {
		return err
	}
	logger.Info("surf exported", zap.String("output", output), zap.Int("points", len(mesh.Points)))
	return nil
}

func cmdServe(ctx context.Context, args []string) error {
	cfg, rest, err := setup("serve", args, nil)
	if err != nil {
		return err
	}

	coord, err := network.Listen(cfg.Group.Listen, cfg.Group.Workers)
	if err != nil {
		return err
	}
	defer coord.Close()
	logger.Info("waiting for workers",
		zap.Stringer("addr", coord.Addr()),
		zap.Int("workers", cfg.Group.Workers-1),
	)

	acceptCtx, cancel := context.WithTimeout(ctx, cfg.Group.ConnectTimeout)
	err = coord.Accept(acceptCtx)
	cancel()
	if err != nil {
		return err
	}

	_, res, err := ingest(ctx, cfg, coord, rest)
	if err != nil {
		logger.Error("read failed", zap.String("surf", rest[0]), zap.Error(err))
		// workers still blocked in a broadcast are released
		abortWorkers(coord, err.Error())
		return err
	}
	printResult(os.Stdout, rest[0], cfg.Domain.Dimension, res)
	return nil
}

func cmdJoin(ctx context.Context, args []string) error {
	cfg, rest, err := setup("join", args, nil)
	if err != nil {
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.Group.ConnectTimeout)
	w, err := network.Dial(dialCtx, cfg.Group.Listen)
	cancel()
	if err != nil {
		return err
	}
	defer w.Close()
	logger.Info("joined group", zap.Int("rank", w.Rank()), zap.Int("size", w.Size()))

	_, res, err := ingest(ctx, cfg, w, rest)
	if err != nil {
		logger.Error("read failed", zap.Int("rank", w.Rank()), zap.Error(err))
		return err
	}
	logger.Info("surf read", zap.Int("id", res.SurfaceID), zap.Int("points", res.Points.Count))
	return nil
}

type aborter interface {
	Abort(ctx context.Context, reason string) error
}

// abortWorkers sends reason to every worker, giving up after a second.
func abortWorkers(a aborter, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := a.Abort(ctx, reason); err != nil {
		logger.Warn("aborting workers", zap.Error(err))
	}
}

// printResult writes a summary of a successful read.
func printResult(w io.Writer, name string, dim int, res *readsurf.Result) {
	fmt.Fprintf(w, "Surface: %s (id %d)\n", name, res.SurfaceID)
	fmt.Fprintf(w, "Points:  %d\n", res.Points.Count)
	if dim == 2 {
		fmt.Fprintf(w, "Lines:   %d\n", res.Lines.Count)
	} else {
		fmt.Fprintf(w, "Tris:    %d\n", res.Tris.Count)
	}
	axes := []string{"x", "y", "z"}
	for k, e := range res.Extent {
		fmt.Fprintf(w, "  %s: %g %g\n", axes[k], e[0], e[1])
	}
}

// windowMesh returns the geometry added by a read, with face indices
// relative to its first point.
func windowMesh(s *surf.Surf, res *readsurf.Result, dim int) *formats.Mesh {
	m := &formats.Mesh{Dimension: dim}
	p0 := res.Points.Start
	for _, p := range s.Points[p0 : p0+res.Points.Count] {
		m.Points = append(m.Points, p.X)
	}
	for _, ln := range s.Lines[res.Lines.Start : res.Lines.Start+res.Lines.Count] {
		m.Lines = append(m.Lines, [2]int{ln.P1 - p0, ln.P2 - p0})
	}
	for _, tr := range s.Tris[res.Tris.Start : res.Tris.Start+res.Tris.Count] {
		m.Triangles = append(m.Triangles, [3]int{tr.P1 - p0, tr.P2 - p0, tr.P3 - p0})
	}
	return m
}
