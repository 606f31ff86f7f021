package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Faultbox/surfread/internal/comm"
	"github.com/Faultbox/surfread/internal/config"
	"github.com/Faultbox/surfread/internal/logger"
	"github.com/Faultbox/surfread/pkg/formats"
)

const wallFile = `wall

4 points
4 lines

Points

1 1 1
2 2 1
3 2 2
4 1 2

Lines

1 1 2
2 2 3
3 3 4
4 4 1
`

// isolate keeps config lookup away from the user's surftool.yaml.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())
}

func testConfig(t *testing.T, dim int) *config.Config {
	t.Helper()
	isolate(t)
	cfg, err := config.Load(&config.Flags{Dim: dim})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestDim2FromFlags(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "wall.surf")
	if err := os.WriteFile(path, []byte(wallFile), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}

	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	flags := config.RegisterFlags(fs)
	if err := fs.Parse([]string{"-dim", "2", "wall", path, "trans", "1", "0", "0", "invert"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cfg, err := config.Load(flags)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	_, res, err := ingest(context.Background(), cfg, comm.Local{}, fs.Args())
	if err != nil {
		t.Fatalf("ingest with -dim 2 and the default box failed: %v", err)
	}
	if res.Lines.Count != 4 || res.Extent[0] != [2]float64{2, 3} {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall.surf")
	if err := os.WriteFile(path, []byte(wallFile), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	cfg := testConfig(t, 2)
	ctx := context.Background()

	s, res, err := ingest(ctx, cfg, comm.Local{}, []string{"wall", path, "trans", "3", "3", "0", "invert"})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	mesh := windowMesh(s, res, 2)
	if mesh.Points[0] != [3]float64{4, 4, 0} {
		t.Errorf("exported point 0 = %v", mesh.Points[0])
	}
	if mesh.Lines[0] != [2]int{1, 0} {
		t.Errorf("exported line 0 = %v, want inverted [1 0]", mesh.Lines[0])
	}

	out := filepath.Join(dir, "moved.surf")
	data, err := formats.Encode(mesh, "moved")
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		t.Fatalf("failed to write output: %v", err)
	}

	s2, res2, err := ingest(ctx, cfg, comm.Local{}, []string{"again", out})
	if err != nil {
		t.Fatalf("re-ingest failed: %v", err)
	}
	if !reflect.DeepEqual(windowMesh(s2, res2, 2), mesh) {
		t.Error("re-read geometry differs from export")
	}
}

func TestPrintResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall.surf")
	if err := os.WriteFile(path, []byte(wallFile), 0644); err != nil {
		t.Fatalf("failed to write input: %v", err)
	}
	_, res, err := ingest(context.Background(), testConfig(t, 2), comm.Local{}, []string{"wall", path})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	var buf bytes.Buffer
	printResult(&buf, "wall", 2, res)
	out := buf.String()
	for _, want := range []string{"Surface: wall (id 0)", "Points:  4", "Lines:   4", "x: 1 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestIngestRejectsBadBox(t *testing.T) {
	cfg := config.Default()
	cfg.Domain.Dimension = 5
	if _, _, err := ingest(context.Background(), cfg, comm.Local{}, []string{"x", "x.surf"}); err == nil {
		t.Error("expected an error for an invalid dimension")
	}
}

type failingAborter struct{ reason string }

func (f *failingAborter) Abort(_ context.Context, reason string) error {
	f.reason = reason
	return errors.New("connection reset")
}

func TestAbortWorkersLogsFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	saved := logger.Log
	logger.Log = zap.New(core)
	defer func() { logger.Log = saved }()

	a := &failingAborter{}
	abortWorkers(a, "3 read_surf points are not inside simulation box")

	if a.reason != "3 read_surf points are not inside simulation box" {
		t.Errorf("abort reason = %q", a.reason)
	}
	entries := logs.FilterMessage("aborting workers").All()
	if len(entries) != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
	if got := entries[0].ContextMap()["error"]; got != "connection reset" {
		t.Errorf("logged error = %v", got)
	}
}
