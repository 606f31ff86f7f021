package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/surfread/pkg/surf"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	// Test domain defaults
	if cfg.Domain.Dimension != 3 {
		t.Errorf("expected dimension 3, got %d", cfg.Domain.Dimension)
	}
	if cfg.Domain.BoxHi != [3]float64{10, 10, 10} {
		t.Errorf("expected box hi (10,10,10), got %v", cfg.Domain.BoxHi)
	}

	// Test reader defaults
	if cfg.Reader.ChunkLines != 1024 {
		t.Errorf("expected chunk lines 1024, got %d", cfg.Reader.ChunkLines)
	}
	if !cfg.Reader.AllowGzip {
		t.Error("expected gzip to be allowed by default")
	}

	// Test checks defaults
	if cfg.Checks.Epsilon != 1e-6 {
		t.Errorf("expected epsilon 1e-6, got %g", cfg.Checks.Epsilon)
	}

	// Test group defaults
	if cfg.Group.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", cfg.Group.Workers)
	}
	if cfg.Group.ConnectTimeout != 10*time.Second {
		t.Errorf("expected timeout 10s, got %v", cfg.Group.ConnectTimeout)
	}

	// Test logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}

	if _, err := cfg.Box(); err != nil {
		t.Errorf("default box is invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "surftool.yaml")

	yamlContent := `
domain:
  dimension: 2
  box_lo: [-1, -2, -0.5]
  box_hi: [1, 2, 0.5]

reader:
  chunk_lines: 64
  allow_gzip: false

checks:
  epsilon: 1e-4

group:
  workers: 8
  listen: "0.0.0.0:9000"
  connect_timeout: 5s

logging:
  level: "debug"
  log_file: "surftool.log"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	// Load config
	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Verify values were loaded
	if cfg.Domain.Dimension != 2 {
		t.Errorf("expected dimension 2, got %d", cfg.Domain.Dimension)
	}
	if cfg.Domain.BoxLo != [3]float64{-1, -2, -0.5} {
		t.Errorf("unexpected box lo %v", cfg.Domain.BoxLo)
	}
	if cfg.Reader.ChunkLines != 64 || cfg.Reader.AllowGzip {
		t.Errorf("unexpected reader config %+v", cfg.Reader)
	}
	if cfg.Checks.Epsilon != 1e-4 {
		t.Errorf("expected epsilon 1e-4, got %g", cfg.Checks.Epsilon)
	}
	if cfg.Group.Workers != 8 || cfg.Group.Listen != "0.0.0.0:9000" {
		t.Errorf("unexpected group config %+v", cfg.Group)
	}
	if cfg.Group.ConnectTimeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", cfg.Group.ConnectTimeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "surftool.log" {
		t.Errorf("expected log file 'surftool.log', got %s", cfg.Logging.LogFile)
	}

	box, err := cfg.Box()
	if err != nil {
		t.Fatalf("Box failed: %v", err)
	}
	if box.Dimension != 2 || box.Hi[1] != 2 {
		t.Errorf("unexpected box %+v", box)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	tmpDir := t.TempDir()

	tests := map[string]string{
		"syntax":       "domain:\n  dimension: not a number\n  invalid syntax here\n",
		"short vector": "domain:\n  box_lo: [0, 0]\n",
	}
	for name, content := range tests {
		configPath := filepath.Join(tmpDir, name+".yaml")
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg := Default()
		if err := loadFromFile(cfg, configPath); err == nil {
			t.Errorf("%s: expected error loading invalid YAML, got nil", name)
		}
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	err := loadFromFile(cfg, "/nonexistent/path/surftool.yaml")
	if err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestBoxInvalid(t *testing.T) {
	cfg := Default()
	cfg.Domain.Dimension = 2
	cfg.Domain.BoxLo[2], cfg.Domain.BoxHi[2] = 0, 10 // Box never adjusts z, only Load does
	if _, err := cfg.Box(); !errors.Is(err, surf.ErrInvalidBox) {
		t.Errorf("expected ErrInvalidBox, got %v", err)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()

	// Actual path depends on OS
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	// No config file exists - should return empty
	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(FileName, []byte("domain:\n  dimension: 2\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	// Should find it now
	if path := findConfigFile(); path == "" {
		t.Errorf("expected to find %s in current directory", FileName)
	}
}

func TestRegisterFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-debug", "-dim", "2", "-np", "4", "-listen", ":9999", "mesh.surf"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	cfg := Default()
	f.apply(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
	}
	if cfg.Domain.Dimension != 2 {
		t.Errorf("expected dimension 2, got %d", cfg.Domain.Dimension)
	}
	if cfg.Group.Workers != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.Group.Workers)
	}
	if cfg.Group.Listen != ":9999" {
		t.Errorf("expected listen :9999, got %s", cfg.Group.Listen)
	}
	if fs.Arg(0) != "mesh.surf" {
		t.Errorf("expected positional mesh.surf, got %q", fs.Arg(0))
	}
}

func TestLoadFlattens2DBox(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	if err := fs.Parse([]string{"-dim", "2", "wall", "wall.surf"}); err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	box, err := cfg.Box()
	if err != nil {
		t.Fatalf("-dim 2 with the default box should be valid: %v", err)
	}
	if box.Lo[2] != -0.5 || box.Hi[2] != 0.5 {
		t.Errorf("expected z range [-0.5, 0.5], got [%g, %g]", box.Lo[2], box.Hi[2])
	}
	if box.Hi[0] != 10 || box.Hi[1] != 10 {
		t.Errorf("x and y extent should be untouched, got %v", box.Hi)
	}

	// 3D keeps the configured z range
	cfg, err = Load(&Flags{Dim: 3})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Domain.BoxLo[2] != 0 || cfg.Domain.BoxHi[2] != 10 {
		t.Errorf("3d z range changed: %v %v", cfg.Domain.BoxLo, cfg.Domain.BoxHi)
	}
}

func TestBoxFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Chdir(t.TempDir())

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f := RegisterFlags(fs)
	err := fs.Parse([]string{"-dim", "2", "-boxlo", "-5,-5,-1", "-boxhi", "5, 5, 1"})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	cfg, err := Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Domain.BoxLo != [3]float64{-5, -5, -1} || cfg.Domain.BoxHi != [3]float64{5, 5, 1} {
		t.Errorf("unexpected box %v %v", cfg.Domain.BoxLo, cfg.Domain.BoxHi)
	}
	if f.BoxLo.String() != "-5,-5,-1" {
		t.Errorf("BoxLo.String() = %q", f.BoxLo.String())
	}

	// An explicit box is reported as given, not repaired.
	f = &Flags{Dim: 2}
	if err := f.BoxLo.Set("0,0,0"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	cfg, err = Load(f)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, err := cfg.Box(); !errors.Is(err, surf.ErrInvalidBox) {
		t.Errorf("expected ErrInvalidBox for explicit z range [0, 10], got %v", err)
	}

	for _, bad := range []string{"1,2", "1,2,3,4", "1,x,3", ""} {
		var v Vec3Flag
		if err := v.Set(bad); err == nil {
			t.Errorf("Set(%q) should fail", bad)
		}
		if v.Given {
			t.Errorf("Set(%q) marked the flag as set", bad)
		}
	}
}

func TestLoadPriority(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "surftool.yaml")

	yamlContent := `
group:
  workers: 6
  listen: "10.0.0.1:7400"
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(&Flags{Config: configPath, Workers: 2})
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	// Workers should be from flag (2), not file (6)
	if cfg.Group.Workers != 2 {
		t.Errorf("expected 2 workers from flag, got %d", cfg.Group.Workers)
	}

	// Listen should be from file since no flag override
	if cfg.Group.Listen != "10.0.0.1:7400" {
		t.Errorf("expected listen from file, got %s", cfg.Group.Listen)
	}
}

func TestSaveTo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "surftool.yaml")

	cfg := Default()
	cfg.Domain.Dimension = 2
	cfg.Domain.BoxLo[2] = -0.5
	cfg.Group.ConnectTimeout = 3 * time.Second
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("failed to reload: %v", err)
	}
	if loaded.Domain != cfg.Domain || loaded.Group != cfg.Group {
		t.Errorf("reloaded config differs: %+v vs %+v", loaded, cfg)
	}
}
