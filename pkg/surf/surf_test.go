package surf

import (
	"errors"
	"math"
	"testing"
)

func TestAddID(t *testing.T) {
	s := New()

	if id := s.AddID("wing"); id != 0 {
		t.Errorf("first id = %d, want 0", id)
	}
	if id := s.AddID("hull"); id != 1 {
		t.Errorf("second id = %d, want 1", id)
	}
	if id := s.AddID("wing"); id != 0 {
		t.Errorf("repeated name id = %d, want 0", id)
	}
	if s.FindID("hull") != 1 || s.FindID("none") != -1 {
		t.Error("FindID returned wrong index")
	}
	if s.IDName(1) != "hull" || s.IDName(5) != "" {
		t.Error("IDName returned wrong name")
	}
}

func TestCommitRejectsShrink(t *testing.T) {
	s := New()
	if err := s.Commit(make([]Point, 2), nil, nil); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := s.Commit(make([]Point, 1), nil, nil); err == nil {
		t.Error("expected error committing fewer points")
	}
	if len(s.Points) != 2 {
		t.Errorf("failed commit changed points: %d", len(s.Points))
	}
}

func TestComputeLineNormals(t *testing.T) {
	s := New()
	s.Points = []Point{{X: [3]float64{0, 0, 0}}, {X: [3]float64{2, 0, 0}}}
	s.Lines = []Line{{P1: 0, P2: 1}, {P1: 1, P2: 0}}

	s.ComputeLineNormals(0, 2)

	if s.Lines[0].Norm != [3]float64{0, 1, 0} {
		t.Errorf("line 0 normal = %v, want (0,1,0)", s.Lines[0].Norm)
	}
	if s.Lines[1].Norm != [3]float64{0, -1, 0} {
		t.Errorf("line 1 normal = %v, want (0,-1,0)", s.Lines[1].Norm)
	}
}

func TestComputeTriNormalsOnlyWindow(t *testing.T) {
	s := New()
	s.Points = []Point{
		{X: [3]float64{0, 0, 0}},
		{X: [3]float64{1, 0, 0}},
		{X: [3]float64{0, 1, 0}},
	}
	s.Tris = []Tri{{P1: 0, P2: 1, P3: 2, Norm: [3]float64{9, 9, 9}}, {P1: 0, P2: 2, P3: 1}}

	s.ComputeTriNormals(1, 1)

	if s.Tris[0].Norm != [3]float64{9, 9, 9} {
		t.Errorf("triangle outside window was modified: %v", s.Tris[0].Norm)
	}
	if s.Tris[1].Norm != [3]float64{0, 0, -1} {
		t.Errorf("triangle 1 normal = %v, want (0,0,-1)", s.Tris[1].Norm)
	}
}

func TestBoxValidate(t *testing.T) {
	tests := []struct {
		name string
		box  Box
		ok   bool
	}{
		{"unit 3d", Box{3, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}}, true},
		{"2d straddles zero", Box{2, [3]float64{0, 0, -0.5}, [3]float64{1, 1, 0.5}}, true},
		{"2d above zero", Box{2, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}}, false},
		{"bad dimension", Box{4, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}}, false},
		{"inverted axis", Box{3, [3]float64{0, 2, 0}, [3]float64{1, 1, 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if tt.ok && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidBox) {
				t.Errorf("expected ErrInvalidBox, got %v", err)
			}
		})
	}
}

func TestBoxInsideIsStrict(t *testing.T) {
	b := Box{3, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}}

	if b.Inside([3]float64{0, 0.5, 0.5}) {
		t.Error("point on low face should be outside")
	}
	if b.Inside([3]float64{0.5, 1, 0.5}) {
		t.Error("point on high face should be outside")
	}
	tiny := math.Nextafter(0, 1)
	if !b.Inside([3]float64{tiny, 0.5, 0.5}) {
		t.Error("point just inside low face should be inside")
	}
	if p := b.Prd(); p != [3]float64{1, 1, 1} {
		t.Errorf("Prd() = %v", p)
	}
}
