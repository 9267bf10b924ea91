package strategy

import (
	"errors"
	"reflect"
	"testing"

	"github.com/janelia-flyem/voxpack/voxpack"
)

func streamLabels() *voxpack.LabelTable {
	lt := voxpack.NewLabelTable()
	lt.Add('a', "r")
	lt.Add('b', "o")
	return lt
}

// feedRows pushes whole slices through the streamer and returns all
// emitted cuboids.
func feedRows(t *testing.T, s *StreamRLEXY, ext voxpack.Extents, slices [][]string) []voxpack.Cuboid {
	t.Helper()
	var out []voxpack.Cuboid
	var z int32
	for _, slice := range slices {
		for y, row := range slice {
			if err := s.OnRow(z, int32(y), []byte(row), &out); err != nil {
				t.Fatalf("OnRow(z=%d, y=%d): %v", z, y, err)
			}
		}
		s.OnSliceEnd(z, &out)
		z++
	}
	s.Finish(z, &out)
	return out
}

func TestStreamStripeFlush(t *testing.T) {
	// 4x4x2 with 2x2x2 parents: the PY=2 stripe flush closes groups
	// mid-slice, yielding eight dz=1 cuboids.
	ext := voxpack.Extents{X: 4, Y: 4, Z: 2, PX: 2, PY: 2, PZ: 2}
	slice := []string{"aabb", "aabb", "aabb", "aabb"}
	s := NewStreamRLEXY(ext, streamLabels(), false)
	out := feedRows(t, s, ext, [][]string{slice, slice})

	want := []voxpack.Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 2, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 1},
		{X: 0, Y: 2, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 2, Y: 2, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 1},
		{X: 0, Y: 0, Z: 1, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 2, Y: 0, Z: 1, DX: 2, DY: 2, DZ: 1, Label: 1},
		{X: 0, Y: 2, Z: 1, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 2, Y: 2, Z: 1, DX: 2, DY: 2, DZ: 1, Label: 1},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream output %v, want %v", out, want)
	}
}

func TestStreamDepthMerge(t *testing.T) {
	// Depth merge stacks the stripe rectangles across both slices of the
	// parent, halving the cuboid count of the dz=1 mode.
	ext := voxpack.Extents{X: 4, Y: 4, Z: 2, PX: 2, PY: 2, PZ: 2}
	slice := []string{"aabb", "aabb", "aabb", "aabb"}
	s := NewStreamRLEXY(ext, streamLabels(), true)
	out := feedRows(t, s, ext, [][]string{slice, slice})

	if len(out) != 4 {
		t.Fatalf("expected 4 depth-merged cuboids, got %d: %v", len(out), out)
	}
	for _, c := range out {
		if c.DZ != 2 {
			t.Errorf("expected dz=2 on %v", c)
		}
		if !c.WithinParent(ext.PX, ext.PY, ext.PZ) {
			t.Errorf("cuboid %v crosses a parent boundary", c)
		}
	}
}

func TestStreamDepthMergeClosesAtParentZ(t *testing.T) {
	// Four identical slices with PZ=2: stacks must break at z=2.
	ext := voxpack.Extents{X: 2, Y: 2, Z: 4, PX: 2, PY: 2, PZ: 2}
	slice := []string{"aa", "aa"}
	s := NewStreamRLEXY(ext, streamLabels(), true)
	out := feedRows(t, s, ext, [][]string{slice, slice, slice, slice})

	want := []voxpack.Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 2, Label: 0},
		{X: 0, Y: 0, Z: 2, DX: 2, DY: 2, DZ: 2, Label: 0},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream output %v, want %v", out, want)
	}
}

func TestStreamRunsSplitAtParentX(t *testing.T) {
	// One run of 'a' spanning the whole row splits at every PX boundary.
	ext := voxpack.Extents{X: 6, Y: 2, Z: 1, PX: 2, PY: 2, PZ: 1}
	s := NewStreamRLEXY(ext, streamLabels(), false)
	out := feedRows(t, s, ext, [][]string{{"aaaaaa", "aaaaaa"}})

	want := []voxpack.Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 2, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 4, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream output %v, want %v", out, want)
	}
}

func TestStreamLabelChangeClosesGroup(t *testing.T) {
	// An identical interval with a different label closes the group
	// instead of extending it.
	ext := voxpack.Extents{X: 2, Y: 4, Z: 1, PX: 2, PY: 4, PZ: 1}
	s := NewStreamRLEXY(ext, streamLabels(), false)
	out := feedRows(t, s, ext, [][]string{{"aa", "aa", "bb", "bb"}})

	want := []voxpack.Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
		{X: 0, Y: 2, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 1},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream output %v, want %v", out, want)
	}
}

func TestStreamOverlapClosesGroup(t *testing.T) {
	// Overlapping but non-identical intervals close the carried group;
	// the run opens a fresh group at the current row.
	ext := voxpack.Extents{X: 4, Y: 3, Z: 1, PX: 4, PY: 3, PZ: 1}
	s := NewStreamRLEXY(ext, streamLabels(), false)
	out := feedRows(t, s, ext, [][]string{{"aabb", "abbb", "abbb"}})

	want := []voxpack.Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 1, DZ: 1, Label: 0}, // aa run closed by narrower a
		{X: 2, Y: 0, Z: 0, DX: 2, DY: 1, DZ: 1, Label: 1}, // bb run closed by wider bbb
		{X: 0, Y: 1, Z: 0, DX: 1, DY: 2, DZ: 1, Label: 0},
		{X: 1, Y: 1, Z: 0, DX: 3, DY: 2, DZ: 1, Label: 1},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream output %v, want %v", out, want)
	}
}

func TestStreamUnknownTag(t *testing.T) {
	ext := voxpack.Extents{X: 2, Y: 2, Z: 1, PX: 2, PY: 2, PZ: 1}
	s := NewStreamRLEXY(ext, streamLabels(), false)
	var out []voxpack.Cuboid
	err := s.OnRow(0, 0, []byte("az"), &out)
	if !errors.Is(err, voxpack.ErrUnknownTag) {
		t.Errorf("expected ErrUnknownTag, got %v", err)
	}
}

func TestStreamPartialSliceFlush(t *testing.T) {
	// EOF partway through a slice: Finish closes carried groups at the
	// current slice.
	ext := voxpack.Extents{X: 2, Y: 4, Z: 0, PX: 2, PY: 4, PZ: 1, ZUnbounded: true}
	s := NewStreamRLEXY(ext, streamLabels(), false)
	var out []voxpack.Cuboid
	if err := s.OnRow(0, 0, []byte("aa"), &out); err != nil {
		t.Fatalf("OnRow: %v", err)
	}
	if err := s.OnRow(0, 1, []byte("aa"), &out); err != nil {
		t.Fatalf("OnRow: %v", err)
	}
	s.Finish(0, &out)

	want := []voxpack.Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 2, DZ: 1, Label: 0},
	}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("stream output %v, want %v", out, want)
	}
}

func TestStreamConservation(t *testing.T) {
	// Volumes per label must match cell counts for an uneven volume.
	ext := voxpack.Extents{X: 4, Y: 4, Z: 2, PX: 2, PY: 2, PZ: 2}
	slices := [][]string{
		{"abab", "baba", "abab", "baba"},
		{"aabb", "aabb", "bbaa", "bbaa"},
	}
	for _, depthMerge := range []bool{false, true} {
		s := NewStreamRLEXY(ext, streamLabels(), depthMerge)
		out := feedRows(t, s, ext, slices)

		counts := map[uint32]int64{}
		for _, c := range out {
			counts[c.Label] += c.Volume()
			if !c.WithinParent(ext.PX, ext.PY, ext.PZ) {
				t.Errorf("depthMerge=%t: cuboid %v crosses a parent boundary", depthMerge, c)
			}
		}
		if counts[0] != 16 || counts[1] != 16 {
			t.Errorf("depthMerge=%t: volumes %v, want 16 per label", depthMerge, counts)
		}
	}
}
