package stream

import (
	"errors"
	"io"
	"testing"

	"github.com/janelia-flyem/voxpack/voxpack"
)

func initReader(t *testing.T, input string) *FrameReader {
	t.Helper()
	fr := newReader(t, input)
	if err := fr.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return fr
}

func TestTilerEnumeration(t *testing.T) {
	// 4x4x2 grid, 2x2x1 parents: 4 parents per slice, 8 total, in
	// (nz, ny, nx) order with nx fastest.
	input := "4,4,2,2,2,1\na,rock\nb,ore\n\n" +
		"aabb\naabb\naabb\naabb\n\n" +
		"bbaa\nbbaa\nbbaa\nbbaa\n"
	tiler := NewTiler(initReader(t, input), nil)

	wantOrigins := [][3]int32{
		{0, 0, 0}, {2, 0, 0}, {0, 2, 0}, {2, 2, 0},
		{0, 0, 1}, {2, 0, 1}, {0, 2, 1}, {2, 2, 1},
	}
	for i, want := range wantOrigins {
		parent, err := tiler.Next()
		if err != nil {
			t.Fatalf("parent %d: %v", i, err)
		}
		ox, oy, oz := parent.Origin()
		if [3]int32{ox, oy, oz} != want {
			t.Errorf("parent %d origin = (%d,%d,%d), want %v", i, ox, oy, oz, want)
		}
		if parent.SizeX() != 2 || parent.SizeY() != 2 || parent.SizeZ() != 1 {
			t.Errorf("parent %d has size %dx%dx%d", i,
				parent.SizeX(), parent.SizeY(), parent.SizeZ())
		}
		// Each parent here is uniform; check the decoded label.
		lbl, ok := parent.Uniform()
		if !ok {
			t.Errorf("parent %d not uniform", i)
		}
		wantLbl := uint32(0)
		if (want[0] == 2) != (want[2] == 1) { // ore in right half of z=0, left half of z=1
			wantLbl = 1
		}
		if lbl != wantLbl {
			t.Errorf("parent %d label = %d, want %d", i, lbl, wantLbl)
		}
	}
	if _, err := tiler.Next(); err != io.EOF {
		t.Errorf("expected io.EOF after last parent, got %v", err)
	}
}

func TestTilerChunkSpansSlices(t *testing.T) {
	// PZ=2 makes one chunk of two slices; the parent must see both.
	input := "2,2,2,2,2,2\na,rock\nb,ore\n\naa\naa\n\nbb\nbb\n"
	tiler := NewTiler(initReader(t, input), nil)
	parent, err := tiler.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if parent.At(0, 0, 0) != 0 || parent.At(1, 1, 1) != 1 {
		t.Errorf("chunk decode wrong: z0 cell %d, z1 cell %d",
			parent.At(0, 0, 0), parent.At(1, 1, 1))
	}
}

func TestTilerTruncatedStream(t *testing.T) {
	// Declared 2 slices, only one delivered.
	input := "2,2,2,2,2,2\na,rock\n\naa\naa\n"
	tiler := NewTiler(initReader(t, input), nil)
	_, err := tiler.Next()
	if !errors.Is(err, voxpack.ErrTruncatedStream) {
		t.Errorf("expected ErrTruncatedStream, got %v", err)
	}
	// After the error the tiler is exhausted.
	if ok, err := tiler.HasNext(); ok || err != nil {
		t.Errorf("expected exhausted tiler after error, got %t, %v", ok, err)
	}
}

func TestTilerUnknownTag(t *testing.T) {
	input := "2,2,1,2,2,1\na,rock\n\naz\naa\n"
	tiler := NewTiler(initReader(t, input), nil)
	_, err := tiler.Next()
	if !errors.Is(err, voxpack.ErrUnknownTag) {
		t.Errorf("expected ErrUnknownTag, got %v", err)
	}
}

func TestTilerUnboundedStream(t *testing.T) {
	// Depth sentinel 0: chunks load until EOF at a chunk boundary.
	input := "2,2,0,2,2,1\na,rock\n\naa\naa\n\naa\naa\n"
	tiler := NewTiler(initReader(t, input), nil)
	var parents int
	for {
		_, err := tiler.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("parent %d: %v", parents, err)
		}
		parents++
	}
	if parents != 2 {
		t.Errorf("expected 2 parents from unbounded stream, got %d", parents)
	}
}
