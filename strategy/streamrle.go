package strategy

import (
	"fmt"
	"sort"

	"github.com/janelia-flyem/voxpack/voxpack"
)

// StreamRLEXY consumes rows as they arrive and compresses all labels in
// one pass, never materializing a parent block.  State is kept per
// parent-X stripe: a sorted list of in-progress vertical groups carried
// from the previous row, merged against the current row's runs with a
// two-pointer sweep.  Runs are pre-sliced at every PX boundary so no
// group can cross a stripe.  Groups are flushed at each parent-Y
// boundary, so emitted cuboids have dz = 1.
//
// With depth merge enabled, closed rectangles are instead collected per
// stripe and stacked across consecutive slices when an identical
// (y0, x0, dx, dy, label) rectangle recurs, closing at every parent-Z
// boundary.  This trades the strict dz = 1 streaming output for deeper
// compression while still holding only per-stripe state.
type StreamRLEXY struct {
	ext    voxpack.Extents
	labels *voxpack.LabelTable
	numNx  int32
	zmerge bool

	active [][]streamGroup
	next   [][]streamGroup
	runs   [][]streamRun

	rects   [][]srect // rectangles closed during the current slice
	zactive [][]sbox
	znext   [][]sbox
}

type streamGroup struct {
	x0, x1 int32
	y0     int32
	height int32
	label  uint32
}

type streamRun struct {
	x0, x1 int32
	label  uint32
}

// srect is a closed 2d rectangle awaiting depth merge.
type srect struct {
	x0, y0, dx, dy int32
	label          uint32
}

// sbox is an active 3d block being extended in depth.
type sbox struct {
	x0, y0, z0, dx, dy, dz int32
	label                  uint32
}

// NewStreamRLEXY builds the streaming consumer.  The extents may be
// unbounded in Z.
func NewStreamRLEXY(ext voxpack.Extents, labels *voxpack.LabelTable, depthMerge bool) *StreamRLEXY {
	numNx := ext.X / ext.PX
	s := &StreamRLEXY{
		ext:    ext,
		labels: labels,
		numNx:  numNx,
		zmerge: depthMerge,
		active: make([][]streamGroup, numNx),
		next:   make([][]streamGroup, numNx),
		runs:   make([][]streamRun, numNx),
	}
	if depthMerge {
		s.rects = make([][]srect, numNx)
		s.zactive = make([][]sbox, numNx)
		s.znext = make([][]sbox, numNx)
	}
	return s
}

// OnRow processes one row of slice z at row y, appending any cuboids
// closed by it to out.
func (s *StreamRLEXY) OnRow(z, y int32, row []byte, out *[]voxpack.Cuboid) error {
	if err := s.buildRuns(z, y, row); err != nil {
		return err
	}
	s.mergeRow(z, y, out)
	if y%s.ext.PY == s.ext.PY-1 {
		s.flushStripes(z, out)
	}
	return nil
}

// OnSliceEnd flushes any groups still active (a no-op after the stripe
// flush on the slice's last row) and, in depth-merge mode, runs the
// slice's Z merge.
func (s *StreamRLEXY) OnSliceEnd(z int32, out *[]voxpack.Cuboid) {
	s.flushStripes(z, out)
	if s.zmerge {
		s.mergeDepth(z, out)
	}
}

// Finish closes all remaining state at end of stream.  z is the index of
// the slice being read when EOF arrived; a partially read slice flushes
// its groups there.
func (s *StreamRLEXY) Finish(z int32, out *[]voxpack.Cuboid) {
	s.flushStripes(z, out)
	if s.zmerge {
		s.mergeDepth(z, out)
		for nx := int32(0); nx < s.numNx; nx++ {
			for _, b := range s.zactive[nx] {
				*out = append(*out, b.cuboid())
			}
			s.zactive[nx] = s.zactive[nx][:0]
		}
	}
}

func (g streamGroup) cuboid(z int32) voxpack.Cuboid {
	return voxpack.Cuboid{
		X: g.x0, Y: g.y0, Z: z,
		DX: g.x1 - g.x0, DY: g.height, DZ: 1,
		Label: g.label,
	}
}

func (b sbox) cuboid() voxpack.Cuboid {
	return voxpack.Cuboid{
		X: b.x0, Y: b.y0, Z: b.z0,
		DX: b.dx, DY: b.dy, DZ: b.dz,
		Label: b.label,
	}
}

// close routes a finished vertical group either to the output (dz = 1) or
// to the slice's rectangle list for depth merging.
func (s *StreamRLEXY) close(nx, z int32, g streamGroup, out *[]voxpack.Cuboid) {
	if s.zmerge {
		s.rects[nx] = append(s.rects[nx], srect{
			x0: g.x0, y0: g.y0, dx: g.x1 - g.x0, dy: g.height, label: g.label,
		})
		return
	}
	*out = append(*out, g.cuboid(z))
}

// buildRuns extracts the row's maximal same-tag runs and slices them at
// parent-X boundaries into the per-stripe run lists.
func (s *StreamRLEXY) buildRuns(z, y int32, row []byte) error {
	for nx := int32(0); nx < s.numNx; nx++ {
		s.runs[nx] = s.runs[nx][:0]
	}
	X, PX := s.ext.X, s.ext.PX
	x := int32(0)
	for x < X {
		t := row[x]
		id, err := s.labels.ID(t)
		if err != nil {
			return fmt.Errorf("%w (x=%d, y=%d, z=%d)", err, x, y, z)
		}
		x0 := x
		x++
		for x < X && row[x] == t {
			x++
		}
		for seg := x0; seg < x; {
			nx := seg / PX
			boundary := (nx + 1) * PX
			end := x
			if boundary < end {
				end = boundary
			}
			s.runs[nx] = append(s.runs[nx], streamRun{seg, end, id})
			seg = end
		}
	}
	return nil
}

// mergeRow sweeps each stripe's active groups against its current runs.
// Both lists are sorted by x0 with non-overlapping intervals by
// construction.
func (s *StreamRLEXY) mergeRow(z, y int32, out *[]voxpack.Cuboid) {
	for nx := int32(0); nx < s.numNx; nx++ {
		prev := s.active[nx]
		cur := s.runs[nx]
		next := s.next[nx][:0]

		i, j := 0, 0
		for i < len(prev) && j < len(cur) {
			pg := prev[i]
			cr := cur[j]
			switch {
			case pg.x1 <= cr.x0:
				s.close(nx, z, pg, out)
				i++
			case cr.x1 <= pg.x0:
				next = append(next, streamGroup{cr.x0, cr.x1, y, 1, cr.label})
				j++
			case pg.label == cr.label && pg.x0 == cr.x0 && pg.x1 == cr.x1:
				pg.height++
				next = append(next, pg)
				i++
				j++
			default:
				s.close(nx, z, pg, out)
				i++
			}
		}
		for ; i < len(prev); i++ {
			s.close(nx, z, prev[i], out)
		}
		for ; j < len(cur); j++ {
			cr := cur[j]
			next = append(next, streamGroup{cr.x0, cr.x1, y, 1, cr.label})
		}

		s.active[nx], s.next[nx] = next, prev
	}
}

// flushStripes closes every active group in every stripe.
func (s *StreamRLEXY) flushStripes(z int32, out *[]voxpack.Cuboid) {
	for nx := int32(0); nx < s.numNx; nx++ {
		for _, pg := range s.active[nx] {
			s.close(nx, z, pg, out)
		}
		s.active[nx] = s.active[nx][:0]
	}
}

// cmpBoxRect orders an active box against a rectangle by the depth-merge
// key (y0, x0, dx, dy, label).
func cmpBoxRect(b sbox, r srect) int {
	switch {
	case b.y0 != r.y0:
		if b.y0 < r.y0 {
			return -1
		}
		return 1
	case b.x0 != r.x0:
		if b.x0 < r.x0 {
			return -1
		}
		return 1
	case b.dx != r.dx:
		if b.dx < r.dx {
			return -1
		}
		return 1
	case b.dy != r.dy:
		if b.dy < r.dy {
			return -1
		}
		return 1
	case b.label != r.label:
		if b.label < r.label {
			return -1
		}
		return 1
	}
	return 0
}

// mergeDepth stacks this slice's closed rectangles onto the active boxes
// of each stripe.  Boxes force-close at parent-Z boundaries so no block
// crosses one.
func (s *StreamRLEXY) mergeDepth(z int32, out *[]voxpack.Cuboid) {
	zStartsParent := z%s.ext.PZ == 0
	zEndsParent := (z+1)%s.ext.PZ == 0

	for nx := int32(0); nx < s.numNx; nx++ {
		rects := s.rects[nx]
		sort.Slice(rects, func(i, j int) bool {
			a, b := rects[i], rects[j]
			if a.y0 != b.y0 {
				return a.y0 < b.y0
			}
			if a.x0 != b.x0 {
				return a.x0 < b.x0
			}
			if a.dx != b.dx {
				return a.dx < b.dx
			}
			if a.dy != b.dy {
				return a.dy < b.dy
			}
			return a.label < b.label
		})

		prev := s.zactive[nx]
		if zStartsParent {
			for _, b := range prev {
				*out = append(*out, b.cuboid())
			}
			prev = prev[:0]
		}

		next := s.znext[nx][:0]
		i, j := 0, 0
		for i < len(prev) && j < len(rects) {
			b := prev[i]
			r := rects[j]
			switch cmpBoxRect(b, r) {
			case 0:
				b.dz++
				next = append(next, b)
				i++
				j++
			case -1:
				*out = append(*out, b.cuboid())
				i++
			default:
				next = append(next, sbox{r.x0, r.y0, z, r.dx, r.dy, 1, r.label})
				j++
			}
		}
		for ; i < len(prev); i++ {
			*out = append(*out, prev[i].cuboid())
		}
		for ; j < len(rects); j++ {
			r := rects[j]
			next = append(next, sbox{r.x0, r.y0, z, r.dx, r.dy, 1, r.label})
		}

		if zEndsParent {
			for _, b := range next {
				*out = append(*out, b.cuboid())
			}
			next = next[:0]
		}

		s.zactive[nx], s.znext[nx] = next, prev
		s.rects[nx] = rects[:0]
	}
}
