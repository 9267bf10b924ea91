package voxpack

// Grid is a dense 3d volume of label ids stored in x-fastest order.
type Grid struct {
	width, height, depth int32
	cells                []uint32
}

// NewGrid allocates a grid of the given extents.
func NewGrid(width, height, depth int32) *Grid {
	return &Grid{
		width:  width,
		height: height,
		depth:  depth,
		cells:  make([]uint32, int64(width)*int64(height)*int64(depth)),
	}
}

func (g *Grid) Width() int32  { return g.width }
func (g *Grid) Height() int32 { return g.height }
func (g *Grid) Depth() int32  { return g.depth }

func (g *Grid) index(x, y, z int32) int64 {
	return int64(x) + int64(g.width)*(int64(y)+int64(g.height)*int64(z))
}

// At returns the label id at local coordinate (x,y,z).
func (g *Grid) At(x, y, z int32) uint32 {
	return g.cells[g.index(x, y, z)]
}

// Set stores a label id at local coordinate (x,y,z).
func (g *Grid) Set(x, y, z int32, label uint32) {
	g.cells[g.index(x, y, z)] = label
}

// Row returns the contiguous cells of one (y,z) row.
func (g *Grid) Row(y, z int32) []uint32 {
	start := g.index(0, y, z)
	return g.cells[start : start+int64(g.width)]
}

// Data exposes the backing cell slice.
func (g *Grid) Data() []uint32 {
	return g.cells
}

// ParentBlock is a read-only view of one parent-aligned sub-grid.  The grid
// holds the parent's cells in local coordinates; Origin gives its global
// position.  Views are only valid until the tiler that produced them
// advances, since the backing buffer is reused.
type ParentBlock struct {
	ox, oy, oz int32
	grid       *Grid
}

// NewParentBlock wraps a local grid with its global origin.
func NewParentBlock(ox, oy, oz int32, grid *Grid) *ParentBlock {
	return &ParentBlock{ox, oy, oz, grid}
}

// Origin returns the global coordinate of the parent's first voxel.
func (pb *ParentBlock) Origin() (x, y, z int32) {
	return pb.ox, pb.oy, pb.oz
}

func (pb *ParentBlock) SizeX() int32 { return pb.grid.width }
func (pb *ParentBlock) SizeY() int32 { return pb.grid.height }
func (pb *ParentBlock) SizeZ() int32 { return pb.grid.depth }

// At returns the label id at parent-local coordinate (x,y,z).
func (pb *ParentBlock) At(x, y, z int32) uint32 {
	return pb.grid.At(x, y, z)
}

// Row returns the contiguous cells of one parent-local (y,z) row.
func (pb *ParentBlock) Row(y, z int32) []uint32 {
	return pb.grid.Row(y, z)
}

// CountLabel returns the number of voxels in the parent carrying the label.
func (pb *ParentBlock) CountLabel(label uint32) (n int64) {
	for _, v := range pb.grid.cells {
		if v == label {
			n++
		}
	}
	return
}

// Uniform reports whether every voxel in the parent carries the same label,
// returning that label when true.
func (pb *ParentBlock) Uniform() (uint32, bool) {
	first := pb.grid.cells[0]
	for _, v := range pb.grid.cells[1:] {
		if v != first {
			return 0, false
		}
	}
	return first, true
}
