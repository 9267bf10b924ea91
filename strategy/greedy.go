package strategy

import "github.com/janelia-flyem/voxpack/voxpack"

// GreedyStrategy merges row runs vertically within each slice.  For every
// slice it builds a binary mask of the target label, finds maximal
// horizontal runs per row, and extends an active group downward whenever
// the next row carries a run with an identical [x0, x1) interval.  A run
// matching several candidates picks the first (lowest x0).  Output
// cuboids have dz = 1.
type GreedyStrategy struct{}

func (GreedyStrategy) Name() string { return GreedyName }

func (GreedyStrategy) Cover(parent *voxpack.ParentBlock, label uint32) []voxpack.Cuboid {
	var out []voxpack.Cuboid
	W, H, D := parent.SizeX(), parent.SizeY(), parent.SizeZ()
	ox, oy, oz := parent.Origin()

	mask := make([]uint8, W*H)
	var active, next []group
	var runs []run

	for z := int32(0); z < D; z++ {
		buildMaskSlice(parent, label, z, mask)
		active = active[:0]

		for y := int32(0); y < H; y++ {
			runs = maskRowRuns(mask[y*W:(y+1)*W], runs[:0])

			next = next[:0]
			claimed := make([]bool, len(active))
			for _, r := range runs {
				extended := false
				for i, g := range active {
					if !claimed[i] && g.x0 == r.x0 && g.x1 == r.x1 {
						claimed[i] = true
						g.height++
						next = append(next, g)
						extended = true
						break
					}
				}
				if !extended {
					next = append(next, group{r.x0, r.x1, y, 1})
				}
			}
			// Any group not continued is closed here.
			for i, g := range active {
				if !claimed[i] {
					out = append(out, g.cuboid(ox, oy, oz, z, label))
				}
			}
			active, next = next, active
		}

		// Close groups still active at end of slice.
		for _, g := range active {
			out = append(out, g.cuboid(ox, oy, oz, z, label))
		}
	}
	return out
}

// buildMaskSlice fills mask with 1 where the parent's slice z carries the
// label.
func buildMaskSlice(parent *voxpack.ParentBlock, label uint32, z int32, mask []uint8) {
	W := parent.SizeX()
	for y := int32(0); y < parent.SizeY(); y++ {
		row := parent.Row(y, z)
		maskRow := mask[y*W : (y+1)*W]
		for x, v := range row {
			if v == label {
				maskRow[x] = 1
			} else {
				maskRow[x] = 0
			}
		}
	}
}

// maskRowRuns appends the maximal [x0, x1) intervals where maskRow is 1.
func maskRowRuns(maskRow []uint8, runs []run) []run {
	W := int32(len(maskRow))
	x := int32(0)
	for x < W {
		for x < W && maskRow[x] == 0 {
			x++
		}
		if x >= W {
			break
		}
		start := x
		for x < W && maskRow[x] == 1 {
			x++
		}
		runs = append(runs, run{start, x})
	}
	return runs
}
