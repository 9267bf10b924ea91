package strategy

import "github.com/janelia-flyem/voxpack/voxpack"

// RLEXYStrategy has the same semantics as Greedy but walks cells directly
// (no mask allocation) and merges each row against the previous row's
// active groups with a two-pointer sweep over the two sorted-by-x0 lists.
// Both lists hold non-overlapping intervals in scan order, which the sweep
// relies on.
type RLEXYStrategy struct{}

func (RLEXYStrategy) Name() string { return RLEXYName }

func (RLEXYStrategy) Cover(parent *voxpack.ParentBlock, label uint32) []voxpack.Cuboid {
	var out []voxpack.Cuboid
	W, H, D := parent.SizeX(), parent.SizeY(), parent.SizeZ()
	ox, oy, oz := parent.Origin()

	var prev, next []group
	var runs []run

	for z := int32(0); z < D; z++ {
		prev = prev[:0]
		for y := int32(0); y < H; y++ {
			row := parent.Row(y, z)
			runs = runs[:0]
			x := int32(0)
			for x < W {
				for x < W && row[x] != label {
					x++
				}
				if x >= W {
					break
				}
				x0 := x
				for x < W && row[x] == label {
					x++
				}
				runs = append(runs, run{x0, x})
			}

			next = next[:0]
			i, j := 0, 0
			for i < len(prev) && j < len(runs) {
				pg := prev[i]
				cr := runs[j]
				switch {
				case pg.x1 <= cr.x0:
					out = append(out, pg.cuboid(ox, oy, oz, z, label))
					i++
				case cr.x1 <= pg.x0:
					next = append(next, group{cr.x0, cr.x1, y, 1})
					j++
				case pg.x0 == cr.x0 && pg.x1 == cr.x1:
					pg.height++
					next = append(next, pg)
					i++
					j++
				default:
					// Overlapping but not identical: close the group; the
					// run opens fresh on a later iteration or in the tail.
					out = append(out, pg.cuboid(ox, oy, oz, z, label))
					i++
				}
			}
			for ; i < len(prev); i++ {
				out = append(out, prev[i].cuboid(ox, oy, oz, z, label))
			}
			for ; j < len(runs); j++ {
				next = append(next, group{runs[j].x0, runs[j].x1, y, 1})
			}
			prev, next = next, prev
		}
		for _, g := range prev {
			out = append(out, g.cuboid(ox, oy, oz, z, label))
		}
	}
	return out
}
