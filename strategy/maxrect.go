package strategy

import "github.com/janelia-flyem/voxpack/voxpack"

// MaxRectStrategy repeatedly extracts the maximum-area rectangle from each
// slice's label mask using the histogram-of-heights algorithm, then stacks
// identical rectangles across consecutive slices into 3d blocks.  Area
// ties break toward smaller y, then smaller x, then larger height.
type MaxRectStrategy struct{}

func (MaxRectStrategy) Name() string { return MaxRectName }

// rectKey identifies a rectangle within a slice.  Compared field-wise so
// large parent extents don't silently overflow a packed representation.
type rectKey struct {
	x, y, w, h int32
}

// zblock is an active 3d block being extended in depth.
type zblock struct {
	key rectKey
	z0  int32
	dz  int32
}

func (MaxRectStrategy) Cover(parent *voxpack.ParentBlock, label uint32) []voxpack.Cuboid {
	var out []voxpack.Cuboid
	W, H, D := parent.SizeX(), parent.SizeY(), parent.SizeZ()
	ox, oy, oz := parent.Origin()

	// Whole-parent uniformity gives a single maximal cuboid.
	if lbl, ok := parent.Uniform(); ok {
		if lbl == label {
			out = append(out, voxpack.Cuboid{
				X: ox, Y: oy, Z: oz, DX: W, DY: H, DZ: D, Label: label,
			})
		}
		return out
	}

	mask := make([]uint8, W*H)
	heights := make([]int32, W)

	var active []zblock
	activeIdx := make(map[rectKey]int)

	emit := func(b zblock) {
		out = append(out, voxpack.Cuboid{
			X: ox + b.key.x, Y: oy + b.key.y, Z: oz + b.z0,
			DX: b.key.w, DY: b.key.h, DZ: b.dz,
			Label: label,
		})
	}

	for z := int32(0); z < D; z++ {
		buildMaskSlice(parent, label, z, mask)
		rects := extractMaxRects(mask, heights, W, H)

		present := make(map[rectKey]bool, len(rects))
		for _, k := range rects {
			present[k] = true
		}

		// Close active blocks whose rectangle is absent from this slice;
		// extend the rest.  Order of the active list fixes emission order.
		kept := active[:0:0]
		keptIdx := make(map[rectKey]int, len(rects))
		for _, b := range active {
			if present[b.key] {
				b.dz++
				keptIdx[b.key] = len(kept)
				kept = append(kept, b)
			} else {
				emit(b)
			}
		}
		for _, k := range rects {
			if _, ok := activeIdx[k]; !ok {
				keptIdx[k] = len(kept)
				kept = append(kept, zblock{key: k, z0: z, dz: 1})
			}
		}
		active, activeIdx = kept, keptIdx
	}

	for _, b := range active {
		emit(b)
	}
	return out
}

// extractMaxRects tiles the mask with rectangles by repeatedly taking the
// maximum-area rectangle of 1s and zeroing it, until the mask is empty.
// Rectangles are returned in extraction order.
func extractMaxRects(mask []uint8, heights []int32, W, H int32) []rectKey {
	var remaining int64
	for _, v := range mask {
		if v == 1 {
			remaining++
		}
	}

	var rects []rectKey
	for remaining > 0 {
		best := findMaxRect(mask, heights, W, H)
		for y := best.y; y < best.y+best.h; y++ {
			row := mask[y*W : (y+1)*W]
			for x := best.x; x < best.x+best.w; x++ {
				row[x] = 0
			}
		}
		remaining -= int64(best.w) * int64(best.h)
		rects = append(rects, best)
	}
	return rects
}

// findMaxRect runs the largest-rectangle-under-a-histogram scan over every
// row of the mask and returns the best rectangle.  The mask must contain
// at least one 1.
func findMaxRect(mask []uint8, heights []int32, W, H int32) rectKey {
	for x := range heights {
		heights[x] = 0
	}

	var best rectKey
	var bestArea int64
	consider := func(x, y, w, h int32) {
		area := int64(w) * int64(h)
		switch {
		case area < bestArea:
			return
		case area > bestArea:
		case y > best.y:
			return
		case y < best.y:
		case x > best.x:
			return
		case x < best.x:
		case h <= best.h:
			return
		}
		best = rectKey{x, y, w, h}
		bestArea = area
	}

	stack := make([]int32, 0, W+1)
	for y := int32(0); y < H; y++ {
		row := mask[y*W : (y+1)*W]
		for x := int32(0); x < W; x++ {
			if row[x] == 1 {
				heights[x]++
			} else {
				heights[x] = 0
			}
		}

		stack = stack[:0]
		for x := int32(0); x <= W; x++ {
			var cur int32 = -1
			if x < W {
				cur = heights[x]
			}
			for len(stack) > 0 && heights[stack[len(stack)-1]] > cur {
				h := heights[stack[len(stack)-1]]
				stack = stack[:len(stack)-1]
				var left int32
				if len(stack) > 0 {
					left = stack[len(stack)-1] + 1
				}
				consider(left, y-h+1, x-left, h)
			}
			stack = append(stack, x)
		}
	}
	return best
}
