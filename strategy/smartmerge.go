package strategy

import (
	"sort"

	"github.com/janelia-flyem/voxpack/voxpack"
)

// SmartMergeStrategy runs MaxRect, Greedy, and RLE-XY over the same parent
// and keeps the output with the fewest cuboids, breaking ties in that
// order.  A post-pass then merges face-adjacent cuboids with identical
// label and cross-section.  Unless PoolSize is negative the constituent
// strategies run concurrently; they only read the parent view, so no
// synchronization beyond the join is needed.
type SmartMergeStrategy struct {
	// PoolSize bounds concurrent constituent strategies.  Zero runs one
	// goroutine per strategy; negative runs them sequentially.
	PoolSize int
}

func (SmartMergeStrategy) Name() string { return SmartName }

func (s SmartMergeStrategy) Cover(parent *voxpack.ParentBlock, label uint32) []voxpack.Cuboid {
	candidates := []Strategy{MaxRectStrategy{}, GreedyStrategy{}, RLEXYStrategy{}}

	var results [][]voxpack.Cuboid
	if s.PoolSize < 0 {
		results = make([][]voxpack.Cuboid, len(candidates))
		for i, c := range candidates {
			results[i] = c.Cover(parent, label)
		}
	} else {
		results = coverConcurrently(candidates, parent, label, s.PoolSize)
	}

	best := results[0]
	for _, r := range results[1:] {
		if len(r) < len(best) {
			best = r
		}
	}
	return mergeAdjacent(best)
}

// mergeAdjacent greedily combines cuboids that share a face and have
// identical label and cross-section.  Consumed entries are tracked with a
// flag rather than zeroed dimensions.  All inputs lie within one parent
// block, so merging cannot cross a parent boundary.
func mergeAdjacent(cuboids []voxpack.Cuboid) []voxpack.Cuboid {
	if len(cuboids) < 2 {
		return cuboids
	}
	sorted := make([]voxpack.Cuboid, len(cuboids))
	copy(sorted, cuboids)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	consumed := make([]bool, len(sorted))
	for i := range sorted {
		if consumed[i] {
			continue
		}
		// Keep scanning forward; each merge grows sorted[i] and may enable
		// another.
		for j := i + 1; j < len(sorted); j++ {
			if consumed[j] {
				continue
			}
			a, b := &sorted[i], sorted[j]
			if a.Label != b.Label {
				continue
			}
			switch {
			case a.Y == b.Y && a.Z == b.Z && a.DY == b.DY && a.DZ == b.DZ && a.X+a.DX == b.X:
				a.DX += b.DX
				consumed[j] = true
			case a.X == b.X && a.Z == b.Z && a.DX == b.DX && a.DZ == b.DZ && a.Y+a.DY == b.Y:
				a.DY += b.DY
				consumed[j] = true
			case a.X == b.X && a.Y == b.Y && a.DX == b.DX && a.DY == b.DY && a.Z+a.DZ == b.Z:
				a.DZ += b.DZ
				consumed[j] = true
			}
		}
	}

	out := sorted[:0]
	for i, c := range sorted {
		if !consumed[i] {
			out = append(out, c)
		}
	}
	return out
}
