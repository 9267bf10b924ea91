package strategy

import (
	"golang.org/x/sync/errgroup"

	"github.com/janelia-flyem/voxpack/voxpack"
)

// coverConcurrently fans one (parent, label) pair out to several
// strategies and collects their outputs in strategy order.  Each strategy
// receives the same read-only parent view; the caller must not advance
// the tiler until this returns, since the parent buffer is reused.
func coverConcurrently(strategies []Strategy, parent *voxpack.ParentBlock, label uint32, poolSize int) [][]voxpack.Cuboid {
	results := make([][]voxpack.Cuboid, len(strategies))
	var g errgroup.Group
	if poolSize > 0 {
		g.SetLimit(poolSize)
	}
	for i, s := range strategies {
		i, s := i, s
		g.Go(func() error {
			results[i] = s.Cover(parent, label)
			return nil
		})
	}
	// Strategies don't fail; Wait only joins the pool.
	_ = g.Wait()
	return results
}
