/*
	Package strategy hosts the family of grouping algorithms that turn a
	label mask into a covering set of cuboids.  All strategies share one
	contract: given a read-only parent block view and a label id, produce
	cuboids that are uniform in content, bounded by the parent, and
	collectively cover every voxel of that label exactly once.  Output is
	deterministic for identical input.

	The row-streaming RLE-XY consumer lives here too but does not satisfy
	Strategy; it is fed rows directly and never materializes a parent.
*/
package strategy

import (
	"fmt"

	"github.com/janelia-flyem/voxpack/voxpack"
)

// Strategy produces a covering set of cuboids for one label within a
// parent block.  Implementations are pure functions of (parent, label)
// and hold no mutable state across calls, so one instance may be used
// concurrently on different parents.
type Strategy interface {
	Name() string
	Cover(parent *voxpack.ParentBlock, label uint32) []voxpack.Cuboid
}

// Strategy names accepted by New and the configuration layer.
const (
	DefaultName = "default"
	GreedyName  = "greedy"
	MaxRectName = "maxrect"
	RLEXYName   = "rlexy"
	SmartName   = "smart"
	StreamName  = "stream-rlexy"
)

// New returns the named parent-block strategy.  The streaming strategy is
// not constructed here since it consumes rows, not parents; use
// NewStreamRLEXY for it.
func New(name string, poolSize int) (Strategy, error) {
	switch name {
	case DefaultName:
		return DefaultStrategy{}, nil
	case GreedyName:
		return GreedyStrategy{}, nil
	case MaxRectName:
		return MaxRectStrategy{}, nil
	case RLEXYName:
		return RLEXYStrategy{}, nil
	case SmartName:
		return SmartMergeStrategy{PoolSize: poolSize}, nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}

// IsStreaming reports whether the named strategy consumes rows directly
// instead of materialized parent blocks.
func IsStreaming(name string) bool {
	return name == StreamName
}

// run is a maximal horizontal interval [x0, x1) of target-label cells
// within one row.
type run struct {
	x0, x1 int32
}

// group is an in-progress 2d rectangle being extended vertically.
type group struct {
	x0, x1 int32
	y0     int32
	height int32
}

func (g group) cuboid(ox, oy, oz, z int32, label uint32) voxpack.Cuboid {
	return voxpack.Cuboid{
		X: ox + g.x0, Y: oy + g.y0, Z: oz + z,
		DX: g.x1 - g.x0, DY: g.height, DZ: 1,
		Label: label,
	}
}
