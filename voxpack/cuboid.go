package voxpack

import "fmt"

// Cuboid is one emitted record: an axis-aligned box of uniform label.
// Coordinates are global voxel coordinates; extents are at least 1.
type Cuboid struct {
	X, Y, Z    int32
	DX, DY, DZ int32
	Label      uint32
}

// Volume is the number of voxels covered by the cuboid.
func (c Cuboid) Volume() int64 {
	return int64(c.DX) * int64(c.DY) * int64(c.DZ)
}

// Contains returns true if the voxel (x,y,z) lies inside the cuboid.
func (c Cuboid) Contains(x, y, z int32) bool {
	return x >= c.X && x < c.X+c.DX &&
		y >= c.Y && y < c.Y+c.DY &&
		z >= c.Z && z < c.Z+c.DZ
}

// WithinParent returns true if the cuboid does not cross a parent boundary
// on any axis.
func (c Cuboid) WithinParent(px, py, pz int32) bool {
	if c.DX < 1 || c.DY < 1 || c.DZ < 1 {
		return false
	}
	return c.X/px == (c.X+c.DX-1)/px &&
		c.Y/py == (c.Y+c.DY-1)/py &&
		c.Z/pz == (c.Z+c.DZ-1)/pz
}

func (c Cuboid) String() string {
	return fmt.Sprintf("(%d,%d,%d)+(%d,%d,%d) label %d",
		c.X, c.Y, c.Z, c.DX, c.DY, c.DZ, c.Label)
}

// CheckCovering validates a batch of cuboids produced for one parent block
// against the core invariants: every cuboid within the parent, interiors
// uniform in the parent's grid, and total volume matching the label count.
// Used for debug verification of strategy output.
func CheckCovering(parent *ParentBlock, label uint32, cuboids []Cuboid) error {
	var covered int64
	for _, c := range cuboids {
		if c.Label != label {
			return fmt.Errorf("%w: cuboid %s in batch for label %d", ErrInternalInvariant, c, label)
		}
		if c.DX < 1 || c.DY < 1 || c.DZ < 1 {
			return fmt.Errorf("%w: degenerate cuboid %s", ErrInternalInvariant, c)
		}
		ox, oy, oz := parent.Origin()
		if c.X < ox || c.X+c.DX > ox+parent.SizeX() ||
			c.Y < oy || c.Y+c.DY > oy+parent.SizeY() ||
			c.Z < oz || c.Z+c.DZ > oz+parent.SizeZ() {
			return fmt.Errorf("%w: cuboid %s outside parent at (%d,%d,%d)", ErrInternalInvariant, c, ox, oy, oz)
		}
		for z := c.Z; z < c.Z+c.DZ; z++ {
			for y := c.Y; y < c.Y+c.DY; y++ {
				for x := c.X; x < c.X+c.DX; x++ {
					if parent.At(x-ox, y-oy, z-oz) != label {
						return fmt.Errorf("%w: cuboid %s covers non-%d voxel at (%d,%d,%d)",
							ErrInternalInvariant, c, label, x, y, z)
					}
				}
			}
		}
		covered += c.Volume()
	}
	if want := parent.CountLabel(label); covered != want {
		return fmt.Errorf("%w: label %d covers %d voxels but %d emitted", ErrInternalInvariant, label, want, covered)
	}
	return nil
}
