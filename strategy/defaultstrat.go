package strategy

import "github.com/janelia-flyem/voxpack/voxpack"

// DefaultStrategy emits one 1x1x1 cuboid per matching cell, scanning z,
// then y, then x.  It is the reference oracle for the other strategies.
type DefaultStrategy struct{}

func (DefaultStrategy) Name() string { return DefaultName }

func (DefaultStrategy) Cover(parent *voxpack.ParentBlock, label uint32) []voxpack.Cuboid {
	var out []voxpack.Cuboid
	ox, oy, oz := parent.Origin()
	for z := int32(0); z < parent.SizeZ(); z++ {
		for y := int32(0); y < parent.SizeY(); y++ {
			row := parent.Row(y, z)
			for x := int32(0); x < parent.SizeX(); x++ {
				if row[x] == label {
					out = append(out, voxpack.Cuboid{
						X: ox + x, Y: oy + y, Z: oz + z,
						DX: 1, DY: 1, DZ: 1,
						Label: label,
					})
				}
			}
		}
	}
	return out
}
