package stream

import (
	"fmt"
	"io"

	"github.com/janelia-flyem/voxpack/voxpack"
)

// Tiler enumerates parent blocks in (nz, ny, nx) nesting, slowest to
// fastest varying.  It owns a chunk buffer of PZ decoded slices and a
// parent-view buffer; both are reused, so a ParentBlock returned by Next
// is invalidated when the tiler advances.
type Tiler struct {
	fr     *FrameReader
	ext    voxpack.Extents
	labels *voxpack.LabelTable

	chunk  *voxpack.Grid // X x Y x PZ decoded label ids
	parent *voxpack.Grid // PX x PY x PZ window copy

	nx, ny, nz int32
	maxNx      int32
	maxNy      int32
	maxNz      int32 // 0 while unknown for unbounded streams

	chunkNz int32 // nz of the loaded chunk, -1 before first load
	done    bool

	runLog *voxpack.RunLog
}

// NewTiler builds a tiler over an initialized frame reader.  Chunk-load
// progress is reported through runLog, which may be nil.
func NewTiler(fr *FrameReader, runLog *voxpack.RunLog) *Tiler {
	ext := fr.Extents()
	nx, ny, nz := ext.NumParents()
	return &Tiler{
		fr:      fr,
		ext:     ext,
		labels:  fr.Labels(),
		chunk:   voxpack.NewGrid(ext.X, ext.Y, ext.PZ),
		parent:  voxpack.NewGrid(ext.PX, ext.PY, ext.PZ),
		maxNx:   nx,
		maxNy:   ny,
		maxNz:   nz,
		chunkNz: -1,
		runLog:  runLog,
	}
}

// loadChunk reads PZ slices into the chunk buffer, decoding tag bytes to
// label ids.  Returns io.EOF if an unbounded stream ends before the first
// row of the chunk, ErrTruncatedStream for any other end of stream.
func (t *Tiler) loadChunk(nz int32) error {
	for dz := int32(0); dz < t.ext.PZ; dz++ {
		for y := int32(0); y < t.ext.Y; y++ {
			row, err := t.fr.ReadRow()
			if err == io.EOF {
				if dz == 0 && y == 0 && t.ext.ZUnbounded {
					return io.EOF
				}
				return fmt.Errorf("%w: EOF at z=%d, y=%d", voxpack.ErrTruncatedStream,
					nz*t.ext.PZ+dz, y)
			}
			if err != nil {
				return err
			}
			cells := t.chunk.Row(y, dz)
			for x := int32(0); x < t.ext.X; x++ {
				id, err := t.labels.ID(row[x])
				if err != nil {
					return fmt.Errorf("%w at x=%d, y=%d, z=%d", err, x, y, nz*t.ext.PZ+dz)
				}
				cells[x] = id
			}
		}
	}
	t.chunkNz = nz
	t.runLog.ChunkLoaded(nz, int64(t.ext.PZ)*int64(t.ext.Y))
	return nil
}

// HasNext reports whether another parent block is available, loading the
// next chunk if needed.  After an error is returned the tiler is
// exhausted: later calls report false with a nil error.
func (t *Tiler) HasNext() (bool, error) {
	if t.done {
		return false, nil
	}
	if !t.ext.ZUnbounded && t.nz >= t.maxNz {
		t.done = true
		return false, nil
	}
	if t.chunkNz != t.nz {
		if err := t.loadChunk(t.nz); err != nil {
			t.done = true
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
	}
	return true, nil
}

// Next returns the next parent block view.  It is only valid until the
// following call to Next or HasNext.
func (t *Tiler) Next() (*voxpack.ParentBlock, error) {
	ok, err := t.HasNext()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, io.EOF
	}

	ox := t.nx * t.ext.PX
	oy := t.ny * t.ext.PY
	oz := t.nz * t.ext.PZ

	for dz := int32(0); dz < t.ext.PZ; dz++ {
		for dy := int32(0); dy < t.ext.PY; dy++ {
			src := t.chunk.Row(oy+dy, dz)[ox : ox+t.ext.PX]
			copy(t.parent.Row(dy, dz), src)
		}
	}

	// Advance parent cursor: x, then y, then z.
	if t.nx++; t.nx >= t.maxNx {
		t.nx = 0
		if t.ny++; t.ny >= t.maxNy {
			t.ny = 0
			t.nz++
		}
	}

	return voxpack.NewParentBlock(ox, oy, oz, t.parent), nil
}
