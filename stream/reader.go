/*
	Package stream translates the byte-oriented input contract into header
	extents, a label table, and a lazy sequence of rows, and formats the
	outgoing cuboid records.  It owns all reusable buffers; callers must not
	retain references handed out across calls.
*/
package stream

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/janelia-flyem/voxpack/voxpack"
)

const inputBufferSize = 256 * voxpack.Kilo

// FrameReader parses the input preamble and streams rows.  A single row
// buffer is reused across calls; the slice returned by ReadRow is only
// valid until the next call.
type FrameReader struct {
	r      *bufio.Reader
	ext    voxpack.Extents
	labels *voxpack.LabelTable

	row      []byte
	slice    int32 // z index of the slice being read
	sliceRow int32 // y index within the current slice
	rowsRead int64

	initialized bool
}

// NewFrameReader wraps an input stream.  Gzip-compressed input is detected
// by its magic bytes and decompressed transparently.
func NewFrameReader(in io.Reader) (*FrameReader, error) {
	br := bufio.NewReaderSize(in, inputBufferSize)
	if magic, err := br.Peek(2); err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("bad gzip input: %v", err)
		}
		br = bufio.NewReaderSize(zr, inputBufferSize)
	}
	return &FrameReader{r: br}, nil
}

// Init parses the header line and the label table, leaving the reader
// positioned at the first row.
func (fr *FrameReader) Init() error {
	if fr.initialized {
		return nil
	}
	if err := fr.readHeader(); err != nil {
		return err
	}
	if err := fr.readLabelTable(); err != nil {
		return err
	}
	fr.initialized = true
	return nil
}

// Extents returns the grid and parent dimensions parsed from the header.
func (fr *FrameReader) Extents() voxpack.Extents {
	return fr.ext
}

// Labels returns the populated label table.
func (fr *FrameReader) Labels() *voxpack.LabelTable {
	return fr.labels
}

// RowsRead returns the number of rows delivered so far.
func (fr *FrameReader) RowsRead() int64 {
	return fr.rowsRead
}

// Slice returns the z index of the slice currently being read.
func (fr *FrameReader) Slice() int32 {
	return fr.slice
}

// readLine reads up to the next LF into the reused row buffer, stripping
// the LF and any preceding CR.  Returns io.EOF only when no bytes remain.
func (fr *FrameReader) readLine() ([]byte, error) {
	fr.row = fr.row[:0]
	for {
		chunk, err := fr.r.ReadSlice('\n')
		fr.row = append(fr.row, chunk...)
		if err == bufio.ErrBufferFull {
			continue
		}
		if err == io.EOF {
			if len(fr.row) == 0 {
				return nil, io.EOF
			}
			break
		}
		if err != nil {
			return nil, err
		}
		break
	}
	line := fr.row
	if n := len(line); n > 0 && line[n-1] == '\n' {
		line = line[:n-1]
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}

func (fr *FrameReader) readHeader() error {
	line, err := fr.readLine()
	if err != nil {
		return fmt.Errorf("%w: no header line", voxpack.ErrHeaderFormat)
	}
	fields := strings.Split(string(line), ",")
	if len(fields) != 6 {
		return fmt.Errorf("%w: expected 6 comma-separated integers, got %d fields",
			voxpack.ErrHeaderFormat, len(fields))
	}
	var vals [6]int32
	for i, f := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(f), 10, 32)
		if err != nil {
			return fmt.Errorf("%w: field %d (%q) is not an integer", voxpack.ErrHeaderFormat, i, f)
		}
		vals[i] = int32(n)
	}
	fr.ext = voxpack.Extents{
		X: vals[0], Y: vals[1], Z: vals[2],
		PX: vals[3], PY: vals[4], PZ: vals[5],
	}
	// A zero or absurdly large depth marks an unbounded slice stream.
	if fr.ext.Z == 0 || fr.ext.Z > voxpack.MaxFiniteDepth {
		fr.ext.Z = 0
		fr.ext.ZUnbounded = true
	}
	if err := fr.ext.Validate(); err != nil {
		return fmt.Errorf("%w: %d,%d,%d with parent %d,%d,%d", err,
			vals[0], vals[1], vals[2], vals[3], vals[4], vals[5])
	}
	return nil
}

func (fr *FrameReader) readLabelTable() error {
	fr.labels = voxpack.NewLabelTable()
	for {
		line, err := fr.readLine()
		if err != nil {
			break // EOF terminates the table like a blank line would
		}
		if len(strings.TrimSpace(string(line))) == 0 {
			break
		}
		comma := -1
		for i, b := range line {
			if b == ',' {
				comma = i
				break
			}
		}
		if comma != 1 {
			return fmt.Errorf("%w: %q", voxpack.ErrLabelFormat, line)
		}
		tag := line[0]
		name := string(line[comma+1:])
		name = strings.TrimPrefix(name, " ")
		fr.labels.Add(tag, name)
	}
	if fr.labels.Size() == 0 {
		return voxpack.ErrNoLabels
	}
	return nil
}

// ReadRow returns the next row of exactly X tag bytes.  An optional blank
// line after each complete slice is consumed silently.  Returns io.EOF at
// a clean end of stream; the returned slice is invalidated by the next
// call.
func (fr *FrameReader) ReadRow() ([]byte, error) {
	if !fr.initialized {
		return nil, fmt.Errorf("frame reader used before Init")
	}
	if fr.sliceRow == fr.ext.Y {
		fr.sliceRow = 0
		fr.slice++
	}
	line, err := fr.readLine()
	if err != nil {
		return nil, err
	}
	// An inter-slice blank is only tolerated at the start of a slice.
	if len(line) == 0 && fr.sliceRow == 0 {
		line, err = fr.readLine()
		if err != nil {
			return nil, err
		}
	}
	if int32(len(line)) < fr.ext.X {
		return nil, fmt.Errorf("%w: got %d bytes, expected %d (z=%d, y=%d)",
			voxpack.ErrRowLength, len(line), fr.ext.X, fr.slice, fr.sliceRow)
	}
	fr.sliceRow++
	fr.rowsRead++
	return line[:fr.ext.X], nil
}
