/*
	This file supports serialization and compression of cuboid batches.
*/

package voxpack

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	lz4 "github.com/pierrec/lz4/v4"
)

// Compression is the format of compression for stored cuboid batches.
// NOTE: Should be no more than 8 (3 bits) of compression types.
type Compression uint8

const (
	Uncompressed Compression = 0
	Snappy       Compression = 1
	LZ4          Compression = 2
	Gzip         Compression = 3
)

func (compress Compression) String() string {
	switch compress {
	case Uncompressed:
		return "No compression"
	case Snappy:
		return "Go Snappy compression"
	case LZ4:
		return "LZ4 compression"
	case Gzip:
		return "Gzip compression"
	default:
		return "Unknown compression"
	}
}

// Checksum is the type of checksum employed for error checking stored data.
// NOTE: Should be no more than 4 (2 bits) of checksum types.
type Checksum uint8

const (
	NoChecksum Checksum = 0
	CRC32               = 1 << iota
)

func (checksum Checksum) String() string {
	switch checksum {
	case NoChecksum:
		return "No checksum"
	case CRC32:
		return "CRC32 checksum"
	default:
		return "Unknown checksum"
	}
}

// SerializationFormat is a single byte combining both compression and
// checksum methods.
type SerializationFormat uint8

func EncodeSerializationFormat(compress Compression, checksum Checksum) SerializationFormat {
	a := (uint8(compress) & 0x07) << 5
	b := (uint8(checksum) & 0x03) << 3
	return SerializationFormat(a | b)
}

func DecodeSerializationFormat(s SerializationFormat) (compress Compression, checksum Checksum) {
	compress = Compression(uint8(s) >> 5)
	checksum = Checksum((uint8(s) >> 3) & 0x03)
	return
}

// cuboidRecordSize is the wire size of one cuboid: six int32 components
// plus the uint32 label id.
const cuboidRecordSize = 28

func cuboidsToBytes(cuboids []Cuboid) []byte {
	data := make([]byte, len(cuboids)*cuboidRecordSize)
	off := 0
	for _, c := range cuboids {
		binary.LittleEndian.PutUint32(data[off:], uint32(c.X))
		binary.LittleEndian.PutUint32(data[off+4:], uint32(c.Y))
		binary.LittleEndian.PutUint32(data[off+8:], uint32(c.Z))
		binary.LittleEndian.PutUint32(data[off+12:], uint32(c.DX))
		binary.LittleEndian.PutUint32(data[off+16:], uint32(c.DY))
		binary.LittleEndian.PutUint32(data[off+20:], uint32(c.DZ))
		binary.LittleEndian.PutUint32(data[off+24:], c.Label)
		off += cuboidRecordSize
	}
	return data
}

func cuboidsFromBytes(data []byte) ([]Cuboid, error) {
	if len(data)%cuboidRecordSize != 0 {
		return nil, fmt.Errorf("cuboid encoding is %d bytes, not divisible by %d", len(data), cuboidRecordSize)
	}
	cuboids := make([]Cuboid, len(data)/cuboidRecordSize)
	off := 0
	for i := range cuboids {
		cuboids[i] = Cuboid{
			X:     int32(binary.LittleEndian.Uint32(data[off:])),
			Y:     int32(binary.LittleEndian.Uint32(data[off+4:])),
			Z:     int32(binary.LittleEndian.Uint32(data[off+8:])),
			DX:    int32(binary.LittleEndian.Uint32(data[off+12:])),
			DY:    int32(binary.LittleEndian.Uint32(data[off+16:])),
			DZ:    int32(binary.LittleEndian.Uint32(data[off+20:])),
			Label: binary.LittleEndian.Uint32(data[off+24:]),
		}
		off += cuboidRecordSize
	}
	return cuboids, nil
}

// SerializeCuboids encodes a cuboid batch using optional compression and
// checksum.  The result starts with a format byte, followed by the CRC32 of
// the (possibly compressed) payload if requested, then the payload itself.
func SerializeCuboids(cuboids []Cuboid, compress Compression, checksum Checksum) ([]byte, error) {
	var buffer bytes.Buffer

	format := EncodeSerializationFormat(compress, checksum)
	if err := binary.Write(&buffer, binary.LittleEndian, format); err != nil {
		return nil, err
	}

	data := cuboidsToBytes(cuboids)

	var byteData []byte
	switch compress {
	case Uncompressed:
		byteData = data
	case Snappy:
		byteData = snappy.Encode(nil, data)
	case LZ4:
		var b bytes.Buffer
		zw := lz4.NewWriter(&b)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		byteData = b.Bytes()
	case Gzip:
		var b bytes.Buffer
		zw := gzip.NewWriter(&b)
		if _, err := zw.Write(data); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		byteData = b.Bytes()
	default:
		return nil, fmt.Errorf("illegal compression (%s) during serialization", compress)
	}

	switch checksum {
	case NoChecksum:
	case CRC32:
		crcChecksum := crc32.ChecksumIEEE(byteData)
		if err := binary.Write(&buffer, binary.LittleEndian, crcChecksum); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("illegal checksum (%s) in SerializeCuboids()", checksum)
	}

	// Note the actual data is written last, after any checksum, so we don't
	// have to worry about length when deserializing.
	if _, err := buffer.Write(byteData); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// DeserializeCuboids decodes a batch serialized by SerializeCuboids,
// verifying the checksum if one is present.
func DeserializeCuboids(s []byte) ([]Cuboid, error) {
	if len(s) == 0 {
		return nil, fmt.Errorf("cannot deserialize empty cuboid batch")
	}
	compress, checksum := DecodeSerializationFormat(SerializationFormat(s[0]))
	payload := s[1:]

	switch checksum {
	case NoChecksum:
	case CRC32:
		if len(payload) < 4 {
			return nil, fmt.Errorf("cuboid batch too short for CRC32 checksum")
		}
		stored := binary.LittleEndian.Uint32(payload[:4])
		payload = payload[4:]
		if crc32.ChecksumIEEE(payload) != stored {
			return nil, fmt.Errorf("bad checksum on deserializing %d bytes of cuboids", len(payload))
		}
	default:
		return nil, fmt.Errorf("illegal checksum in serialized cuboid batch")
	}

	var data []byte
	var err error
	switch compress {
	case Uncompressed:
		data = payload
	case Snappy:
		if data, err = snappy.Decode(nil, payload); err != nil {
			return nil, err
		}
	case LZ4:
		zr := lz4.NewReader(bytes.NewReader(payload))
		if data, err = io.ReadAll(zr); err != nil {
			return nil, err
		}
	case Gzip:
		zr, err := gzip.NewReader(bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		if data, err = io.ReadAll(zr); err != nil {
			return nil, err
		}
		if err := zr.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("illegal compression (%s) in serialized cuboid batch", compress)
	}

	return cuboidsFromBytes(data)
}
