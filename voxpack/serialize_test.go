package voxpack

import (
	"reflect"
	"testing"
)

func testBatch() []Cuboid {
	return []Cuboid{
		{X: 0, Y: 0, Z: 0, DX: 2, DY: 3, DZ: 1, Label: 0},
		{X: 2, Y: 0, Z: 0, DX: 2, DY: 3, DZ: 1, Label: 1},
		{X: 0, Y: 3, Z: 4, DX: 16, DY: 16, DZ: 16, Label: 7},
	}
}

func TestSerializeCuboids(t *testing.T) {
	batch := testBatch()
	for _, compression := range []Compression{Uncompressed, Snappy, LZ4, Gzip} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeCuboids(batch, compression, checksum)
			if err != nil {
				t.Fatalf("%s/%s: serialize failed: %v", compression, checksum, err)
			}
			if len(s) == 0 {
				t.Fatalf("%s/%s: empty serialization", compression, checksum)
			}

			got, err := DeserializeCuboids(s)
			if err != nil {
				t.Fatalf("%s/%s: deserialize failed: %v", compression, checksum, err)
			}
			if !reflect.DeepEqual(got, batch) {
				t.Errorf("%s/%s: round trip mismatch: got %v", compression, checksum, got)
			}

			if checksum == CRC32 {
				// Flip a bit in the payload; the checksum must catch it.
				corrupt := make([]byte, len(s))
				copy(corrupt, s)
				corrupt[len(corrupt)-1] ^= 0x04
				if _, err := DeserializeCuboids(corrupt); err == nil {
					t.Errorf("%s: corruption not detected", compression)
				}
			}
		}
	}
}

func TestSerializeEmptyBatch(t *testing.T) {
	s, err := SerializeCuboids(nil, Snappy, CRC32)
	if err != nil {
		t.Fatalf("serialize of empty batch failed: %v", err)
	}
	got, err := DeserializeCuboids(s)
	if err != nil {
		t.Fatalf("deserialize of empty batch failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty batch, got %d cuboids", len(got))
	}
}

func TestSerializationFormat(t *testing.T) {
	for _, compression := range []Compression{Uncompressed, Snappy, LZ4, Gzip} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			format := EncodeSerializationFormat(compression, checksum)
			c2, s2 := DecodeSerializationFormat(format)
			if c2 != compression || s2 != checksum {
				t.Errorf("format byte round trip: got %s/%s, want %s/%s", c2, s2, compression, checksum)
			}
		}
	}
}
