package voxpack

import (
	"errors"
	"testing"
)

func TestLabelTable(t *testing.T) {
	lt := NewLabelTable()
	if lt.Size() != 0 {
		t.Errorf("expected empty table, got size %d", lt.Size())
	}

	rock := lt.Add('a', "rock")
	ore := lt.Add('b', "ore")
	if rock != 0 || ore != 1 {
		t.Errorf("expected ids 0 and 1, got %d and %d", rock, ore)
	}

	// Redefining an existing tag is a no-op on ids.
	again := lt.Add('a', "granite")
	if again != rock {
		t.Errorf("redefined tag got id %d, want %d", again, rock)
	}
	if name, _ := lt.Name(rock); name != "rock" {
		t.Errorf("redefinition changed name to %q", name)
	}
	if lt.Size() != 2 {
		t.Errorf("expected 2 labels after redefinition, got %d", lt.Size())
	}

	id, err := lt.ID('b')
	if err != nil || id != ore {
		t.Errorf("ID('b') = %d, %v; want %d, nil", id, err, ore)
	}
	if _, err := lt.ID('z'); !errors.Is(err, ErrUnknownTag) {
		t.Errorf("expected ErrUnknownTag for 'z', got %v", err)
	}
	if _, err := lt.Name(99); err == nil {
		t.Errorf("expected error for out-of-range id")
	}
	if tag, err := lt.Tag(ore); err != nil || tag != 'b' {
		t.Errorf("Tag(%d) = %q, %v; want 'b', nil", ore, tag, err)
	}
}

func TestLabelTableAllTags(t *testing.T) {
	lt := NewLabelTable()
	for i := 0; i < MaxLabels; i++ {
		lt.Add(byte(i), "label")
	}
	if lt.Size() != MaxLabels {
		t.Errorf("expected %d labels, got %d", MaxLabels, lt.Size())
	}
	for i := 0; i < MaxLabels; i++ {
		id, err := lt.ID(byte(i))
		if err != nil || id != uint32(i) {
			t.Fatalf("tag %d mapped to id %d, %v", i, id, err)
		}
	}
}

func TestExtentsValidate(t *testing.T) {
	good := Extents{X: 4, Y: 4, Z: 2, PX: 2, PY: 2, PZ: 2}
	if err := good.Validate(); err != nil {
		t.Errorf("valid extents rejected: %v", err)
	}

	bad := []Extents{
		{X: 0, Y: 4, Z: 2, PX: 2, PY: 2, PZ: 2},
		{X: 4, Y: 4, Z: 2, PX: 3, PY: 2, PZ: 2},  // X % PX != 0
		{X: 4, Y: 4, Z: 3, PX: 2, PY: 2, PZ: 2},  // Z % PZ != 0
		{X: 4, Y: 4, Z: -1, PX: 2, PY: 2, PZ: 2}, // negative depth
	}
	for i, e := range bad {
		if err := e.Validate(); !errors.Is(err, ErrHeaderInvalid) {
			t.Errorf("case %d: expected ErrHeaderInvalid, got %v", i, err)
		}
	}

	unbounded := Extents{X: 4, Y: 4, Z: 0, PX: 2, PY: 2, PZ: 2, ZUnbounded: true}
	if err := unbounded.Validate(); err != nil {
		t.Errorf("unbounded extents rejected: %v", err)
	}
	if _, _, nz := unbounded.NumParents(); nz != 0 {
		t.Errorf("unbounded extents should report 0 z parents, got %d", nz)
	}
}
