package evo

import "testing"

func TestSeedChoices(t *testing.T) {
	if s := FixedSeed(0); !s.Fixed() || s.Value() != 0 || s.resolve() != 0 {
		t.Fatal("zero must be usable as an explicit seed")
	}
	if s := SeedFromUint64(0); s.Fixed() {
		t.Fatal("SeedFromUint64(0) must select entropy")
	}
	if s := SeedFromUint64(7); !s.Fixed() || s.Value() != 7 {
		t.Fatal("SeedFromUint64(7) must be fixed")
	}
	if EntropySeed().String() != "entropy" || FixedSeed(12).String() != "12" {
		t.Fatal("unexpected seed rendering")
	}
}
