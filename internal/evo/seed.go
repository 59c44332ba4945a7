package evo

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// Seed selects how the engine's random source is seeded: a fixed value for
// reproducible runs, or system entropy.
type Seed struct {
	value uint64
	fixed bool
}

func FixedSeed(value uint64) Seed {
	return Seed{value: value, fixed: true}
}

func EntropySeed() Seed {
	return Seed{}
}

// SeedFromUint64 maps 0 to EntropySeed and any other value to FixedSeed.
func SeedFromUint64(value uint64) Seed {
	if value == 0 {
		return EntropySeed()
	}
	return FixedSeed(value)
}

func (s Seed) Fixed() bool {
	return s.fixed
}

func (s Seed) Value() uint64 {
	return s.value
}

func (s Seed) String() string {
	if !s.fixed {
		return "entropy"
	}
	return fmt.Sprintf("%d", s.value)
}

func (s Seed) resolve() uint64 {
	if s.fixed {
		return s.value
	}
	var buf [8]byte
	if _, err := crand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("read entropy seed: %v", err))
	}
	return binary.LittleEndian.Uint64(buf[:])
}
