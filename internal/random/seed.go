// Package random provides seed generation for the game's deterministic PRNGs.
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
)

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}

	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// SeedFor returns the seed of the n-th game (counting from 0). A non-zero base
// yields base+n so games stay reproducible without repeating each other; a zero
// base yields a fresh seed.
func SeedFor(base, n int64) (int64, error) {
	if base != 0 {
		return base + n, nil
	}

	return NewSeed()
}
