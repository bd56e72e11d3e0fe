// Package qcache implements the Monte Carlo calibration of the SMRE
// threshold q and its on-disk, content-addressed cache, grounded on
// original_source/src/monte_carlo.h and original_source/src/image_variance.h.
package qcache

import (
	"crypto/sha256"
	"encoding/binary"
	"math"

	"github.com/cwbudde/algo-smre/array"
)

// ResolventTag identifies which resolvent family a Key was calibrated for.
// Only the family matters for the cache key encoding, not any resolvent
// implementation detail.
type ResolventTag uint8

const (
	// ResolventL2 tags the l2 resolvent.
	ResolventL2 ResolventTag = 0
	// ResolventH1 tags the H1 resolvent.
	ResolventH1 ResolventTag = 1
)

// Key identifies one Monte Carlo calibration run. Two Keys with identical
// field values must encode to identical bytes and hash to the same content
// hash, regardless of process or platform.
type Key struct {
	Shape           array.Shape
	KernelSizes     []int
	Resolvent       ResolventTag
	Delta           float32 // resolvent parameter; 0 for ResolventL2
	MonteCarloSteps int
	PenalizedScan   bool
}

// Hash is the 256-bit content hash of Key's canonical encoding, used as the
// cache's lookup key and on-disk filename.
type Hash [sha256.Size]byte

// encode produces a canonical little-endian encoding of the key fields that
// determine a calibration's result: image H and W (u32), kernel count
// (u32), each h_i (u32), resolvent tag (u8) plus resolvent parameter (f32),
// M (u32), and the penalized_scan flag (u8).
func (k Key) encode() []byte {
	buf := make([]byte, 0, 4+4+4+4*len(k.KernelSizes)+1+4+4+1)

	var tmp [4]byte
	putU32 := func(v uint32) {
		binary.LittleEndian.PutUint32(tmp[:], v)
		buf = append(buf, tmp[:]...)
	}

	putU32(uint32(k.Shape.H))
	putU32(uint32(k.Shape.W))
	putU32(uint32(len(k.KernelSizes)))
	for _, h := range k.KernelSizes {
		putU32(uint32(h))
	}
	buf = append(buf, byte(k.Resolvent))
	putU32(math.Float32bits(k.Delta))
	putU32(uint32(k.MonteCarloSteps))
	if k.PenalizedScan {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}

	return buf
}

// Hash computes the content hash of k's canonical encoding.
func (k Key) Hash() Hash {
	return sha256.Sum256(k.encode())
}
