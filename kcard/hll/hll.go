// Copyright © 2023-2026 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package hll implements a HyperLogLog sketch with 8-bit registers,
// used for estimating the number of distinct k-mers.
package hll

import (
	"math"
	"math/bits"

	"github.com/pkg/errors"
)

// DefaultPrecision gives 4M registers.
const DefaultPrecision = 22

// MinPrecision and MaxPrecision are the valid range of the precision.
const (
	MinPrecision = 4
	MaxPrecision = 28
)

// ErrInvalidPrecision means the precision is out of range.
var ErrInvalidPrecision = errors.New("hll: precision out of range [4, 28]")

// ErrIncompatibleSketch occurs when merging sketches with different numbers of registers.
var ErrIncompatibleSketch = errors.New("hll: incompatible sketches")

// Sketch is a HyperLogLog sketch with m = 2^p registers.
// Each register stores 1 + the length of the longest run of leading zeros
// of the hash values routed to it.
//
// A Sketch is not safe for concurrent writes.
type Sketch struct {
	p     uint8
	m     int
	alpha float64
	regs  []uint8
}

// New creates a sketch with the precision p.
func New(p int) (*Sketch, error) {
	if p < MinPrecision || p > MaxPrecision {
		return nil, errors.Wrapf(ErrInvalidPrecision, "%d", p)
	}
	m := 1 << p
	return &Sketch{
		p:     uint8(p),
		m:     m,
		alpha: Alpha(m),
		regs:  make([]uint8, m),
	}, nil
}

// Alpha returns the bias-correction constant for m registers.
func Alpha(m int) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}

// Precision returns the precision p.
func (s *Sketch) Precision() int { return int(s.p) }

// M returns the number of registers.
func (s *Sketch) M() int { return s.m }

// Registers returns the registers, which should not be modified.
func (s *Sketch) Registers() []uint8 { return s.regs }

// Add adds a hash value.
func (s *Sketch) Add(hash uint64) {
	idx := hash >> (64 - s.p)
	rank := uint8(bits.LeadingZeros64(hash<<s.p) + 1)
	if s.regs[idx] < rank {
		s.regs[idx] = rank
	}
}

// Merge merges another sketch into this one by taking the maximum of each register.
func (s *Sketch) Merge(other *Sketch) error {
	if s.m != other.m {
		return errors.Wrapf(ErrIncompatibleSketch, "%d registers != %d registers", s.m, other.m)
	}
	for i, r := range other.regs {
		if s.regs[i] < r {
			s.regs[i] = r
		}
	}
	return nil
}

// Zeros returns the number of empty registers.
func (s *Sketch) Zeros() int {
	var z int
	for _, r := range s.regs {
		if r == 0 {
			z++
		}
	}
	return z
}

// Estimate returns the estimated cardinality.
// It's always computed from the current registers,
// so it's fine to call it between additions.
//
// Linear counting is used for small cardinalities.
// Large cardinalities close to 2^64 are not corrected.
func (s *Sketch) Estimate() float64 {
	var sum float64
	var z int
	for _, r := range s.regs {
		if r == 0 {
			z++
			sum++
			continue
		}
		sum += math.Ldexp(1, -int(r))
	}

	m := float64(s.m)
	est := s.alpha * m * m / sum
	if est < 2.5*m && z > 0 {
		return m * math.Log(m/float64(z))
	}
	return est
}

// RelativeError returns the theoretical relative error, which only depends on m.
func (s *Sketch) RelativeError() float64 {
	return RelativeError(s.m)
}

// AbsoluteError returns the error bound of an estimate, i.e.,
// the relative error multiplied by the estimate.
func (s *Sketch) AbsoluteError(estimate float64) float64 {
	return RelativeError(s.m) * estimate
}

// RelativeError returns the theoretical relative error for m registers.
func RelativeError(m int) float64 {
	return 1.03896 / math.Sqrt(float64(m))
}

// Clone returns a deep copy.
func (s *Sketch) Clone() *Sketch {
	regs := make([]uint8, s.m)
	copy(regs, s.regs)
	return &Sketch{p: s.p, m: s.m, alpha: s.alpha, regs: regs}
}

// Equal tells whether two sketches have the same registers.
func (s *Sketch) Equal(other *Sketch) bool {
	if s.m != other.m {
		return false
	}
	for i, r := range s.regs {
		if other.regs[i] != r {
			return false
		}
	}
	return true
}
