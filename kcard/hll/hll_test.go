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

package hll

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func randSketch(t *testing.T, p int, n int, seed int64) *Sketch {
	s, err := New(p)
	if err != nil {
		t.Fatal(err)
	}
	r := rand.New(rand.NewSource(seed))
	for i := 0; i < n; i++ {
		s.Add(r.Uint64())
	}
	return s
}

func TestPrecision(t *testing.T) {
	for _, p := range []int{0, 3, 29, 64} {
		if _, err := New(p); !errors.Is(err, ErrInvalidPrecision) {
			t.Errorf("p=%d: ErrInvalidPrecision expected, got: %v", p, err)
		}
	}

	s, err := New(DefaultPrecision)
	if err != nil {
		t.Error(err)
		return
	}
	if s.M() != 1<<22 {
		t.Errorf("unexpected number of registers: %d", s.M())
	}
	if s.Estimate() != 0 {
		t.Errorf("an empty sketch should give 0, got %f", s.Estimate())
	}
}

func TestAlpha(t *testing.T) {
	cases := map[int]float64{16: 0.673, 32: 0.697, 64: 0.709, 1024: 0.7213 / (1 + 1.079/1024)}
	for m, a := range cases {
		if Alpha(m) != a {
			t.Errorf("alpha(%d): expected %f, got %f", m, a, Alpha(m))
		}
	}
}

func TestAdd(t *testing.T) {
	s, _ := New(4)

	// index: top 4 bits 0b0001, the remaining starts with 3 zeros
	s.Add(0b0001_0001 << 56)
	if s.regs[1] != 4 {
		t.Errorf("register 1: expected 4, got %d", s.regs[1])
	}

	// all zeros after the index bits
	s.Add(0b1111 << 60)
	if s.regs[15] != 65 {
		t.Errorf("register 15: expected 65, got %d", s.regs[15])
	}

	// a smaller rank does not decrease the register
	s.Add(0b0001_1000 << 56)
	if s.regs[1] != 4 {
		t.Errorf("register 1 should not decrease, got %d", s.regs[1])
	}
}

func TestMonotoneAdd(t *testing.T) {
	s, _ := New(8)
	prev := make([]uint8, s.M())
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 10000; i++ {
		copy(prev, s.Registers())
		s.Add(r.Uint64())
		for j, v := range s.Registers() {
			if v < prev[j] {
				t.Errorf("register %d decreased from %d to %d", j, prev[j], v)
				return
			}
		}
	}
}

func TestMergeIdempotent(t *testing.T) {
	a := randSketch(t, 10, 5000, 1)
	b := a.Clone()
	est := a.Estimate()

	if err := a.Merge(b); err != nil {
		t.Error(err)
		return
	}
	if !a.Equal(b) {
		t.Errorf("merge(A, A) changed the registers")
	}
	if a.Estimate() != est {
		t.Errorf("merge(A, A) changed the estimate: %f -> %f", est, a.Estimate())
	}

	if err := a.Merge(a); err != nil || !a.Equal(b) {
		t.Errorf("merging itself changed the registers")
	}
}

func TestMergeCommutativeAssociative(t *testing.T) {
	a := randSketch(t, 10, 3000, 1)
	b := randSketch(t, 10, 5000, 2)
	c := randSketch(t, 10, 800, 3)

	// (A + B) + C
	ab := a.Clone()
	ab.Merge(b)
	abc1 := ab.Clone()
	abc1.Merge(c)

	// A + (B + C)
	bc := b.Clone()
	bc.Merge(c)
	abc2 := a.Clone()
	abc2.Merge(bc)

	if !abc1.Equal(abc2) {
		t.Errorf("merge is not associative")
	}

	// (C + A) + B
	abc3 := c.Clone()
	abc3.Merge(a)
	abc3.Merge(b)
	if !abc1.Equal(abc3) {
		t.Errorf("merge is not commutative")
	}
	if abc1.Estimate() != abc3.Estimate() {
		t.Errorf("estimates differ: %f vs %f", abc1.Estimate(), abc3.Estimate())
	}
}

func TestMergeIncompatible(t *testing.T) {
	a, _ := New(10)
	b, _ := New(12)
	if err := a.Merge(b); !errors.Is(err, ErrIncompatibleSketch) {
		t.Errorf("ErrIncompatibleSketch expected, got: %v", err)
	}
}

func TestSmallRange(t *testing.T) {
	s, _ := New(10)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		s.Add(r.Uint64())
	}

	z := s.Zeros()
	if z < 1024-10 {
		t.Errorf("too few empty registers: %d", z)
	}
	m := float64(s.M())
	expected := m * math.Log(m/float64(z))
	if s.Estimate() != expected {
		t.Errorf("linear counting expected: %f, got %f", expected, s.Estimate())
	}
	t.Logf("10 values, estimate: %.2f", s.Estimate())
}

func TestLargeSampleAccuracy(t *testing.T) {
	n := 100000
	trials := 10
	p := 14

	tolerance := 3 * RelativeError(1<<p)
	estimates := make([]float64, trials)
	var good int
	for i := 0; i < trials; i++ {
		s, _ := New(p)
		r := rand.New(rand.NewSource(int64(i + 1)))
		seen := make(map[uint64]struct{}, n)
		var v uint64
		for len(seen) < n {
			v = r.Uint64()
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			s.Add(v)
		}

		estimates[i] = s.Estimate()
		if math.Abs(estimates[i]/float64(n)-1) <= tolerance {
			good++
		}
	}

	mean, std := stat.MeanStdDev(estimates, nil)
	t.Logf("estimates of %d values in %d trials: mean: %.1f, stdev: %.1f, within error bound: %d",
		n, trials, mean, std, good)

	if good < trials-1 {
		t.Errorf("only %d of %d trials are within the error bound", good, trials)
	}
	if math.Abs(mean/float64(n)-1) > tolerance {
		t.Errorf("mean estimate %.1f is out of the error bound", mean)
	}
}

func TestRelativeError(t *testing.T) {
	s, _ := New(14)
	if s.RelativeError() != 1.03896/128 {
		t.Errorf("unexpected relative error: %f", s.RelativeError())
	}
	if e := s.AbsoluteError(12800); math.Abs(e-103.896) > 1e-9 {
		t.Errorf("unexpected absolute error: %f", e)
	}
	if s.AbsoluteError(0) != 0 {
		t.Errorf("absolute error of an empty estimate should be 0")
	}
}

func TestSerialization(t *testing.T) {
	s := randSketch(t, 12, 20000, 5)

	buf := &bytes.Buffer{}
	n, err := s.Write(buf)
	if err != nil {
		t.Error(err)
		return
	}
	if n != 16+s.M() {
		t.Errorf("unexpected number of bytes: %d", n)
	}

	s2, err := Read(buf)
	if err != nil {
		t.Error(err)
		return
	}
	if !s.Equal(s2) || s2.Precision() != 12 {
		t.Errorf("registers differ after reading")
	}

	dir := t.TempDir()
	for _, file := range []string{"t.hll", "t.hll.gz"} {
		file = filepath.Join(dir, file)
		_, err = s.WriteToFile(file)
		if err != nil {
			t.Error(err)
			return
		}
		s3, err := NewFromFile(file)
		if err != nil {
			t.Error(err)
			return
		}
		if !s.Equal(s3) {
			t.Errorf("registers differ after reading %s", file)
		}
	}
}

func TestSerializationBroken(t *testing.T) {
	s := randSketch(t, 8, 100, 5)
	buf := &bytes.Buffer{}
	s.Write(buf)
	data := buf.Bytes()

	if _, err := Read(bytes.NewReader(data[:100])); !errors.Is(err, ErrBrokenFile) {
		t.Errorf("ErrBrokenFile expected, got: %v", err)
	}

	bad := append([]byte{}, data...)
	bad[0] = 'x'
	if _, err := Read(bytes.NewReader(bad)); !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("ErrInvalidFileFormat expected, got: %v", err)
	}

	bad = append([]byte{}, data...)
	bad[8] = MainVersion + 1
	if _, err := Read(bytes.NewReader(bad)); !errors.Is(err, ErrVersionMismatch) {
		t.Errorf("ErrVersionMismatch expected, got: %v", err)
	}

	// trailing data
	bad = append(append([]byte{}, data...), 0)
	if _, err := Read(bytes.NewReader(bad)); !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("ErrInvalidFileFormat expected for trailing data, got: %v", err)
	}

	// registers of p=8 hold at most 57
	bad = append([]byte{}, data...)
	bad[16] = 58
	if _, err := Read(bytes.NewReader(bad)); !errors.Is(err, ErrInvalidFileFormat) {
		t.Errorf("ErrInvalidFileFormat expected for register value 58, got: %v", err)
	}
	bad[16] = 57
	if _, err := Read(bytes.NewReader(bad)); err != nil {
		t.Errorf("register value 57 should be accepted: %v", err)
	}
}
