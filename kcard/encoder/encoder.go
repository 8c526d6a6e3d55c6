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

// Package encoder extracts one canonical, optionally spaced k-mer
// from each window of a sequence, i.e., the minimizer of the window.
package encoder

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shenwei356/kcard/kcard/spacer"
	"github.com/shenwei356/kmers"
)

// Sentinel is the initial value of the best k-mer in a window,
// it's worse than any real k-mer for the default comparator.
const Sentinel uint64 = math.MaxUint64

// XorMask is applied to canonical k-mers to break the correlation
// between bits of the k-mer codes and the base composition.
const XorMask uint64 = 0xe37e28c4271b5a2d

// ErrInvalidWindow means a window exceeds the end of the sequence.
var ErrInvalidWindow = errors.New("encoder: invalid window")

// baseCode maps a base to its 2-bit code: A/a -> 0, C/c -> 1, G/g -> 2, T/t -> 3.
// Other bytes, like N, are treated as A.
var baseCode = func() (t [256]uint64) {
	t['C'], t['c'] = 1, 1
	t['G'], t['g'] = 2, 2
	t['T'], t['t'] = 3, 3
	return t
}()

// Encoder slides along a sequence and returns the best canonical k-mer
// of each window, chosen by a Comparator.
//
// An Encoder does not copy the sequence, the caller should keep the
// sequence unchanged before the next Bind().
// An Encoder is not safe for concurrent use, please create one for
// each goroutine. The Spacer and the comparator context can be shared.
//
// A window and its reverse complement give the same k-mer only if the gap
// pattern is a palindrome (see spacer.Spacer.Symmetric). Otherwise the
// other strand samples mirrored offsets, and one k-mer is counted twice
// when both strands are present.
type Encoder struct {
	s   []byte // borrowed
	pos int

	k    int
	w    int
	span int
	gaps []int

	cmp      Comparator
	ctx      interface{}
	sentinel uint64
}

// New creates an Encoder with a spacer, a comparator and its context.
// cmp could be nil for using Minimum.
func New(sp *spacer.Spacer, cmp Comparator, ctx interface{}) *Encoder {
	if cmp == nil {
		cmp = Minimum
	}
	sentinel := Sentinel
	if s, ok := cmp.(SentinelProvider); ok {
		sentinel = s.Sentinel()
	}
	return &Encoder{
		k:    sp.K(),
		w:    sp.W(),
		span: sp.Span(),
		gaps: sp.Gaps(),

		cmp:      cmp,
		ctx:      ctx,
		sentinel: sentinel,
	}
}

// Bind binds a new sequence and resets the position.
func (e *Encoder) Bind(s []byte) {
	e.s = s
	e.pos = 0
}

// HasNext tells whether there's one more full window, i.e., pos + w <= len(s).
func (e *Encoder) HasNext() bool {
	return e.pos+e.w <= len(e.s)
}

// NextKmer returns the k-mer of the current window and moves to the next one.
func (e *Encoder) NextKmer() (uint64, error) {
	code, err := e.Window(e.pos)
	if err != nil {
		return 0, err
	}
	e.pos++
	return code, nil
}

// Window returns the best k-mer among all w-span+1 k-mers in the window
// starting at start (0-based).
//
// Every window is computed from scratch, k-mers shared by neighbouring
// windows are encoded again.
func (e *Encoder) Window(start int) (uint64, error) {
	if start < 0 || start+e.w > len(e.s) {
		return 0, errors.Wrapf(ErrInvalidWindow, "start: %d, window: %d, sequence length: %d",
			start, e.w, len(e.s))
	}

	s := e.s
	best := e.sentinel
	var code uint64
	var j int
	for wpos, end := start, start+e.w-e.span; wpos <= end; wpos++ {
		code = baseCode[s[wpos]]
		j = 0
		for _, g := range e.gaps {
			j += g + 1
			code = code<<2 | baseCode[s[wpos+j]]
		}

		code = kmers.Canonical(code, e.k) ^ XorMask

		if e.cmp.IsBetter(code, best, e.ctx) {
			best = code
		}
	}
	return best, nil
}
