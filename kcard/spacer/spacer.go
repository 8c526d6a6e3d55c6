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

package spacer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidConfig means the seed geometry is not usable.
var ErrInvalidConfig = errors.New("spacer: invalid configuration")

// Spacer describes the geometry of a spaced seed:
// k sampled positions, separated by k-1 gaps, inside a window of w bases.
// It's immutable after creation and safe to share between goroutines.
type Spacer struct {
	k    int
	w    int
	span int   // number of bases covered by one k-mer, i.e., last sampled offset + 1
	gaps []int // k-1 gap lengths between consecutive sampled positions
}

// New creates a Spacer.
// gaps could be nil or empty for contiguous k-mers, or it must have k-1 values.
func New(k, w int, gaps []int) (*Spacer, error) {
	if k < 1 {
		return nil, errors.Wrapf(ErrInvalidConfig, "k should be >= 1, %d given", k)
	}
	if k<<1 > 64 {
		return nil, errors.Wrapf(ErrInvalidConfig, "k-mer of %d bases needs %d bits, more than 64",
			k, k<<1)
	}

	_gaps := make([]int, k-1)
	if len(gaps) > 0 {
		if len(gaps) != k-1 {
			return nil, errors.Wrapf(ErrInvalidConfig, "%d gaps given, %d (k-1) expected",
				len(gaps), k-1)
		}
		copy(_gaps, gaps)
	}

	span := k
	for i, g := range _gaps {
		if g < 0 {
			return nil, errors.Wrapf(ErrInvalidConfig, "negative gap (%d) at position %d", g, i)
		}
		span += g
	}

	if w < span {
		return nil, errors.Wrapf(ErrInvalidConfig, "window size (%d) should be >= span (%d)", w, span)
	}

	return &Spacer{k: k, w: w, span: span, gaps: _gaps}, nil
}

// K returns the number of sampled bases.
func (sp *Spacer) K() int { return sp.k }

// W returns the window size.
func (sp *Spacer) W() int { return sp.w }

// Span returns the number of bases covered by a k-mer.
func (sp *Spacer) Span() int { return sp.span }

// Gaps returns a copy of the gap pattern.
func (sp *Spacer) Gaps() []int {
	gaps := make([]int, len(sp.gaps))
	copy(gaps, sp.gaps)
	return gaps
}

// Offsets returns the 0-based offsets of the sampled bases relative to
// the start of a k-mer.
func (sp *Spacer) Offsets() []int {
	offsets := make([]int, sp.k)
	var j int
	for i, g := range sp.gaps {
		j += g + 1
		offsets[i+1] = j
	}
	return offsets
}

// Contiguous tells whether there's no gap.
func (sp *Spacer) Contiguous() bool {
	return sp.span == sp.k
}

// Symmetric tells whether the gap pattern is a palindrome, e.g., 1,0,0,1.
// Only with a symmetric pattern, the reverse complement of a sampled k-mer
// equals the k-mer sampled at the mirrored position of the other strand.
func (sp *Spacer) Symmetric() bool {
	if sp.Contiguous() {
		return true
	}
	n := len(sp.gaps)
	for i := 0; i < n>>1; i++ {
		if sp.gaps[i] != sp.gaps[n-1-i] {
			return false
		}
	}
	return true
}

func (sp *Spacer) String() string {
	return fmt.Sprintf("k=%d, w=%d, span=%d, gaps=[%s]", sp.k, sp.w, sp.span, JoinGaps(sp.gaps))
}

// ParseGaps parses a comma-separated list of gap lengths, e.g., "0,1,0,1".
// An empty string returns nil, i.e., contiguous k-mers.
func ParseGaps(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	items := strings.Split(s, ",")
	gaps := make([]int, len(items))
	var err error
	for i, item := range items {
		gaps[i], err = strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidConfig, "invalid gap value: %q", item)
		}
	}
	return gaps, nil
}

// JoinGaps formats gaps as a comma-separated string, the reverse of ParseGaps.
func JoinGaps(gaps []int) string {
	items := make([]string, len(gaps))
	for i, g := range gaps {
		items[i] = strconv.Itoa(g)
	}
	return strings.Join(items, ",")
}
