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
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	// 80 bits
	_, err := New(40, 40, nil)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("k=40 should fail with ErrInvalidConfig, got: %v", err)
	}

	// 60 bits
	sp, err := New(30, 30, nil)
	if err != nil {
		t.Errorf("k=30 should be ok: %s", err)
		return
	}
	if sp.Span() != 30 || !sp.Contiguous() {
		t.Errorf("unexpected span: %d", sp.Span())
	}

	sp, err = New(32, 32, nil)
	if err != nil {
		t.Errorf("k=32 should be ok: %s", err)
	}

	cases := []struct {
		k, w int
		gaps []int
	}{
		{0, 10, nil},             // k < 1
		{5, 4, nil},              // w < span
		{4, 10, []int{1, 1}},     // wrong number of gaps
		{4, 10, []int{1, -1, 0}}, // negative gap
		{4, 6, []int{1, 1, 1}},   // span 7 > w
	}
	for _, c := range cases {
		_, err = New(c.k, c.w, c.gaps)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("k=%d, w=%d, gaps=%v: ErrInvalidConfig expected, got: %v", c.k, c.w, c.gaps, err)
		}
	}
}

func TestSpacedSeed(t *testing.T) {
	gaps := []int{0, 2, 1}
	sp, err := New(4, 10, gaps)
	if err != nil {
		t.Error(err)
		return
	}
	t.Logf("%s", sp)

	if sp.Span() != 7 {
		t.Errorf("span: expected 7, got %d", sp.Span())
	}

	offsets := sp.Offsets()
	expected := []int{0, 1, 4, 6}
	for i, o := range expected {
		if offsets[i] != o {
			t.Errorf("offsets: expected %v, got %v", expected, offsets)
			break
		}
	}

	// the internal gaps are not affected by the caller
	gaps[0] = 100
	if sp.Span() != 7 || sp.Gaps()[0] != 0 {
		t.Errorf("spacer should not be changed via the given slice")
	}
}

func TestParseGaps(t *testing.T) {
	gaps, err := ParseGaps(" 0, 1,2 ")
	if err != nil {
		t.Error(err)
		return
	}
	if JoinGaps(gaps) != "0,1,2" {
		t.Errorf("unexpected gaps: %v", gaps)
	}

	gaps, err = ParseGaps("")
	if err != nil || gaps != nil {
		t.Errorf("empty string should give nil gaps")
	}

	_, err = ParseGaps("1,a")
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ErrInvalidConfig expected, got: %v", err)
	}
}

func TestSymmetric(t *testing.T) {
	cases := []struct {
		k    int
		gaps []int
		sym  bool
	}{
		{21, nil, true},
		{5, []int{1, 0, 0, 1}, true},
		{4, []int{2, 0, 2}, true},
		{3, []int{1, 0}, false},
		{5, []int{0, 1, 0, 2}, false},
	}
	for _, c := range cases {
		sp, err := New(c.k, 40, c.gaps)
		if err != nil {
			t.Fatal(err)
		}
		if sp.Symmetric() != c.sym {
			t.Errorf("%s: symmetric expected %v", sp, c.sym)
		}
	}
}
