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

package util

import (
	"math/rand"
	"testing"
)

func TestUniqUint64s(t *testing.T) {
	list := []uint64{5, 1, 3, 1, 5, 5, 2, 3}
	UniqUint64s(&list)
	expected := []uint64{1, 2, 3, 5}
	if len(list) != len(expected) {
		t.Errorf("expected %v, got %v", expected, list)
		return
	}
	for i, v := range expected {
		if list[i] != v {
			t.Errorf("expected %v, got %v", expected, list)
			return
		}
	}

	list = []uint64{7}
	UniqUint64s(&list)
	if len(list) != 1 || list[0] != 7 {
		t.Errorf("a single-element list should not change: %v", list)
	}
}

func TestHashers(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for name := range Hashers {
		h, err := HasherByName(name)
		if err != nil {
			t.Error(err)
			continue
		}

		// no collisions for a small set of different keys
		n := 10000
		hashes := make([]uint64, n)
		for i := range hashes {
			hashes[i] = h(uint64(i))
		}
		UniqUint64s(&hashes)
		if len(hashes) != n {
			t.Errorf("%s: %d collisions in %d keys", name, n-len(hashes), n)
		}

		// deterministic
		key := r.Uint64()
		if h(key) != h(key) {
			t.Errorf("%s: not deterministic", name)
		}
	}

	if _, err := HasherByName("md5"); err == nil {
		t.Errorf("error expected for unknown hash function")
	}
}
