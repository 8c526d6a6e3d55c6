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

package encoder

import "github.com/pkg/errors"

// Comparator decides which k-mer of a window is kept.
// ctx is an opaque value given when creating the Encoder, it might be
// shared by multiple goroutines and should not be modified without
// synchronization.
type Comparator interface {
	// IsBetter reports whether candidate should replace the current best.
	IsBetter(candidate, best uint64, ctx interface{}) bool
}

// SentinelProvider could be implemented by a Comparator whose ordering
// is not "smaller is better", to give the initial value of the best k-mer.
type SentinelProvider interface {
	Sentinel() uint64
}

// ComparatorFunc adapts a function to a Comparator.
type ComparatorFunc func(candidate, best uint64, ctx interface{}) bool

// IsBetter calls f(candidate, best, ctx).
func (f ComparatorFunc) IsBetter(candidate, best uint64, ctx interface{}) bool {
	return f(candidate, best, ctx)
}

type minimum struct{}

func (minimum) IsBetter(candidate, best uint64, _ interface{}) bool { return candidate < best }

func (minimum) Sentinel() uint64 { return Sentinel }

type maximum struct{}

func (maximum) IsBetter(candidate, best uint64, _ interface{}) bool { return candidate > best }

func (maximum) Sentinel() uint64 { return 0 }

// Minimum keeps the smallest k-mer, it's the default one.
var Minimum Comparator = minimum{}

// Maximum keeps the biggest k-mer.
var Maximum Comparator = maximum{}

var _ SentinelProvider = minimum{}
var _ SentinelProvider = maximum{}

// ComparatorByName returns a built-in comparator: "min" or "max".
func ComparatorByName(name string) (Comparator, error) {
	switch name {
	case "min", "":
		return Minimum, nil
	case "max":
		return Maximum, nil
	default:
		return nil, errors.Errorf("encoder: unknown comparator: %s, available: min, max", name)
	}
}
