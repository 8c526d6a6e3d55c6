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

// Package counter estimates the number of distinct k-mers in multiple
// sequence files, with one HyperLogLog sketch for each file, computed
// concurrently and merged at last.
package counter

import (
	"fmt"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/kcard/kcard/encoder"
	"github.com/shenwei356/kcard/kcard/hll"
	"github.com/shenwei356/kcard/kcard/util"
)

// ErrNoFiles means no input files are given.
var ErrNoFiles = errors.New("counter: no input files")

// TaskError is returned when processing a file fails.
// All other tasks which are not started yet are abandoned.
type TaskError struct {
	File string
	Err  error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("counter: %s: %s", e.File, e.Err)
}

func (e *TaskError) Unwrap() error { return e.Err }

// Options contains the options for counting.
type Options struct {
	Threads   int // the maximum number of files processed at the same time
	Precision int // precision of HyperLogLog sketches

	Comparator encoder.Comparator // choosing the k-mer of a window
	Context    interface{}        // shared by all goroutines, read only
	Hasher     util.Hasher        // hashing k-mers before adding them to sketches

	// OnSketch is called with the sketch of each file right after the file
	// is processed, in the order of completion. A non-nil error stops the
	// whole batch.
	OnSketch func(file string, sketch *hll.Sketch) error

	// OnDone is called after each file is processed, even if it failed.
	// It's designed for updating a progress bar.
	OnDone func(file string, elapsed time.Duration)
}

// DefaultOptions returns the default options.
func DefaultOptions() *Options {
	return &Options{
		Threads:    runtime.NumCPU(),
		Precision:  hll.DefaultPrecision,
		Comparator: encoder.Minimum,
		Hasher:     util.Hash64,
	}
}

// CheckOptions checks the options.
func CheckOptions(opt *Options) error {
	if opt.Threads < 1 {
		return errors.Errorf("counter: invalid threads: %d, should be >= 1", opt.Threads)
	}
	if opt.Precision < hll.MinPrecision || opt.Precision > hll.MaxPrecision {
		return errors.Wrapf(hll.ErrInvalidPrecision, "counter: %d", opt.Precision)
	}
	if opt.Comparator == nil {
		return errors.New("counter: comparator not given")
	}
	if opt.Hasher == nil {
		return errors.New("counter: hash function not given")
	}
	return nil
}

// Result is the result of a batch.
type Result struct {
	Files         int         // the number of files
	Estimate      uint64      // estimated number of distinct k-mers
	RelativeError float64     // theoretical relative error of the sketch
	AbsoluteError float64     // RelativeError * the unrounded estimate
	Sketch        *hll.Sketch // the merged sketch
}

func newResult(files int, sketch *hll.Sketch) *Result {
	est := sketch.Estimate()
	return &Result{
		Files:         files,
		Estimate:      uint64(est + 0.5),
		RelativeError: sketch.RelativeError(),
		AbsoluteError: sketch.AbsoluteError(est),
		Sketch:        sketch,
	}
}

type taskResult struct {
	file    string
	sketch  *hll.Sketch
	err     error
	elapsed time.Duration
}

// run processes all files with at most threads goroutines, each handling
// one file. A new file is started as soon as a running one finishes.
// Sketches are only touched by the calling goroutine after being received,
// and merged into the returned one.
//
// If any task fails, no more files are started, running tasks are waited for,
// and the first error is returned.
func run(files []string, threads int,
	task func(file string) (*hll.Sketch, error),
	onSketch func(file string, sketch *hll.Sketch) error,
	onDone func(file string, elapsed time.Duration),
) (*hll.Sketch, error) {

	n := len(files)
	if n == 0 {
		return nil, ErrNoFiles
	}
	if threads > n {
		threads = n
	}

	ch := make(chan *taskResult, threads)
	submit := func(file string) {
		go func() {
			startTime := time.Now()
			sketch, err := task(file)
			ch <- &taskResult{file: file, sketch: sketch, err: err, elapsed: time.Since(startTime)}
		}()
	}

	var submitted, completed int
	for ; submitted < threads; submitted++ {
		submit(files[submitted])
	}

	var acc *hll.Sketch
	var firstErr error
	var err error
	for completed < submitted {
		r := <-ch
		completed++

		if onDone != nil {
			onDone(r.file, r.elapsed)
		}

		if firstErr != nil { // just drain the running ones
			continue
		}

		if r.err != nil {
			firstErr = &TaskError{File: r.file, Err: r.err}
			continue
		}

		if onSketch != nil {
			if err = onSketch(r.file, r.sketch); err != nil {
				firstErr = &TaskError{File: r.file, Err: err}
				continue
			}
		}

		if acc == nil {
			acc, err = hll.New(r.sketch.Precision())
			if err != nil {
				firstErr = &TaskError{File: r.file, Err: err}
				continue
			}
		}
		if err = acc.Merge(r.sketch); err != nil {
			firstErr = &TaskError{File: r.file, Err: err}
			continue
		}

		if submitted < n {
			submit(files[submitted])
			submitted++
		}
	}

	if firstErr != nil {
		return nil, firstErr
	}
	return acc, nil
}
