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

package counter

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/kcard/kcard/encoder"
	"github.com/shenwei356/kcard/kcard/hll"
	"github.com/shenwei356/kcard/kcard/spacer"
)

// CountFile adds k-mers of all sequences in a FASTA/Q file
// (plain or compressed) into a new sketch.
func CountFile(file string, sp *spacer.Spacer, opt *Options) (*hll.Sketch, error) {
	sketch, err := hll.New(opt.Precision)
	if err != nil {
		return nil, err
	}

	fastxReader, err := fastx.NewReader(nil, file, "")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read seq file")
	}
	defer fastxReader.Close()

	enc := encoder.New(sp, opt.Comparator, opt.Context)
	hash := opt.Hasher

	var record *fastx.Record
	var code uint64
	var i int
	for {
		record, err = fastxReader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "read seq %d", i)
		}
		i++

		enc.Bind(record.Seq.Seq)
		for enc.HasNext() {
			code, err = enc.NextKmer()
			if err != nil {
				return nil, errors.Wrapf(err, "seq %s", record.ID)
			}
			sketch.Add(hash(code))
		}
	}

	return sketch, nil
}

// EstimateCardinality estimates the number of distinct k-mers in all files.
// Files are processed concurrently, one goroutine for each file,
// and the result does not depend on the number of threads.
func EstimateCardinality(files []string, sp *spacer.Spacer, opt *Options) (*Result, error) {
	if err := CheckOptions(opt); err != nil {
		return nil, err
	}

	sketch, err := run(files, opt.Threads,
		func(file string) (*hll.Sketch, error) {
			return CountFile(file, sp, opt)
		},
		opt.OnSketch, opt.OnDone)
	if err != nil {
		return nil, err
	}

	return newResult(len(files), sketch), nil
}

// MergeSketchFiles reads sketches from files concurrently and merges them.
// All sketches must have the same precision.
func MergeSketchFiles(files []string, threads int,
	onDone func(file string, elapsed time.Duration)) (*Result, error) {
	if threads < 1 {
		threads = 1
	}

	sketch, err := run(files, threads, hll.NewFromFile, nil, onDone)
	if err != nil {
		return nil, err
	}

	return newResult(len(files), sketch), nil
}
