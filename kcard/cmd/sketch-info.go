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

package cmd

import (
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/kcard/kcard/spacer"
)

// FileInfo is the name of the information file in a sketch directory.
const FileInfo = "info.toml"

// SketchFileExt is the file extension of sketch files.
const SketchFileExt = ".hll"

// MainVersion is used for checking compatibility of sketch directories.
var MainVersion uint8 = 0

// MinorVersion is less important
var MinorVersion uint8 = 1

// SketchInfo describes the parameters and files of a sketch directory.
type SketchInfo struct {
	MainVersion  uint8 `toml:"main-version" comment:"Sketch format version"`
	MinorVersion uint8 `toml:"minor-version"`

	K          int    `toml:"k" comment:"K-mer parameters"`
	W          int    `toml:"w"`
	Gaps       []int  `toml:"gaps"`
	Span       int    `toml:"span"`
	Precision  int    `toml:"precision" comment:"HyperLogLog sketch"`
	Hash       string `toml:"hash"`
	Comparator string `toml:"comparator"`

	Estimate      uint64  `toml:"estimate" comment:"Estimate of all files"`
	RelativeError float64 `toml:"relative-error"`

	Files []SketchFile `toml:"files"`
}

// SketchFile maps an input file to its sketch file.
type SketchFile struct {
	Input  string `toml:"input"`
	Sketch string `toml:"sketch"` // relative to the sketch directory
}

// Spacer recreates the spacer of the sketches.
func (info *SketchInfo) Spacer() (*spacer.Spacer, error) {
	return spacer.New(info.K, info.W, info.Gaps)
}

func writeSketchInfo(file string, info *SketchInfo) error {
	fh, err := os.Create(file)
	if err != nil {
		return errors.Wrap(err, file)
	}

	data, err := toml.Marshal(info)
	if err != nil {
		fh.Close()
		return errors.Wrap(err, "marshal sketch info")
	}
	_, err = fh.Write(data)
	if err != nil {
		fh.Close()
		return errors.Wrap(err, file)
	}
	return fh.Close()
}

func readSketchInfo(file string) (*SketchInfo, error) {
	fh, err := os.Open(file)
	if err != nil {
		return nil, errors.Wrap(err, file)
	}
	defer fh.Close()

	info := &SketchInfo{}
	err = toml.NewDecoder(fh).Decode(info)
	if err != nil {
		return nil, errors.Wrapf(err, "parse sketch info file: %s", file)
	}
	if info.MainVersion != MainVersion {
		return nil, errors.Errorf("sketch main versions do not match: %d (sketches) != %d (tool)",
			info.MainVersion, MainVersion)
	}
	for i, f := range info.Files {
		if f.Input == "" || f.Sketch == "" {
			return nil, errors.Errorf("parse sketch info file: %s: empty entry of file #%d", file, i+1)
		}
	}
	return info, nil
}
