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
	"encoding/binary"
	"errors"
	"io"

	"github.com/shenwei356/xopen"
)

var be = binary.BigEndian

// Magic number for checking file format
var Magic = [8]byte{'k', 'c', 'a', 'r', 'd', 'h', 'l', 'l'}

// MainVersion is use for checking compatibility
var MainVersion uint8 = 0

// MinorVersion is less important
var MinorVersion uint8 = 1

// ErrInvalidFileFormat means invalid file format.
var ErrInvalidFileFormat = errors.New("hll: invalid binary format")

// ErrBrokenFile means the file is not complete.
var ErrBrokenFile = errors.New("hll: broken file")

// ErrVersionMismatch means version mismatch between files and program
var ErrVersionMismatch = errors.New("hll: version mismatch")

// NewFromFile reads a sketch from a file.
func NewFromFile(file string) (*Sketch, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	return Read(fh)
}

// WriteToFile writes a sketch to a file, optional with file extension of .gz, .xz, .zst, .bz2.
func (s *Sketch) WriteToFile(file string) (int, error) {
	outfh, err := xopen.Wopen(file)
	if err != nil {
		return 0, err
	}
	defer outfh.Close()

	return s.Write(outfh)
}

// Write writes the sketch to a writer.
//
// Header (16 bytes):
//
//	Magic number, 8 bytes, kcardhll
//	Main and minor versions, 2 bytes
//	Precision, 1 byte
//	Blank, 5 bytes
//
// Data: m registers, one byte each.
func (s *Sketch) Write(w io.Writer) (int, error) {
	var N int

	err := binary.Write(w, be, Magic)
	if err != nil {
		return N, err
	}
	N += 8

	err = binary.Write(w, be, [8]uint8{MainVersion, MinorVersion, s.p})
	if err != nil {
		return N, err
	}
	N += 8

	n, err := w.Write(s.regs)
	N += n
	return N, err
}

// Read reads a sketch from a reader.
func Read(r io.Reader) (*Sketch, error) {
	buf := make([]byte, 8)

	n, err := io.ReadFull(r, buf)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrInvalidFileFormat
		}
		return nil, err
	}
	if n < 8 {
		return nil, ErrBrokenFile
	}
	for i := 0; i < 8; i++ {
		if Magic[i] != buf[i] {
			return nil, ErrInvalidFileFormat
		}
	}

	_, err = io.ReadFull(r, buf)
	if err != nil {
		return nil, ErrBrokenFile
	}
	if MainVersion != buf[0] {
		return nil, ErrVersionMismatch
	}

	s, err := New(int(buf[2]))
	if err != nil {
		return nil, ErrInvalidFileFormat
	}

	_, err = io.ReadFull(r, s.regs)
	if err != nil {
		return nil, ErrBrokenFile
	}

	// a register never exceeds 64-p+1
	maxRank := 65 - s.p
	for _, v := range s.regs {
		if v > maxRank {
			return nil, ErrInvalidFileFormat
		}
	}

	// no data should follow the registers
	n, err = r.Read(buf[:1])
	if n > 0 {
		return nil, ErrInvalidFileFormat
	}
	if err != nil && err != io.EOF {
		return nil, err
	}

	return s, nil
}
