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
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/pkg/errors"
	"github.com/shenwei356/kcard/kcard/counter"
	"github.com/shenwei356/kcard/kcard/encoder"
	"github.com/shenwei356/kcard/kcard/spacer"
	"github.com/shenwei356/kcard/kcard/util"
	"github.com/shenwei356/util/pathutil"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// SeedOptions contains the parameters for extracting k-mers.
type SeedOptions struct {
	K          int
	W          int
	Gaps       []int
	Precision  int
	Hash       string
	Comparator string
}

// CheckSeedOptions checks the options and returns the spacer and counting options.
func CheckSeedOptions(sopt *SeedOptions, threads int) (*spacer.Spacer, *counter.Options, error) {
	w := sopt.W
	if w == 0 { // one k-mer per window
		w = sopt.K
		for _, g := range sopt.Gaps {
			w += g
		}
	}

	sp, err := spacer.New(sopt.K, w, sopt.Gaps)
	if err != nil {
		return nil, nil, err
	}

	copt := counter.DefaultOptions()
	copt.Threads = threads
	copt.Precision = sopt.Precision

	copt.Hasher, err = util.HasherByName(sopt.Hash)
	if err != nil {
		return nil, nil, err
	}
	copt.Comparator, err = encoder.ComparatorByName(sopt.Comparator)
	if err != nil {
		return nil, nil, err
	}

	return sp, copt, counter.CheckOptions(copt)
}

func addSeedFlags(cmd *cobra.Command) {
	cmd.Flags().IntP("kmer", "k", 31,
		formatFlagUsage(`Number of sampled bases of a k-mer, needs to be <= 32.`))

	cmd.Flags().IntP("window", "w", 0,
		formatFlagUsage(`Window size for choosing one k-mer, should be >= span of k-mers (0 for the span, i.e., using all k-mers).`))

	cmd.Flags().StringP("gaps", "g", "",
		formatFlagUsage(`Comma-separated k-1 gap lengths between sampled bases of spaced seeds, e.g., "0,1,0,1". Empty for contiguous k-mers.`))

	cmd.Flags().IntP("precision", "p", 22,
		formatFlagUsage(`Precision of HyperLogLog sketches, i.e., 2^p registers, valid range: [4, 28].`))

	cmd.Flags().StringP("hash", "H", "hash64",
		formatFlagUsage(`Hash function for k-mers, available: hash64, wyhash.`))

	cmd.Flags().BoolP("max", "M", false,
		formatFlagUsage(`Choose the biggest k-mer of a window instead of the smallest one.`))
}

func getSeedOptions(cmd *cobra.Command) *SeedOptions {
	gaps, err := spacer.ParseGaps(getFlagString(cmd, "gaps"))
	checkError(err)

	comparator := "min"
	if getFlagBool(cmd, "max") {
		comparator = "max"
	}

	return &SeedOptions{
		K:          getFlagPositiveInt(cmd, "kmer"),
		W:          getFlagNonNegativeInt(cmd, "window"),
		Gaps:       gaps,
		Precision:  getFlagPositiveInt(cmd, "precision"),
		Hash:       getFlagString(cmd, "hash"),
		Comparator: comparator,
	}
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage(`Directory containing FASTA/Q files. Directory symlinks are followed.`))

	cmd.Flags().StringP("file-regexp", "r", `\.(f[aq](st[aq])?|fna)(\.gz|\.xz|\.zst|\.bz2)?$`,
		formatFlagUsage(`Regular expression for matching sequence files in -I/--in-dir, case ignored.`))

	cmd.Flags().StringP("infile-list", "X", "",
		formatFlagUsage(`File of input file list (one file per line). If given, they are appended to files from CLI arguments.`))
}

var reIgnoreCaseStr = "(?i)"
var reIgnoreCase = regexp.MustCompile(`\(\?i\)`)

func getInputFiles(cmd *cobra.Command, args []string, opt *Options) []string {
	inDir := getFlagString(cmd, "in-dir")

	var files []string
	if inDir != "" {
		inDir = expandPath(inDir)
		isDir, err := pathutil.IsDir(inDir)
		if err != nil {
			checkError(errors.Wrapf(err, "checking -I/--in-dir"))
		}
		if !isDir {
			checkError(fmt.Errorf("value of -I/--in-dir should be a directory: %s", inDir))
		}

		reFileStr := getFlagString(cmd, "file-regexp")
		if !reIgnoreCase.MatchString(reFileStr) {
			reFileStr = reIgnoreCaseStr + reFileStr
		}
		reFile, err := regexp.Compile(reFileStr)
		checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", reFileStr))

		files, err = getFileListFromDir(inDir, reFile, opt.NumCPUs)
		if err != nil {
			checkError(errors.Wrapf(err, "walking dir: %s", inDir))
		}
		if len(files) == 0 {
			log.Warningf("  no files matching regular expression: %s", reFileStr)
		}
	} else {
		files = getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if opt.Verbose || opt.Log2File {
			if len(files) == 1 && isStdin(files[0]) {
				log.Info("  no files given, reading from stdin")
			}
		}
	}

	if len(files) < 1 {
		checkError(fmt.Errorf("FASTA/Q files needed"))
	}

	var dups int
	files, dups = uniqFiles(files)
	if dups > 0 {
		log.Warningf("  %d duplicated input file(s) ignored", dups)
	}
	return files
}

// warnAsymmetricSeeds warns about gap patterns which are not palindromic,
// with which k-mers from the two strands are counted separately.
func warnAsymmetricSeeds(sp *spacer.Spacer) {
	if sp.Symmetric() {
		return
	}
	log.Warningf("the gap pattern (%s) is not palindromic, k-mers on the two strands are sampled differently, "+
		"and the estimate would be inflated", spacer.JoinGaps(sp.Gaps()))
}

// newProgressBar returns a callback for updating the progress bar
// and a function for waiting it to finish.
func newProgressBar(total int, opt *Options, title string) (func(string, time.Duration), func()) {
	if !opt.Verbose {
		return nil, func() {}
	}

	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
	bar := pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name(title, decor.WC{W: len(title), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 10),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)

	onDone := func(file string, elapsed time.Duration) {
		if elapsed <= 0 {
			elapsed = time.Microsecond // or the progress bar will get hung
		}
		bar.EwmaIncrBy(1, elapsed)
	}
	wait := func() {
		bar.Abort(false) // no-op if completed
		pbs.Wait()
	}
	return onDone, wait
}

// sketchFileName returns the sketch file name of an input file.
func sketchFileName(file string, i int) string {
	if isStdin(file) {
		return fmt.Sprintf("stdin-%d%s", i, SketchFileExt)
	}
	name, _, _ := filepathTrimExtension(filepath.Base(file), nil)
	return fmt.Sprintf("%s-%d%s", name, i, SketchFileExt)
}
